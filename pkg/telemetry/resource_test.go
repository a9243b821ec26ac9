package telemetry

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostIP(t *testing.T) {
	ip := hostIP()
	if ip == "" {
		t.Skip("no host IP in this environment")
	}

	parsed := net.ParseIP(ip)
	assert.NotNil(t, parsed, "hostIP returned %q", ip)
	assert.False(t, parsed.IsLoopback())
}

func TestInterfaceIP(t *testing.T) {
	ip := interfaceIP()
	if ip == "" {
		t.Skip("no non-loopback interface in this environment")
	}

	parsed := net.ParseIP(ip)
	assert.NotNil(t, parsed, "interfaceIP returned %q", ip)
	assert.False(t, parsed.IsLoopback())
}
