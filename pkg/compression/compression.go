// Package compression provides the codecs used for run artifacts in
// object storage. GeoJSON compresses well; a constituency-sized
// FeatureCollection typically shrinks by 80-90%.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Codec names accepted in storage configuration.
const (
	CodecNone = "none"
	CodecGzip = "gzip"
	CodecZstd = "zstd"
)

// Codec compresses and decompresses artifact payloads.
type Codec interface {
	// Compress compresses the payload.
	Compress(data []byte) ([]byte, error)
	// Decompress decompresses the payload.
	Decompress(data []byte) ([]byte, error)
	// Name returns the codec's configuration name.
	Name() string
	// Ext returns the suffix appended to storage keys, "" for none.
	Ext() string
}

// New creates a codec by configuration name.
func New(name string) (Codec, error) {
	switch name {
	case CodecNone, "":
		return &NoneCodec{}, nil
	case CodecGzip:
		return &GzipCodec{}, nil
	case CodecZstd:
		return NewZstdCodec()
	default:
		return nil, fmt.Errorf("unknown compression codec: %s", name)
	}
}

// Valid reports whether name is an accepted codec name.
func Valid(name string) bool {
	switch name {
	case CodecNone, CodecGzip, CodecZstd, "":
		return true
	}
	return false
}

// NoneCodec passes payloads through unchanged.
type NoneCodec struct{}

func (c *NoneCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (c *NoneCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
func (c *NoneCodec) Name() string                           { return CodecNone }
func (c *NoneCodec) Ext() string                            { return "" }

// GzipCodec compresses with gzip. Slower than zstd but every tool can
// read the output.
type GzipCodec struct{}

func (c *GzipCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *GzipCodec) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip read failed: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (c *GzipCodec) Name() string { return CodecGzip }
func (c *GzipCodec) Ext() string  { return ".gz" }

// ZstdCodec compresses with zstd. The encoder and decoder are reusable
// and safe for concurrent use.
type ZstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCodec creates a ZstdCodec at the default level.
func NewZstdCodec() (*ZstdCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder init failed: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("zstd decoder init failed: %w", err)
	}
	return &ZstdCodec{encoder: encoder, decoder: decoder}, nil
}

func (c *ZstdCodec) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c *ZstdCodec) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

func (c *ZstdCodec) Name() string { return CodecZstd }
func (c *ZstdCodec) Ext() string  { return ".zst" }

// Close releases the encoder and decoder.
func (c *ZstdCodec) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// Detect recognizes a stored artifact's codec from its magic bytes.
// Used when reading back artifacts whose key extension was lost.
func Detect(data []byte) string {
	if len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd {
		return CodecZstd
	}
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return CodecGzip
	}
	return CodecNone
}

// Decompress decodes data with the codec Detect recognizes.
func Decompress(data []byte) ([]byte, error) {
	codec, err := New(Detect(data))
	if err != nil {
		return nil, err
	}
	if z, ok := codec.(*ZstdCodec); ok {
		defer z.Close()
	}
	return codec.Decompress(data)
}
