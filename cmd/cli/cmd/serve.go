package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voter-segmentation/internal/server"
	"github.com/voter-segmentation/pkg/telemetry"
)

var servePort int

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the segmentation HTTP API",
	Long: `Start the HTTP API for enqueueing segmentation jobs and reading
their results.

The API exposes:
  POST /api/jobs                  enqueue a segmentation job
  GET  /api/jobs/:id              job status, version and run summary
  GET  /api/nodes/:id/segments    segments of a node
  GET  /api/exceptions            exceptions raised by a job

Jobs enqueued here are picked up by worker processes; run the worker
command alongside this one (or on other machines sharing the same
database).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Start with the port from the config file
  ` + binName + ` serve -c config.yaml

  # Override the listen port
  ` + binName + ` serve -c config.yaml -p 9090`

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		log.Warn("telemetry disabled: %v", err)
	} else {
		defer shutdown(context.Background())
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	serverCfg := cfg.Server
	if servePort > 0 {
		serverCfg.Port = servePort
	}

	return server.New(store, &serverCfg, log).Run(ctx)
}
