package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voter-segmentation/internal/engine"
	"github.com/voter-segmentation/internal/export"
	"github.com/voter-segmentation/internal/storage"
	"github.com/voter-segmentation/internal/worker"
	"github.com/voter-segmentation/pkg/compression"
	"github.com/voter-segmentation/pkg/telemetry"
)

var workerNoExport bool

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the segmentation job runner",
	Long: `Start the job runner that leases queued segmentation jobs and
executes them.

Jobs are leased with FOR UPDATE SKIP LOCKED, so any number of worker
processes can share one queue without coordination. Each completed run
is exported as a GeoJSON artifact to the configured object storage
unless --no-export is given.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	binName := BinName()
	workerCmd.Example = `  # Run with the worker count from the config file
  ` + binName + ` worker -c config.yaml

  # Run without publishing GeoJSON artifacts
  ` + binName + ` worker -c config.yaml --no-export`

	workerCmd.Flags().BoolVar(&workerNoExport, "no-export", false, "Disable GeoJSON artifact export after runs")
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	eng := engine.New(store, cfg.Segmentation.Strategy, log)
	runner := worker.NewRunner(store, eng, &cfg.Worker, log)

	if !workerNoExport {
		objects, err := storage.New(&cfg.Storage)
		if err != nil {
			return err
		}
		codec, err := compression.New(cfg.Storage.Compression)
		if err != nil {
			return err
		}
		exporter := export.NewExporter(store.Segments, objects, log)
		exporter.SetCodec(codec)
		runner.SetExporter(exporter)
	}

	runner.Start(ctx)
	<-ctx.Done()
	log.Info("shutdown signal received")
	runner.Stop()
	return nil
}
