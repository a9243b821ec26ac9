package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voter-segmentation/internal/repository"
	"github.com/voter-segmentation/pkg/config"
	"github.com/voter-segmentation/pkg/utils"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "voter-segmentation",
	Short: "Voter segmentation service",
	Long: `voter-segmentation partitions a constituency's voters into compact,
contiguous segments of roughly 90-135 voters each, keeping families
together and anchoring every segment under its polling booth.

The same binary runs all three roles:
  serve    HTTP API for enqueueing jobs and reading results
  worker   job runner that leases queued jobs and executes runs
  segment  one-shot segmentation run for a single node`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The version command must work without a config file.
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			level = utils.LevelDebug
		}
		if cfg.Log.OutputPath != "" {
			logger, err = utils.NewFileLogger(level, cfg.Log.OutputPath)
			if err != nil {
				return err
			}
		} else {
			logger = utils.NewDefaultLogger(level, os.Stdout)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./config.yaml, env VOTERSEG_*)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	binName := BinName()
	rootCmd.Example = `  # Start the HTTP API
  ` + binName + ` serve -c config.yaml

  # Start the job runner
  ` + binName + ` worker -c config.yaml

  # Segment one node immediately, without the queue
  ` + binName + ` segment --election el-2026 --node booth-017`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// openStore connects to PostGIS using the loaded configuration.
func openStore() (*repository.Store, error) {
	db, err := repository.NewGormDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return repository.NewStore(db), nil
}
