package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmpark/foyer/internal/config"
	"github.com/jmpark/foyer/internal/logger"
	"github.com/jmpark/foyer/internal/motion"
	"github.com/jmpark/foyer/internal/storage"
)

var opts struct {
	configPath string
	manifest   string
	inputDir   string
	outputDir  string
}

var rootCmd = &cobra.Command{
	Use:   "motionconv",
	Short: "Convert mocap joint trajectories into rigged animation clips",
	Long: `motionconv walks a CSV manifest of motion-capture tasks, cleans each
joint trajectory (orientation fix, idle trim, smoothing, loop closure), and
drives a headless Blender export. Failed items are skipped; the output
manifest lists only successful conversions, renumbered from 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file")
	rootCmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "Path to input CSV manifest")
	rootCmd.Flags().StringVarP(&opts.inputDir, "input", "i", "", "Directory holding <original_id>.npy trajectories")
	rootCmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Directory for exported clips and the output manifest")
	rootCmd.MarkFlagRequired("manifest")
	rootCmd.MarkFlagRequired("input")
	rootCmd.MarkFlagRequired("output")
}

func runConvert(ctx context.Context) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewDefault()
	logger.SetDefault(log)

	exporter := &motion.BlenderExporter{
		BlenderPath: cfg.Motion.BlenderPath,
		ScriptPath:  cfg.Motion.ExportScript,
		Log:         log,
	}

	var clipStore storage.ObjectStorage
	if cfg.Motion.UploadClips {
		clipStore, err = storage.New(&storage.Config{
			Type:      cfg.Storage.Type,
			LocalRoot: cfg.Storage.LocalRoot,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize clip storage: %w", err)
		}
	}

	driver := motion.NewDriver(motion.DriverConfig{
		InputDir:  opts.inputDir,
		OutputDir: opts.outputDir,
		FPS:       cfg.Motion.FPS,
		Scale:     cfg.Motion.Scale,
		Cleanup: motion.CleanupConfig{
			FixRotationDeg: cfg.Motion.FixRotationDeg,
			StopThreshold:  cfg.Motion.StopThreshold,
			SmoothWindow:   cfg.Motion.SmoothWindow,
			MakeLoop:       cfg.Motion.MakeLoop,
			LoopMinFrames:  cfg.Motion.LoopMinFrames,
			LoopMaxFrames:  cfg.Motion.LoopMaxFrames,
		},
	}, exporter, clipStore, log)

	summary, err := driver.Run(ctx, opts.manifest)
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"total":     summary.Total,
		"converted": summary.Converted,
		"skipped":   summary.Skipped,
	}).Info("batch complete")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
