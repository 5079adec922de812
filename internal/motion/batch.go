package motion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/jmpark/foyer/internal/logger"
	"github.com/jmpark/foyer/internal/storage"
)

// Task is one input manifest row.
type Task struct {
	Prompt     string
	OriginalID string
	Duration   string
}

// DriverConfig configures a batch conversion run.
type DriverConfig struct {
	InputDir  string
	OutputDir string
	FPS       int
	Scale     float64
	Cleanup   CleanupConfig
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Total     int
	Converted int
	Skipped   int
}

// Driver walks an input manifest, cleans each trajectory, hands it to the
// export engine, and writes an output manifest holding only the successful
// conversions, renumbered from 1. Every per-item failure (missing source,
// bad shape, export error) skips the row without consuming an index.
type Driver struct {
	cfg      DriverConfig
	exporter ClipExporter
	store    storage.ObjectStorage // optional clip upload target
	log      *logger.Logger
}

// NewDriver creates a batch driver. store may be nil to skip uploads.
func NewDriver(cfg DriverConfig, exporter ClipExporter, store storage.ObjectStorage, log *logger.Logger) *Driver {
	return &Driver{cfg: cfg, exporter: exporter, store: store, log: log}
}

// manifestHeader is the output manifest column set.
var manifestHeader = []string{"index", "prompt", "original_id", "duration_sec", "fbx_filename"}

// ReadManifest parses the input manifest. Expected columns: prompt,
// original_id, duration_sec; extra columns are ignored.
func ReadManifest(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"prompt", "original_id", "duration_sec"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("manifest missing column %q", required)
		}
	}

	var tasks []Task
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest row: %w", err)
		}
		tasks = append(tasks, Task{
			Prompt:     row[col["prompt"]],
			OriginalID: row[col["original_id"]],
			Duration:   row[col["duration_sec"]],
		})
	}
	return tasks, nil
}

// Run converts every task and writes the output manifest to
// <OutputDir>/clean_motion_database.csv.
func (d *Driver) Run(ctx context.Context, manifestPath string) (*Summary, error) {
	tasks, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	outPath := filepath.Join(d.cfg.OutputDir, "clean_motion_database.csv")
	outFile, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output manifest: %w", err)
	}
	defer outFile.Close()

	w := csv.NewWriter(outFile)
	if err := w.Write(manifestHeader); err != nil {
		return nil, fmt.Errorf("failed to write manifest header: %w", err)
	}

	bar := progressbar.NewOptions(len(tasks),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	summary := &Summary{Total: len(tasks)}
	newIndex := 1
	for _, task := range tasks {
		bar.Add(1)
		if err := ctx.Err(); err != nil {
			w.Flush()
			return summary, err
		}

		log := d.log.WithField("original_id", task.OriginalID)

		clipName := fmt.Sprintf("%04d", newIndex)
		fbxName := clipName + ".fbx"
		if err := d.convertOne(ctx, task, clipName, fbxName); err != nil {
			// Per-item soft failure: index is not consumed.
			log.WithError(err).Warn("skipped")
			summary.Skipped++
			continue
		}

		if err := w.Write([]string{
			fmt.Sprintf("%d", newIndex),
			task.Prompt,
			task.OriginalID,
			task.Duration,
			fbxName,
		}); err != nil {
			return summary, fmt.Errorf("failed to write manifest row: %w", err)
		}
		w.Flush()

		log.WithField(logger.FieldClip, clipName).Info("converted")
		newIndex++
		summary.Converted++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return summary, fmt.Errorf("failed to flush manifest: %w", err)
	}
	return summary, nil
}

// convertOne loads, cleans, and exports a single trajectory.
func (d *Driver) convertOne(ctx context.Context, task Task, clipName, fbxName string) error {
	sourcePath := filepath.Join(d.cfg.InputDir, task.OriginalID+".npy")
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("source missing: %w", err)
	}

	traj, err := LoadTrajectory(sourcePath)
	if err != nil {
		return err
	}

	cleaned := Cleanup(traj, d.cfg.Cleanup)

	clip := NewClip(clipName, d.cfg.FPS, d.cfg.Scale, cleaned)
	outPath := filepath.Join(d.cfg.OutputDir, fbxName)
	if err := d.exporter.Export(ctx, clip, outPath); err != nil {
		return err
	}

	if d.store != nil {
		d.uploadClip(ctx, outPath, fbxName)
	}
	return nil
}

// uploadClip pushes the exported artifact to object storage, best-effort.
func (d *Driver) uploadClip(ctx context.Context, path, name string) {
	f, err := os.Open(path)
	if err != nil {
		d.log.WithError(err).Debug("clip upload skipped")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		d.log.WithError(err).Debug("clip upload skipped")
		return
	}

	key := "clips/" + name
	if err := d.store.Upload(ctx, key, f, info.Size(), "application/octet-stream"); err != nil {
		d.log.WithError(err).WithField("key", key).Warn("clip upload failed")
	}
}
