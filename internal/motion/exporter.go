package motion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jmpark/foyer/internal/logger"
)

// Clip is a cleaned trajectory plus everything the rigging engine needs to
// bake and export it.
type Clip struct {
	Name       string     `json:"name"`
	FPS        int        `json:"fps"`
	Scale      float64    `json:"scale"`
	JointNames []string   `json:"joint_names"`
	Parents    []int      `json:"parents"`
	Frames     Trajectory `json:"frames"`
}

// NewClip wraps a trajectory with the fixed skeleton tables.
func NewClip(name string, fps int, scale float64, t Trajectory) *Clip {
	return &Clip{
		Name:       name,
		FPS:        fps,
		Scale:      scale,
		JointNames: JointNames[:],
		Parents:    Parents[:],
		Frames:     t,
	}
}

// ClipExporter is the external rigging/export engine: it consumes a cleaned
// clip and produces an animation artifact at outPath. Implementations must
// treat any failure as reportable; the batch driver skips the item.
type ClipExporter interface {
	Export(ctx context.Context, clip *Clip, outPath string) error
}

// BlenderExporter drives a headless Blender process. The clip is handed
// over as a JSON file; the export script builds the armature, bakes the
// keyframes, and writes the FBX.
type BlenderExporter struct {
	BlenderPath string
	ScriptPath  string
	Log         *logger.Logger
}

func (e *BlenderExporter) Export(ctx context.Context, clip *Clip, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp("", "clip-*.json")
	if err != nil {
		return fmt.Errorf("failed to create clip file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(clip); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode clip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close clip file: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.BlenderPath,
		"--background",
		"--factory-startup",
		"--python", e.ScriptPath,
		"--", tmp.Name(), outPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if e.Log != nil {
			e.Log.WithError(err).WithField(logger.FieldClip, clip.Name).
				Debugf("blender output: %s", output)
		}
		return fmt.Errorf("blender export failed: %w", err)
	}
	return nil
}
