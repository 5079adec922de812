// Package motion cleans motion-capture joint trajectories and drives their
// conversion into rigged animation clips.
package motion

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sbinet/npyio"
)

// featureWidth263 is the flattened width of the HumanML3D feature encoding.
// Those arrays are model features, not joint positions, and must never be
// rigged.
const featureWidth263 = 263

// Vec3 is a 3D coordinate.
type Vec3 [3]float64

// Pose is one frame: a position per joint, in skeleton order.
type Pose []Vec3

// Trajectory is a time-ordered sequence of poses. Every pose has the same
// joint count.
type Trajectory []Pose

// Clone returns a deep copy. Cleanup stages consume one trajectory and
// produce a new one; nothing is shared between stages.
func (t Trajectory) Clone() Trajectory {
	out := make(Trajectory, len(t))
	for i, pose := range t {
		out[i] = make(Pose, len(pose))
		copy(out[i], pose)
	}
	return out
}

// Joints returns the per-frame joint count, 0 for an empty trajectory.
func (t Trajectory) Joints() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

var (
	// ErrNonPositional rejects 263-wide feature arrays.
	ErrNonPositional = errors.New("263-wide array holds model features, not joint positions")
	// ErrTooFewJoints rejects trajectories with fewer joints than the skeleton.
	ErrTooFewJoints = errors.New("trajectory has fewer joints than the skeleton")
)

// LoadTrajectory reads a .npy joint-position array. Accepted layouts are
// 2-D (frames x flattened coords, width divisible by 3) and 3-D
// (frames x joints x 3). Trajectories with more than JointCount joints are
// truncated to the skeleton; fewer is an error.
func LoadTrajectory(path string) (Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trajectory: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read npy header: %w", err)
	}

	shape := r.Header.Descr.Shape
	flat, err := readFloats(r)
	if err != nil {
		return nil, err
	}

	var frames, joints int
	switch len(shape) {
	case 2:
		dims := shape[1]
		if dims == featureWidth263 {
			return nil, ErrNonPositional
		}
		if dims%3 != 0 {
			return nil, fmt.Errorf("flattened width %d is not divisible by 3", dims)
		}
		frames, joints = shape[0], dims/3
	case 3:
		if shape[2] != 3 {
			return nil, fmt.Errorf("expected 3 coordinates per joint, got %d", shape[2])
		}
		frames, joints = shape[0], shape[1]
	default:
		return nil, fmt.Errorf("expected 2-D or 3-D array, got %d dimensions", len(shape))
	}

	if joints < JointCount {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewJoints, joints, JointCount)
	}

	traj := make(Trajectory, frames)
	for i := 0; i < frames; i++ {
		pose := make(Pose, JointCount)
		base := i * joints * 3
		for j := 0; j < JointCount; j++ {
			off := base + j*3
			pose[j] = Vec3{flat[off], flat[off+1], flat[off+2]}
		}
		traj[i] = pose
	}
	return traj, nil
}

// readFloats reads the data blob as float64 regardless of on-disk precision.
func readFloats(r *npyio.Reader) ([]float64, error) {
	dtype := r.Header.Descr.Type
	switch {
	case strings.Contains(dtype, "f8"):
		var data []float64
		if err := r.Read(&data); err != nil {
			return nil, fmt.Errorf("failed to read npy data: %w", err)
		}
		return data, nil
	case strings.Contains(dtype, "f4"):
		var data []float32
		if err := r.Read(&data); err != nil {
			return nil, fmt.Errorf("failed to read npy data: %w", err)
		}
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported npy dtype %q", dtype)
	}
}
