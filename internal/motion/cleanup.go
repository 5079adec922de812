package motion

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CleanupConfig holds the trajectory cleanup tunables.
type CleanupConfig struct {
	FixRotationDeg float64
	StopThreshold  float64
	SmoothWindow   int
	MakeLoop       bool
	LoopMinFrames  int
	LoopMaxFrames  int
}

// Cleanup runs the full cleanup pipeline: orientation fix, trailing-idle
// trim, temporal smoothing, and optional loop closure. Each stage takes a
// trajectory and returns a new one.
func Cleanup(t Trajectory, cfg CleanupConfig) Trajectory {
	out := RotateYaw(t, cfg.FixRotationDeg)
	out = TrimTrailingIdle(out, cfg.StopThreshold)
	out = Smooth(out, cfg.SmoothWindow)
	if cfg.MakeLoop {
		out = AppendLoopTransition(out, cfg.LoopMinFrames, cfg.LoopMaxFrames)
	}
	return out
}

// RotateYaw rotates every joint position about the vertical axis by the
// given angle in degrees. Zero is the identity.
func RotateYaw(t Trajectory, angleDeg float64) Trajectory {
	out := t.Clone()
	if angleDeg == 0 {
		return out
	}
	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	for _, pose := range out {
		for j, p := range pose {
			x, z := p[0], p[2]
			pose[j][0] = x*cos - z*sin
			pose[j][2] = x*sin + z*cos
		}
	}
	return out
}

// MotionEnergy returns the per-transition activity: the mean over joints of
// the displacement between consecutive frames. Length is len(t)-1.
func MotionEnergy(t Trajectory) []float64 {
	if len(t) < 2 {
		return nil
	}
	energy := make([]float64, len(t)-1)
	for i := 1; i < len(t); i++ {
		var sum float64
		for j := range t[i] {
			sum += floats.Distance(t[i][j][:], t[i-1][j][:], 2)
		}
		energy[i-1] = sum / float64(len(t[i]))
	}
	return energy
}

// TrimTrailingIdle truncates the near-static tail of a capture: scanning
// backward, the last transition whose motion energy exceeds threshold marks
// the end, plus one settling frame. The result keeps at least 10 frames and
// never exceeds the input; when nothing exceeds the threshold the whole
// trajectory is kept.
//
// The backward scan bounds and the "+2" offset are tuned policy, kept as is.
func TrimTrailingIdle(t Trajectory, threshold float64) Trajectory {
	total := len(t)
	energy := MotionEnergy(t)

	end := total
	for i := total - 2; i >= 1; i-- {
		if energy[i] > threshold {
			end = i + 2
			break
		}
	}

	if end > total {
		end = total
	}
	if end < 10 {
		end = 10
	}
	if end > total {
		end = total
	}
	return t[:end].Clone()
}

// Smooth applies a uniform moving average of the given window per joint and
// axis. Window 1 or less is the identity. Boundary frames average against
// implicitly zero-extended data, matching a same-mode convolution, so the
// output length equals the input length.
func Smooth(t Trajectory, window int) Trajectory {
	out := t.Clone()
	if window <= 1 || len(t) == 0 {
		return out
	}

	n := len(t)
	joints := t.Joints()
	off := (window - 1) / 2
	series := make([]float64, n)

	for j := 0; j < joints; j++ {
		for c := 0; c < 3; c++ {
			for i := 0; i < n; i++ {
				series[i] = t[i][j][c]
			}
			for i := 0; i < n; i++ {
				var sum float64
				for k := i + off - window + 1; k <= i+off; k++ {
					if k >= 0 && k < n {
						sum += series[k]
					}
				}
				out[i][j][c] = sum / float64(window)
			}
		}
	}
	return out
}

// AppendLoopTransition synthesizes a smoothstep-eased return from the final
// pose back to the first and appends it, so the clip repeats seamlessly.
// The transition length scales with how far the end pose drifted from the
// start, clamped to [minFrames, maxFrames].
func AppendLoopTransition(t Trajectory, minFrames, maxFrames int) Trajectory {
	out := t.Clone()
	if len(t) == 0 {
		return out
	}

	start, end := t[0], t[len(t)-1]

	var maxDist float64
	for j := range start {
		if d := floats.Distance(start[j][:], end[j][:], 2); d > maxDist {
			maxDist = d
		}
	}

	transLen := int(math.Round(maxDist * 40))
	if transLen < minFrames {
		transLen = minFrames
	}
	if transLen > maxFrames {
		transLen = maxFrames
	}

	joints := len(start)
	for k := 1; k <= transLen; k++ {
		tt := float64(k) / float64(transLen)
		s := tt * tt * (3 - 2*tt) // smoothstep: zero slope at both ends
		pose := make(Pose, joints)
		for j := 0; j < joints; j++ {
			for c := 0; c < 3; c++ {
				pose[j][c] = end[j][c]*(1-s) + start[j][c]*s
			}
		}
		out = append(out, pose)
	}
	return out
}
