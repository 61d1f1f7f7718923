package codec

import "sync/atomic"

const DefaultVolumeSteps = 10

// Volume is a stepped gain shared by every decoder. Level 0 is silent,
// level steps is unity gain and every two steps down halve the amplitude.
type Volume struct {
	steps int
	level atomic.Int32
}

func NewVolume(steps, level int) *Volume {
	if steps <= 0 {
		steps = DefaultVolumeSteps
	}
	v := &Volume{steps: steps}
	v.Set(level)
	return v
}

func (v *Volume) Set(level int) int {
	level = max(0, min(v.steps, level))
	v.level.Store(int32(level))
	return level
}

func (v *Volume) Level() int { return int(v.level.Load()) }
func (v *Volume) Steps() int { return v.steps }

// Up raises the level by one step, clamped.
func (v *Volume) Up() int { return v.Set(v.Level() + 1) }

// Down lowers the level by one step, clamped.
func (v *Volume) Down() int { return v.Set(v.Level() - 1) }

// Gain returns the exponent for a base-2 effects.Volume and whether the
// output is silent.
func (v *Volume) Gain() (float64, bool) {
	level := v.Level()
	return float64(level-v.steps) / 2, level == 0
}
