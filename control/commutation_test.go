package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommutationOddSymmetry(t *testing.T) {
	t.Parallel()

	strategies := []Commutation{
		FOCCommutation(),
		SixStepCommutation(),
		SinusoidalCommutation(),
	}
	angles := []float64{0.0, 0.3, math.Pi / 6, 1.7, math.Pi, 5.9, -2.1}
	duties := []float64{0.1, 0.5, 1.0}

	for _, c := range strategies {
		for _, angle := range angles {
			for _, d := range duties {
				pos := c.Compute(d, angle)
				neg := c.Compute(-d, angle)
				assert.InDelta(t, -pos.DutyQ, neg.DutyQ, 1e-12,
					"%s at angle %.2f duty %.2f", c.Kind, angle, d)
			}
		}
	}
}

func TestFOCCommutation(t *testing.T) {
	t.Parallel()

	c := FOCCommutation()

	t.Run("angle invariant", func(t *testing.T) {
		t.Parallel()
		a := c.Compute(0.7, 0.0)
		b := c.Compute(0.7, 4.2)
		assert.Equal(t, a.DutyQ, b.DutyQ)
	})

	t.Run("identity mapping", func(t *testing.T) {
		t.Parallel()
		out := c.Compute(0.7, 1.0)
		assert.Equal(t, 0.7, out.DutyQ)
		assert.Zero(t, out.DutyD)
		assert.Equal(t, 1.0, out.Efficiency)
	})
}

func TestSixStepCommutation(t *testing.T) {
	t.Parallel()

	c := SixStepCommutation()

	t.Run("full duty at sector center", func(t *testing.T) {
		t.Parallel()
		// At the first sector center the efficiency taper is 1.0 and the
		// sixth-harmonic ripple crosses zero.
		out := c.Compute(0.8, math.Pi/6)
		assert.InDelta(t, 0.8, out.DutyQ, 1e-12)
		assert.InDelta(t, 1.0, out.Efficiency, 1e-12)
	})

	t.Run("reduced duty at sector edge", func(t *testing.T) {
		t.Parallel()
		out := c.Compute(0.8, 0.0)
		assert.Less(t, out.Efficiency, 1.0)
		assert.GreaterOrEqual(t, out.Efficiency, c.BaseEfficiency-1e-12)
	})

	t.Run("negative angles normalize", func(t *testing.T) {
		t.Parallel()
		a := c.Compute(0.5, -math.Pi/6)
		b := c.Compute(0.5, 2*math.Pi-math.Pi/6)
		assert.InDelta(t, a.DutyQ, b.DutyQ, 1e-12)
	})
}

func TestSinusoidalCommutation(t *testing.T) {
	t.Parallel()

	c := SinusoidalCommutation()
	out := c.Compute(1.0, 0.0)
	assert.InDelta(t, c.BaseEfficiency, out.DutyQ, 1e-12)
	assert.Zero(t, out.DutyD)
}

func TestCommutationOrdering(t *testing.T) {
	t.Parallel()

	six := SixStepCommutation()
	sin := SinusoidalCommutation()
	foc := FOCCommutation()

	assert.Less(t, six.AverageEfficiency(), sin.AverageEfficiency())
	assert.Less(t, sin.AverageEfficiency(), foc.AverageEfficiency())
	assert.Equal(t, 1.0, foc.AverageEfficiency())

	assert.Greater(t, six.TorqueRippleAmplitude(), sin.TorqueRippleAmplitude())
	assert.Zero(t, foc.TorqueRippleAmplitude())
}

func TestCommutationKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foc", CommutationFOC.String())
	assert.Equal(t, "six_step", CommutationSixStep.String())
	assert.Equal(t, "sinusoidal", CommutationSinusoidal.String())
}
