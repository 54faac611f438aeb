package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPIDFProportional(t *testing.T) {
	t.Parallel()

	t.Run("pure proportional output is kp times error", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(P(2.0))
		p.SetSetpoint(10.0)

		out := p.Update(4.0, 0.01)
		assert.InDelta(t, 12.0, out, 1e-12)
	})

	t.Run("output clamps to configured limits", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(P(10.0).WithLimits(-1.0, 1.0))
		p.SetSetpoint(1.0)

		assert.Equal(t, 1.0, p.Update(0.0, 0.01))
		p.SetSetpoint(-1.0)
		assert.Equal(t, -1.0, p.Update(0.0, 0.01))
	})
}

func TestPIDFIntegral(t *testing.T) {
	t.Parallel()

	t.Run("accumulator stays within i_max", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(PI(0.0, 1.0).WithIMax(0.5))
		p.SetSetpoint(1.0)

		var out float64
		for i := 0; i < 100; i++ {
			out = p.Update(0.0, 1.0)
		}
		assert.LessOrEqual(t, p.Integral(), 0.5)
		assert.InDelta(t, 0.5, out, 1e-12)
	})

	t.Run("i_zone gates accumulation", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(PI(0.0, 1.0).WithIZone(0.5))
		p.SetSetpoint(1.0)

		p.Update(0.0, 1.0) // error 1.0, outside zone
		assert.Zero(t, p.Integral())

		p.Update(0.6, 1.0) // error 0.4, inside zone
		assert.InDelta(t, 0.4, p.Integral(), 1e-12)
	})

	t.Run("non-positive dt freezes the accumulator", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(PI(0.0, 1.0))
		p.SetSetpoint(1.0)

		p.Update(0.0, 0.0)
		p.Update(0.0, -1.0)
		assert.Zero(t, p.Integral())
	})
}

func TestPIDFDerivative(t *testing.T) {
	t.Parallel()

	t.Run("first update has no derivative contribution", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(PID(0.0, 0.0, 1.0))
		assert.Zero(t, p.Update(5.0, 0.1))
	})

	t.Run("derivative acts on the measurement", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(PID(0.0, 0.0, 1.0))
		p.Update(0.0, 0.1)

		out := p.Update(1.0, 0.1)
		assert.InDelta(t, -10.0, out, 1e-12)
	})

	t.Run("setpoint change alone produces no kick", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(PID(0.0, 0.0, 50.0))
		p.Update(2.0, 0.1)

		p.SetSetpoint(100.0)
		out := p.Update(2.0, 0.1) // measurement unchanged
		assert.Zero(t, out)
	})

	t.Run("reset drops the remembered measurement", func(t *testing.T) {
		t.Parallel()
		p := NewPIDFController(PID(0.0, 0.0, 1.0))
		p.Update(0.0, 0.1)
		p.Reset()

		assert.Zero(t, p.Update(100.0, 0.1))
	})
}

func TestPIDFFeedforward(t *testing.T) {
	t.Parallel()

	p := NewPIDFController(PIDF(0.0, 0.0, 0.0, 2.0))
	p.SetSetpoint(3.0)
	assert.InDelta(t, 6.0, p.Update(3.0, 0.01), 1e-12)
}

func TestPIDFConfigBuilders(t *testing.T) {
	t.Parallel()

	cfg := PID(1.0, 2.0, 3.0).WithLimits(-4.0, 4.0).WithIMax(5.0).WithIZone(6.0)
	assert.Equal(t, 1.0, cfg.Kp)
	assert.Equal(t, 2.0, cfg.Ki)
	assert.Equal(t, 3.0, cfg.Kd)
	assert.Equal(t, -4.0, cfg.OutputMin)
	assert.Equal(t, 4.0, cfg.OutputMax)
	assert.Equal(t, 5.0, cfg.IMax)
	assert.Equal(t, 6.0, cfg.IZone)
}
