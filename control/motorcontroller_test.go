package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesim/electrical"
	"drivesim/simstate"
)

func testControllerConfig() MotorControllerConfig {
	return NewMotorControllerConfig(electrical.KrakenX60())
}

func TestMotorControllerDutyMode(t *testing.T) {
	t.Parallel()

	t.Run("setpoint passes through as duty", func(t *testing.T) {
		t.Parallel()
		c := NewMotorController(testControllerConfig())
		c.SetSetpoint(0.5)

		motor := simstate.MotorState{}
		in := c.Update(&motor, 0.001)
		assert.InDelta(t, 0.5, in.DutyCycleQ, 1e-12)
		assert.Zero(t, in.DutyCycleD)
	})

	t.Run("setpoint clamps to unit duty", func(t *testing.T) {
		t.Parallel()
		c := NewMotorController(testControllerConfig())
		c.SetSetpoint(3.0)

		motor := simstate.MotorState{}
		in := c.Update(&motor, 0.001)
		assert.Equal(t, 1.0, in.DutyCycleQ)
	})
}

func TestMotorControllerCurrentMode(t *testing.T) {
	t.Parallel()

	t.Run("regulates q-axis current", func(t *testing.T) {
		t.Parallel()
		cfg := testControllerConfig().
			WithMode(ModeCurrent).
			WithCurrentController(P(0.05).WithLimits(-1.0, 1.0))
		c := NewMotorController(cfg)
		c.SetSetpoint(10.0)

		motor := simstate.MotorState{CurrentQ: 0.0}
		in := c.Update(&motor, 0.001)
		assert.InDelta(t, 0.5, in.DutyCycleQ, 1e-12)
	})

	t.Run("target clamps to max current", func(t *testing.T) {
		t.Parallel()
		cfg := testControllerConfig().
			WithMode(ModeCurrent).
			WithCurrentController(P(0.01).WithLimits(-1.0, 1.0))
		cfg.MaxCurrent = 60.0
		c := NewMotorController(cfg)
		c.SetSetpoint(500.0)

		motor := simstate.MotorState{}
		in := c.Update(&motor, 0.001)
		// 0.01 * 60, not 0.01 * 500
		assert.InDelta(t, 0.6, in.DutyCycleQ, 1e-12)
	})
}

func TestMotorControllerVelocityMode(t *testing.T) {
	t.Parallel()

	cfg := testControllerConfig().
		WithMode(ModeVelocity).
		WithVelocityController(P(0.005).WithLimits(-1.0, 1.0))
	c := NewMotorController(cfg)
	c.SetSetpoint(100.0)

	motor := simstate.MotorState{MechanicalVelocity: 0.0}
	in := c.Update(&motor, 0.001)
	assert.InDelta(t, 0.5, in.DutyCycleQ, 1e-12)
}

func TestMotorControllerPositionMode(t *testing.T) {
	t.Parallel()

	t.Run("position loop commands a clamped velocity", func(t *testing.T) {
		t.Parallel()
		cfg := testControllerConfig().
			WithMode(ModePosition).
			WithPositionController(P(5.0).WithLimits(-100.0, 100.0)).
			WithVelocityController(P(0.1).WithLimits(-1.0, 1.0))
		cfg.MaxVelocity = 2.0
		c := NewMotorController(cfg)
		c.SetSetpoint(10.0)

		motor := simstate.MotorState{}
		in := c.Update(&motor, 0.0)
		// position error 10 -> raw velocity 50 -> clamped 2 -> duty 0.2
		assert.InDelta(t, 0.2, in.DutyCycleQ, 1e-12)
	})

	t.Run("position estimate integrates measured velocity", func(t *testing.T) {
		t.Parallel()
		c := NewMotorController(testControllerConfig().WithMode(ModePosition))
		motor := simstate.MotorState{MechanicalVelocity: 1.0}

		c.Update(&motor, 0.1)
		assert.InDelta(t, 0.1, c.Position(), 1e-12)
		c.Update(&motor, 0.1)
		assert.InDelta(t, 0.2, c.Position(), 1e-12)
	})

	t.Run("position override holds for one update only", func(t *testing.T) {
		t.Parallel()
		c := NewMotorController(testControllerConfig().WithMode(ModePosition))
		motor := simstate.MotorState{MechanicalVelocity: 1.0}

		c.SetPosition(5.0)
		c.Update(&motor, 0.1)
		assert.InDelta(t, 5.0, c.Position(), 1e-12)
		c.Update(&motor, 0.1)
		assert.InDelta(t, 5.1, c.Position(), 1e-12)
	})
}

func TestMotorControllerReset(t *testing.T) {
	t.Parallel()

	c := NewMotorController(testControllerConfig().WithMode(ModePosition))
	motor := simstate.MotorState{MechanicalVelocity: 3.0}
	c.SetSetpoint(7.0)
	c.Update(&motor, 0.1)

	c.Reset()
	assert.Zero(t, c.Position())
	assert.Zero(t, c.Setpoint())
}

func TestMotorControllerBank(t *testing.T) {
	t.Parallel()

	t.Run("writes one input per controller", func(t *testing.T) {
		t.Parallel()
		bank := NewMotorControllerBank()
		bank.AddController(NewMotorController(testControllerConfig()))
		bank.AddController(NewMotorController(testControllerConfig()))
		require.Equal(t, 2, bank.Len())

		bank.SetSetpoint(0, 0.3)
		bank.SetSetpoint(1, -0.4)

		state := simstate.NewSimState(2, 0.05, 100.0)
		bank.StepControl(simstate.SimContext{DT: 0.001}, state)

		require.Len(t, state.ControlInput.MotorInputs, 2)
		assert.InDelta(t, 0.3, state.ControlInput.MotorInputs[0].DutyCycleQ, 1e-12)
		assert.InDelta(t, -0.4, state.ControlInput.MotorInputs[1].DutyCycleQ, 1e-12)
	})

	t.Run("out of range setpoint index is ignored", func(t *testing.T) {
		t.Parallel()
		bank := NewMotorControllerBank()
		bank.AddController(NewMotorController(testControllerConfig()))
		bank.SetSetpoint(5, 1.0)
		bank.SetSetpoint(-1, 1.0)
	})

	t.Run("set all setpoints covers leading controllers", func(t *testing.T) {
		t.Parallel()
		bank := NewMotorControllerBank()
		bank.AddController(NewMotorController(testControllerConfig()))
		bank.AddController(NewMotorController(testControllerConfig()))

		bank.SetAllSetpoints([]float64{0.1, 0.2, 0.3})
		assert.Equal(t, 0.1, bank.Controllers[0].Setpoint())
		assert.Equal(t, 0.2, bank.Controllers[1].Setpoint())
	})
}

func TestMotorControllerKt(t *testing.T) {
	t.Parallel()

	motor := electrical.KrakenX60()
	c := NewMotorController(NewMotorControllerConfig(motor))
	assert.InDelta(t, motor.Kt(), c.Kt(), 1e-12)
}
