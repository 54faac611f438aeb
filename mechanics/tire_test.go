package mechanics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesim/simstate"
)

// instantTire has unit friction and stiffness with no relaxation
// filtering, so slip state tracks its instantaneous value.
func instantTire() TireConstants {
	c := DefaultTireConstants()
	c.LongitudinalRelaxationLength = 0.0
	c.LateralRelaxationLength = 0.0
	return c
}

func stepOneWheel(tire TireConstants, wheel simstate.WheelState, dt float64) simstate.WheelState {
	m := NewTireManager(tire, 1)
	state := simstate.NewSimState(1, wheel.WheelRadius, wheel.Tire.Load)
	state.True.WheelStates[0] = wheel
	m.StepPhysics(simstate.SimContext{DT: dt}, state)
	return state.True.WheelStates[0]
}

func TestTireZeroSlipZeroForce(t *testing.T) {
	t.Parallel()

	wheel := simstate.WheelState{
		WheelRadius:            0.05,
		DrivingAngularVelocity: 20.0, // surface speed exactly matches ground
		LongitudinalVelocity:   1.0,
	}
	wheel.Tire.Load = 100.0

	out := stepOneWheel(instantTire(), wheel, 0.001)
	assert.Zero(t, out.Tire.SlipRatio)
	assert.Zero(t, out.Tire.SlipAngle)
	assert.Zero(t, out.Tire.LongitudinalForce)
	assert.Zero(t, out.Tire.LateralForce)
}

func TestTireSlipAngle(t *testing.T) {
	t.Parallel()

	t.Run("forced to zero below the low-speed threshold", func(t *testing.T) {
		t.Parallel()
		wheel := simstate.WheelState{
			WheelRadius:          0.05,
			LongitudinalVelocity: 0.003,
			LateralVelocity:      0.003,
		}
		wheel.Tire.Load = 100.0
		wheel.Tire.SlipAngle = 0.5 // stale value must be cleared

		out := stepOneWheel(instantTire(), wheel, 0.001)
		assert.Zero(t, out.Tire.SlipAngle)
	})

	t.Run("instantaneous atan2 without relaxation", func(t *testing.T) {
		t.Parallel()
		wheel := simstate.WheelState{
			WheelRadius:            0.05,
			DrivingAngularVelocity: 20.0,
			LongitudinalVelocity:   1.0,
			LateralVelocity:        1.0,
		}
		wheel.Tire.Load = 100.0

		out := stepOneWheel(instantTire(), wheel, 0.001)
		assert.InDelta(t, math.Pi/4, out.Tire.SlipAngle, 1e-12)
	})

	t.Run("relaxation filters toward the instantaneous value", func(t *testing.T) {
		t.Parallel()
		tire := instantTire()
		tire.LateralRelaxationLength = 1.0

		wheel := simstate.WheelState{
			WheelRadius:            0.05,
			DrivingAngularVelocity: 20.0,
			LongitudinalVelocity:   1.0,
			LateralVelocity:        1.0,
		}
		wheel.Tire.Load = 100.0

		// tau = 1.0 / 1.0 = 1 s, so one 0.1 s step moves 10% of the way.
		out := stepOneWheel(tire, wheel, 0.1)
		assert.InDelta(t, 0.1*math.Pi/4, out.Tire.SlipAngle, 1e-12)
	})
}

func TestTireSlipRatio(t *testing.T) {
	t.Parallel()

	t.Run("instantaneous ratio without relaxation", func(t *testing.T) {
		t.Parallel()
		wheel := simstate.WheelState{
			WheelRadius:            0.1,
			DrivingAngularVelocity: 30.0, // surface speed 3 m/s
			LongitudinalVelocity:   1.0,
		}
		wheel.Tire.Load = 100.0

		out := stepOneWheel(instantTire(), wheel, 0.001)
		assert.InDelta(t, 2.0, out.Tire.SlipRatio, 1e-12)
	})

	t.Run("spinning wheel with no ground speed saturates", func(t *testing.T) {
		t.Parallel()
		wheel := simstate.WheelState{
			WheelRadius:            0.05,
			DrivingAngularVelocity: 1.0,
			LongitudinalVelocity:   0.001,
		}
		wheel.Tire.Load = 100.0

		out := stepOneWheel(instantTire(), wheel, 0.001)
		assert.Equal(t, 1.0, out.Tire.SlipRatio)

		wheel.DrivingAngularVelocity = -1.0
		out = stepOneWheel(instantTire(), wheel, 0.001)
		assert.Equal(t, -1.0, out.Tire.SlipRatio)
	})

	t.Run("stationary wheel at rest has zero ratio", func(t *testing.T) {
		t.Parallel()
		wheel := simstate.WheelState{
			WheelRadius:            0.05,
			DrivingAngularVelocity: 0.05, // below the spin threshold
			LongitudinalVelocity:   0.0,
		}
		wheel.Tire.Load = 100.0

		out := stepOneWheel(instantTire(), wheel, 0.001)
		assert.Zero(t, out.Tire.SlipRatio)
	})
}

func TestTireForceSaturation(t *testing.T) {
	t.Parallel()

	t.Run("saturated longitudinal force equals the friction limit", func(t *testing.T) {
		t.Parallel()
		wheel := simstate.WheelState{
			WheelRadius:            0.1,
			DrivingAngularVelocity: 10000.0,
			LongitudinalVelocity:   1.0,
		}
		wheel.Tire.Load = 100.0

		out := stepOneWheel(instantTire(), wheel, 0.001)
		// Positive slip saturates to the negative friction limit.
		assert.InDelta(t, -100.0, out.Tire.LongitudinalForce, 1e-9)
	})

	t.Run("combined forces never exceed the friction limits", func(t *testing.T) {
		t.Parallel()
		tire := instantTire()
		slips := []struct{ omega, vLong, vLat float64 }{
			{100.0, 1.0, 0.5},
			{500.0, 2.0, 2.0},
			{-300.0, 1.5, -3.0},
			{50.0, 0.5, 4.0},
		}
		for _, s := range slips {
			wheel := simstate.WheelState{
				WheelRadius:            0.1,
				DrivingAngularVelocity: s.omega,
				LongitudinalVelocity:   s.vLong,
				LateralVelocity:        s.vLat,
			}
			wheel.Tire.Load = 100.0

			out := stepOneWheel(tire, wheel, 0.001)
			limit := 100.0 + 1e-9
			require.LessOrEqual(t, math.Abs(out.Tire.LongitudinalForce), limit)
			require.LessOrEqual(t, math.Abs(out.Tire.LateralForce), limit)

			combined := math.Hypot(
				out.Tire.LongitudinalForce/100.0,
				out.Tire.LateralForce/100.0,
			)
			require.LessOrEqual(t, combined, 1.0+1e-9)
		}
	})
}

func TestTireManagerSizing(t *testing.T) {
	t.Parallel()

	m := NewTireManager(DefaultTireConstants(), 3)
	assert.Len(t, m.Tires, 3)

	m.AddTire(DefaultTireConstants())
	assert.Len(t, m.Tires, 4)
}
