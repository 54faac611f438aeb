package electrical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMotorSummaryQueries(t *testing.T) {
	t.Parallel()

	m := KrakenX60()
	const voltage = 12.0

	t.Run("free speed balances back emf", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, voltage, m.FreeSpeed(voltage)*m.Ke(), 1e-9)
	})

	t.Run("stall point", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, voltage/m.Resistance, m.StallCurrent(voltage), 1e-9)
		assert.InDelta(t, m.Kt()*m.StallCurrent(voltage), m.StallTorque(voltage), 1e-9)
		assert.InDelta(t, m.StallTorque(voltage), m.TorqueAtVelocity(0.0, voltage), 1e-9)
	})

	t.Run("torque vanishes at free speed", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.0, m.TorqueAtVelocity(m.FreeSpeed(voltage), voltage), 1e-9)
	})

	t.Run("current never goes negative past free speed", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, m.CurrentAtVelocity(2.0*m.FreeSpeed(voltage), voltage))
	})

	t.Run("peak power sits at half free speed", func(t *testing.T) {
		t.Parallel()
		half := m.FreeSpeed(voltage) / 2.0
		assert.InDelta(t, half, m.MaxPowerVelocity(voltage), 1e-9)

		peak := m.MaxPower(voltage)
		assert.Greater(t, peak, m.MechanicalPower(half*0.8, voltage))
		assert.Greater(t, peak, m.MechanicalPower(half*1.2, voltage))
	})

	t.Run("efficiency stays in the unit interval", func(t *testing.T) {
		t.Parallel()
		free := m.FreeSpeed(voltage)
		for _, frac := range []float64{0.0, 0.25, 0.5, 0.75, 0.95} {
			eff := m.EfficiencyAtVelocity(free*frac, voltage)
			require.GreaterOrEqual(t, eff, 0.0)
			require.LessOrEqual(t, eff, 1.0)
		}
		assert.Zero(t, m.EfficiencyAtVelocity(0.0, voltage))
	})

	t.Run("optimal gearing targets three quarters of free speed", func(t *testing.T) {
		t.Parallel()
		ratio, outputSpeed := m.OptimalGearing(voltage, 50.0)
		assert.InDelta(t, m.FreeSpeed(voltage)*0.75/50.0, ratio, 1e-9)
		assert.InDelta(t, 50.0, outputSpeed, 1e-9)
	})
}

func TestTorqueVelocityCurve(t *testing.T) {
	t.Parallel()

	m := Neo()
	curve := m.TorqueVelocityCurve(12.0, 50)

	require.Len(t, curve.Velocities, 50)
	require.Len(t, curve.Torques, 50)

	assert.InDelta(t, m.StallTorque(12.0), curve.Torques[0], 1e-9)
	assert.InDelta(t, 0.0, curve.Torques[len(curve.Torques)-1], 1e-6)

	for i := 1; i < len(curve.Torques); i++ {
		require.LessOrEqual(t, curve.Torques[i], curve.Torques[i-1]+1e-12)
	}
}

func TestSimulateDischarge(t *testing.T) {
	t.Parallel()

	c := DefaultBatteryConstant()
	curve := SimulateDischarge(c, 20.0, 600.0, 1.0)

	require.NotEmpty(t, curve.Times)
	require.Len(t, curve.Voltages, len(curve.Times))

	for i := 1; i < len(curve.SoC); i++ {
		require.LessOrEqual(t, curve.SoC[i], curve.SoC[i-1])
	}
	assert.Less(t, curve.Voltages[len(curve.Voltages)-1], curve.Voltages[0])
}

func TestVoltageSag(t *testing.T) {
	t.Parallel()

	c := DefaultBatteryConstant()
	minV, socAtMin := VoltageSag(c, 120.0)

	assert.Less(t, minV, c.OpenCircuitVoltage(1.0))
	assert.GreaterOrEqual(t, socAtMin, 0.0)
	assert.LessOrEqual(t, socAtMin, 1.0)
}

func TestEffectiveCapacity(t *testing.T) {
	t.Parallel()

	c := DefaultBatteryConstant()
	// At the reference current the rated capacity applies unchanged.
	assert.InDelta(t, c.RatedCapacityAh, EffectiveCapacityAh(c, c.Peukert.ReferenceCurrent), 1e-9)
}
