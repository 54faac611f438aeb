package electrical

import "math"

// Design-time analysis queries derived algebraically from the motor and
// battery constants, independent of the stepped simulation.

// Kt returns the torque constant (Nm/A).
func (m MotorConstant) Kt() float64 {
	return 1.5 * float64(m.PolePairs) * m.FluxLinkage
}

// Ke returns the back-EMF constant (V/(rad/s)).
func (m MotorConstant) Ke() float64 {
	return float64(m.PolePairs) * m.FluxLinkage * fluxTorqueScale
}

// FreeSpeed returns the theoretical no-load speed (rad/s) at the given
// voltage.
func (m MotorConstant) FreeSpeed(voltage float64) float64 {
	return voltage / m.Ke()
}

// StallCurrent returns the locked-rotor current (A) at the given voltage.
func (m MotorConstant) StallCurrent(voltage float64) float64 {
	return voltage / m.Resistance
}

// StallTorque returns the locked-rotor torque (Nm) at the given voltage.
func (m MotorConstant) StallTorque(voltage float64) float64 {
	return m.Kt() * m.StallCurrent(voltage)
}

// CurrentAtVelocity returns the steady-state current (A) at a velocity
// and voltage; never negative.
func (m MotorConstant) CurrentAtVelocity(velocity, voltage float64) float64 {
	backEMF := m.Ke() * velocity
	return math.Max((voltage-backEMF)/m.Resistance, 0.0)
}

// TorqueAtVelocity returns the steady-state torque (Nm) at a velocity
// and voltage.
func (m MotorConstant) TorqueAtVelocity(velocity, voltage float64) float64 {
	return m.Kt() * m.CurrentAtVelocity(velocity, voltage)
}

// ElectricalPower returns the steady-state electrical input power (W).
func (m MotorConstant) ElectricalPower(velocity, voltage float64) float64 {
	return voltage * m.CurrentAtVelocity(velocity, voltage)
}

// MechanicalPower returns the steady-state mechanical output power (W).
func (m MotorConstant) MechanicalPower(velocity, voltage float64) float64 {
	return m.TorqueAtVelocity(velocity, voltage) * velocity
}

// EfficiencyAtVelocity returns mechanical over electrical power at an
// operating point, in [0, 1].
func (m MotorConstant) EfficiencyAtVelocity(velocity, voltage float64) float64 {
	elec := m.ElectricalPower(velocity, voltage)
	if elec <= 0 {
		return 0
	}
	eff := m.MechanicalPower(velocity, voltage) / elec
	return math.Min(math.Max(eff, 0.0), 1.0)
}

// MaxPowerVelocity returns the velocity of peak mechanical power, which
// for a linear torque-speed curve is half the free speed.
func (m MotorConstant) MaxPowerVelocity(voltage float64) float64 {
	return m.FreeSpeed(voltage) / 2.0
}

// MaxPower returns the peak mechanical power (W) at the given voltage.
func (m MotorConstant) MaxPower(voltage float64) float64 {
	return m.MechanicalPower(m.MaxPowerVelocity(voltage), voltage)
}

// OptimalGearing suggests a gear ratio placing the motor near its
// efficient operating region (about 75 percent of free speed) for the
// desired output speed. Returns the ratio and the resulting output
// speed.
func (m MotorConstant) OptimalGearing(voltage, desiredOutputSpeed float64) (ratio, outputSpeed float64) {
	motorSpeed := m.FreeSpeed(voltage) * 0.75
	ratio = motorSpeed / desiredOutputSpeed
	return ratio, motorSpeed / ratio
}

// MotorCurve is a sampled torque-velocity curve with the quantities
// needed for design plots.
type MotorCurve struct {
	Velocities   []float64
	Torques      []float64
	Currents     []float64
	Powers       []float64
	Efficiencies []float64
}

// TorqueVelocityCurve samples the steady-state curve from zero to free
// speed at n points.
func (m MotorConstant) TorqueVelocityCurve(voltage float64, n int) MotorCurve {
	curve := MotorCurve{
		Velocities:   make([]float64, n),
		Torques:      make([]float64, n),
		Currents:     make([]float64, n),
		Powers:       make([]float64, n),
		Efficiencies: make([]float64, n),
	}
	freeSpeed := m.FreeSpeed(voltage)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n-1) * freeSpeed
		curve.Velocities[i] = v
		curve.Torques[i] = m.TorqueAtVelocity(v, voltage)
		curve.Currents[i] = m.CurrentAtVelocity(v, voltage)
		curve.Powers[i] = m.MechanicalPower(v, voltage)
		curve.Efficiencies[i] = m.EfficiencyAtVelocity(v, voltage)
	}
	return curve
}

// DischargeCurve is the trajectory of a constant-current discharge.
type DischargeCurve struct {
	Times    []float64
	Voltages []float64
	SoC      []float64
	Powers   []float64
}

// SimulateDischarge runs a standalone constant-current discharge of the
// battery until the duration elapses or the charge is exhausted.
func SimulateDischarge(c BatteryConstant, current, durationS, dt float64) DischargeCurve {
	var out DischargeCurve

	soc := 1.0
	fastV, slowV := 0.0, 0.0
	effective := EffectiveCapacityAh(c, current) * 3600.0

	for t := 0.0; t < durationS && soc > 0; t += dt {
		voltage := c.OpenCircuitVoltage(soc) - current*c.OhmicResistance(soc) - fastV - slowV

		out.Times = append(out.Times, t)
		out.Voltages = append(out.Voltages, voltage)
		out.SoC = append(out.SoC, soc)
		out.Powers = append(out.Powers, voltage*current)

		fastV = updateRCBranchVoltage(dt, current, fastV, c.FastBranch)
		slowV = updateRCBranchVoltage(dt, current, slowV, c.SlowBranch)
		soc -= current / effective * dt
	}
	return out
}

// VoltageSag returns the worst-case terminal voltage under a peak
// current over a grid of charge levels, and the charge level at which
// it occurs. Transient polarization is ignored; only the ohmic drop
// counts.
func VoltageSag(c BatteryConstant, peakCurrent float64) (minVoltage, socAtMin float64) {
	socGrid := []float64{1.0, 0.8, 0.6, 0.4, 0.2, 0.1, 0.05}
	minVoltage = math.MaxFloat64
	socAtMin = 1.0
	for _, soc := range socGrid {
		v := c.OpenCircuitVoltage(soc) - peakCurrent*c.OhmicResistance(soc)
		if v < minVoltage {
			minVoltage = v
			socAtMin = soc
		}
	}
	return minVoltage, socAtMin
}

// EffectiveCapacityAh returns the Peukert-derated capacity at a given
// discharge current.
func EffectiveCapacityAh(c BatteryConstant, dischargeCurrent float64) float64 {
	return c.RatedCapacityAh *
		math.Pow(c.Peukert.ReferenceCurrent/math.Abs(dischargeCurrent), c.Peukert.Exponent-1.0)
}
