package control

import "math"

// CommutationKind selects one of the fixed set of commutation strategies.
// The set is closed, so dispatch is a single switch rather than an
// interface call in the hot loop.
type CommutationKind int

const (
	// CommutationFOC is ideal field-oriented control: all drive on the
	// q-axis, no angle dependence, unit efficiency.
	CommutationFOC CommutationKind = iota
	// CommutationSixStep is trapezoidal switching over six 60-degree
	// sectors per electrical revolution.
	CommutationSixStep
	// CommutationSinusoidal modulates all three phases sinusoidally.
	CommutationSinusoidal
)

func (k CommutationKind) String() string {
	switch k {
	case CommutationFOC:
		return "foc"
	case CommutationSixStep:
		return "six_step"
	case CommutationSinusoidal:
		return "sinusoidal"
	default:
		return "unknown"
	}
}

// CommutationOutput is the result of mapping a commanded duty onto the
// phase axes.
type CommutationOutput struct {
	DutyQ      float64
	DutyD      float64
	Efficiency float64
}

// Commutation maps a commanded duty and rotor electrical angle to
// phase-axis duties plus an instantaneous efficiency factor.
type Commutation struct {
	Kind CommutationKind `json:"kind"`
	// BaseEfficiency is the efficiency floor for the non-ideal kinds
	// (six-step: at sector edges; sinusoidal: everywhere).
	BaseEfficiency float64 `json:"base_efficiency"`
	// RippleAmplitude is the torque ripple as a fraction of mean torque,
	// at six times electrical frequency.
	RippleAmplitude float64 `json:"ripple_amplitude"`
}

// FOCCommutation returns the ideal strategy.
func FOCCommutation() Commutation {
	return Commutation{Kind: CommutationFOC, BaseEfficiency: 1.0}
}

// SixStepCommutation returns trapezoidal commutation with typical
// hobby-controller characteristics.
func SixStepCommutation() Commutation {
	return Commutation{
		Kind:            CommutationSixStep,
		BaseEfficiency:  0.95,
		RippleAmplitude: 0.12,
	}
}

// SinusoidalCommutation returns sinusoidal commutation, between
// six-step and FOC in both efficiency and ripple.
func SinusoidalCommutation() Commutation {
	return Commutation{
		Kind:            CommutationSinusoidal,
		BaseEfficiency:  0.98,
		RippleAmplitude: 0.04,
	}
}

// Compute maps desiredDuty (in [-1, 1]) at the given rotor electrical
// angle to phase-axis duties. The sign of desiredDuty is preserved by
// every strategy; none of them perform field weakening, so DutyD is
// always zero.
func (c Commutation) Compute(desiredDuty, electricalAngle float64) CommutationOutput {
	switch c.Kind {
	case CommutationSixStep:
		angle := math.Mod(electricalAngle, 2*math.Pi)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		sector := math.Floor(angle / (math.Pi / 3.0))
		sectorAngle := angle - sector*(math.Pi/3.0)

		// Efficiency tapers with a cosine from 1.0 at the sector center
		// down to the base efficiency at the edges.
		deviation := math.Abs(sectorAngle - math.Pi/6.0)
		instant := c.BaseEfficiency + (1.0-c.BaseEfficiency)*math.Cos(deviation*3.0)

		ripple := 1.0 + c.RippleAmplitude*math.Sin(6.0*angle)
		return CommutationOutput{
			DutyQ:      desiredDuty * ripple * instant,
			Efficiency: instant,
		}

	case CommutationSinusoidal:
		ripple := 1.0 + c.RippleAmplitude*math.Sin(6.0*electricalAngle)
		return CommutationOutput{
			DutyQ:      desiredDuty * c.BaseEfficiency * ripple,
			Efficiency: c.BaseEfficiency,
		}

	default: // CommutationFOC
		return CommutationOutput{DutyQ: desiredDuty, Efficiency: 1.0}
	}
}

// AverageEfficiency is the mean torque output relative to ideal FOC.
func (c Commutation) AverageEfficiency() float64 {
	if c.Kind == CommutationFOC {
		return 1.0
	}
	return c.BaseEfficiency
}

// TorqueRippleAmplitude is the ripple as a fraction of mean torque.
func (c Commutation) TorqueRippleAmplitude() float64 {
	if c.Kind == CommutationFOC {
		return 0.0
	}
	return c.RippleAmplitude
}
