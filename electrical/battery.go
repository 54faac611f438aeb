package electrical

import (
	"math"

	"drivesim/simstate"
)

// Peukert holds the empirical capacity-derating parameters.
type Peukert struct {
	// Exponent is the Peukert constant; 1.0 disables derating.
	Exponent float64 `json:"exponent"`
	// ReferenceCurrent is the discharge current (A) at which the rated
	// capacity was measured.
	ReferenceCurrent float64 `json:"reference_current"`
}

// DefaultPeukert returns parameters typical of a small sealed
// lead-acid robot battery.
func DefaultPeukert() Peukert {
	return Peukert{Exponent: 1.183, ReferenceCurrent: 0.9}
}

// RCBranch is one polarization branch of the equivalent circuit.
type RCBranch struct {
	Resistance  float64 `json:"resistance"`
	Capacitance float64 `json:"capacitance"`
}

// BatteryConstant holds the immutable battery parameters. The two
// voltage curves are configuration-supplied functions of state of
// charge; they are only guaranteed well-behaved on [0, 1].
type BatteryConstant struct {
	Peukert            Peukert
	RatedCapacityAh    float64
	OpenCircuitVoltage func(soc float64) float64
	OhmicResistance    func(soc float64) float64
	FastBranch         RCBranch
	SlowBranch         RCBranch
}

// DefaultOCVFromSoC is a monotone two-segment cubic Hermite curve
// anchored at 0, 50 and 100 percent charge for a nominal 12 V pack.
func DefaultOCVFromSoC(soc float64) float64 {
	s := math.Min(math.Max(soc, 0.0), 1.0)

	const (
		x0, x1, x2 = 0.0, 0.5, 1.0
		y0, y1, y2 = 11.77, 12.20, 13.03
		// monotone slopes at the anchors
		m0, m1, m2 = 0.46, 1.26, 2.06
	)

	hermite := func(t, h, ya, yb, ma, mb float64) float64 {
		t2 := t * t
		t3 := t2 * t
		h00 := 2.0*t3 - 3.0*t2 + 1.0
		h10 := t3 - 2.0*t2 + t
		h01 := -2.0*t3 + 3.0*t2
		h11 := t3 - t2
		return h00*ya + h10*h*ma + h01*yb + h11*h*mb
	}

	if s <= x1 {
		return hermite((s-x0)/(x1-x0), x1-x0, y0, y1, m0, m1)
	}
	return hermite((s-x1)/(x2-x1), x2-x1, y1, y2, m1, m2)
}

// DefaultR0FromSoC is a U-shaped internal-resistance curve: a strong
// rise near empty and a mild bump near full, normalized so the factor
// is 1 at 60 percent charge.
func DefaultR0FromSoC(soc, rMidOhm float64) float64 {
	const (
		sRef  = 0.60
		aLow  = 0.60 // weight of the low-charge rise
		bLow  = 1.50
		aHigh = 0.40 // weight of the high-charge bump
		bHigh = 2.00
	)

	s := math.Min(math.Max(soc, 0.0), 1.0)

	tl := math.Pow(1.0-s, bLow)
	th := math.Pow(s, bHigh)
	tlRef := math.Pow(1.0-sRef, bLow)
	thRef := math.Pow(sRef, bHigh)

	factor := 1.0 + aLow*(tl-tlRef) + aHigh*(th-thRef)
	return rMidOhm * factor
}

// DefaultBatteryConstant returns parameters for an 11.2 Ah pack with
// the default voltage curves.
func DefaultBatteryConstant() BatteryConstant {
	return BatteryConstant{
		Peukert:            DefaultPeukert(),
		RatedCapacityAh:    11.2,
		OpenCircuitVoltage: DefaultOCVFromSoC,
		OhmicResistance:    func(soc float64) float64 { return DefaultR0FromSoC(soc, 0.008) },
		FastBranch:         RCBranch{Resistance: 0.0027, Capacitance: 741.0},
		SlowBranch:         RCBranch{Resistance: 0.0018, Capacitance: 66667.0},
	}
}

// Battery steps the equivalent-circuit model against the aggregate bus
// current draw written into the battery state by the caller.
type Battery struct {
	Constants BatteryConstant
}

// NewBattery creates a battery model.
func NewBattery(constants BatteryConstant) *Battery {
	return &Battery{Constants: constants}
}

// Reset is a no-op; the battery keeps no state outside the shared
// simulation state.
func (b *Battery) Reset() {}

func peukertEffectiveCapacity(current float64, c *BatteryConstant) float64 {
	return (c.RatedCapacityAh * 3600.0) *
		math.Pow(c.Peukert.ReferenceCurrent/math.Abs(current), c.Peukert.Exponent-1.0)
}

func updateRCBranchVoltage(dt, current, branchVoltage float64, branch RCBranch) float64 {
	decay := math.Exp(-dt / (branch.Capacitance * branch.Resistance))
	return decay*branchVoltage + current*branch.Resistance*(1.0-decay)
}

// StepElectrical advances state of charge, the two polarization
// voltages (by their exact exponential discrete solutions) and the
// terminal voltage.
//
// A draw of exactly zero short-circuits the Peukert derating, which is
// undefined there; charge then holds and the terminal voltage relaxes
// to the open-circuit value. State of charge is not clamped here; the
// owning caller clamps to [0, 1].
func (b *Battery) StepElectrical(ctx simstate.SimContext, state *simstate.SimState) {
	bs := &state.True.Battery
	dt := ctx.DT
	draw := bs.TotalCurrentDraw

	if draw != 0 {
		dSoC := -draw / peukertEffectiveCapacity(draw, &b.Constants)
		bs.StateOfCharge += dSoC * dt
	}

	bs.FastPolarizationVoltage = updateRCBranchVoltage(dt, draw, bs.FastPolarizationVoltage, b.Constants.FastBranch)
	bs.SlowPolarizationVoltage = updateRCBranchVoltage(dt, draw, bs.SlowPolarizationVoltage, b.Constants.SlowBranch)

	bs.Voltage = b.Constants.OpenCircuitVoltage(bs.StateOfCharge) -
		draw*b.Constants.OhmicResistance(bs.StateOfCharge) -
		bs.FastPolarizationVoltage - bs.SlowPolarizationVoltage
}
