// Package electrical implements the motor d-q current model and the
// battery equivalent-circuit model, plus design-time analysis queries
// derived algebraically from the constants.
package electrical

import "drivesim/simstate"

// standardPolePairs is assumed when deriving constants from catalog
// kv/kt/km figures.
const standardPolePairs = 3

// fluxTorqueScale reconciles the 2/3 flux-linkage convention used by
// the catalog derivation with the 1.5*p*lambda torque equation, so that
// the back-EMF constant comes out right.
const fluxTorqueScale = 1.5

// MotorConstant holds the immutable electrical constants of one motor.
type MotorConstant struct {
	PolePairs   int     `json:"pole_pairs"`
	Resistance  float64 `json:"resistance"`
	InductanceD float64 `json:"inductance_d"`
	InductanceQ float64 `json:"inductance_q"`
	FluxLinkage float64 `json:"flux_linkage"`
}

// MotorFromCatalog derives motor constants from the kv (RPM/V),
// kt (Nm/A) and km (Nm/sqrt(W)) figures published for FRC-style motors.
func MotorFromCatalog(kvRPMPerVolt, ktNmPerAmp, kmNmPerRootWatt float64) MotorConstant {
	_ = kvRPMPerVolt // implied by kt for an ideal PM machine
	inductance := 0.000015
	return MotorConstant{
		PolePairs:   standardPolePairs,
		Resistance:  (ktNmPerAmp / kmNmPerRootWatt) * (ktNmPerAmp / kmNmPerRootWatt),
		InductanceD: inductance,
		InductanceQ: inductance,
		FluxLinkage: (2.0 / 3.0) * ktNmPerAmp / standardPolePairs,
	}
}

// KrakenX60 returns constants for a Kraken X60 class motor.
func KrakenX60() MotorConstant {
	return MotorFromCatalog(502.1, 0.0194, 0.107)
}

// Neo returns constants for a NEO class motor.
func Neo() MotorConstant {
	return MotorFromCatalog(493.5, 0.0181, 0.070)
}

// MotorBank steps the electrical model for a set of motors sharing the
// battery bus. Index i of the bank reads control input i and writes
// motor state i.
type MotorBank struct {
	Constants []MotorConstant
}

// NewMotorBank creates a bank with n copies of the same motor.
func NewMotorBank(motor MotorConstant, n int) *MotorBank {
	b := &MotorBank{Constants: make([]MotorConstant, n)}
	for i := range b.Constants {
		b.Constants[i] = motor
	}
	return b
}

// AddMotor appends a motor to the bank.
func (b *MotorBank) AddMotor(motor MotorConstant) {
	b.Constants = append(b.Constants, motor)
}

// Reset is a no-op; all mutable motor state lives in the shared
// simulation state.
func (b *MotorBank) Reset() {}

func derivativeCurrentD(m MotorConstant, currentD, currentQ, voltageD, electricalVelocity float64) float64 {
	return (voltageD - m.Resistance*currentD + m.InductanceQ*electricalVelocity*currentQ) / m.InductanceD
}

func derivativeCurrentQ(m MotorConstant, currentD, currentQ, voltageQ, electricalVelocity float64) float64 {
	return (voltageQ - m.Resistance*currentQ -
		electricalVelocity*(m.InductanceD*currentD+m.FluxLinkage*fluxTorqueScale)) / m.InductanceQ
}

// StepElectrical integrates the d-q currents forward by explicit Euler
// and updates the applied torque from the interior-permanent-magnet
// torque equation (including the reluctance term from saliency).
//
// ctx.DT must be the electrical sub-step, much smaller than the outer
// mechanical step, or the stiff current dynamics diverge.
func (b *MotorBank) StepElectrical(ctx simstate.SimContext, state *simstate.SimState) {
	dt := ctx.DT
	for i, m := range b.Constants {
		if i >= len(state.True.Motors) || i >= len(state.ControlInput.MotorInputs) {
			break
		}
		input := state.ControlInput.MotorInputs[i]
		voltageQ := input.DutyCycleQ * state.True.Battery.Voltage
		voltageD := input.DutyCycleD * state.True.Battery.Voltage

		motor := &state.True.Motors[i]
		omegaE := motor.MechanicalVelocity * float64(m.PolePairs)

		dID := derivativeCurrentD(m, motor.CurrentD, motor.CurrentQ, voltageD, omegaE)
		dIQ := derivativeCurrentQ(m, motor.CurrentD, motor.CurrentQ, voltageQ, omegaE)

		motor.CurrentD += dID * dt
		motor.CurrentQ += dIQ * dt

		motor.AppliedTorque = 1.5 * float64(m.PolePairs) *
			(m.FluxLinkage*motor.CurrentQ +
				(m.InductanceD-m.InductanceQ)*motor.CurrentD*motor.CurrentQ)
	}
}
