// Package mechanics implements the contact and transmission models:
// the tire brush model, the gear/radius mechanical link, and the swerve
// drivetrain composition that turns per-wheel forces into chassis
// motion.
package mechanics

import "math"

// stictionThreshold is the velocity below which Coulomb friction is
// treated as zero (no static-friction resolution against applied
// force).
const stictionThreshold = 0.001

// FrictionKind selects the friction model of a link.
type FrictionKind int

const (
	FrictionNone FrictionKind = iota
	FrictionCoulomb
	FrictionViscous
	FrictionCombined
)

// FrictionModel computes the friction force or torque opposing the load
// side of a link.
type FrictionModel struct {
	Kind           FrictionKind `json:"kind"`
	StaticCoeff    float64      `json:"static_coeff,omitempty"`
	KineticCoeff   float64      `json:"kinetic_coeff,omitempty"`
	NormalForce    float64      `json:"normal_force,omitempty"`
	ViscousDamping float64      `json:"viscous_damping,omitempty"`
}

// CoulombFriction returns a dry-friction model.
func CoulombFriction(staticCoeff, kineticCoeff, normalForce float64) FrictionModel {
	return FrictionModel{
		Kind:         FrictionCoulomb,
		StaticCoeff:  staticCoeff,
		KineticCoeff: kineticCoeff,
		NormalForce:  normalForce,
	}
}

// ViscousFriction returns a velocity-proportional friction model.
func ViscousFriction(damping float64) FrictionModel {
	return FrictionModel{Kind: FrictionViscous, ViscousDamping: damping}
}

// CombinedFriction returns the sum of Coulomb and viscous friction.
func CombinedFriction(staticCoeff, kineticCoeff, normalForce, viscousDamping float64) FrictionModel {
	return FrictionModel{
		Kind:           FrictionCombined,
		StaticCoeff:    staticCoeff,
		KineticCoeff:   kineticCoeff,
		NormalForce:    normalForce,
		ViscousDamping: viscousDamping,
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1.0
	}
	return 1.0
}

// Compute returns the friction force/torque at the given velocity.
// Kinetic friction is zero inside the stiction zone.
func (f FrictionModel) Compute(velocity float64) float64 {
	coulomb := func() float64 {
		if math.Abs(velocity) < stictionThreshold {
			return 0.0
		}
		return -f.KineticCoeff * f.NormalForce * sign(velocity)
	}

	switch f.Kind {
	case FrictionCoulomb:
		return coulomb()
	case FrictionViscous:
		return -f.ViscousDamping * velocity
	case FrictionCombined:
		return coulomb() - f.ViscousDamping*velocity
	default:
		return 0.0
	}
}

// MaxStaticFriction returns the breakaway force for stiction
// calculations; zero for purely viscous models.
func (f FrictionModel) MaxStaticFriction() float64 {
	switch f.Kind {
	case FrictionCoulomb, FrictionCombined:
		return f.StaticCoeff * f.NormalForce
	default:
		return 0.0
	}
}

// LinkConfig configures a mechanical link between a drive side (A) and
// a load side (B).
//
// GearRatio is velocity_A / velocity_B; it must be strictly positive.
// Radius > 0 converts rotational drive to linear load motion; 0 keeps
// the output rotational.
type LinkConfig struct {
	GearRatio   float64       `json:"gear_ratio"`
	Radius      float64       `json:"radius"`
	Efficiency  float64       `json:"efficiency"`
	LoadInertia float64       `json:"load_inertia"`
	Friction    FrictionModel `json:"friction"`
}

// DefaultLinkConfig returns a lossless 1:1 rotational link.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{GearRatio: 1.0, Efficiency: 1.0, LoadInertia: 1.0}
}

// WithGearRatio sets the gear ratio.
func (c LinkConfig) WithGearRatio(ratio float64) LinkConfig {
	c.GearRatio = ratio
	return c
}

// WithRadius sets the rotational-to-linear conversion radius.
func (c LinkConfig) WithRadius(radius float64) LinkConfig {
	c.Radius = radius
	return c
}

// WithEfficiency sets the power-transfer efficiency, clamped to [0, 1].
func (c LinkConfig) WithEfficiency(efficiency float64) LinkConfig {
	c.Efficiency = math.Min(math.Max(efficiency, 0.0), 1.0)
	return c
}

// WithLoadInertia sets the load-side inertia (kg.m2 rotational, kg
// linear).
func (c LinkConfig) WithLoadInertia(inertia float64) LinkConfig {
	c.LoadInertia = inertia
	return c
}

// WithFriction sets the friction model.
func (c LinkConfig) WithFriction(friction FrictionModel) LinkConfig {
	c.Friction = friction
	return c
}

// RotatingBody is one side of a link: it carries velocity, an applied
// torque, and inertia. Both sides are treated symmetrically.
type RotatingBody struct {
	Velocity float64
	Torque   float64
	Inertia  float64
}

// LinkStepResult is the outcome of one coupled-dynamics step, expressed
// in both frames.
type LinkStepResult struct {
	AccelA     float64
	AccelB     float64
	NetTorqueA float64
	NetTorqueB float64
}

// MechanicalLink couples two bodies through a gear ratio, an optional
// radius conversion, an efficiency, and a friction model. Efficiency
// attenuates power transfer only; velocity coupling is exact.
type MechanicalLink struct {
	Config LinkConfig
}

// NewMechanicalLink creates a link.
func NewMechanicalLink(cfg LinkConfig) *MechanicalLink {
	return &MechanicalLink{Config: cfg}
}

// IsLinearOutput reports whether the load side moves linearly.
func (l *MechanicalLink) IsLinearOutput() bool {
	return l.Config.Radius > 0
}

// TorqueAToB transfers drive torque to the load side:
// torque_B = torque_A * ratio * efficiency, divided by radius when
// the output is linear (yielding a force).
func (l *MechanicalLink) TorqueAToB(torqueA float64) float64 {
	out := torqueA * l.Config.GearRatio * l.Config.Efficiency
	if l.IsLinearOutput() {
		return out / l.Config.Radius
	}
	return out
}

// TorqueBToA transfers load torque (or force, for a linear load) back
// to the drive side.
func (l *MechanicalLink) TorqueBToA(torqueB float64) float64 {
	in := torqueB
	if l.IsLinearOutput() {
		in = torqueB * l.Config.Radius
	}
	return in / l.Config.GearRatio * l.Config.Efficiency
}

// VelocityAToB maps drive velocity to load velocity. No efficiency
// factor: kinematics are exact.
func (l *MechanicalLink) VelocityAToB(velocityA float64) float64 {
	if l.IsLinearOutput() {
		return velocityA / l.Config.GearRatio * l.Config.Radius
	}
	return velocityA / l.Config.GearRatio
}

// VelocityBToA maps load velocity back to drive velocity.
func (l *MechanicalLink) VelocityBToA(velocityB float64) float64 {
	if l.IsLinearOutput() {
		return velocityB / l.Config.Radius * l.Config.GearRatio
	}
	return velocityB * l.Config.GearRatio
}

// InertiaAToB reflects drive-side inertia into the load frame:
// J / ratio^2 rotational, J / (ratio/radius)^2 linear.
func (l *MechanicalLink) InertiaAToB(inertiaA float64) float64 {
	if l.IsLinearOutput() {
		r := l.Config.GearRatio / l.Config.Radius
		return inertiaA / (r * r)
	}
	return inertiaA / (l.Config.GearRatio * l.Config.GearRatio)
}

// InertiaBToA reflects load-side inertia into the drive frame.
func (l *MechanicalLink) InertiaBToA(inertiaB float64) float64 {
	if l.IsLinearOutput() {
		r := l.Config.GearRatio / l.Config.Radius
		return inertiaB * r * r
	}
	return inertiaB * l.Config.GearRatio * l.Config.GearRatio
}

// TotalEffectiveInertia is the configured load inertia plus the drive
// inertia reflected into the load frame.
func (l *MechanicalLink) TotalEffectiveInertia(inertiaA float64) float64 {
	return l.Config.LoadInertia + l.InertiaAToB(inertiaA)
}

// ComputeFriction evaluates the friction model at the load velocity.
func (l *MechanicalLink) ComputeFriction(velocityB float64) float64 {
	return l.Config.Friction.Compute(velocityB)
}

// StepCoupled solves the two-body coupled dynamics: torques are summed
// in B's frame, divided by the total reflected inertia, and the
// resulting acceleration converted back to A's frame.
func (l *MechanicalLink) StepCoupled(bodyA, bodyB RotatingBody, externalForceB float64) LinkStepResult {
	netTorqueB := l.TorqueAToB(bodyA.Torque) + bodyB.Torque +
		l.ComputeFriction(bodyB.Velocity) + externalForceB

	totalInertiaB := bodyB.Inertia + l.InertiaAToB(bodyA.Inertia)
	accelB := netTorqueB / totalInertiaB

	return LinkStepResult{
		AccelA:     l.VelocityBToA(accelB),
		AccelB:     accelB,
		NetTorqueA: l.TorqueBToA(netTorqueB),
		NetTorqueB: netTorqueB,
	}
}

// ComputeLoadAcceleration is the one-sided form: drive torque against
// the configured load inertia plus friction and an external force.
// Returns the load acceleration and the net force on the load.
func (l *MechanicalLink) ComputeLoadAcceleration(driveTorque, driveInertia, loadVelocity, externalForce float64) (accel, netForce float64) {
	netForce = l.TorqueAToB(driveTorque) + l.ComputeFriction(loadVelocity) + externalForce
	accel = netForce / l.TotalEffectiveInertia(driveInertia)
	return accel, netForce
}
