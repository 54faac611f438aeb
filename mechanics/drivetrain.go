package mechanics

import (
	"math"

	"drivesim/simstate"
)

// SwerveConfig describes the chassis geometry and inertias of a swerve
// drivetrain.
type SwerveConfig struct {
	// ModulePositions are the wheel module mounting points relative to
	// the center of mass, [x, y] in meters.
	ModulePositions [][2]float64 `json:"module_positions"`
	// Mass of the chassis (kg).
	Mass float64 `json:"mass"`
	// MomentOfInertia about the yaw axis (kg.m2).
	MomentOfInertia float64 `json:"moment_of_inertia"`
	// WheelInertia of one wheel about its axle (kg.m2), including any
	// drive inertia reflected through the gearing.
	WheelInertia float64 `json:"wheel_inertia"`
	// SteerInertia of one steering mechanism (kg.m2).
	SteerInertia float64 `json:"steer_inertia"`
	// DriveLink couples each motor to its wheel (gear ratio,
	// efficiency). Velocity maps wheel->motor through the same link.
	DriveLink LinkConfig `json:"drive_link"`
	// RollingResistance is the dimensionless rolling coefficient
	// applied against the chassis velocity.
	RollingResistance float64 `json:"rolling_resistance"`
	// DragCoefficientArea is Cd*A (m2) for aerodynamic drag.
	DragCoefficientArea float64 `json:"drag_coefficient_area"`
}

const (
	gravity    = 9.81
	airDensity = 1.225
)

// DefaultSwerveConfig returns a 50 kg square chassis with modules at
// the corners of a 0.6 m square.
func DefaultSwerveConfig() SwerveConfig {
	const halfSide = 0.3
	return SwerveConfig{
		ModulePositions: [][2]float64{
			{halfSide, halfSide},   // front left
			{halfSide, -halfSide},  // front right
			{-halfSide, halfSide},  // back left
			{-halfSide, -halfSide}, // back right
		},
		Mass:            50.0,
		MomentOfInertia: 5.0,
		WheelInertia:    0.01,
		SteerInertia:    0.005,
		DriveLink:       DefaultLinkConfig().WithGearRatio(6.75).WithEfficiency(0.95),
	}
}

// SwerveDrivetrain aggregates per-wheel tire forces and motor torques
// into chassis motion. It owns the wheel contact kinematics: each step
// it derives the contact-point velocities from the body state before
// the forces are summed.
type SwerveDrivetrain struct {
	Config SwerveConfig

	driveLink *MechanicalLink
}

// NewSwerveDrivetrain creates a drivetrain composition.
func NewSwerveDrivetrain(cfg SwerveConfig) *SwerveDrivetrain {
	return &SwerveDrivetrain{
		Config:    cfg,
		driveLink: NewMechanicalLink(cfg.DriveLink),
	}
}

// DriveLink returns the motor-to-wheel link, shared with the caller so
// it can map wheel velocity back into the motor frame.
func (d *SwerveDrivetrain) DriveLink() *MechanicalLink {
	return d.driveLink
}

// Reset is a no-op; all state lives in the shared simulation state.
func (d *SwerveDrivetrain) Reset() {}

// moduleVelocity returns the contact-point velocity of one module in
// its own wheel-aligned frame: v_module = v_body + omega x r, rotated
// by the steer angle.
func (d *SwerveDrivetrain) moduleVelocity(bodyVx, bodyVy, bodyOmega float64, pos [2]float64, steerAngle float64) (longitudinal, lateral float64) {
	vx := bodyVx - bodyOmega*pos[1]
	vy := bodyVy + bodyOmega*pos[0]

	cosA := math.Cos(steerAngle)
	sinA := math.Sin(steerAngle)

	longitudinal = vx*cosA + vy*sinA
	lateral = -vx*sinA + vy*cosA
	return longitudinal, lateral
}

// forcesToBody rotates a module's contact forces back into the body
// frame.
func forcesToBody(longitudinalForce, lateralForce, steerAngle float64) (fx, fy float64) {
	cosA := math.Cos(steerAngle)
	sinA := math.Sin(steerAngle)

	fx = longitudinalForce*cosA - lateralForce*sinA
	fy = longitudinalForce*sinA + lateralForce*cosA
	return fx, fy
}

// StepPhysics updates wheel contact kinematics, spins each wheel up
// from its motor torque against the tire reaction, sums the contact
// forces into chassis acceleration, and integrates the body state by
// semi-implicit Euler.
func (d *SwerveDrivetrain) StepPhysics(ctx simstate.SimContext, state *simstate.SimState) {
	dt := ctx.DT

	body := &state.True.Body
	bodyVx := body.Velocity[0]
	bodyVy := body.Velocity[1]
	bodyOmega := body.AngularVelocity[2]

	var netFx, netFy, netTorque float64

	for i, pos := range d.Config.ModulePositions {
		if i >= len(state.True.WheelStates) {
			continue
		}
		wheel := &state.True.WheelStates[i]

		vLong, vLat := d.moduleVelocity(bodyVx, bodyVy, bodyOmega, pos, wheel.SteerAngle)
		wheel.LongitudinalVelocity = vLong
		wheel.LateralVelocity = vLat

		// The tire model reports longitudinal force in braking
		// convention: positive slip produces a negative force. Negate
		// it for the tractive force on the chassis. The lateral force
		// flips with travel direction, because the slip angle quadrant
		// flips when the contact patch rolls backward.
		fxDrive := -wheel.Tire.LongitudinalForce
		fyDrive := wheel.Tire.LateralForce
		if vLong < 0 {
			fyDrive = -fyDrive
		}

		// Wheel rotational dynamics: motor torque arrives through the
		// drive link; the contact patch pushes back on the wheel with
		// the opposite of the tractive force it puts on the chassis.
		if i < len(state.True.Motors) {
			wheelTorque := d.driveLink.TorqueAToB(state.True.Motors[i].AppliedTorque)
			tireReaction := -fxDrive * wheel.WheelRadius

			angularAccel := (wheelTorque + tireReaction) / d.Config.WheelInertia
			wheel.DrivingAngularVelocity += angularAccel * dt
		}

		fx, fy := forcesToBody(fxDrive, fyDrive, wheel.SteerAngle)
		netFx += fx
		netFy += fy
		netTorque += pos[0]*fy - pos[1]*fx
	}

	// Rolling resistance and aerodynamic drag oppose the chassis
	// velocity.
	speed := math.Hypot(bodyVx, bodyVy)
	if speed > lowSpeedThreshold {
		resist := d.Config.RollingResistance*d.Config.Mass*gravity +
			0.5*airDensity*d.Config.DragCoefficientArea*speed*speed
		netFx -= resist * bodyVx / speed
		netFy -= resist * bodyVy / speed
	}

	ax := netFx / d.Config.Mass
	ay := netFy / d.Config.Mass
	alpha := netTorque / d.Config.MomentOfInertia

	body.Velocity[0] += ax * dt
	body.Velocity[1] += ay * dt
	body.AngularVelocity[2] += alpha * dt

	body.Position[0] += body.Velocity[0] * dt
	body.Position[1] += body.Velocity[1] * dt
	body.Orientation[2] += body.AngularVelocity[2] * dt
}
