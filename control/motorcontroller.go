package control

import (
	"drivesim/electrical"
	"drivesim/simstate"
)

// ControlMode selects which loop of the cascade drives the output duty.
type ControlMode int

const (
	// ModeDutyCycle passes the setpoint straight through as duty.
	ModeDutyCycle ControlMode = iota
	// ModeCurrent regulates measured q-axis current.
	ModeCurrent
	// ModeVelocity regulates measured mechanical velocity.
	ModeVelocity
	// ModePosition regulates the integrated position estimate through
	// the velocity loop.
	ModePosition
)

func (m ControlMode) String() string {
	switch m {
	case ModeDutyCycle:
		return "duty_cycle"
	case ModeCurrent:
		return "current"
	case ModeVelocity:
		return "velocity"
	case ModePosition:
		return "position"
	default:
		return "unknown"
	}
}

// MotorControllerConfig configures one cascaded motor controller.
type MotorControllerConfig struct {
	Mode ControlMode
	// Motor supplies pole pairs (for the electrical angle) and flux
	// linkage (for the torque constant).
	Motor        electrical.MotorConstant
	CurrentPIDF  PIDFConfig
	VelocityPIDF PIDFConfig
	PositionPIDF PIDFConfig
	// MaxCurrent clamps the current-mode target (A).
	MaxCurrent float64
	// MaxVelocity clamps the position loop's velocity command (rad/s).
	MaxVelocity float64
	Commutation Commutation
}

// NewMotorControllerConfig returns a duty-cycle-mode configuration with
// gains workable for a kraken-class drive motor and FOC commutation.
func NewMotorControllerConfig(motor electrical.MotorConstant) MotorControllerConfig {
	return MotorControllerConfig{
		Mode:         ModeDutyCycle,
		Motor:        motor,
		CurrentPIDF:  PI(0.1, 1.0).WithLimits(-1.0, 1.0),
		VelocityPIDF: PI(0.5, 0.1).WithLimits(-100.0, 100.0),
		PositionPIDF: P(5.0).WithLimits(-100.0, 100.0),
		MaxCurrent:   60.0,
		MaxVelocity:  600.0, // ~6000 RPM
		Commutation:  FOCCommutation(),
	}
}

// WithMode sets the control mode.
func (c MotorControllerConfig) WithMode(mode ControlMode) MotorControllerConfig {
	c.Mode = mode
	return c
}

// WithCommutation sets the commutation strategy.
func (c MotorControllerConfig) WithCommutation(comm Commutation) MotorControllerConfig {
	c.Commutation = comm
	return c
}

// WithVelocityController replaces the velocity loop gains.
func (c MotorControllerConfig) WithVelocityController(cfg PIDFConfig) MotorControllerConfig {
	c.VelocityPIDF = cfg
	return c
}

// WithCurrentController replaces the current loop gains.
func (c MotorControllerConfig) WithCurrentController(cfg PIDFConfig) MotorControllerConfig {
	c.CurrentPIDF = cfg
	return c
}

// WithPositionController replaces the position loop gains.
func (c MotorControllerConfig) WithPositionController(cfg PIDFConfig) MotorControllerConfig {
	c.PositionPIDF = cfg
	return c
}

// MotorController cascades the configured loops into a final (q, d)
// duty pair for one motor.
type MotorController struct {
	cfg MotorControllerConfig

	currentCtrl  *PIDFController
	velocityCtrl *PIDFController
	positionCtrl *PIDFController

	setpoint float64
	// positionEstimate integrates measured velocity between updates
	// unless overridden externally for one call.
	positionEstimate   float64
	positionOverridden bool
	kt                 float64
}

// NewMotorController creates a controller from the configuration.
func NewMotorController(cfg MotorControllerConfig) *MotorController {
	return &MotorController{
		cfg:          cfg,
		currentCtrl:  NewPIDFController(cfg.CurrentPIDF),
		velocityCtrl: NewPIDFController(cfg.VelocityPIDF),
		positionCtrl: NewPIDFController(cfg.PositionPIDF),
		kt:           cfg.Motor.Kt(),
	}
}

// SetSetpoint sets the target; units depend on the mode (duty in
// [-1, 1], amps, rad/s, or radians).
func (c *MotorController) SetSetpoint(setpoint float64) {
	c.setpoint = setpoint
}

// Setpoint returns the current target.
func (c *MotorController) Setpoint() float64 {
	return c.setpoint
}

// Kt returns the torque constant derived from the motor constants.
func (c *MotorController) Kt() float64 {
	return c.kt
}

// SetPosition overrides the position estimate for the next update only,
// so syncing to an external encoder does not double-integrate.
func (c *MotorController) SetPosition(position float64) {
	c.positionEstimate = position
	c.positionOverridden = true
}

// Position returns the current position estimate (rad).
func (c *MotorController) Position() float64 {
	return c.positionEstimate
}

// Config returns the controller configuration.
func (c *MotorController) Config() MotorControllerConfig {
	return c.cfg
}

// CommutationEfficiency returns the configured strategy's average
// efficiency.
func (c *MotorController) CommutationEfficiency() float64 {
	return c.cfg.Commutation.AverageEfficiency()
}

// Update runs the cascade for one motor and returns the duty pair,
// both components clamped to [-1, 1].
func (c *MotorController) Update(motor *simstate.MotorState, dt float64) simstate.MotorInput {
	if c.positionOverridden {
		c.positionOverridden = false
	} else {
		c.positionEstimate += motor.MechanicalVelocity * dt
	}

	electricalAngle := c.positionEstimate * float64(c.cfg.Motor.PolePairs)

	var duty float64
	switch c.cfg.Mode {
	case ModeCurrent:
		target := clamp(c.setpoint, -c.cfg.MaxCurrent, c.cfg.MaxCurrent)
		c.currentCtrl.SetSetpoint(target)
		duty = c.currentCtrl.Update(motor.CurrentQ, dt)

	case ModeVelocity:
		// The velocity loop outputs duty directly; the current loop is
		// bypassed for stability at the tested gains.
		c.velocityCtrl.SetSetpoint(c.setpoint)
		duty = c.velocityCtrl.Update(motor.MechanicalVelocity, dt)

	case ModePosition:
		c.positionCtrl.SetSetpoint(c.setpoint)
		targetVelocity := c.positionCtrl.Update(c.positionEstimate, dt)
		targetVelocity = clamp(targetVelocity, -c.cfg.MaxVelocity, c.cfg.MaxVelocity)

		c.velocityCtrl.SetSetpoint(targetVelocity)
		duty = c.velocityCtrl.Update(motor.MechanicalVelocity, dt)

	default: // ModeDutyCycle
		duty = clamp(c.setpoint, -1.0, 1.0)
	}

	out := c.cfg.Commutation.Compute(duty, electricalAngle)
	return simstate.MotorInput{
		DutyCycleQ: clamp(out.DutyQ, -1.0, 1.0),
		DutyCycleD: clamp(out.DutyD, -1.0, 1.0),
	}
}

// Reset clears all three inner controllers, the position estimate and
// the setpoint.
func (c *MotorController) Reset() {
	c.currentCtrl.Reset()
	c.velocityCtrl.Reset()
	c.positionCtrl.Reset()
	c.positionEstimate = 0.0
	c.positionOverridden = false
	c.setpoint = 0.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MotorControllerBank steps a set of motor controllers against the
// shared state, writing one actuator command per motor.
type MotorControllerBank struct {
	Controllers []*MotorController
}

// NewMotorControllerBank creates an empty bank.
func NewMotorControllerBank() *MotorControllerBank {
	return &MotorControllerBank{}
}

// AddController appends a controller to the bank.
func (b *MotorControllerBank) AddController(ctrl *MotorController) {
	b.Controllers = append(b.Controllers, ctrl)
}

// SetSetpoint sets the target for one motor. Out-of-range indexes are
// ignored.
func (b *MotorControllerBank) SetSetpoint(index int, setpoint float64) {
	if index >= 0 && index < len(b.Controllers) {
		b.Controllers[index].SetSetpoint(setpoint)
	}
}

// SetAllSetpoints sets targets for the leading controllers.
func (b *MotorControllerBank) SetAllSetpoints(setpoints []float64) {
	for i, sp := range setpoints {
		b.SetSetpoint(i, sp)
	}
}

// Len returns the number of controllers in the bank.
func (b *MotorControllerBank) Len() int {
	return len(b.Controllers)
}

// Reset resets every controller in the bank.
func (b *MotorControllerBank) Reset() {
	for _, ctrl := range b.Controllers {
		ctrl.Reset()
	}
}

// StepControl updates each controller from its motor state and writes
// the resulting duty command into the control-input section.
func (b *MotorControllerBank) StepControl(ctx simstate.SimContext, state *simstate.SimState) {
	for len(state.ControlInput.MotorInputs) < len(b.Controllers) {
		state.ControlInput.MotorInputs = append(state.ControlInput.MotorInputs, simstate.MotorInput{})
	}
	for i, ctrl := range b.Controllers {
		if i >= len(state.True.Motors) {
			break
		}
		state.ControlInput.MotorInputs[i] = ctrl.Update(&state.True.Motors[i], ctx.DT)
	}
}
