// Package control implements the closed-loop control stack: a PIDF
// controller with anti-windup, commutation strategies, and the cascaded
// motor controller that ties them together.
package control

import "math"

// PIDFConfig holds the gains and limits of a PIDF controller.
//
// IZone <= 0 means the integral accumulates on every update; a positive
// IZone restricts accumulation to |error| < IZone.
type PIDFConfig struct {
	Kp        float64 `json:"kp"`
	Ki        float64 `json:"ki"`
	Kd        float64 `json:"kd"`
	Kf        float64 `json:"kf"`
	IZone     float64 `json:"i_zone,omitempty"`
	IMax      float64 `json:"i_max"`
	OutputMin float64 `json:"output_min"`
	OutputMax float64 `json:"output_max"`
}

// DefaultPIDFConfig returns a zero-gain configuration with unbounded
// integral and output.
func DefaultPIDFConfig() PIDFConfig {
	return PIDFConfig{
		IMax:      math.MaxFloat64,
		OutputMin: math.Inf(-1),
		OutputMax: math.Inf(1),
	}
}

// P creates a proportional-only configuration.
func P(kp float64) PIDFConfig {
	c := DefaultPIDFConfig()
	c.Kp = kp
	return c
}

// PI creates a proportional-integral configuration.
func PI(kp, ki float64) PIDFConfig {
	c := P(kp)
	c.Ki = ki
	return c
}

// PID creates a proportional-integral-derivative configuration.
func PID(kp, ki, kd float64) PIDFConfig {
	c := PI(kp, ki)
	c.Kd = kd
	return c
}

// PIDF creates a configuration with all four gains.
func PIDF(kp, ki, kd, kf float64) PIDFConfig {
	c := PID(kp, ki, kd)
	c.Kf = kf
	return c
}

// WithLimits sets the output clamp range.
func (c PIDFConfig) WithLimits(min, max float64) PIDFConfig {
	c.OutputMin = min
	c.OutputMax = max
	return c
}

// WithIMax sets the integral accumulator clamp magnitude.
func (c PIDFConfig) WithIMax(iMax float64) PIDFConfig {
	c.IMax = iMax
	return c
}

// WithIZone sets the integral-active error band.
func (c PIDFConfig) WithIZone(iZone float64) PIDFConfig {
	c.IZone = iZone
	return c
}

// PIDFController is a single-input single-output closed-loop controller.
// The derivative term is computed on the measurement, not the error, so
// setpoint changes do not produce a derivative kick.
type PIDFController struct {
	cfg PIDFConfig

	integral float64
	prevMeas float64
	hasPrev  bool
	setpoint float64
}

// NewPIDFController creates a controller with the given configuration.
func NewPIDFController(cfg PIDFConfig) *PIDFController {
	return &PIDFController{cfg: cfg}
}

// SetSetpoint updates the target value.
func (p *PIDFController) SetSetpoint(setpoint float64) {
	p.setpoint = setpoint
}

// Setpoint returns the current target value.
func (p *PIDFController) Setpoint() float64 {
	return p.setpoint
}

// Reset zeroes the integral and drops the remembered measurement; the
// next update has no derivative contribution.
func (p *PIDFController) Reset() {
	p.integral = 0.0
	p.prevMeas = 0.0
	p.hasPrev = false
}

// Update computes the control output for a new measurement.
//
// dt <= 0 disables both integral accumulation and the derivative term
// for this call. The integral accumulator is clamped to +-IMax before
// scaling by Ki (clamp-then-scale anti-windup).
func (p *PIDFController) Update(measurement, dt float64) float64 {
	err := p.setpoint - measurement

	pTerm := p.cfg.Kp * err

	inZone := p.cfg.IZone <= 0 || math.Abs(err) < p.cfg.IZone
	if inZone && dt > 0 {
		p.integral += err * dt
		if p.integral > p.cfg.IMax {
			p.integral = p.cfg.IMax
		} else if p.integral < -p.cfg.IMax {
			p.integral = -p.cfg.IMax
		}
	}
	iTerm := p.cfg.Ki * p.integral

	var dTerm float64
	if p.hasPrev && dt > 0 {
		// Derivative on measurement, hence the negation.
		dTerm = -p.cfg.Kd * (measurement - p.prevMeas) / dt
	}
	p.prevMeas = measurement
	p.hasPrev = true

	fTerm := p.cfg.Kf * p.setpoint

	out := pTerm + iTerm + dTerm + fTerm
	if out > p.cfg.OutputMax {
		return p.cfg.OutputMax
	}
	if out < p.cfg.OutputMin {
		return p.cfg.OutputMin
	}
	return out
}

// Integral returns the current accumulator value.
func (p *PIDFController) Integral() float64 {
	return p.integral
}

// Config returns the controller configuration.
func (p *PIDFController) Config() PIDFConfig {
	return p.cfg
}
