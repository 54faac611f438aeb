// Package sim owns the orchestration of the physics core: the
// Simulator that steps every model in protocol order against the
// shared state, and the scenario-driven Runner.
package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"drivesim/control"
)

// Scenario defines a complete simulation scenario: timing, the control
// mode, and a piecewise-constant setpoint program.
type Scenario struct {
	Meta         ScenarioMeta        `json:"meta"`
	Timing       ScenarioTiming      `json:"timing"`
	Defaults     DriveCommand        `json:"defaults"`
	Segments     []ScenarioSegment   `json:"segments"`
	VelocityPIDF *control.PIDFConfig `json:"velocity_pidf,omitempty"`
	PositionPIDF *control.PIDFConfig `json:"position_pidf,omitempty"`
	CurrentPIDF  *control.PIDFConfig `json:"current_pidf,omitempty"`
}

// ScenarioMeta contains scenario metadata.
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
	// ControlMode is one of "duty_cycle", "current", "velocity",
	// "position". Empty means duty_cycle.
	ControlMode string `json:"control_mode,omitempty"`
	// Commutation is one of "foc", "six_step", "sinusoidal". Empty
	// means foc.
	Commutation string `json:"commutation,omitempty"`
}

// ScenarioTiming defines the stepping and logging rates.
type ScenarioTiming struct {
	DtS          float64 `json:"dt_s"`
	DurationS    float64 `json:"duration_s"`
	LogHz        float64 `json:"log_hz"`
	RealTimeMode bool    `json:"real_time_mode"`
}

// DriveCommand is the setpoint applied to every drive motor plus a
// common steer angle.
type DriveCommand struct {
	Setpoint float64 `json:"setpoint"`
	SteerDeg float64 `json:"steer_deg"`
}

// ScenarioSegment overrides the command over [T0, T1). T1 < 0 means
// until the end of the scenario.
type ScenarioSegment struct {
	T0       float64 `json:"t0"`
	T1       float64 `json:"t1"`
	Setpoint float64 `json:"setpoint"`
	SteerDeg float64 `json:"steer_deg,omitempty"`
	Comment  string  `json:"comment,omitempty"`
}

// ParseControlMode maps a scenario mode string to a control mode.
func ParseControlMode(s string) (control.ControlMode, error) {
	switch s {
	case "", "duty_cycle":
		return control.ModeDutyCycle, nil
	case "current":
		return control.ModeCurrent, nil
	case "velocity":
		return control.ModeVelocity, nil
	case "position":
		return control.ModePosition, nil
	default:
		return control.ModeDutyCycle, fmt.Errorf("unknown control_mode %q", s)
	}
}

// ParseCommutation maps a scenario commutation string to a strategy.
func ParseCommutation(s string) (control.Commutation, error) {
	switch s {
	case "", "foc":
		return control.FOCCommutation(), nil
	case "six_step":
		return control.SixStepCommutation(), nil
	case "sinusoidal":
		return control.SinusoidalCommutation(), nil
	default:
		return control.Commutation{}, fmt.Errorf("unknown commutation %q", s)
	}
}

// LoadScenario loads and validates a scenario from a JSON file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}

	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if scen.Timing.DurationS <= 0 {
		return Scenario{}, fmt.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}
	if scen.Timing.DtS <= 0 {
		return Scenario{}, fmt.Errorf("invalid dt_s: %f", scen.Timing.DtS)
	}
	if scen.Meta.ControlMode == "" {
		scen.Meta.ControlMode = "duty_cycle"
	}
	if _, err := ParseControlMode(scen.Meta.ControlMode); err != nil {
		return Scenario{}, err
	}
	if _, err := ParseCommutation(scen.Meta.Commutation); err != nil {
		return Scenario{}, err
	}

	return scen, nil
}

// EvalCommand evaluates the scenario's command program at time t.
func EvalCommand(scen *Scenario, t float64) DriveCommand {
	cmd := scen.Defaults
	for _, seg := range scen.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = scen.Timing.DurationS
		}
		if t >= seg.T0 && t < t1 {
			cmd.Setpoint = seg.Setpoint
			cmd.SteerDeg = seg.SteerDeg
			break
		}
	}
	return cmd
}
