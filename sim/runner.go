package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"drivesim/telemetry"
	"drivesim/utils"
)

// RunnerConfig selects the scenario and the optional telemetry output.
type RunnerConfig struct {
	ScenarioPath string
	// Interface is the socketcan interface for telemetry (can0, vcan0).
	// Empty disables transmission.
	Interface string
	Simulator SimulatorConfig
}

// Runner drives a Simulator through a scenario: it evaluates the
// setpoint program each step, advances the core, logs at the scenario
// rate, and optionally mirrors the sensor bus onto CAN.
type Runner struct {
	cfg    RunnerConfig
	log    *utils.Logger
	scen   Scenario
	sim    *Simulator
	pub    *telemetry.Publisher
	writer telemetry.FrameWriter
}

// NewRunner loads the scenario, configures the control stack from it,
// and dials the telemetry interface when one is named.
func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	scen, err := LoadScenario(cfg.ScenarioPath)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	mode, err := ParseControlMode(scen.Meta.ControlMode)
	if err != nil {
		return nil, err
	}
	comm, err := ParseCommutation(scen.Meta.Commutation)
	if err != nil {
		return nil, err
	}

	simCfg := cfg.Simulator
	simCfg.Controller = simCfg.Controller.WithMode(mode).WithCommutation(comm)
	if scen.VelocityPIDF != nil {
		simCfg.Controller = simCfg.Controller.WithVelocityController(*scen.VelocityPIDF)
	}
	if scen.PositionPIDF != nil {
		simCfg.Controller = simCfg.Controller.WithPositionController(*scen.PositionPIDF)
	}
	if scen.CurrentPIDF != nil {
		simCfg.Controller = simCfg.Controller.WithCurrentController(*scen.CurrentPIDF)
	}

	r := &Runner{
		cfg:  cfg,
		log:  log,
		scen: scen,
		sim:  NewSimulator(simCfg),
	}

	if cfg.Interface != "" {
		writer, err := telemetry.NewSocketCANWriter(ctx, cfg.Interface)
		if err != nil {
			return nil, err
		}
		r.writer = writer
		r.pub = telemetry.NewPublisher(telemetry.DefaultMap(), writer)
	}

	return r, nil
}

// Simulator exposes the underlying core, mainly for inspection after a
// run.
func (r *Runner) Simulator() *Simulator {
	return r.sim
}

func (r *Runner) Close() {
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

// logInterval returns the number of steps between log lines.
func (r *Runner) logInterval() int {
	if r.scen.Timing.LogHz <= 0 {
		return 1
	}
	interval := int(math.Round(1.0 / (r.scen.Timing.LogHz * r.scen.Timing.DtS)))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// Run executes the scenario to completion or context cancellation. In
// real-time mode each step is paced by a wall-clock ticker; otherwise
// the loop runs as fast as it can.
func (r *Runner) Run(ctx context.Context) error {
	dt := r.scen.Timing.DtS
	steps := int(math.Ceil(r.scen.Timing.DurationS / dt))
	logEvery := r.logInterval()

	r.log.Info("Starting run: scenario=%s mode=%s commutation=%s dt=%.4fs duration=%.2fs steps=%d realtime=%v",
		r.scen.Meta.Name, r.scen.Meta.ControlMode, r.scen.Meta.Commutation,
		dt, r.scen.Timing.DurationS, steps, r.scen.Timing.RealTimeMode)

	var ticker *time.Ticker
	if r.scen.Timing.RealTimeMode {
		ticker = time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer ticker.Stop()
	}

	for i := 0; i < steps; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				r.log.Warn("Context canceled at t=%.3f", r.sim.Time())
				return ctx.Err()
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			r.log.Warn("Context canceled at t=%.3f", r.sim.Time())
			return ctx.Err()
		}

		cmd := EvalCommand(&r.scen, r.sim.Time())
		r.sim.SetDriveSetpoint(cmd.Setpoint)
		r.sim.SetSteerAngle(cmd.SteerDeg * math.Pi / 180)

		r.sim.Step(dt)

		if i%logEvery == 0 {
			r.logState(cmd)
			if r.pub != nil {
				if err := r.pub.Publish(ctx, r.sim.State); err != nil {
					r.log.Error("Telemetry publish failed at t=%.3f: %v", r.sim.Time(), err)
					return err
				}
			}
		}
	}

	body := r.sim.State.True.Body
	r.log.Info("Run complete: t=%.2fs speed=%.3fm/s soc=%.3f voltage=%.2fV",
		r.sim.Time(), math.Hypot(body.Velocity[0], body.Velocity[1]),
		r.sim.State.True.Battery.StateOfCharge, r.sim.State.True.Battery.Voltage)
	return nil
}

func (r *Runner) logState(cmd DriveCommand) {
	s := r.sim.State
	body := s.True.Body
	speed := math.Hypot(body.Velocity[0], body.Velocity[1])

	var wheelOmega float64
	if len(s.True.WheelStates) > 0 {
		wheelOmega = s.True.WheelStates[0].DrivingAngularVelocity
	}

	r.log.Debug("t=%.3f sp=%.2f steer=%.1f speed=%.3f wheel_omega=%.2f draw=%.2fA v=%.2fV soc=%.4f",
		r.sim.Time(), cmd.Setpoint, cmd.SteerDeg, speed, wheelOmega,
		s.True.Battery.TotalCurrentDraw, s.True.Battery.Voltage,
		s.True.Battery.StateOfCharge)
}
