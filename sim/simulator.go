package sim

import (
	"math"

	"drivesim/control"
	"drivesim/electrical"
	"drivesim/mechanics"
	"drivesim/simstate"
)

// defaultElectricalDT is the inner sub-step for motor current dynamics.
// Winding time constants sit around L/R ~ 1e-3 s, so the currents need
// a much finer step than the mechanical loop.
const defaultElectricalDT = 1e-4

// SimulatorConfig collects the constants of every model in the core.
type SimulatorConfig struct {
	Drivetrain mechanics.SwerveConfig        `json:"drivetrain"`
	Tire       mechanics.TireConstants       `json:"tire"`
	Motor      electrical.MotorConstant      `json:"motor"`
	Battery    electrical.BatteryConstant    `json:"battery"`
	Controller control.MotorControllerConfig `json:"controller"`
	// WheelRadius in meters, shared by every module.
	WheelRadius float64 `json:"wheel_radius"`
	// ElectricalDT is the inner electrical sub-step in seconds. Zero
	// selects the default.
	ElectricalDT float64 `json:"electrical_dt"`
}

// DefaultSimulatorConfig returns a four-module swerve chassis on
// Kraken X60 drive motors and the default lead-acid pack.
func DefaultSimulatorConfig() SimulatorConfig {
	motor := electrical.KrakenX60()
	return SimulatorConfig{
		Drivetrain:   mechanics.DefaultSwerveConfig(),
		Tire:         mechanics.DefaultTireConstants(),
		Motor:        motor,
		Battery:      electrical.DefaultBatteryConstant(),
		Controller:   control.NewMotorControllerConfig(motor),
		WheelRadius:  0.0508,
		ElectricalDT: defaultElectricalDT,
	}
}

// Simulator owns the shared state and steps every model in protocol
// order: control, electrical, tire contact, drivetrain, battery,
// sensors. It is the only component allowed to write the sensor bus.
type Simulator struct {
	Config SimulatorConfig
	State  *simstate.SimState

	Controllers *control.MotorControllerBank

	motors     *electrical.MotorBank
	battery    *electrical.Battery
	tires      *mechanics.TireManager
	drivetrain *mechanics.SwerveDrivetrain
	t          float64
}

// NewSimulator builds a simulator with one motor, wheel and controller
// per drivetrain module. Per-wheel tire load is the chassis weight
// split evenly.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.ElectricalDT <= 0 {
		cfg.ElectricalDT = defaultElectricalDT
	}
	n := len(cfg.Drivetrain.ModulePositions)
	tireLoad := cfg.Drivetrain.Mass * 9.81 / float64(n)

	bank := control.NewMotorControllerBank()
	for i := 0; i < n; i++ {
		bank.AddController(control.NewMotorController(cfg.Controller))
	}

	return &Simulator{
		Config:      cfg,
		State:       simstate.NewSimState(n, cfg.WheelRadius, tireLoad),
		Controllers: bank,
		motors:      electrical.NewMotorBank(cfg.Motor, n),
		battery:     electrical.NewBattery(cfg.Battery),
		tires:       mechanics.NewTireManager(cfg.Tire, n),
		drivetrain:  mechanics.NewSwerveDrivetrain(cfg.Drivetrain),
	}
}

// Time returns the absolute simulation time in seconds.
func (s *Simulator) Time() float64 {
	return s.t
}

// SetDriveSetpoint applies one setpoint to every drive controller.
func (s *Simulator) SetDriveSetpoint(setpoint float64) {
	for i := 0; i < s.Controllers.Len(); i++ {
		s.Controllers.SetSetpoint(i, setpoint)
	}
}

// SetSteerAngle points every module at the same steer angle (radians).
func (s *Simulator) SetSteerAngle(angle float64) {
	for i := range s.State.True.WheelStates {
		s.State.True.WheelStates[i].SteerAngle = angle
	}
}

// syncMotorVelocities maps each wheel's angular velocity back through
// the drive link into the motor frame. The motors never integrate
// their own mechanical state; the drivetrain owns it.
func (s *Simulator) syncMotorVelocities() {
	link := s.drivetrain.DriveLink()
	for i := range s.State.True.Motors {
		if i >= len(s.State.True.WheelStates) {
			break
		}
		wheelOmega := s.State.True.WheelStates[i].DrivingAngularVelocity
		s.State.True.Motors[i].MechanicalVelocity = link.VelocityBToA(wheelOmega)
	}
}

// busCurrentDraw aggregates the battery current of every motor. The
// d-q currents are reflected through their duty cycles so that a motor
// at partial duty draws proportionally less from the bus.
func (s *Simulator) busCurrentDraw() float64 {
	var draw float64
	for i, m := range s.State.True.Motors {
		if i >= len(s.State.ControlInput.MotorInputs) {
			break
		}
		in := s.State.ControlInput.MotorInputs[i]
		draw += m.CurrentQ*in.DutyCycleQ + m.CurrentD*in.DutyCycleD
	}
	return draw
}

// publishSensors mirrors the true state onto the sensor bus.
func (s *Simulator) publishSensors() {
	bus := &s.State.Sensors
	n := len(s.State.True.WheelStates)
	if len(bus.WheelOmega) != n {
		bus.WheelOmega = make([]float64, n)
		bus.SteerAngle = make([]float64, n)
	}
	for i, w := range s.State.True.WheelStates {
		bus.WheelOmega[i] = w.DrivingAngularVelocity
		bus.SteerAngle[i] = w.SteerAngle
	}

	body := s.State.True.Body
	bus.BodyState = [6]float64{
		body.Position[0], body.Position[1], body.Orientation[2],
		body.Velocity[0], body.Velocity[1], body.AngularVelocity[2],
	}

	bus.Motors = append(bus.Motors[:0], s.State.True.Motors...)
	bus.BatteryVoltage = s.State.True.Battery.Voltage
}

// Step advances the whole core by dt seconds: control first, then the
// sub-stepped electrical dynamics, then tire contact, then the chassis,
// then the battery, and finally the sensor mirror.
func (s *Simulator) Step(dt float64) {
	ctx := simstate.SimContext{DT: dt, T: s.t}

	s.Controllers.StepControl(ctx, s.State)

	for remaining := dt; remaining > 1e-12; {
		sub := math.Min(s.Config.ElectricalDT, remaining)
		s.syncMotorVelocities()
		s.motors.StepElectrical(simstate.SimContext{DT: sub, T: s.t + dt - remaining}, s.State)
		remaining -= sub
	}

	s.tires.StepPhysics(ctx, s.State)
	s.drivetrain.StepPhysics(ctx, s.State)

	s.State.True.Battery.TotalCurrentDraw = s.busCurrentDraw()
	s.battery.StepElectrical(ctx, s.State)
	s.State.True.Battery.StateOfCharge = clampSoC(s.State.True.Battery.StateOfCharge)

	s.publishSensors()
	s.t += dt
}

func clampSoC(soc float64) float64 {
	if soc < 0 {
		return 0
	}
	if soc > 1 {
		return 1
	}
	return soc
}

// Reset returns the whole core to its rest state: full battery, zero
// velocities, fresh controller internals. Constants are kept.
func (s *Simulator) Reset() {
	n := len(s.Config.Drivetrain.ModulePositions)
	tireLoad := s.Config.Drivetrain.Mass * 9.81 / float64(n)
	s.State = simstate.NewSimState(n, s.Config.WheelRadius, tireLoad)

	s.Controllers.Reset()
	s.motors.Reset()
	s.battery.Reset()
	s.tires.Reset()
	s.drivetrain.Reset()
	s.t = 0
}
