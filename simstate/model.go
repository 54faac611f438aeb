package simstate

// SimContext is the immutable per-step record handed to every model
// invocation. Created fresh each step, passed by value.
type SimContext struct {
	// DT is the timestep duration in seconds.
	DT float64
	// T is the absolute simulation time in seconds.
	T float64
}

// Model is the common capability of every simulation component:
// returning to its rest configuration without discarding constants.
type Model interface {
	Reset()
}

// ElectricalModel advances electrical state (motor currents, battery).
// Electrical dynamics need a much smaller sub-step than mechanical
// dynamics; the caller sub-steps inside each outer step.
type ElectricalModel interface {
	Model
	StepElectrical(ctx SimContext, state *SimState)
}

// MechanicsModel advances mechanical state (tire forces, chassis motion).
type MechanicsModel interface {
	Model
	StepPhysics(ctx SimContext, state *SimState)
}

// ControlModel writes actuator commands into the control-input section.
type ControlModel interface {
	Model
	StepControl(ctx SimContext, state *SimState)
}

// SensorModel populates the sensor bus from true state.
type SensorModel interface {
	Model
	StepSensor(ctx SimContext, state *SimState)
}
