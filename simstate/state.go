package simstate

// BridgeMode describes the state of a motor's drive bridge.
type BridgeMode int

const (
	BridgeClosed BridgeMode = iota
	BridgeOpen
	BridgeShorted
)

func (m BridgeMode) String() string {
	switch m {
	case BridgeClosed:
		return "closed"
	case BridgeOpen:
		return "open"
	case BridgeShorted:
		return "shorted"
	default:
		return "unknown"
	}
}

// MotorState holds the electrical and mechanical state of one motor.
// Currents are in the rotating d-q frame.
type MotorState struct {
	CurrentQ           float64    `json:"current_q"`
	CurrentD           float64    `json:"current_d"`
	MechanicalVelocity float64    `json:"mechanical_velocity"`
	AppliedTorque      float64    `json:"applied_torque"`
	Bridge             BridgeMode `json:"bridge_mode"`
}

// TireState holds the slip state and contact forces of a single tire.
type TireState struct {
	SlipAngle         float64 `json:"slip_angle"`
	SlipRatio         float64 `json:"slip_ratio"`
	LongitudinalForce float64 `json:"longitudinal_force"`
	LateralForce      float64 `json:"lateral_force"`
	Load              float64 `json:"load"`
}

// WheelState holds the kinematic state of one wheel plus its tire sub-state.
// Contact-point velocities are expressed in the wheel's local frame.
type WheelState struct {
	DrivingAngularVelocity float64   `json:"driving_angular_velocity"`
	WheelRadius            float64   `json:"wheel_radius"`
	TurningAngularVelocity float64   `json:"turning_angular_velocity"`
	LongitudinalVelocity   float64   `json:"longitudinal_velocity"`
	LateralVelocity        float64   `json:"lateral_velocity"`
	Tire                   TireState `json:"tire"`
	SteerAngle             float64   `json:"steer_angle"`
}

// BodyState holds the chassis rigid-body state. Orientation is roll,
// pitch, yaw.
type BodyState struct {
	Position        [3]float64 `json:"position"`
	Velocity        [3]float64 `json:"velocity"`
	Orientation     [3]float64 `json:"orientation"`
	AngularVelocity [3]float64 `json:"angular_velocity"`
	CenterOfMass    [3]float64 `json:"center_of_mass"`
}

// BatteryState holds the equivalent-circuit state of the bus battery.
type BatteryState struct {
	StateOfCharge           float64 `json:"state_of_charge"`
	Voltage                 float64 `json:"voltage"`
	FastPolarizationVoltage float64 `json:"fast_polarization_voltage"`
	SlowPolarizationVoltage float64 `json:"slow_polarization_voltage"`
	TotalCurrentDraw        float64 `json:"total_current_draw"`
}

// DefaultBatteryState returns a battery at rest and full charge on a
// nominal 12 V bus.
func DefaultBatteryState() BatteryState {
	return BatteryState{
		StateOfCharge: 1.0,
		Voltage:       12.0,
	}
}

// MotorInput is one actuator command: a pair of duty cycles interpreted
// as fractions of the battery terminal voltage. Both are expected in
// [-1, 1] after clamping by the control layer.
type MotorInput struct {
	DutyCycleQ float64 `json:"duty_cycle_q"`
	DutyCycleD float64 `json:"duty_cycle_d"`
}

// ActuatorInput is the control-input section of the shared state.
type ActuatorInput struct {
	MotorInputs []MotorInput `json:"motor_inputs"`
}

// TrueState is the canonical physical state advanced by the models.
type TrueState struct {
	WheelStates []WheelState `json:"wheel_states"`
	Body        BodyState    `json:"body_state"`
	Motors      []MotorState `json:"motors"`
	Battery     BatteryState `json:"battery_state"`
}

// SensorBus mirrors selected true-state fields for downstream consumers.
// It is written by the orchestrating caller, never by the physics models.
type SensorBus struct {
	WheelOmega     []float64    `json:"wheel_omega"`
	SteerAngle     []float64    `json:"steer_angle"`
	BodyState      [6]float64   `json:"body_state"`
	Motors         []MotorState `json:"motors"`
	BatteryVoltage float64      `json:"battery_voltage"`
}

// SimState is the single mutable aggregate passed by exclusive reference
// to each model in turn. Step ordering is a caller protocol: electrical,
// then contact/link, then drivetrain composition, then battery.
type SimState struct {
	True         TrueState     `json:"true_state"`
	ControlInput ActuatorInput `json:"control_input"`
	Sensors      SensorBus     `json:"sensor_bus"`
}

// NewSimState builds a state sized for n motor/wheel pairs, at rest and
// with the battery fully charged. Per-wheel tire load is split evenly.
func NewSimState(n int, wheelRadius, tireLoad float64) *SimState {
	s := &SimState{}
	s.True.WheelStates = make([]WheelState, n)
	for i := range s.True.WheelStates {
		s.True.WheelStates[i].WheelRadius = wheelRadius
		s.True.WheelStates[i].Tire.Load = tireLoad
	}
	s.True.Motors = make([]MotorState, n)
	s.True.Battery = DefaultBatteryState()
	s.ControlInput.MotorInputs = make([]MotorInput, n)
	return s
}
