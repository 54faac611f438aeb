package mechanics

import (
	"math"

	"drivesim/simstate"
)

// Low-speed guards for the slip computations. Below lowSpeedThreshold
// the slip state is pinned rather than computed, because atan2 and the
// slip-ratio denominator are numerically meaningless there.
const (
	lowSpeedThreshold = 0.01  // m/s
	slipRatioFloor    = 0.001 // m/s, sign-preserving denominator floor
	spinThreshold     = 0.1   // rad/s, wheel counts as spinning in place
)

// TireConstants holds the immutable parameters of one tire's
// combined-slip brush model.
type TireConstants struct {
	LongitudinalFriction  float64 `json:"longitudinal_friction"`
	LateralFriction       float64 `json:"lateral_friction"`
	CorneringStiffness    float64 `json:"cornering_stiffness"`
	LongitudinalStiffness float64 `json:"longitudinal_stiffness"`
	// Relaxation lengths (m). 0 means the slip state tracks its
	// instantaneous value with no filtering.
	LongitudinalRelaxationLength float64 `json:"longitudinal_relaxation_length"`
	LateralRelaxationLength      float64 `json:"lateral_relaxation_length"`
}

// DefaultTireConstants returns unit parameters useful for tests.
func DefaultTireConstants() TireConstants {
	return TireConstants{
		LongitudinalFriction:         1.0,
		LateralFriction:              1.0,
		CorneringStiffness:           1.0,
		LongitudinalStiffness:        1.0,
		LongitudinalRelaxationLength: 1.0,
		LateralRelaxationLength:      1.0,
	}
}

// TireManager steps the contact model for every wheel in the shared
// state. Index i of the manager handles wheel state i.
type TireManager struct {
	Tires []TireConstants
}

// NewTireManager creates a manager for n identical tires.
func NewTireManager(tire TireConstants, n int) *TireManager {
	m := &TireManager{Tires: make([]TireConstants, n)}
	for i := range m.Tires {
		m.Tires[i] = tire
	}
	return m
}

// AddTire appends a tire.
func (m *TireManager) AddTire(tire TireConstants) {
	m.Tires = append(m.Tires, tire)
}

// Reset is a no-op; slip state lives in the shared simulation state.
func (m *TireManager) Reset() {}

// updateSlipAngle advances the (possibly relaxed) slip angle from the
// contact-point velocities.
func updateSlipAngle(wheel *simstate.WheelState, tire TireConstants, dt float64) {
	vLong := wheel.LongitudinalVelocity
	vLat := wheel.LateralVelocity

	if math.Hypot(vLong, vLat) < lowSpeedThreshold {
		wheel.Tire.SlipAngle = 0.0
		return
	}

	// Sign-preserving floor on the denominator; exactly zero defaults
	// positive.
	vLongClamped := vLong
	if math.Abs(vLong) < lowSpeedThreshold {
		if vLong >= 0 {
			vLongClamped = lowSpeedThreshold
		} else {
			vLongClamped = -lowSpeedThreshold
		}
	}
	actual := math.Atan2(vLat, vLongClamped)

	if tire.LateralRelaxationLength == 0 {
		wheel.Tire.SlipAngle = actual
		return
	}
	tau := tire.LateralRelaxationLength / math.Max(math.Abs(vLong), 1e-6)
	wheel.Tire.SlipAngle += (actual - wheel.Tire.SlipAngle) / tau * dt
}

// updateSlipRatio advances the (possibly relaxed) slip ratio.
func updateSlipRatio(wheel *simstate.WheelState, tire TireConstants, dt float64) {
	vLong := wheel.LongitudinalVelocity

	if math.Abs(vLong) < lowSpeedThreshold {
		// Wheel spinning with no ground velocity is pure slip.
		if math.Abs(wheel.DrivingAngularVelocity) > spinThreshold {
			wheel.Tire.SlipRatio = sign(wheel.DrivingAngularVelocity)
		} else {
			wheel.Tire.SlipRatio = 0.0
		}
		return
	}

	actual := (wheel.DrivingAngularVelocity*wheel.WheelRadius - vLong) /
		math.Max(math.Abs(vLong), slipRatioFloor)

	if tire.LongitudinalRelaxationLength == 0 {
		wheel.Tire.SlipRatio = actual
		return
	}
	tau := tire.LongitudinalRelaxationLength / math.Max(math.Abs(vLong), 1e-6)
	wheel.Tire.SlipRatio += (actual - wheel.Tire.SlipRatio) / tau * dt
}

// fialaLongitudinalForce evaluates the cubic brush-model approximation
// in slip ratio. Below the critical slip the cubic matches the
// longitudinal stiffness at zero slip and saturates smoothly; above it
// the force saturates to the friction limit. Braking convention:
// positive slip produces negative force.
func fialaLongitudinalForce(wheel *simstate.WheelState, tire TireConstants) float64 {
	k := wheel.Tire.SlipRatio
	load := wheel.Tire.Load
	mu := tire.LongitudinalFriction
	cs := tire.LongitudinalStiffness

	criticalK := (3.0 * mu * load) / cs
	if math.Abs(k) >= criticalK {
		return -mu * load * sign(k)
	}
	return -cs*k +
		(cs*cs/(3.0*mu*load))*math.Abs(k)*k -
		(cs*cs*cs/(27.0*mu*mu*load*load))*k*k*k
}

// fialaLateralForce evaluates the cubic brush model in tan(slip angle).
func fialaLateralForce(wheel *simstate.WheelState, tire TireConstants) float64 {
	t := math.Tan(wheel.Tire.SlipAngle)
	load := wheel.Tire.Load
	mu := tire.LateralFriction
	ca := tire.CorneringStiffness

	criticalT := (3.0 * mu * load) / ca
	if math.Abs(t) >= criticalT {
		return -mu * load * sign(t)
	}
	return -ca*t +
		(ca*ca/(3.0*mu*load))*math.Abs(t)*t -
		(ca*ca*ca/(27.0*mu*mu*load*load))*t*t*t
}

// ellipticallyScaleForces couples the two force components onto the
// friction ellipse with equal priority: when the combined normalized
// magnitude exceeds 1, both components are divided by it.
func ellipticallyScaleForces(longitudinalForce, lateralForce, load float64, tire TireConstants) (fx, fy float64) {
	combined := math.Hypot(
		longitudinalForce/(tire.LongitudinalFriction*load),
		lateralForce/(tire.LateralFriction*load),
	)
	if combined > 1.0 {
		return longitudinalForce / combined, lateralForce / combined
	}
	return longitudinalForce, lateralForce
}

// StepPhysics advances slip state and contact forces for every wheel.
func (m *TireManager) StepPhysics(ctx simstate.SimContext, state *simstate.SimState) {
	dt := ctx.DT
	for i, tire := range m.Tires {
		if i >= len(state.True.WheelStates) {
			break
		}
		wheel := &state.True.WheelStates[i]

		updateSlipAngle(wheel, tire, dt)
		updateSlipRatio(wheel, tire, dt)

		fx, fy := ellipticallyScaleForces(
			fialaLongitudinalForce(wheel, tire),
			fialaLateralForce(wheel, tire),
			wheel.Tire.Load,
			tire,
		)
		wheel.Tire.LongitudinalForce = fx
		wheel.Tire.LateralForce = fy
	}
}
