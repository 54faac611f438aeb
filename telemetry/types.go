// Package telemetry encodes simulation state into CAN frames and
// transmits them over socketcan, so external tooling can observe a run
// the same way it would observe a real drivetrain.
package telemetry

import "sort"

// SignalDef describes one physical signal packed into a frame.
// Only little-endian packing is supported.
type SignalDef struct {
	Name      string
	StartBit  int
	BitLength int
	Signed    bool
	Factor    float64
	Offset    float64
	Min       float64
	Max       float64
	Default   float64
	Unit      string
}

// FrameDef describes one CAN frame and its signal layout.
type FrameDef struct {
	ID      uint32
	Name    string
	DLC     int
	CycleMS int
	Signals []SignalDef
}

// FrameMap indexes frame definitions by identifier and by name.
type FrameMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

// NewFrameMap builds an indexed map from a set of frame definitions.
func NewFrameMap(frames ...FrameDef) *FrameMap {
	m := &FrameMap{
		ByID:   make(map[uint32]*FrameDef, len(frames)),
		ByName: make(map[string]*FrameDef, len(frames)),
	}
	for i := range frames {
		fd := &frames[i]
		m.ByID[fd.ID] = fd
		m.ByName[fd.Name] = fd
	}
	return m
}

// FrameNames returns the defined frame names in sorted order.
func (m *FrameMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultMap returns the built-in frame layout for a four-module
// drivetrain: chassis state, per-wheel speeds, and the battery bus.
func DefaultMap() *FrameMap {
	wheelSignal := func(name string, slot int) SignalDef {
		return SignalDef{
			Name: name, StartBit: slot * 16, BitLength: 16, Signed: true,
			Factor: 0.01, Min: -327.68, Max: 327.67, Unit: "rad/s",
		}
	}
	return NewFrameMap(
		FrameDef{
			ID: 0x200, Name: "BODY_STATE", DLC: 8, CycleMS: 10,
			Signals: []SignalDef{
				{Name: "velocity_x_mps", StartBit: 0, BitLength: 16, Signed: true,
					Factor: 0.001, Min: -32.768, Max: 32.767, Unit: "m/s"},
				{Name: "velocity_y_mps", StartBit: 16, BitLength: 16, Signed: true,
					Factor: 0.001, Min: -32.768, Max: 32.767, Unit: "m/s"},
				{Name: "yaw_rate_rps", StartBit: 32, BitLength: 16, Signed: true,
					Factor: 0.001, Min: -32.768, Max: 32.767, Unit: "rad/s"},
				{Name: "yaw_deg", StartBit: 48, BitLength: 16, Signed: true,
					Factor: 0.01, Min: -327.68, Max: 327.67, Unit: "deg"},
			},
		},
		FrameDef{
			ID: 0x210, Name: "WHEEL_SPEEDS", DLC: 8, CycleMS: 10,
			Signals: []SignalDef{
				wheelSignal("wheel_fl_rps", 0),
				wheelSignal("wheel_fr_rps", 1),
				wheelSignal("wheel_bl_rps", 2),
				wheelSignal("wheel_br_rps", 3),
			},
		},
		FrameDef{
			ID: 0x220, Name: "BATTERY_STATE", DLC: 8, CycleMS: 100,
			Signals: []SignalDef{
				{Name: "bus_voltage_v", StartBit: 0, BitLength: 16, Signed: false,
					Factor: 0.001, Min: 0, Max: 65.535, Unit: "V"},
				{Name: "bus_current_a", StartBit: 16, BitLength: 16, Signed: true,
					Factor: 0.01, Min: -327.68, Max: 327.67, Unit: "A"},
				{Name: "state_of_charge_pct", StartBit: 32, BitLength: 16, Signed: false,
					Factor: 0.01, Min: 0, Max: 100, Unit: "%"},
			},
		},
	)
}
