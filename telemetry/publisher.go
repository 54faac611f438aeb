package telemetry

import (
	"context"
	"fmt"
	"math"

	"drivesim/simstate"
)

// Publisher maps simulation state onto the frame layout and transmits
// it. It encodes from the sensor bus, never from true state, so the
// wire carries exactly what an observer of the real system would see.
type Publisher struct {
	frames *FrameMap
	writer FrameWriter
}

// NewPublisher creates a publisher over the given transport.
func NewPublisher(frames *FrameMap, writer FrameWriter) *Publisher {
	return &Publisher{frames: frames, writer: writer}
}

// Publish encodes and transmits the body, wheel and battery frames for
// the current state.
func (p *Publisher) Publish(ctx context.Context, state *simstate.SimState) error {
	bus := &state.Sensors

	bodyValues := map[string]float64{
		"velocity_x_mps": bus.BodyState[3],
		"velocity_y_mps": bus.BodyState[4],
		"yaw_rate_rps":   bus.BodyState[5],
		"yaw_deg":        bus.BodyState[2] * 180 / math.Pi,
	}

	wheelValues := map[string]float64{}
	names := []string{"wheel_fl_rps", "wheel_fr_rps", "wheel_bl_rps", "wheel_br_rps"}
	for i, name := range names {
		if i < len(bus.WheelOmega) {
			wheelValues[name] = bus.WheelOmega[i]
		}
	}

	batteryValues := map[string]float64{
		"bus_voltage_v":       bus.BatteryVoltage,
		"bus_current_a":       state.True.Battery.TotalCurrentDraw,
		"state_of_charge_pct": state.True.Battery.StateOfCharge * 100,
	}

	for name, values := range map[string]map[string]float64{
		"BODY_STATE":    bodyValues,
		"WHEEL_SPEEDS":  wheelValues,
		"BATTERY_STATE": batteryValues,
	} {
		frame, err := p.frames.EncodeFrame(name, values)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := p.writer.WriteFrame(ctx, frame); err != nil {
			return fmt.Errorf("transmit %s: %w", name, err)
		}
	}
	return nil
}
