// Package plots renders analysis charts for motors and batteries as
// PNG files.
package plots

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"drivesim/electrical"
)

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.Title.Padding = vg.Points(10)

	p.X.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Padding = vg.Points(8)
	p.Y.Label.Padding = vg.Points(8)

	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)
}

func saveLinePlot(path, title, xlabel, ylabel string, xs, ys []float64) error {
	if len(xs) != len(ys) || len(xs) == 0 {
		return fmt.Errorf("plot %s: mismatched or empty data", title)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create plot directory: %w", err)
		}
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	stylePlot(p)

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)
	p.Add(line, plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// SaveTorqueVelocityChart renders the steady-state torque curve of a
// motor at full voltage.
func SaveTorqueVelocityChart(m electrical.MotorConstant, voltage float64, path string) error {
	curve := m.TorqueVelocityCurve(voltage, 200)
	return saveLinePlot(path, fmt.Sprintf("Torque vs velocity at %.1f V", voltage),
		"Velocity (rad/s)", "Torque (Nm)", curve.Velocities, curve.Torques)
}

// SaveDischargeChart renders terminal voltage against time for a
// constant-current discharge.
func SaveDischargeChart(c electrical.BatteryConstant, current, durationS float64, path string) error {
	curve := electrical.SimulateDischarge(c, current, durationS, 1.0)
	return saveLinePlot(path, fmt.Sprintf("Discharge at %.1f A", current),
		"Time (s)", "Terminal voltage (V)", curve.Times, curve.Voltages)
}

// SaveSpeedTrace renders chassis speed against time for a completed
// run.
func SaveSpeedTrace(times, speeds []float64, path string) error {
	return saveLinePlot(path, "Chassis speed", "Time (s)", "Speed (m/s)", times, speeds)
}
