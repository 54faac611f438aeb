package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"drivesim/electrical"
	"drivesim/plots"
	"drivesim/sim"
	"drivesim/utils"
)

func main() {
	var (
		scenPath = flag.String("scenario", "scenarios/sprint_10s.json", "Scenario JSON file")
		iface    = flag.String("iface", "", "SocketCAN telemetry interface (empty disables)")
		logPath  = flag.String("logfile", "drivesim.log", "Log file path")
		logLevel = flag.String("log", "info", "trace|debug|info|warn|error|critical")
		plotDir  = flag.String("plots", "", "Directory for analysis charts (empty disables)")
	)
	flag.Parse()

	level, err := utils.ParseLevel(*logLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := utils.NewFileLogger(*logPath, level, true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open " + *logPath + ": " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	cfg := sim.RunnerConfig{
		ScenarioPath: *scenPath,
		Interface:    *iface,
		Simulator:    sim.DefaultSimulatorConfig(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := sim.NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}

	if *plotDir != "" {
		writeCharts(cfg.Simulator, *plotDir, log)
	}
}

func writeCharts(cfg sim.SimulatorConfig, dir string, log *utils.Logger) {
	nominal := cfg.Battery.OpenCircuitVoltage(1.0)

	if err := plots.SaveTorqueVelocityChart(cfg.Motor, nominal, dir+"/torque_velocity.png"); err != nil {
		log.Error("Torque chart failed: %v", err)
	}
	if err := plots.SaveDischargeChart(cfg.Battery, 20.0, 1800.0, dir+"/discharge_20a.png"); err != nil {
		log.Error("Discharge chart failed: %v", err)
	}

	minV, soc := electrical.VoltageSag(cfg.Battery, 120.0)
	log.Info("Analysis: free_speed=%.1f rad/s stall_torque=%.2f Nm sag_min=%.2fV at soc=%.2f",
		cfg.Motor.FreeSpeed(nominal), cfg.Motor.StallTorque(nominal), minV, soc)
}
