package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/resink-ai/resinker/internal/config"
	"github.com/resink-ai/resinker/internal/observability"
	"github.com/resink-ai/resinker/internal/orchestrator"
	"github.com/resink-ai/resinker/internal/sink"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "run":
		return runCommand(args[1:])
	case "validate":
		return validateCommand(args[1:])
	case "info":
		return infoCommand(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		return 1
	}
}

func runCommand(args []string) int {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "Path to the YAML configuration file")
	verbose := flags.BoolP("verbose", "v", false, "Enable verbose logging")
	metricsPort := flags.String("metrics-port", "", "Expose Prometheus metrics on this port")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "run: -c/--config is required")
		return 1
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	if *metricsPort != "" {
		cfg.Observability.Metrics.Enabled = true
		cfg.Observability.Metrics.Port = *metricsPort
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	metrics := observability.NewMetrics()
	if cfg.Observability.Metrics.Enabled {
		srv := metrics.Serve(cfg.Observability.Metrics.Port)
		defer func() { _ = srv.Close() }()
		logger.Info("metrics endpoint enabled", zap.String("port", cfg.Observability.Metrics.Port))
	}

	sinks, err := sink.Build(cfg.Outputs, logger)
	if err != nil {
		logger.Error("failed to build sinks", zap.Error(err))
		return 1
	}
	defer sink.CloseAll(sinks, logger)

	orch, err := orchestrator.New(cfg, logger, metrics, sinks)
	if err != nil {
		logger.Error("failed to create orchestrator", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orch.Initialize(); err != nil {
		logger.Error("failed to initialize simulation", zap.Error(err))
		return 1
	}
	if err := orch.Run(ctx); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		return 1
	}
	return 0
}

func validateCommand(args []string) int {
	flags := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "Path to the YAML configuration file")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "validate: -c/--config is required")
		return 1
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration validation failed: %v\n", err)
		return 1
	}
	fmt.Printf("Configuration is valid: %s\n", cfg.Version)
	return 0
}

func infoCommand(args []string) int {
	flags := pflag.NewFlagSet("info", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "Path to the YAML configuration file")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "info: -c/--config is required")
		return 1
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	settings := cfg.SimulationSettings

	fmt.Println("\nResinker Configuration Information")
	fmt.Println("================================")
	fmt.Printf("Version: %s\n", cfg.Version)

	fmt.Println("\nSimulation Settings:")
	fmt.Printf("  Duration: %s\n", orNotSpecified(settings.Duration))
	if settings.TotalEvents != nil {
		fmt.Printf("  Total Events: %d\n", *settings.TotalEvents)
	} else {
		fmt.Println("  Total Events: Not specified")
	}
	if settings.RandomSeed != nil {
		fmt.Printf("  Random Seed: %d\n", *settings.RandomSeed)
	} else {
		fmt.Println("  Random Seed: Not specified")
	}
	fmt.Printf("  Start Time: %s\n", settings.TimeProgression.StartTime)
	fmt.Printf("  Time Multiplier: %g\n", settings.TimeProgression.TimeMultiplier)

	if len(settings.InitialEntityCounts) > 0 {
		fmt.Println("\nInitial Entity Counts:")
		for _, entityType := range sortedKeys(settings.InitialEntityCounts) {
			fmt.Printf("  %s: %d\n", entityType, settings.InitialEntityCounts[entityType])
		}
	}

	fmt.Printf("\nSchemas: %d defined\n", len(cfg.Schemas))

	fmt.Printf("\nEntities: %d defined\n", len(cfg.Entities))
	for _, name := range sortedKeys(cfg.Entities) {
		fmt.Printf("  - %s\n", name)
	}

	fmt.Printf("\nEvent Types: %d defined\n", len(cfg.EventTypes))
	for _, name := range sortedKeys(cfg.EventTypes) {
		fmt.Printf("  - %s\n", name)
	}

	if len(cfg.Scenarios) > 0 {
		fmt.Printf("\nScenarios: %d defined\n", len(cfg.Scenarios))
		for _, name := range sortedKeys(cfg.Scenarios) {
			fmt.Printf("  - %s\n", name)
		}
	}

	if len(cfg.Outputs) > 0 {
		fmt.Printf("\nOutputs: %d configured\n", len(cfg.Outputs))
		for i, out := range cfg.Outputs {
			status := "enabled"
			if !out.Enabled {
				status = "disabled"
			}
			fmt.Printf("  %d. %s (%s)\n", i+1, out.Type, status)
		}
	}
	return 0
}

func orNotSpecified(v string) string {
	if v == "" {
		return "Not specified"
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  run       Run a simulation\n")
	fmt.Fprintf(os.Stderr, "  validate  Validate a configuration file\n")
	fmt.Fprintf(os.Stderr, "  info      Display information about a configuration file\n")
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	fmt.Fprintf(os.Stderr, "  -c, --config\t\tPath to the YAML configuration file (required)\n")
	fmt.Fprintf(os.Stderr, "  -v, --verbose\t\tEnable verbose logging (run only)\n")
	fmt.Fprintf(os.Stderr, "      --metrics-port\tExpose Prometheus metrics on this port (run only)\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
	fmt.Fprintf(os.Stderr, "  RESINKER_LOG_LEVEL, RESINKER_LOG_FORMAT, RESINKER_METRICS_PORT\n")
	fmt.Fprintf(os.Stderr, "\nExample usage:\n")
	fmt.Fprintf(os.Stderr, "  %s run -c ./simulation.yaml -v\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s validate -c ./simulation.yaml\n", os.Args[0])
}
