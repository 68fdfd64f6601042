package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qnetsim/qnetsim/sim"
	"github.com/qnetsim/qnetsim/sim/netspec"
	"github.com/qnetsim/qnetsim/sim/observe"
	"github.com/qnetsim/qnetsim/sim/trace"
)

var (
	cfgFile string // Optional config file holding flag values
)

// runOptions collects everything the run command needs once flags, env and
// the config file have been merged by viper.
type runOptions struct {
	NetworkPath     string
	Seed            *int64   // nil keeps the network file's seed
	Horizon         *float64 // nil keeps the network file's horizon
	MaxCascadeDepth *int
	TraceLevel      string
	DetectDeadlock  bool
	CheckInvariants bool
	MetricsOut      string
	RecordsOut      string
	Tracing         observe.TracingConfig
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "qnetsim",
	Short: "Discrete-event simulator for queueing networks with blocking",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(viper.GetString("log"))
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", viper.GetString("log"))
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := optionsFromViper()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		startTime := time.Now()
		if _, err := runSimulation(cmd.Context(), opts, os.Stdout); err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	},
}

// validateCmd checks a network file without running it
var validateCmd = &cobra.Command{
	Use:   "validate [network.yaml]",
	Short: "Validate a network description",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := viper.GetString("network")
		if len(args) == 1 {
			path = args[0]
		}
		if err := validateNetwork(path, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func optionsFromViper() (runOptions, error) {
	opts := runOptions{
		NetworkPath:     viper.GetString("network"),
		TraceLevel:      viper.GetString("trace"),
		DetectDeadlock:  viper.GetBool("detect-deadlock"),
		CheckInvariants: viper.GetBool("check-invariants"),
		MetricsOut:      viper.GetString("metrics-out"),
		RecordsOut:      viper.GetString("records-out"),
		Tracing:         observe.DefaultTracingConfig(),
	}
	if opts.NetworkPath == "" {
		return opts, fmt.Errorf("no network file given; pass --network")
	}
	if !trace.IsValidTraceLevel(opts.TraceLevel) {
		return opts, fmt.Errorf("invalid trace level %q", opts.TraceLevel)
	}
	if viper.IsSet("seed") {
		seed := viper.GetInt64("seed")
		opts.Seed = &seed
	}
	if viper.IsSet("horizon") {
		horizon := viper.GetFloat64("horizon")
		opts.Horizon = &horizon
	}
	if viper.IsSet("max-cascade-depth") {
		depth := viper.GetInt("max-cascade-depth")
		opts.MaxCascadeDepth = &depth
	}
	opts.Tracing.Enabled = viper.GetBool("tracing")
	opts.Tracing.Exporter = viper.GetString("tracing-exporter")
	opts.Tracing.Endpoint = viper.GetString("tracing-endpoint")
	opts.Tracing.SampleRatio = viper.GetFloat64("tracing-sample-ratio")
	return opts, nil
}

// runSimulation loads the network, applies overrides, runs it to completion
// and writes the report to out.
func runSimulation(ctx context.Context, opts runOptions, out io.Writer) (*sim.Metrics, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	spec, err := netspec.LoadNetworkSpec(opts.NetworkPath)
	if err != nil {
		return nil, err
	}
	run := spec.RunConfig()
	if opts.Seed != nil {
		run.Seed = *opts.Seed
	}
	if opts.Horizon != nil {
		run.Horizon = *opts.Horizon
	}
	if opts.MaxCascadeDepth != nil {
		run.MaxCascadeDepth = *opts.MaxCascadeDepth
	}
	run.DetectDeadlock = opts.DetectDeadlock
	run.CheckInvariants = opts.CheckInvariants
	run.Trace = trace.TraceConfig{Level: trace.TraceLevel(opts.TraceLevel)}

	cfg, err := spec.NetworkConfig(run)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	gauges, err := observe.NewStateGauges(reg)
	if err != nil {
		return nil, err
	}
	cfg.Observers = append(cfg.Observers, gauges)
	cfg.Sinks = append(cfg.Sinks, gauges)

	shutdown, err := observe.InitTracing(ctx, opts.Tracing)
	if err != nil {
		return nil, err
	}
	defer observe.ShutdownWithTimeout(context.Background(), shutdown)
	_, span := observe.Tracer().Start(ctx, "qnetsim.run")
	defer span.End()

	logrus.Infof("Starting simulation of %s: seed=%d horizon=%g", opts.NetworkPath, run.Seed, run.Horizon)
	net, err := sim.NewNetwork(cfg)
	if err != nil {
		return nil, err
	}
	if err := net.Run(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	m := sim.ComputeMetrics(net)
	observe.AnnotateRun(span, m)
	m.Print(out)
	if net.Trace != nil {
		printTraceSummary(out, trace.Summarize(net.Trace))
	}

	if opts.MetricsOut != "" {
		if err := observe.WriteTextFile(opts.MetricsOut, reg); err != nil {
			return nil, err
		}
		logrus.Infof("Metrics written to: %s", opts.MetricsOut)
	}
	if opts.RecordsOut != "" {
		if err := sim.SaveRecords(net.Log.Records, opts.RecordsOut); err != nil {
			return nil, err
		}
		logrus.Infof("Records written to: %s", opts.RecordsOut)
	}
	return m, nil
}

func validateNetwork(path string, out io.Writer) error {
	if path == "" {
		return fmt.Errorf("no network file given")
	}
	spec, err := netspec.LoadNetworkSpec(path)
	if err != nil {
		return err
	}
	if _, err := spec.NetworkConfig(spec.RunConfig()); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: ok (%d nodes, %d classes)\n", path, len(spec.Nodes), spec.Classes)
	return nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Arrivals      : %d (admitted %d, rejected %d)\n", s.TotalArrivals, s.AdmittedCount, s.RejectedCount)
	fmt.Fprintf(w, "Routings      : %d (%d to exit)\n", s.TotalRoutings, s.ExitCount)
	fmt.Fprintf(w, "Blocks        : %d\n", s.BlockCount)
	fmt.Fprintf(w, "Unblocks      : %d (mean wait %.4f, max %.4f)\n", s.UnblockCount, s.MeanBlockedWait, s.MaxBlockedWait)
	from := make([]int, 0, len(s.RouteDistribution))
	for id := range s.RouteDistribution {
		from = append(from, id)
	}
	sort.Ints(from)
	for _, id := range from {
		row := s.RouteDistribution[id]
		to := make([]int, 0, len(row))
		for dest := range row {
			to = append(to, dest)
		}
		sort.Ints(to)
		parts := make([]string, len(to))
		for i, dest := range to {
			parts[i] = fmt.Sprintf("%d:%d", dest, row[dest])
		}
		fmt.Fprintf(w, "  Node %d routes -> %s\n", id, strings.Join(parts, " "))
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Fatalf("unable to read config file %s: %v", cfgFile, err)
		}
	}
	viper.SetEnvPrefix("QNETSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// init sets up CLI flags and subcommands
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file with flag values (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().String("network", "", "Path to the network description (YAML)")

	runCmd.Flags().Int64("seed", 0, "Seed overriding the network file's seed")
	runCmd.Flags().Float64("horizon", 0, "Simulation horizon overriding the network file's (<= 0 runs until idle)")
	runCmd.Flags().Int("max-cascade-depth", 0, "Maximum nested releases per event (0 means no limit)")
	runCmd.Flags().String("trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	runCmd.Flags().Bool("detect-deadlock", true, "Stop the run when the blocking graph deadlocks")
	runCmd.Flags().Bool("check-invariants", false, "Verify node and counter invariants after every event")
	runCmd.Flags().String("metrics-out", "", "Write Prometheus text metrics to this file")
	runCmd.Flags().String("records-out", "", "Write per-visit data records as CSV to this file")

	runCmd.Flags().Bool("tracing", false, "Export an OpenTelemetry span for the run")
	runCmd.Flags().String("tracing-exporter", "stdout", "Span exporter (stdout, otlp)")
	runCmd.Flags().String("tracing-endpoint", "", "OTLP gRPC endpoint (default localhost:4317)")
	runCmd.Flags().Float64("tracing-sample-ratio", 1.0, "Fraction of runs whose span is kept")

	_ = viper.BindPFlags(rootCmd.PersistentFlags())
	_ = viper.BindPFlags(runCmd.Flags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
