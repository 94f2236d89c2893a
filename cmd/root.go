package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/theapemachine/s3flow/config"
	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/logger"
	"github.com/theapemachine/s3flow/metrics"
	"github.com/theapemachine/s3flow/storage"
)

var (
	cfg *config.Config

	cfgFile     string
	logLevel    string
	endpoint    string
	region      string
	pathStyle   bool
	storageType string
	storagePath string
	showMetrics bool

	registry = prometheus.NewRegistry()
	recorder *metrics.Recorder
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "s3flow",
	Short:         "Flow nodes and conditional uploads for S3 compatible object stores",
	Long:          rootLong,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			if cfg, err = config.Load(cfgFile); err != nil {
				return err
			}
		} else {
			cfg = config.New()
		}

		cfg.SetLogLevel(logLevel)
		cfg.SetEndpoint(endpoint)
		cfg.SetRegion(region)
		cfg.SetStorageType(storageType)
		cfg.SetStoragePath(storagePath)
		if cmd.Flags().Changed("path-style") {
			cfg.ForcePathStyle = pathStyle
		}

		cfg.ApplyLogging()

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		if recorder == nil {
			if recorder, err = metrics.NewRecorder(registry); err != nil {
				return fmt.Errorf("failed to register metrics: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if showMetrics {
			return printMetrics(cmd.ErrOrStderr())
		}
		return nil
	},
}

/*
Execute adds all child commands to the root command and runs it. The context
is canceled on SIGINT or SIGTERM so running uploads stop between objects.
*/
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML); environment variables still win")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&endpoint, "endpoint", "", "S3 compatible endpoint URL")
	flags.StringVar(&region, "region", "", "S3 region")
	flags.BoolVar(&pathStyle, "path-style", false, "use path style addressing")
	flags.StringVar(&storageType, "storage", "", "storage backend (s3, file)")
	flags.StringVar(&storagePath, "storage-path", "", "root directory of the file backend")
	flags.BoolVar(&showMetrics, "metrics", false, "print the collected metrics to stderr when done")
}

// newEnv builds the environment every node invocation of this process shares
func newEnv() *flow.Env {
	return &flow.Env{
		Open:        storage.NewOpener(cfg),
		Reporter:    flow.LogReporter(logger.WithComponent("flow")),
		Logger:      logger.WithComponent("nodes"),
		Recorder:    recorder,
		Concurrency: cfg.Concurrency,
		StrictProbe: cfg.StrictProbe,
	}
}

// requestContext bounds a command by REQUEST_TIMEOUT when one is configured
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if cfg.RequestTimeout > 0 {
		return context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	}
	return context.WithCancel(cmd.Context())
}

/*
readInput returns the bytes of a JSON argument. Values starting with "{" or
"[" are taken literally, "-" reads stdin, anything else is a file path.
*/
func readInput(cmd *cobra.Command, value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)

	switch {
	case trimmed == "":
		return nil, nil
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return []byte(trimmed), nil
	case trimmed == "-":
		return io.ReadAll(cmd.InOrStdin())
	}

	data, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", trimmed, err)
	}
	return data, nil
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// printMetrics writes every collected sample as "name{labels} value"
func printMetrics(w io.Writer) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", label.GetName(), label.GetValue()))
			}

			name := family.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case metric.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", name, metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				histogram := metric.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%gs\n", name, histogram.GetSampleCount(), histogram.GetSampleSum())
			}
		}
	}
	return nil
}

var rootLong = `
s3flow runs the S3 operations of a flow editor from the command line.

Every operation is a node: it reads its parameters from static properties
or from the incoming message, talks to the object store once, and sends a
new message on. The put nodes can upload conditionally: an object whose
stored MD5 ETag already matches the new body is skipped.

The object store is configured through the environment (S3_ENDPOINT,
S3_REGION, S3_ACCESS_KEY_ID, ...), a .env file, or --config. Set
STORAGE_TYPE=file to work against a local directory instead.
`
