package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridpulse/microgrid-dispatch/client"
	"github.com/gridpulse/microgrid-dispatch/config"
	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
	"github.com/gridpulse/microgrid-dispatch/infra/events"
	"github.com/gridpulse/microgrid-dispatch/infra/logger"
	"github.com/gridpulse/microgrid-dispatch/infra/metrics"
	"github.com/gridpulse/microgrid-dispatch/infra/rpc"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "dispatchctl",
	Short: "Microgrid dispatch service CLI",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI. The command context is cancelled on SIGINT or
// SIGTERM so in-flight calls and pagination loops stop cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// newClient builds a client from the configuration file.
func newClient() (*client.Client, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	sink, err := metrics.NewSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	opts := []client.Option{
		client.WithKey(cfg.Server.APIKey),
		client.WithPageSize(cfg.Server.PageSize),
		client.WithLogger(logger.New("dispatch-client")),
		client.WithMetricsSink(sink),
	}
	if cfg.Events.Enabled {
		pub, err := events.NewMQTTPublisher(cfg.Events)
		if err != nil {
			return nil, fmt.Errorf("event publisher: %w", err)
		}
		opts = append(opts, client.WithNotifier(pub))
	}

	return client.New(rpc.New(cfg.Server.Address), opts...), nil
}

// printDispatch writes the record to stdout as indented JSON.
func printDispatch(d dispatch.Dispatch) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dispatch.ToWire(d))
}
