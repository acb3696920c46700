package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cutgraph/internal/server"
	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/observability"
)

// serveOpts holds the command-line flags for the serve command. Flags
// that are set override the config file.
type serveOpts struct {
	addr      string
	backend   string
	dir       string
	redisAddr string
	noMetrics bool
}

// serveCommand starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live canvases over a JSON HTTP API",
		Long: `Serve live canvases over a JSON HTTP API.

  POST   /v1/canvases                 open a canvas
  GET    /v1/canvases/{id}            canvas state
  POST   /v1/canvases/{id}/commands   run commands (JSON or text/plain script)
  GET    /v1/canvases/{id}/svg        draw the canvas
  PUT    /v1/canvases/{id}            save to the document store
  GET    /metrics                     Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, &cfg, opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&opts.backend, "store", "", "document store: file or redis")
	cmd.Flags().StringVar(&opts.dir, "store-dir", "", "file store directory")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address for the redis store")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable /metrics")

	return cmd
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config, opts serveOpts) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if flags.Changed("store") {
		cfg.Store.Backend = opts.backend
	}
	if flags.Changed("store-dir") {
		cfg.Store.Dir = opts.dir
	}
	if flags.Changed("redis-addr") {
		cfg.Store.RedisAddr = opts.redisAddr
	}
	if opts.noMetrics {
		cfg.Server.Metrics = false
	}
}

func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	st, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := []server.Option{server.WithLogger(c.Logger)}
	if cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observability.Register(observability.NewMetrics(reg))
		defer observability.Reset()
		opts = append(opts, server.WithMetrics(reg))
	}

	printInfo("Serving on http://%s", cfg.Server.Addr)
	printDetail("Store: %s", cfg.Store.Backend)
	return server.New(st, cfg, opts...).Run(ctx, cfg.Server.Addr)
}
