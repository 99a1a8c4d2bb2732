package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stateviz/internal/server"
	"github.com/matzehuels/stateviz/pkg/buildinfo"
	"github.com/matzehuels/stateviz/pkg/cache"
	"github.com/matzehuels/stateviz/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	redisAddr string
	noCache   bool
	noMetrics bool
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

  POST /v1/extract   script body, returns the machine graphs as JSON
  POST /v1/render    script body, returns SVG (?machine=&active=&rankdir=&routing=&format=)
  GET  /healthz
  GET  /metrics      Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "Redis address for a shared cache (host:port)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable /metrics")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	cfg := c.Config
	scfg := server.Config{
		Addr:           cfg.Server.Addr,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout.Duration,
		Metrics:        cfg.Server.Metrics == nil || *cfg.Server.Metrics,
		Options:        cfg.pipelineOptions(),
	}
	if opts.addr != "" {
		scfg.Addr = opts.addr
	}
	if opts.noMetrics {
		scfg.Metrics = false
	}

	// Reject a bad config before listening.
	check := scfg.Options
	if err := check.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newServerRunner(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := server.New(scfg, runner, c.Logger)
	printSuccess("Serving on %s", StyleLink.Render(displayAddr(scfg.Addr)))
	printNextStep("Try", "curl --data-binary @machine.js http://"+displayAddr(scfg.Addr)+"/v1/render")
	return srv.ListenAndServe(cmd.Context())
}

// newServerRunner picks Redis when configured, the file cache otherwise.
func (c *CLI) newServerRunner(ctx context.Context, opts serveOpts) (*pipeline.Runner, error) {
	redisCfg := c.Config.Cache.Redis
	if opts.redisAddr != "" {
		redisCfg.Addr = opts.redisAddr
	}
	if opts.noCache || c.Config.Cache.Disabled || redisCfg.Addr == "" {
		return c.newRunner(opts.noCache)
	}

	var ropts []cache.RedisOption
	if redisCfg.Prefix != "" {
		ropts = append(ropts, cache.WithRedisPrefix(redisCfg.Prefix))
	}
	rc := cache.NewRedisCache(redisCfg.Addr, redisCfg.Password, redisCfg.DB, ropts...)
	if err := rc.(*cache.RedisCache).Ping(ctx); err != nil {
		c.Logger.Warn("redis unavailable, continuing without it", "addr", redisCfg.Addr, "error", err)
	}
	printKeyValue("cache", "redis "+redisCfg.Addr)

	// Replicas of different releases may share one Redis.
	keyer := cache.NewScopedKeyer(nil, buildinfo.Get().Version+":")
	return pipeline.NewRunner(rc, keyer, c.Logger), nil
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
