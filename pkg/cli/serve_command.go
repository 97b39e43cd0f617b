package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/prime-agent/pkg/a2a/server"
	"github.com/agent-protocol/prime-agent/pkg/a2a/transport"
	"github.com/agent-protocol/prime-agent/pkg/agent/primeagent"
	"github.com/agent-protocol/prime-agent/pkg/config"
	"github.com/agent-protocol/prime-agent/pkg/logging"
	"github.com/agent-protocol/prime-agent/pkg/prime"
)

// serveCommand creates the 'serve' command
func serveCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Host to bind the server to (default 0.0.0.0)",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: fmt.Sprintf("Port to bind the server to (default %d, or $PORT)", config.DefaultPort),
		},
		&cli.StringFlag{
			Name:  "public-url",
			Usage: "URL advertised in the agent card",
		},
		&cli.StringSliceFlag{
			Name:  "allow-origins",
			Usage: "Origins to allow for CORS and websockets (default any)",
		},
		&cli.Float64Flag{
			Name:  "rate-limit",
			Usage: "Requests per second across all clients; 0 disables limiting",
		},
		&cli.IntFlag{
			Name:  "burst",
			Usage: "Requests allowed above the rate limit at once",
		},
	}
	flags = append(flags, rangeFlags(prime.DefaultRange.Min, prime.DefaultRange.Max)...)

	return &cli.Command{
		Name:   "serve",
		Usage:  "Starts the prime agent A2A server",
		Flags:  flags,
		Action: serveCommandAction,
	}
}

func serveCommandAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyServeFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.Default()
	if !c.IsSet("log-level") && cfg.LogLevel != "" {
		if logger, err = logging.New(cfg.LogLevel, errWriter(c)); err != nil {
			return err
		}
		slog.SetDefault(logger)
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := newAgentServer(cfg, logger, outWriter(c))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

// applyServeFlags lets explicitly set flags override the loaded configuration.
func applyServeFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("public-url") {
		cfg.Server.PublicURL = c.String("public-url")
	}
	if c.IsSet("allow-origins") {
		cfg.Server.AllowOrigins = c.StringSlice("allow-origins")
	}
	if c.IsSet("rate-limit") {
		cfg.Server.RateLimit = c.Float64("rate-limit")
	}
	if c.IsSet("burst") {
		cfg.Server.Burst = c.Int("burst")
	}
	if c.IsSet("min") {
		cfg.Prime.Min = c.Int("min")
	}
	if c.IsSet("max") {
		cfg.Prime.Max = c.Int("max")
	}
	if c.IsSet("seed") {
		seed := c.Uint64("seed")
		cfg.Prime.Seed = &seed
	}
}

// newAgentServer wires the prime executor into an A2A server.
func newAgentServer(cfg *config.Config, logger *slog.Logger, stdout io.Writer) (*transport.Server, error) {
	card := primeagent.NewAgentCard(cfg.URL())
	cfg.Card.Apply(card)

	exec := primeagent.NewExecutor(
		primeagent.WithSource(cfg.Source()),
		primeagent.WithRange(cfg.Range()),
		primeagent.WithLogger(logger),
	)

	handler, err := server.NewDefaultRequestHandler(server.Config{
		AgentCard: card,
		Executor:  exec,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request handler: %w", err)
	}

	return transport.NewServer(handler, transport.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		AllowOrigins: cfg.Server.AllowOrigins,
		RateLimit:    cfg.Server.RateLimit,
		Burst:        cfg.Server.Burst,
		Logger:       logger,
		Stdout:       stdout,
	}), nil
}
