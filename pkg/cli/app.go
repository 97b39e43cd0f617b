package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/prime-agent/pkg/logging"
)

// Version information - will be set during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// NewApp creates and configures the CLI application
func NewApp() *cli.App {
	app := &cli.App{
		Name:    "primeagent",
		Usage:   "A2A agent that answers every message with a random prime",
		Version: Version,
		Commands: []*cli.Command{
			serveCommand(),
			generateCommand(),
			cardCommand(),
			askCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "INFO",
				Usage:   "Logging level (DEBUG, INFO, WARNING, ERROR)",
				EnvVars: []string{"PRIME_AGENT_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := logging.New(c.String("log-level"), errWriter(c))
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "%s %s (commit %s, built %s)\n", c.App.Name, c.App.Version, GitCommit, BuildTime)
	}

	// Custom help template
	cli.AppHelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}

USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}
   {{if .Commands}}
COMMANDS:
{{range .Commands}}{{if not .HideHelp}}   {{join .Names ", "}}{{ "\t"}}{{.Usage}}{{ "\n" }}{{end}}{{end}}{{end}}{{if .VisibleFlags}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}{{end}}{{if .Version}}
VERSION:
   {{.Version}}
   {{end}}
`

	return app
}

// Range flags shared by serve and generate
func rangeFlags(lo, hi int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "min",
			Value: lo,
			Usage: "Lower bound of the prime range (inclusive)",
		},
		&cli.IntFlag{
			Name:  "max",
			Value: hi,
			Usage: "Upper bound of the prime range (inclusive)",
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for reproducible primes",
		},
	}
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

func outWriter(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}
