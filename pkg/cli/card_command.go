package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

// Ports the demo agents listen on by default.
const (
	firstDemoPort = 8085
	lastDemoPort  = 8091
)

// cardCommand creates the 'card' command
func cardCommand() *cli.Command {
	return &cli.Command{
		Name:      "card",
		Usage:     "Fetches and prints agent cards",
		ArgsUsage: "[URL...]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 2 * time.Second,
				Usage: "Timeout per agent",
			},
		},
		Action: cardCommandAction,
	}
}

func cardCommandAction(c *cli.Context) error {
	urls := c.Args().Slice()
	if len(urls) == 0 {
		urls = demoURLs()
	}

	w := outWriter(c)
	found := 0
	for _, url := range urls {
		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		card, err := a2a.NewAgentCardResolver(url, nil).GetWellKnownAgentCard(ctx)
		cancel()
		if err != nil {
			pterm.Warning.WithWriter(w).Printfln("%s: %v", url, err)
			continue
		}
		found++
		if err := printAgentCard(w, url, card); err != nil {
			return err
		}
	}

	if found == 0 {
		return errors.New("no agent cards found")
	}
	return nil
}

func demoURLs() []string {
	urls := make([]string, 0, lastDemoPort-firstDemoPort+1)
	for port := firstDemoPort; port <= lastDemoPort; port++ {
		urls = append(urls, fmt.Sprintf("http://localhost:%d", port))
	}
	return urls
}

func printAgentCard(w io.Writer, source string, card *a2a.AgentCard) error {
	pterm.DefaultSection.WithWriter(w).Println(card.Name)

	skills := make([]string, 0, len(card.Skills))
	for _, s := range card.Skills {
		skills = append(skills, fmt.Sprintf("%s (%s)", s.Name, s.ID))
	}

	tableData := pterm.TableData{
		{"Field", "Value"},
		{"Source", source},
		{"Description", card.Description},
		{"Version", card.Version},
		{"Protocol", card.ProtocolVersion},
		{"URL", card.URL},
		{"Streaming", fmt.Sprintf("%t", card.Capabilities.Streaming)},
		{"Skills", strings.Join(skills, ", ")},
	}
	return pterm.DefaultTable.WithHasHeader().WithData(tableData).WithWriter(w).Render()
}
