package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

const defaultQuestion = "Give me a prime number"

// askCommand creates the 'ask' command
func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Sends one message to an agent and prints the reply",
		ArgsUsage: "URL [TEXT]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "Use message/stream and print every event",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "Timeout for the whole exchange",
			},
			&cli.StringFlag{
				Name:  "context-id",
				Usage: "Context to continue (default a new one)",
			},
		},
		Action: askCommandAction,
	}
}

func askCommandAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("agent URL is required")
	}
	url := c.Args().Get(0)
	text := defaultQuestion
	if c.NArg() > 1 {
		text = c.Args().Get(1)
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	card, err := a2a.NewAgentCardResolver(url, nil).GetWellKnownAgentCard(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve agent card: %w", err)
	}
	// The card may advertise an address that is only valid on the agent's host.
	client, err := a2a.NewClient(card, &a2a.ClientConfig{BaseURL: url, Timeout: c.Duration("timeout")})
	if err != nil {
		return err
	}

	msg := a2a.NewTextMessage(a2a.RoleUser, text)
	msg.ContextID = c.String("context-id")
	params := &a2a.MessageSendParams{Message: *msg}

	w := outWriter(c)
	if c.Bool("stream") {
		return client.SendMessageStream(ctx, params, func(event any) error {
			printEvent(w, event)
			return nil
		})
	}

	result, err := client.SendMessage(ctx, params)
	if err != nil {
		return err
	}
	if task, ok := result.(*a2a.Task); ok {
		latest, err := client.GetTask(ctx, &a2a.TaskQueryParams{ID: task.ID})
		if err != nil {
			return err
		}
		result = latest
	}
	printEvent(w, result)
	return nil
}

func printEvent(w io.Writer, event any) {
	switch ev := event.(type) {
	case *a2a.Message:
		fmt.Fprintln(w, ev.Text())
	case *a2a.Task:
		pterm.Info.WithWriter(w).Printfln("Task %s: %s", ev.ID, ev.Status.State)
		if ev.Status.Message != nil {
			fmt.Fprintln(w, ev.Status.Message.Text())
		}
	case *a2a.TaskStatusUpdateEvent:
		pterm.Info.WithWriter(w).Printfln("Task %s: %s", ev.TaskID, ev.Status.State)
		if ev.Status.Message != nil {
			fmt.Fprintln(w, ev.Status.Message.Text())
		}
	case *a2a.TaskArtifactUpdateEvent:
		for _, p := range ev.Artifact.Parts {
			if p.Kind == a2a.KindText {
				fmt.Fprintln(w, p.Text)
			}
		}
	}
}
