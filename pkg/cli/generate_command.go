package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/prime-agent/pkg/prime"
)

// generateCommand creates the 'generate' command
func generateCommand() *cli.Command {
	flags := rangeFlags(prime.DefaultRange.Min, prime.DefaultRange.Max)
	flags = append(flags, &cli.IntFlag{
		Name:    "count",
		Aliases: []string{"n"},
		Value:   1,
		Usage:   "Number of primes to print",
	})

	return &cli.Command{
		Name:   "generate",
		Usage:  "Prints random primes without starting a server",
		Flags:  flags,
		Action: generateCommandAction,
	}
}

func generateCommandAction(c *cli.Context) error {
	r := prime.Range{Min: c.Int("min"), Max: c.Int("max")}
	if r.Min > r.Max {
		return fmt.Errorf("--min %d is greater than --max %d", r.Min, r.Max)
	}
	if !r.HasPrime() {
		return fmt.Errorf("range [%d, %d] contains no prime", r.Min, r.Max)
	}
	if c.Int("count") < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	src := prime.GlobalSource()
	if c.IsSet("seed") {
		src = prime.NewSeededSource(c.Uint64("seed"))
	}

	w := outWriter(c)
	for i := 0; i < c.Int("count"); i++ {
		fmt.Fprintln(w, prime.Generate(src, r))
	}
	return nil
}
