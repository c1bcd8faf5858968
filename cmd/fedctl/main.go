// Command fedctl queries and seeds the configured stores without running the server.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/fedsearch/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fedctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "fedctl",
		Usage:   "Federated search over the configured stores",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Environment whose config/<env>.yaml is loaded",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Explicit config file path (overrides --env)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Run a federated search and print the result as JSON",
				ArgsUsage: "<text...>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "timeout",
						Aliases: []string{"t"},
						Usage:   "Overall deadline (0 uses federation.default_timeout_ms)",
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Index documents from a YAML file into every writable store",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "YAML file with a documents list",
						Required: true,
					},
				},
			},
			{
				Name:   "stores",
				Usage:  "List configured stores in query order",
				Action: storesCommand,
			},
		},
	}
}
