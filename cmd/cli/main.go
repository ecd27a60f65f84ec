package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"warrior_go/internal/infra/bitmex"

	"github.com/urfave/cli"
)

const VERSION = "v0.1.0"

// Playground for signing requests by hand.
func main() {
	cliApp := cli.NewApp()
	cliApp.Name = "warrior-cli"
	cliApp.Usage = "BitMEX signing helpers"
	cliApp.Version = VERSION
	cliApp.Commands = []cli.Command{
		{
			Name:      "sign",
			Usage:     "print the signature of a payload",
			ArgsUsage: "<payload>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "api-secret, a", EnvVar: "WARRIOR_BITMEX_SECRET", Usage: "API secret"},
			},
			Action: signAction,
		},
		{
			Name:      "headers",
			Usage:     "print the auth headers of a REST request",
			ArgsUsage: "[body]",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "api-key, k", EnvVar: "WARRIOR_BITMEX_KEY", Usage: "API key"},
				cli.StringFlag{Name: "api-secret, a", EnvVar: "WARRIOR_BITMEX_SECRET", Usage: "API secret"},
				cli.StringFlag{Name: "verb", Value: "GET", Usage: "HTTP verb"},
				cli.StringFlag{Name: "path", Value: "/api/v1/order", Usage: "request path without host"},
				cli.DurationFlag{Name: "ttl", Value: 5 * time.Second, Usage: "signature lifetime"},
			},
			Action: headersAction,
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signAction(c *cli.Context) error {
	secret := c.String("api-secret")
	if secret == "" {
		return cli.NewExitError("--api-secret is required", 2)
	}
	if c.NArg() != 1 {
		return cli.NewExitError("expected exactly one payload argument", 2)
	}

	payload := c.Args().First()
	fmt.Printf("signed %q -> %s\n", payload, bitmex.Sign(secret, payload))
	return nil
}

func headersAction(c *cli.Context) error {
	key, secret := c.String("api-key"), c.String("api-secret")
	if key == "" || secret == "" {
		return cli.NewExitError("--api-key and --api-secret are required", 2)
	}

	signer := bitmex.NewSigner(key, secret, c.Duration("ttl"))
	headers := signer.GenerateHeaders(strings.ToUpper(c.String("verb")), c.String("path"), c.Args().First())

	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("%s: %s\n", k, headers[k])
	}
	return nil
}
