// Command consensusd runs a standalone proof-of-stake consensus node:
// the engine, its bbolt-backed database, and a Prometheus metrics
// endpoint. Networking and transaction execution run in loopback/null
// mode (see the node package) since this binary only wires the
// consensus core itself.
//
// Grounded on beacon-chain/main.go's App.Action-calls-node.New-then-
// Start shape.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/republic-chain/proof-of-stake/node"
)

func startNode(cliCtx *cli.Context) error {
	n, err := node.New(cliCtx)
	if err != nil {
		return err
	}
	return n.Start()
}

func main() {
	app := cli.NewApp()
	app.Name = "consensusd"
	app.Usage = "runs a proof-of-stake consensus node"
	app.Flags = node.Flags
	app.Before = node.ConfigureLogging
	app.Action = startNode

	if err := app.Run(os.Args); err != nil {
		log.WithField("prefix", "consensusd").Error(err.Error())
		os.Exit(1)
	}
}
