// Command keygen generates an Ed25519 validator keypair and writes it
// to a keystore.Keyfile, for use with consensusd's
// --validator-key-file flag.
//
// Grounded on tools/unencrypted-keys-gen/main.go's flag-driven,
// single-purpose keyfile generator shape, rebuilt on urfave/cli/v2
// rather than the stdlib flag package it used.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/keystore"
)

var outputFlag = &cli.StringFlag{
	Name:     "output",
	Aliases:  []string{"o"},
	Usage:    "Path to write the generated keyfile to",
	Required: true,
}

var overwriteFlag = &cli.BoolFlag{
	Name:  "overwrite",
	Usage: "Overwrite the output file if it already exists",
}

func generate(cliCtx *cli.Context) error {
	out := cliCtx.String(outputFlag.Name)
	if !cliCtx.Bool(overwriteFlag.Name) {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("keygen: %s already exists, pass --overwrite to replace it", out)
		}
	}

	pk, sk, err := signing.GenerateKey()
	if err != nil {
		return err
	}
	if err := keystore.Save(out, pk, sk); err != nil {
		return err
	}

	addr := signing.DeriveAddress(pk)
	fmt.Printf("address: %s\nkeyfile: %s\n", addr, out)
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "keygen"
	app.Usage = "generates an Ed25519 validator keypair"
	app.Flags = []cli.Flag{outputFlag, overwriteFlag}
	app.Action = generate

	if err := app.Run(os.Args); err != nil {
		log.WithField("prefix", "keygen").Error(err.Error())
		os.Exit(1)
	}
}
