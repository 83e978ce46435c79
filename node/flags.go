package node

import "github.com/urfave/cli/v2"

// Flags mirror the teacher's shared/cmd/flags.go idiom: one package-
// level *cli.Flag per setting, each carrying its own usage string and
// default, consumed by cmd/consensusd's App.Flags.
var (
	// DataDirFlag is the directory the embedded database is stored
	// under.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the consensus database",
		Value: "./consensusd-data",
	}
	// ChainConfigFileFlag points at a YAML file overriding config.Default().
	ChainConfigFileFlag = &cli.StringFlag{
		Name:  "chain-config-file",
		Usage: "Path to a YAML file overriding the default chain configuration",
	}
	// GenesisTimeFlag is the Unix timestamp (seconds) of slot 0's start.
	GenesisTimeFlag = &cli.Int64Flag{
		Name:  "genesis-time",
		Usage: "Unix timestamp, in seconds, marking slot 0's start",
	}
	// MetricsAddrFlag is the listen address for the Prometheus /metrics route.
	MetricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "Listen address for the Prometheus metrics HTTP server",
		Value: ":9090",
	}
	// VerifyWorkersFlag sizes the Ed25519 verification worker pool.
	VerifyWorkersFlag = &cli.IntFlag{
		Name:  "verify-workers",
		Usage: "Number of concurrent signature-verification workers",
		Value: 4,
	}
	// ValidatorKeyFileFlag points at a keystore.Keyfile for this node's
	// local proposer/attester key. Omit to run as a non-validating node.
	ValidatorKeyFileFlag = &cli.StringFlag{
		Name:  "validator-key-file",
		Usage: "Path to a keyfile written by cmd/keygen for this node's validator key",
	}
	// ValidatorStakeFlag is the self-stake to register the local
	// validator key with, if ValidatorKeyFileFlag is set and the
	// address isn't already known to the validator set.
	ValidatorStakeFlag = &cli.Uint64Flag{
		Name:  "validator-stake",
		Usage: "Self-stake to register the local validator key with",
		Value: 0,
	}
	// VerbosityFlag sets the logrus level, following the teacher's
	// shared/cmd.VerbosityFlag.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error, fatal, panic)",
		Value: "info",
	}
)

// Flags is the full flag set cmd/consensusd registers on its App.
var Flags = []cli.Flag{
	DataDirFlag,
	ChainConfigFileFlag,
	GenesisTimeFlag,
	MetricsAddrFlag,
	VerifyWorkersFlag,
	ValidatorKeyFileFlag,
	ValidatorStakeFlag,
	VerbosityFlag,
}
