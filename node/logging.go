package node

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// ConfigureLogging sets the global logrus level from VerbosityFlag,
// following the teacher's shared/cmd verbosity-flag convention.
func ConfigureLogging(cliCtx *cli.Context) error {
	level, err := log.ParseLevel(cliCtx.String(VerbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "node: parse verbosity")
	}
	log.SetLevel(level)
	return nil
}
