// Command boostflow trains, evaluates and applies gradient-boosted
// multi-output regression models.
//
// Usage:
//
//	boostflow gen     -out data.csv [-kind regression|distribution] [-rows N] [-seed S]
//	boostflow train   -config train.yaml [-data data.csv] [-targets M]
//	boostflow predict -model models/m_20240102_030405.json -data data.csv [-targets M] [-out pred.csv]
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/YuminosukeSato/boostflow/pkg/errors"
	"github.com/YuminosukeSato/boostflow/pkg/log"
)

const usage = `usage: boostflow <command> [flags]

commands:
  gen      write a synthetic dataset as CSV
  train    split, train, evaluate and persist a model
  predict  apply a persisted model to a CSV dataset
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("boostflow failed", log.ErrAttr(err), slog.String("status", errors.StatusOf(err).String()))
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("no command given")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "gen":
		return runGen(rest, stdout, stderr)
	case "train":
		return runTrain(rest, stdout, stderr)
	case "predict":
		return runPredict(rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return errors.Newf("unknown command %q", cmd)
	}
}
