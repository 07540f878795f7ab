// Command wasi-preset-args rewrites a WASI preview-1 Wasm module so a
// fixed set of command-line arguments is transparently injected at
// runtime.
//
// The module rewrite itself never reads files, parses flags, or emits
// log lines; this file is the thin outer layer that does.
package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasm-tools/wasi-preset-args/internal/presetargs"
	"github.com/wasm-tools/wasi-preset-args/internal/wasm/binary"
)

func main() {
	os.Exit(doMain(os.Args[1:], os.Stdout, os.Stderr))
}

// doMain is separated from main for the purpose of unit testing.
func doMain(args []string, stdOut, stdErr *os.File) int {
	log := logrus.New()
	log.SetOutput(stdErr)

	var programName string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "wasi-preset-args <input.wasm> <output.wasm> [-- preset-args...]",
		Short:         "Inject preset command-line arguments into a WASI preview-1 Wasm module",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, cliArgs []string) error {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			inPath, outPath := cliArgs[0], cliArgs[1]
			presetArgs := cliArgs[2:]

			name := programName
			if name == "" {
				name = filepath.Base(inPath)
			}

			log.WithFields(logrus.Fields{"input": inPath, "output": outPath, "program_name": name}).
				Debug("starting transform")

			in, err := os.Open(inPath)
			if err != nil {
				return errors.Wrapf(err, "opening %s", inPath)
			}
			defer in.Close()

			m, err := binary.DecodeModule(in, binary.DecodeOptions{})
			if err != nil {
				return errors.Wrapf(err, "decoding %s", inPath)
			}

			cfg := presetargs.Config{
				ProgramName: []byte(name),
				Args:        toByteSlices(presetArgs),
			}
			if err := presetargs.Transform(m, cfg); err != nil {
				return errors.Wrap(err, "transforming module")
			}

			out, err := os.Create(outPath)
			if err != nil {
				return errors.Wrapf(err, "creating %s", outPath)
			}
			defer out.Close()

			if err := binary.EncodeModule(out, m); err != nil {
				return errors.Wrapf(err, "encoding %s", outPath)
			}

			log.Info("transform complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&programName, "program-name", "", "argv[0] used when the host supplies none (default: basename of the input file)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.SetOut(stdOut)
	cmd.SetErr(stdErr)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		log.WithError(err).Error("wasi-preset-args failed")
		return 1
	}
	return 0
}

func toByteSlices(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}
