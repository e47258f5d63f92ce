package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	cbor "github.com/seabass-labrax/clj-cbor"
)

// CLI defines the cbordump command-line interface: decode a CBOR item from
// a file (or hex literal) and print it, either as extended diagnostic
// notation or as a Go-syntax dump.
type CLI struct {
	Input   string `arg:"" optional:"" help:"Input file (binary CBOR); reads stdin if omitted"`
	Hex     string `short:"x" help:"Decode a hex-encoded CBOR literal instead of reading a file"`
	Go      bool   `short:"g" help:"Print the decoded Go value instead of diagnostic notation"`
	Lax     bool   `short:"l" help:"With -g, allow non-canonical input (default: strict conformance); diagnostic output always decodes in lax mode"`
	Verbose bool   `short:"v" help:"Enable verbose diagnostics"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("cbordump"),
		kong.Description("Decode a CBOR data item and print it as diagnostic notation."),
	)

	if err := run(&cli); err != nil {
		ctx.FatalIfErrorf(err)
	}
}

func run(cli *CLI) error {
	logger := newLogger(cli.Verbose)
	defer logger.Sync()

	data, err := readInput(cli)
	if err != nil {
		logger.Error("failed to read input", zap.Error(err))
		return err
	}

	mode := cbor.ConformanceStrict
	if cli.Lax {
		mode = cbor.ConformanceLax
	}

	if cli.Go {
		decoder := cbor.NewDecoder(data, cbor.WithDecoderConformanceMode(mode))
		value, err := decoder.Decode()
		if err != nil {
			logger.Error("decode failed", zap.Error(err), zap.Int("bytes", len(data)))
			return err
		}
		fmt.Printf("%#v\n", value)
		return nil
	}

	text, err := cbor.Diagnose(data)
	if err != nil {
		logger.Error("diagnose failed", zap.Error(err), zap.Int("bytes", len(data)))
		return err
	}
	fmt.Println(text)
	return nil
}

func readInput(cli *CLI) ([]byte, error) {
	if cli.Hex != "" {
		return hex.DecodeString(strings.TrimSpace(cli.Hex))
	}
	if cli.Input == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(cli.Input)
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
