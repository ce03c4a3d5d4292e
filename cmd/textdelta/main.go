// textdelta rewrites documents with substitution rules while keeping track of the edits, so that
// spans annotating the original texts can be moved onto the rewritten ones (and back).
//
// Commands:
//
//	textdelta transform --config rules.yaml --in docs.jsonl --out out.jsonl --deltas deltas.parquet
//	textdelta remap --deltas deltas.parquet --in spans.jsonl --out spans.out.jsonl [--reverse]
//	textdelta inspect --deltas deltas.parquet [--doc id]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/alecthomas/kong"
	"k8s.io/klog/v2"
)

// CLI is the command line of textdelta.
type CLI struct {
	Verbosity int `short:"v" help:"Logging verbosity level (klog -v)."`

	Transform TransformCmd `cmd:"" help:"Rewrite documents and save the delta table of the edits."`
	Remap     RemapCmd     `cmd:"" help:"Move span positions from the original texts to the rewritten ones, or back with --reverse."`
	Inspect   InspectCmd   `cmd:"" help:"Print a delta table."`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	klog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "textdelta: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and runs the selected command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("textdelta"),
		kong.Description("Rewrite texts with regular expressions and transliteration, keeping annotation spans aligned."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	setVerbosity(cli.Verbosity)
	return kctx.Run(kctx)
}

func setVerbosity(level int) {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	if err := fs.Set("v", strconv.Itoa(level)); err != nil {
		klog.Warningf("failed to set verbosity to %d: %v", level, err)
	}
}
