package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/gomlx/go-textdelta/internal/config"
	"github.com/gomlx/go-textdelta/internal/jsonl"
	"github.com/gomlx/go-textdelta/store"
	"github.com/gomlx/go-textdelta/transform"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// TransformCmd rewrites a JSON Lines file of documents.
type TransformCmd struct {
	Config   string `help:"YAML configuration file (transliteration, rules, workers)." type:"path"`
	In       string `required:"" help:"Input documents, JSON Lines with \"id\" and \"text\" fields." type:"existingfile"`
	Out      string `required:"" help:"Output documents, JSON Lines." type:"path"`
	Deltas   string `help:"Output delta table (.parquet, .db or .sqlite)." type:"path"`
	NoDeltas bool   `help:"Only rewrite the texts: no delta table is produced."`
	Workers  int    `help:"Number of documents processed in parallel, overriding the configuration."`
}

// Validate implements kong's validation hook.
func (c *TransformCmd) Validate() error {
	if c.NoDeltas && c.Deltas != "" {
		return errors.New("--deltas and --no-deltas are mutually exclusive")
	}
	if !c.NoDeltas && c.Deltas == "" {
		return errors.New("--deltas is required, unless --no-deltas is given")
	}
	return nil
}

// Run the command.
func (c *TransformCmd) Run(kctx *kong.Context, ctx context.Context) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	t, err := cfg.Transliterator()
	if err != nil {
		return err
	}
	workers := cfg.Workers
	if c.Workers > 0 {
		workers = c.Workers
	}
	tr, err := transform.New(transform.Options{Transliterator: t, Global: cfg.Rules, Workers: workers})
	if err != nil {
		return err
	}
	docs, err := jsonl.ReadDocuments(c.In)
	if err != nil {
		return err
	}
	klog.V(1).Infof("read %d documents from %q", len(docs), c.In)

	if c.NoDeltas {
		out, err := tr.RunTextOnly(ctx, docs)
		if err != nil {
			return err
		}
		if err := jsonl.WriteDocuments(c.Out, out); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(kctx.Stdout, "%d documents written to %s\n", len(out), c.Out)
		return nil
	}

	result, err := tr.Run(ctx, docs)
	if err != nil {
		return err
	}
	if err := jsonl.WriteDocuments(c.Out, result.Documents); err != nil {
		return err
	}
	ids := make([]string, len(result.Documents))
	for i, doc := range result.Documents {
		ids[i] = doc.ID
	}
	if err := store.Write(ctx, c.Deltas, result.Deltas, result.Fingerprint, ids...); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(kctx.Stdout, "%d documents written to %s, %d edited intervals to %s\n",
		len(result.Documents), c.Out, len(result.Deltas), c.Deltas)
	return nil
}
