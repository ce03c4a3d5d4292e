package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/gomlx/go-textdelta/batch"
	"github.com/gomlx/go-textdelta/internal/config"
	"github.com/gomlx/go-textdelta/internal/jsonl"
	"github.com/gomlx/go-textdelta/store"
	"github.com/gomlx/go-textdelta/transform"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// RemapCmd moves spans between the original and the rewritten texts.
type RemapCmd struct {
	Config  string `help:"YAML configuration file: position columns, group key and, to check the delta table fingerprint, rules." type:"path"`
	Deltas  string `required:"" help:"Delta table written by \"transform\"." type:"existingfile"`
	In      string `required:"" help:"Input spans, JSON Lines." type:"existingfile"`
	Out     string `required:"" help:"Output spans, JSON Lines." type:"path"`
	Reverse bool   `help:"Map spans of the rewritten texts back to the original texts."`
	Strict  bool   `help:"Fail, instead of warning, if the delta table was produced with a different configuration."`
}

// Run the command.
func (c *RemapCmd) Run(kctx *kong.Context, ctx context.Context) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	sides, err := cfg.Sides()
	if err != nil {
		return err
	}
	cols, err := batch.SpanColumnsFor(sides)
	if err != nil {
		return err
	}
	spans, err := jsonl.ReadSpans(c.In, cfg.GroupKey)
	if err != nil {
		return err
	}

	table, fingerprint, err := store.Read(ctx, c.Deltas)
	if err != nil {
		return err
	}
	if c.Config != "" {
		if err := c.checkFingerprint(cfg, fingerprint); err != nil {
			return err
		}
	}
	index, err := table.Group()
	if err != nil {
		return errors.WithMessagef(err, "delta table %q", c.Deltas)
	}

	var out []batch.Span
	if c.Reverse {
		out = batch.ReverseSpans(spans, index, cols...)
	} else {
		out = batch.ApplySpans(spans, index, cols...)
	}
	if err := jsonl.WriteSpans(c.Out, cfg.GroupKey, out); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(kctx.Stdout, "%d spans written to %s\n", len(out), c.Out)
	return nil
}

func (c *RemapCmd) checkFingerprint(cfg *config.Config, fingerprint string) error {
	if fingerprint == "" {
		klog.Warningf("delta table %q has no fingerprint, can't check it matches the configuration", c.Deltas)
		return nil
	}
	t, err := cfg.Transliterator()
	if err != nil {
		return err
	}
	if want := transform.Fingerprint(t, cfg.Rules); want != fingerprint {
		if c.Strict {
			return errors.Errorf("delta table %q was produced with a different configuration (fingerprint %s, configuration %s)",
				c.Deltas, fingerprint, want)
		}
		klog.Warningf("delta table %q was produced with a different configuration than %q", c.Deltas, c.Config)
	}
	return nil
}
