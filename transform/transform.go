// Package transform rewrites batches of documents (optional transliteration, then per-document
// rules, then global rules) and keeps, for each document, the deltas.Collection mapping positions
// of the original text to the rewritten one.
//
// Documents are independent of each other and are processed in parallel. The output is always in
// the input order.
package transform

import (
	"context"
	"runtime"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/gomlx/go-textdelta/substitute"
	"github.com/gomlx/go-textdelta/translit"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Document to be rewritten. Meta holds any other field of the document, passed through unmodified.
type Document struct {
	ID   string
	Text string

	// Rules specific to this document, applied before the global rules.
	Rules []substitute.Rule

	Meta map[string]any
}

// Options of a Transformer.
type Options struct {
	// Transliterator is applied first, if not nil.
	Transliterator translit.Transliterator

	// Global rules are applied to every document, after the document's own rules.
	Global []substitute.Rule

	// Workers is the number of documents processed in parallel. If 0, it defaults to runtime.GOMAXPROCS(0).
	Workers int
}

// Transformer rewrites documents. It is safe for concurrent use.
type Transformer struct {
	translit    translit.Transliterator
	global      substitute.Ruleset
	workers     int
	fingerprint string
}

// Result of Transformer.Run.
type Result struct {
	// Documents rewritten, in input order. Documents given without an ID have a generated one.
	Documents []Document

	// Deltas holds the edited intervals of all documents, in input order.
	Deltas deltas.Table

	// Fingerprint identifies the global configuration (transliteration and global rules) used.
	// See Transformer.Fingerprint.
	Fingerprint string
}

// New creates a Transformer: the global rules are compiled once here.
func New(opts Options) (*Transformer, error) {
	if opts.Workers < 0 {
		return nil, errors.Errorf("transform.Options.Workers must be >= 0, got %d", opts.Workers)
	}
	global, err := substitute.CompileAll(opts.Global)
	if err != nil {
		return nil, errors.WithMessage(err, "global rules")
	}
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Transformer{
		translit:    opts.Transliterator,
		global:      global,
		workers:     workers,
		fingerprint: Fingerprint(opts.Transliterator, opts.Global),
	}, nil
}

// Fingerprint of the transformer's global configuration. Delta tables are stored along with it,
// so one can tell whether a stored table was produced by the same configuration.
func (t *Transformer) Fingerprint() string { return t.fingerprint }

// Document rewrites one document and returns it along with the collection mapping positions of
// doc.Text to the returned text.
func (t *Transformer) Document(doc Document) (Document, deltas.Collection, error) {
	text := doc.Text
	var c deltas.Collection
	if t.translit != nil {
		text, c = translit.Run(t.translit, text)
	}
	if len(doc.Rules) > 0 {
		rules, err := substitute.CompileAll(doc.Rules)
		if err != nil {
			return Document{}, deltas.Collection{}, errors.WithMessagef(err, "document %q", doc.ID)
		}
		text, c, err = rules.Apply(text, c)
		if err != nil {
			return Document{}, deltas.Collection{}, errors.WithMessagef(err, "document %q", doc.ID)
		}
	}
	text, c, err := t.global.Apply(text, c)
	if err != nil {
		return Document{}, deltas.Collection{}, errors.WithMessagef(err, "document %q", doc.ID)
	}
	doc.Text = text
	return doc, c, nil
}

// DocumentText rewrites the text of one document, without keeping track of the deltas.
func (t *Transformer) DocumentText(doc Document) (Document, error) {
	text := doc.Text
	if t.translit != nil {
		text = translit.String(t.translit, text)
	}
	if len(doc.Rules) > 0 {
		rules, err := substitute.CompileAll(doc.Rules)
		if err != nil {
			return Document{}, errors.WithMessagef(err, "document %q", doc.ID)
		}
		text = rules.ReplaceAll(text)
	}
	doc.Text = t.global.ReplaceAll(text)
	return doc, nil
}

// Run rewrites the documents and returns them with their delta table.
//
// It stops at the first error, or if ctx is cancelled.
func (t *Transformer) Run(ctx context.Context, docs []Document) (*Result, error) {
	docs = withIDs(docs)
	out := make([]Document, len(docs))
	collections := make([]deltas.Collection, len(docs))
	err := t.fanOut(ctx, len(docs), func(i int) error {
		var err error
		out[i], collections[i], err = t.Document(docs[i])
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Documents: out, Fingerprint: t.fingerprint}
	for i, c := range collections {
		result.Deltas = append(result.Deltas, deltas.Flatten(out[i].ID, c)...)
	}
	klog.V(1).Infof("transformed %d documents: %d edited intervals", len(out), len(result.Deltas))
	return result, nil
}

// RunTextOnly rewrites the documents without keeping track of the deltas. It is cheaper than Run
// when no span needs to be remapped afterwards.
func (t *Transformer) RunTextOnly(ctx context.Context, docs []Document) ([]Document, error) {
	docs = withIDs(docs)
	out := make([]Document, len(docs))
	err := t.fanOut(ctx, len(docs), func(i int) error {
		var err error
		out[i], err = t.DocumentText(docs[i])
		return err
	})
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("transformed %d documents (text only)", len(out))
	return out, nil
}

// fanOut calls fn(i) for i in [0, n), with at most t.workers calls running at a time.
func (t *Transformer) fanOut(ctx context.Context, n int, fn func(i int) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i := range n {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Cancellation before any goroutine noticed it.
	return ctx.Err()
}

// withIDs returns docs with a generated ID for every document without one. docs is not modified.
func withIDs(docs []Document) []Document {
	var copied bool
	for i := range docs {
		if docs[i].ID != "" {
			continue
		}
		if !copied {
			docs = append([]Document(nil), docs...)
			copied = true
		}
		docs[i].ID = uuid.NewString()
		klog.V(2).Infof("document #%d has no ID, using %s", i, docs[i].ID)
	}
	return docs
}
