package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-textdelta/batch"
	"github.com/gomlx/go-textdelta/internal/jsonl"
	"github.com/gomlx/go-textdelta/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
transliteration: unidecode
workers: 2
rules:
  - pattern: foo
    replacement: X
`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestTransformRemapInspect(t *testing.T) {
	for _, deltasName := range []string{"deltas.parquet", "deltas.db"} {
		t.Run(deltasName, func(t *testing.T) {
			dir := t.TempDir()
			cfg := writeFile(t, dir, "config.yaml", testConfig)
			docs := writeFile(t, dir, "docs.jsonl", `{"id": "d1", "text": "foo bar foo", "lang": "en"}
{"id": "d2", "text": "caf\u00e9 foo"}
`)
			spans := writeFile(t, dir, "spans.jsonl", `{"doc_id": "d1", "begin": 8, "end": 11, "label": "second"}
{"doc_id": "d2", "begin": 0, "end": 5}
{"doc_id": "d3", "begin": 1, "end": 2}
`)
			out := filepath.Join(dir, "out.jsonl")
			deltasPath := filepath.Join(dir, deltasName)

			stdout, err := runCLI(t, "transform", "--config", cfg, "--in", docs, "--out", out, "--deltas", deltasPath)
			require.NoError(t, err)
			assert.Contains(t, stdout, "2 documents written")
			rewritten, err := jsonl.ReadDocuments(out)
			require.NoError(t, err)
			require.Len(t, rewritten, 2)
			assert.Equal(t, "X bar X", rewritten[0].Text)
			assert.Equal(t, "en", rewritten[0].Meta["lang"])
			assert.Equal(t, "cafe X", rewritten[1].Text)

			table, fingerprint, err := store.Read(context.Background(), deltasPath)
			require.NoError(t, err)
			assert.Len(t, table, 4)
			assert.NotEmpty(t, fingerprint)

			remapped := filepath.Join(dir, "remapped.jsonl")
			_, err = runCLI(t, "remap", "--config", cfg, "--deltas", deltasPath, "--in", spans, "--out", remapped, "--strict")
			require.NoError(t, err)
			got, err := jsonl.ReadSpans(remapped, "doc_id")
			require.NoError(t, err)
			assert.Equal(t, 6, got[0].Begin)
			assert.Equal(t, 7, got[0].End)
			assert.Equal(t, "second", got[0].Attrs["label"])
			assert.Equal(t, "cafe", rewritten[1].Text[got[1].Begin:got[1].End])
			assert.Equal(t, batch.Span{DocID: "d3", Begin: 1, End: 2}, got[2])

			back := filepath.Join(dir, "back.jsonl")
			_, err = runCLI(t, "remap", "--deltas", deltasPath, "--in", remapped, "--out", back, "--reverse")
			require.NoError(t, err)
			original, err := jsonl.ReadSpans(spans, "doc_id")
			require.NoError(t, err)
			reversed, err := jsonl.ReadSpans(back, "doc_id")
			require.NoError(t, err)
			assert.Equal(t, original, reversed)

			stdout, err = runCLI(t, "inspect", "--deltas", deltasPath, "--doc", "d1")
			require.NoError(t, err)
			assert.Contains(t, stdout, fingerprint)
			assert.Contains(t, stdout, "Documents:   1")
			assert.Contains(t, stdout, "Intervals:   2")
			assert.Contains(t, stdout, "document_id")
			assert.Contains(t, stdout, "-4")
		})
	}
}

func TestTransformNoDeltas(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", testConfig)
	docs := writeFile(t, dir, "docs.jsonl", `{"text": "foo"}`)
	out := filepath.Join(dir, "out.jsonl")
	_, err := runCLI(t, "transform", "--config", cfg, "--in", docs, "--out", out, "--no-deltas")
	require.NoError(t, err)
	rewritten, err := jsonl.ReadDocuments(out)
	require.NoError(t, err)
	require.Len(t, rewritten, 1)
	assert.Equal(t, "X", rewritten[0].Text)
	assert.NotEmpty(t, rewritten[0].ID)

	_, err = runCLI(t, "transform", "--config", cfg, "--in", docs, "--out", out)
	require.Error(t, err)
	_, err = runCLI(t, "transform", "--in", docs, "--out", out, "--no-deltas", "--deltas", filepath.Join(dir, "d.parquet"))
	require.Error(t, err)
}

func TestRemapStrictFingerprint(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", testConfig)
	other := writeFile(t, dir, "other.yaml", "rules:\n  - pattern: bar\n    replacement: Y\n")
	docs := writeFile(t, dir, "docs.jsonl", `{"id": "d1", "text": "foo bar"}`)
	spans := writeFile(t, dir, "spans.jsonl", `{"doc_id": "d1", "begin": 4, "end": 7}`)
	deltasPath := filepath.Join(dir, "deltas.parquet")
	_, err := runCLI(t, "transform", "--config", cfg, "--in", docs, "--out", filepath.Join(dir, "out.jsonl"), "--deltas", deltasPath)
	require.NoError(t, err)

	out := filepath.Join(dir, "spans.out.jsonl")
	_, err = runCLI(t, "remap", "--config", other, "--deltas", deltasPath, "--in", spans, "--out", out, "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different configuration")

	// Without --strict it only warns.
	_, err = runCLI(t, "remap", "--config", other, "--deltas", deltasPath, "--in", spans, "--out", out)
	require.NoError(t, err)
	got, err := jsonl.ReadSpans(out, "doc_id")
	require.NoError(t, err)
	assert.Equal(t, []batch.Span{{DocID: "d1", Begin: 2, End: 5}}, got)
}

func TestTransformReplacesStaleRows(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", testConfig)
	spans := writeFile(t, dir, "spans.jsonl", `{"doc_id": "d1", "begin": 4, "end": 7}`)
	deltasPath := filepath.Join(dir, "deltas.db")
	out := filepath.Join(dir, "out.jsonl")

	docs := writeFile(t, dir, "docs.jsonl", `{"id": "d1", "text": "foo bar"}`)
	_, err := runCLI(t, "transform", "--config", cfg, "--in", docs, "--out", out, "--deltas", deltasPath)
	require.NoError(t, err)

	// The text changed and d1 no longer has any edit.
	docs = writeFile(t, dir, "docs.jsonl", `{"id": "d1", "text": "baz bar"}`)
	_, err = runCLI(t, "transform", "--config", cfg, "--in", docs, "--out", out, "--deltas", deltasPath)
	require.NoError(t, err)
	table, _, err := store.Read(context.Background(), deltasPath)
	require.NoError(t, err)
	assert.Empty(t, table)

	remapped := filepath.Join(dir, "remapped.jsonl")
	_, err = runCLI(t, "remap", "--config", cfg, "--deltas", deltasPath, "--in", spans, "--out", remapped, "--strict")
	require.NoError(t, err)
	got, err := jsonl.ReadSpans(remapped, "doc_id")
	require.NoError(t, err)
	assert.Equal(t, []batch.Span{{DocID: "d1", Begin: 4, End: 7}}, got)
}
