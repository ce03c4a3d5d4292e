package jsonl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-textdelta/batch"
	"github.com/gomlx/go-textdelta/substitute"
	"github.com/gomlx/go-textdelta/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocuments(t *testing.T) {
	path := writeFile(t, "docs.jsonl", `{"id": "d1", "text": "foo bar foo", "source": "web", "year": 2020}

{"text": "Dr. Smith", "rules": [{"pattern": "Dr\\.", "replacement": "Doctor"}]}
`)
	docs, err := ReadDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "foo bar foo", docs[0].Text)
	assert.Equal(t, map[string]any{"source": "web", "year": json.Number("2020")}, docs[0].Meta)
	assert.Empty(t, docs[1].ID)
	assert.Equal(t, []substitute.Rule{{Pattern: `Dr\.`, Replacement: "Doctor"}}, docs[1].Rules)
	assert.Nil(t, docs[1].Meta)

	out := filepath.Join(t.TempDir(), "out.jsonl")
	docs[0].Text = "X bar X"
	require.NoError(t, WriteDocuments(out, docs))
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"d1","source":"web","text":"X bar X","year":2020}
{"id":"","rules":[{"pattern":"Dr\\.","replacement":"Doctor"}],"text":"Dr. Smith"}
`, string(content))

	again, err := ReadDocuments(out)
	require.NoError(t, err)
	assert.Equal(t, docs, again)
}

func TestSpans(t *testing.T) {
	path := writeFile(t, "spans.jsonl", `{"document_id": "d1", "begin": 8, "end": 11, "label": "ORG", "score": 0.5}
{"document_id": "d2", "begin": 0, "end": 3}`)
	spans, err := ReadSpans(path, "document_id")
	require.NoError(t, err)
	assert.Equal(t, []batch.Span{
		{DocID: "d1", Begin: 8, End: 11, Attrs: map[string]any{"label": "ORG", "score": json.Number("0.5")}},
		{DocID: "d2", Begin: 0, End: 3},
	}, spans)

	out := filepath.Join(t.TempDir(), "out.jsonl")
	spans[0].Begin, spans[0].End = 6, 7
	require.NoError(t, WriteSpans(out, "document_id", spans))
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, `{"begin":6,"document_id":"d1","end":7,"label":"ORG","score":0.5}
{"begin":0,"document_id":"d2","end":3}
`, string(content))
}

func TestEmptyFile(t *testing.T) {
	docs, err := ReadDocuments(writeFile(t, "empty.jsonl", ""))
	require.NoError(t, err)
	assert.Empty(t, docs)

	out := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, WriteDocuments(out, []transform.Document{}))
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestBadRecords(t *testing.T) {
	tests := []struct {
		name, content string
	}{
		{"not json", "{\"text\": \"a\"}\nnot json\n"},
		{"null", "null\n"},
		{"missing text", `{"id": "x"}`},
		{"text not a string", `{"text": 3}`},
		{"bad rules", `{"text": "a", "rules": "nope"}`},
		{"two values", `{"text": "a"} {"text": "b"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDocuments(writeFile(t, "docs.jsonl", tt.content))
			require.ErrorIs(t, err, ErrBadRecord)
		})
	}

	_, err := ReadDocuments(writeFile(t, "docs.jsonl", "{\"text\": \"a\"}\n{}\n"))
	require.ErrorIs(t, err, ErrBadRecord)
	assert.Contains(t, err.Error(), "docs.jsonl:2")

	for _, content := range []string{
		`{"doc_id": "d1", "end": 3}`,
		`{"doc_id": "d1", "begin": 1.5, "end": 3}`,
		`{"doc_id": "d1", "begin": "1", "end": 3}`,
		`{"begin": 1, "end": 3}`,
	} {
		_, err := ReadSpans(writeFile(t, "spans.jsonl", content), "doc_id")
		require.ErrorIs(t, err, ErrBadRecord, content)
	}

	_, err = ReadSpans(filepath.Join(t.TempDir(), "missing.jsonl"), "doc_id")
	require.Error(t, err)
}
