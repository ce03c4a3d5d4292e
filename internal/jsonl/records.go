package jsonl

import (
	"encoding/json"

	"github.com/gomlx/go-textdelta/batch"
	"github.com/gomlx/go-textdelta/substitute"
	"github.com/gomlx/go-textdelta/transform"
	"github.com/pkg/errors"
)

// Field names of documents.
const (
	FieldID    = "id"
	FieldText  = "text"
	FieldRules = "rules"
)

// ReadDocuments reads documents from a JSON Lines file. Each line holds a "text" string and,
// optionally, an "id" string and "rules": a list of {"pattern", "replacement"} objects applied to
// that document only.
func ReadDocuments(path string) ([]transform.Document, error) {
	var docs []transform.Document
	err := forEachLine(path, func(_ int, line []byte) error {
		fields, err := decodeObject(line)
		if err != nil {
			return err
		}
		var doc transform.Document
		if doc.ID, err = takeString(fields, FieldID, false); err != nil {
			return err
		}
		if doc.Text, err = takeString(fields, FieldText, true); err != nil {
			return err
		}
		if doc.Rules, err = takeRules(fields); err != nil {
			return err
		}
		if len(fields) > 0 {
			doc.Meta = fields
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func takeRules(fields map[string]any) ([]substitute.Rule, error) {
	v, found := fields[FieldRules]
	if !found {
		return nil, nil
	}
	// Round trip through JSON: the rules were decoded as generic maps.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(ErrBadRecord, "field %q: %v", FieldRules, err)
	}
	var rules []substitute.Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, errors.Wrapf(ErrBadRecord, "field %q must be a list of {\"pattern\", \"replacement\"}: %v", FieldRules, err)
	}
	delete(fields, FieldRules)
	return rules, nil
}

// WriteDocuments writes documents as JSON Lines, with their Meta fields.
func WriteDocuments(path string, docs []transform.Document) error {
	return writeObjects(path, len(docs), func(i int) map[string]any {
		doc := docs[i]
		fields := make(map[string]any, len(doc.Meta)+3)
		for k, v := range doc.Meta {
			fields[k] = v
		}
		fields[FieldID] = doc.ID
		fields[FieldText] = doc.Text
		if len(doc.Rules) > 0 {
			fields[FieldRules] = doc.Rules
		}
		return fields
	})
}

// ReadSpans reads spans from a JSON Lines file. Each line holds the document ID in the groupKey
// field, and integer "begin" and "end" fields.
func ReadSpans(path, groupKey string) ([]batch.Span, error) {
	var spans []batch.Span
	err := forEachLine(path, func(_ int, line []byte) error {
		fields, err := decodeObject(line)
		if err != nil {
			return err
		}
		var span batch.Span
		if span.DocID, err = takeString(fields, groupKey, true); err != nil {
			return err
		}
		if span.Begin, err = takeInt(fields, batch.ColumnBegin); err != nil {
			return err
		}
		if span.End, err = takeInt(fields, batch.ColumnEnd); err != nil {
			return err
		}
		if len(fields) > 0 {
			span.Attrs = fields
		}
		spans = append(spans, span)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return spans, nil
}

// WriteSpans writes spans as JSON Lines, with the document ID in the groupKey field.
func WriteSpans(path, groupKey string, spans []batch.Span) error {
	return writeObjects(path, len(spans), func(i int) map[string]any {
		span := spans[i]
		fields := make(map[string]any, len(span.Attrs)+3)
		for k, v := range span.Attrs {
			fields[k] = v
		}
		fields[groupKey] = span.DocID
		fields[batch.ColumnBegin] = span.Begin
		fields[batch.ColumnEnd] = span.End
		return fields
	})
}
