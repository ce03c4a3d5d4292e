// Package jsonl reads and writes documents and spans as JSON Lines: one JSON object per line.
//
// Fields the record types don't model are kept in Document.Meta or Span.Attrs and written back
// unmodified.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrBadRecord is returned (wrapped) for lines that can't be parsed into a record.
var ErrBadRecord = errors.New("bad JSON Lines record")

// forEachLine memory maps the file at path and calls fn with every non-blank line and its
// 1-based line number. line is only valid during the call.
func forEachLine(path string, fn func(lineNum int, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %q", path)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "reading %q", path)
	}
	if info.Size() == 0 {
		// Empty files can't be mapped.
		return nil
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to mmap %q", path)
	}
	defer func() {
		if err := data.Unmap(); err != nil {
			klog.Errorf("failed to unmap %q: %v", path, err)
		}
	}()

	var lineNum int
	for rest := []byte(data); len(rest) > 0; {
		lineNum++
		line := rest
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i], rest[i+1:]
		} else {
			rest = nil
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNum, line); err != nil {
			return errors.WithMessagef(err, "%s:%d", path, lineNum)
		}
	}
	klog.V(2).Infof("read %d lines from %q", lineNum, path)
	return nil
}

// decodeObject parses one line into its fields. Numbers are kept as json.Number, so that
// integers pass through without loss.
func decodeObject(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.Wrapf(ErrBadRecord, "%v", err)
	}
	if fields == nil {
		return nil, errors.Wrapf(ErrBadRecord, "expected a JSON object, got null")
	}
	if dec.More() {
		return nil, errors.Wrapf(ErrBadRecord, "more than one JSON value in the line")
	}
	return fields, nil
}

func takeString(fields map[string]any, key string, required bool) (string, error) {
	v, found := fields[key]
	if !found {
		if required {
			return "", errors.Wrapf(ErrBadRecord, "missing field %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Wrapf(ErrBadRecord, "field %q must be a string, got %T", key, v)
	}
	delete(fields, key)
	return s, nil
}

func takeInt(fields map[string]any, key string) (int, error) {
	v, found := fields[key]
	if !found {
		return 0, errors.Wrapf(ErrBadRecord, "missing field %q", key)
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.Wrapf(ErrBadRecord, "field %q must be a number, got %T", key, v)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, errors.Wrapf(ErrBadRecord, "field %q must be an integer, got %s", key, n)
	}
	delete(fields, key)
	return int(i), nil
}

// writeObjects writes one JSON object per line to path, replacing it.
func writeObjects(path string, n int, object func(i int) map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	if err := encodeObjects(f, n, object); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "writing %q", path)
	}
	return errors.Wrapf(f.Close(), "closing %q", path)
}

func encodeObjects(w io.Writer, n int, object func(i int) map[string]any) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i := range n {
		// Encode terminates each value with a newline.
		if err := enc.Encode(object(i)); err != nil {
			return errors.Wrapf(err, "record #%d", i)
		}
	}
	return bw.Flush()
}
