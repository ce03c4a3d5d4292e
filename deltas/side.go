package deltas

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Side selects where a position strictly inside an edited region lands after mapping:
// on the start (Left) or on the end (Right) of the rewritten region.
//
// Span begins are usually mapped with Left and span ends with Right, so that a span
// touching an edit grows to cover the whole rewritten region instead of cutting it.
type Side int

const (
	Left Side = iota
	Right
)

// String implements fmt.Stringer.
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "Side(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseSide converts "left" or "right" (case-insensitive) to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Left, errors.Errorf("unknown side %q, expected \"left\" or \"right\"", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if s != Left && s != Right {
		return nil, errors.Errorf("invalid side %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}
