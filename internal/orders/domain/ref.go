package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var errInvalidRef = errors.New("order reference must be a JSON number or string")

// Ref is the identifier the POS host assigns to an order. The host may use
// integer or string identifiers; a Ref keeps whichever it was given and
// encodes it back unchanged.
type Ref struct {
	num   int64
	str   string
	isStr bool
	set   bool
}

// IntRef returns a numeric order reference.
func IntRef(n int64) Ref {
	return Ref{num: n, set: true}
}

// StringRef returns a string order reference.
func StringRef(s string) Ref {
	return Ref{str: s, isStr: true, set: true}
}

// IsZero reports whether the reference was never assigned.
func (r Ref) IsZero() bool {
	return !r.set
}

// Int returns the numeric value and whether the reference is numeric.
func (r Ref) Int() (int64, bool) {
	if !r.set || r.isStr {
		return 0, false
	}
	return r.num, true
}

func (r Ref) String() string {
	switch {
	case !r.set:
		return ""
	case r.isStr:
		return r.str
	default:
		return strconv.FormatInt(r.num, 10)
	}
}

func (r Ref) MarshalJSON() ([]byte, error) {
	switch {
	case !r.set:
		return []byte("null"), nil
	case r.isStr:
		return json.Marshal(r.str)
	default:
		return []byte(strconv.FormatInt(r.num, 10)), nil
	}
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode order reference: %w", err)
		}
		*r = StringRef(s)
		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errInvalidRef
	}
	*r = IntRef(n)
	return nil
}
