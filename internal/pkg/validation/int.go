package validation

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Int is a request field that accepts a JSON number or a numeric string.
// Decoding never fails, so malformed values are reported alongside every
// other field instead of aborting the bind.
type Int struct {
	Raw     string
	Present bool
}

// NewInt builds a present Int from v.
func NewInt(v int64) Int {
	return Int{Raw: strconv.FormatInt(v, 10), Present: true}
}

func (i *Int) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*i = Int{}
		return nil
	}

	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			raw = s
		}
	}

	raw = strings.TrimSpace(raw)
	*i = Int{Raw: raw, Present: raw != ""}
	return nil
}

func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Present {
		return []byte("null"), nil
	}
	if v, err := i.Value(); err == nil {
		return []byte(strconv.FormatInt(v, 10)), nil
	}
	return json.Marshal(i.Raw)
}

// Value parses the raw text as a base-10 integer. Whole-valued decimals such
// as "10.0" are accepted since JSON clients commonly send them.
func (i Int) Value() (int64, error) {
	if v, err := strconv.ParseInt(i.Raw, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(i.Raw, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, strconv.ErrSyntax
	}
	return int64(f), nil
}
