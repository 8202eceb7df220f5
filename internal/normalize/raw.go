// Package normalize turns loosely-typed backend appointment and patient
// records into canonical views with guaranteed field presence.
//
// Nothing in this package returns an error. A value of the wrong type at any
// key is treated exactly like a missing key and resolution moves on to the
// next candidate source.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Raw is one backend record as decoded from JSON or BSON.
type Raw map[string]any

// UnmarshalJSON accepts any JSON object. Non-object documents are rejected
// since there is nothing to normalize in them.
func (r *Raw) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = Raw(m)
	return nil
}

// DecodeList decodes a JSON array of records. An element that is not an
// object becomes an empty Raw at the same position. Only a document that is
// not an array is an error.
func DecodeList(b []byte) ([]Raw, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return nil, err
	}
	out := make([]Raw, len(elems))
	for i, e := range elems {
		var m map[string]any
		if err := json.Unmarshal(e, &m); err != nil || m == nil {
			m = map[string]any{}
		}
		out[i] = Raw(m)
	}
	return out, nil
}

// RecordID returns the backend id of a record, reading a Mongo extended
// JSON {"$oid": ...} as well as plain _id and id keys. It is empty when the
// record carries none.
func RecordID(r Raw) string {
	return firstNonEmpty(flatten(r["_id"], "$oid"), r.str("id"))
}

func (r Raw) str(key string) string {
	if r == nil {
		return ""
	}
	return asString(r[key])
}

func (r Raw) obj(key string) Raw {
	if r == nil {
		return nil
	}
	return asObject(r[key])
}

// path walks nested objects, e.g. path("metadata", "gender").
func (r Raw) path(keys ...string) string {
	cur := r
	for i, k := range keys {
		if i == len(keys)-1 {
			return cur.str(k)
		}
		cur = cur.obj(k)
		if cur == nil {
			return ""
		}
	}
	return ""
}

func asObject(v any) Raw {
	switch t := v.(type) {
	case Raw:
		return t
	case map[string]any:
		return Raw(t)
	}
	return nil
}

// asString coerces scalars to their display string. Objects, arrays and nil
// yield "".
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}
	return ""
}

func formatFloat(f float64) string {
	if !finite(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, finite(t)
	case float32:
		return float64(t), finite(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

// flatten reads a value that may be a scalar or an object wrapping the
// scalar under one of keys. Keys are probed in order.
func flatten(v any, keys ...string) string {
	if o := asObject(v); o != nil {
		for _, k := range keys {
			if s := o.str(k); s != "" {
				return s
			}
		}
		return ""
	}
	return asString(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// flattenAddress renders a string address as-is and an object address as
// its known parts joined with ", ".
func flattenAddress(v any) string {
	o := asObject(v)
	if o == nil {
		return asString(v)
	}
	var parts []string
	for _, k := range []string{"line1", "line2", "street", "city", "state", "postalCode", "zip", "country"} {
		if s := o.str(k); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
