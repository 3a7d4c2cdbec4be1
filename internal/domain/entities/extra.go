package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Records loaded from the data file may carry keys written by other tools.
// They are kept in an Extra map and written back after the typed fields.

// decodeWithExtra unmarshals data into v (a pointer to a struct) and returns
// the object keys that no field of v claims, with compacted values.
func decodeWithExtra(data []byte, v any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	known := fieldKeys(reflect.TypeOf(v).Elem())
	var extra map[string]json.RawMessage
	for key, raw := range all {
		// encoding/json matches keys case-insensitively
		if known[strings.ToLower(key)] {
			continue
		}
		value, err := compactJSON(raw)
		if err != nil {
			return nil, err
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = value
	}
	return extra, nil
}

// encodeWithExtra marshals v without HTML escaping and appends the extra keys
// in sorted order.
func encodeWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := encodeJSON(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	if len(b) < 2 || b[len(b)-1] != '}' {
		return nil, fmt.Errorf("cannot merge extra keys into %s", b)
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	empty := len(bytes.TrimSpace(b[1:len(b)-1])) == 0
	for _, key := range keys {
		if !empty {
			buf.WriteByte(',')
		}
		empty = false

		name, err := encodeJSON(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if value := extra[key]; len(value) > 0 {
			buf.Write(value)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func compactJSON(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

// fieldKeys returns the lower-cased JSON names of the exported fields of t.
func fieldKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
		}
		keys[strings.ToLower(name)] = true
	}
	return keys
}
