package docstore

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies doc into out (a pointer to a struct) using the struct's json tags.
// Numeric fields are converted between integer and float kinds as needed, since
// each backend hands numbers back with a different Go type.
func Decode(doc Document, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("docstore: build decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(doc)); err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	return nil
}

// Decode copies the snapshot into out. The snapshot id fills the "id" field
// when the stored document does not carry one.
func (s Snapshot) Decode(out any) error {
	doc := s.Data
	if _, ok := doc["id"]; !ok {
		doc = make(Document, len(s.Data)+1)
		for k, v := range s.Data {
			doc[k] = v
		}
		doc["id"] = s.ID
	}
	return Decode(doc, out)
}

// ReadJSON parses a JSON object into a Document. Integral numbers become int64
// and all other numbers float64, so integer fields such as userType keep their
// type when written to the store.
func ReadJSON(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("docstore: expected a JSON object")
	}
	return Document(normalizeNumbers(raw).(map[string]any)), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, vv := range t {
			t[k] = normalizeNumbers(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = normalizeNumbers(vv)
		}
		return t
	default:
		return v
	}
}

// String returns the string value of field, or "" if absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Has reports whether field is present with a non-nil value.
func (d Document) Has(field string) bool {
	v, ok := d[field]
	return ok && v != nil
}
