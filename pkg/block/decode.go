package block

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// versionKey is the document key carrying the schema version.
const versionKey = "version"

// ErrNotObject is returned when a document is not a JSON object.
var ErrNotObject = errors.New("attributes must be a JSON object")

// Decode reads a persisted attribute document of any schema version and
// returns it as a current-version snapshot, together with the version the
// document was written with.
//
// Decoding never fails on attribute values: a field whose value has the
// wrong JSON type keeps its default. Only input that is not a JSON object
// is rejected.
func Decode(data []byte) (Attributes, Version, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return Defaults(Current), Current, err
	}
	from := DetectVersion(raw)
	return apply(Defaults(Current), Migrate(raw, from)), from, nil
}

// DecodeValues is Decode for an already-parsed JSON object, such as a
// request body decoded into a map.
func DecodeValues(values map[string]any) (Attributes, Version, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return Defaults(Current), Current, fmt.Errorf("encode attributes: %w", err)
	}
	return Decode(data)
}

// DetectVersion reports the schema version of a raw document. An explicit,
// known "version" wins. Otherwise any V2-only key marks the document as V2
// and everything else is treated as V1 content.
func DetectVersion(raw map[string]json.RawMessage) Version {
	if v, ok := raw[versionKey]; ok {
		var n int
		if err := json.Unmarshal(v, &n); err == nil && Version(n).Valid() {
			return Version(n)
		}
	}
	for _, name := range v2Only() {
		if _, ok := raw[name]; ok {
			return V2
		}
	}
	return V1
}

// Migrate upgrades a raw document from version from to Current. Migration
// is additive: existing keys are kept verbatim, and any default a V1 block
// relied on implicitly is written out so the block renders unchanged.
func Migrate(raw map[string]json.RawMessage, from Version) map[string]json.RawMessage {
	out := maps.Clone(raw)
	if out == nil {
		out = make(map[string]json.RawMessage)
	}
	if from < V2 {
		if _, ok := out[FieldAspectRatio]; !ok {
			out[FieldAspectRatio] = mustRaw(Defaults(V1).AspectRatio)
		}
	}
	out[versionKey] = mustRaw(int(Current))
	return out
}

// Upgrade decodes data and re-encodes it as a current-version document with
// every field written explicitly.
func Upgrade(data []byte) ([]byte, Version, error) {
	a, from, err := Decode(data)
	if err != nil {
		return nil, from, err
	}
	out, err := Encode(a)
	if err != nil {
		return nil, from, err
	}
	return out, from, nil
}

// Encode writes a as a current-version document.
func Encode(a Attributes) ([]byte, error) {
	return json.Marshal(Document{Version: Current, Attributes: a})
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	if data[0] != '{' {
		return nil, ErrNotObject
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	return raw, nil
}

// apply overlays the known keys of raw on base, field by field.
func apply(base Attributes, raw map[string]json.RawMessage) Attributes {
	a := base
	for _, f := range fields {
		v, ok := raw[f.Name]
		if !ok {
			continue
		}
		switch f.Kind {
		case KindString:
			var s string
			if json.Unmarshal(v, &s) == nil && !isNull(v) {
				a.setString(f.Name, s)
			}
		case KindBoolean:
			var b bool
			if json.Unmarshal(v, &b) == nil && !isNull(v) {
				a.setBool(f.Name, b)
			}
		case KindNumber:
			var n float64
			if json.Unmarshal(v, &n) == nil && !isNull(v) {
				if i, ok := roundInt(n); ok {
					a.setInt(f.Name, i)
				}
			}
		}
	}
	return a.Normalize()
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func mustRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
