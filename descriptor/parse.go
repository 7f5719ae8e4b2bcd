package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var knownFields = map[string]bool{
	FieldRemoteEndpoint:      true,
	FieldGlobalTimeoutMillis: true,
	FieldSpecPaths:           true,
	FieldCapabilities:        true,
	FieldFrameworkName:       true,
	FieldFrameworkOptions:    true,
}

// LoadFile reads and parses the descriptor document at path.
func LoadFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	return Parse(data)
}

// Load reads a descriptor document from r.
func Load(r io.Reader) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON descriptor document. Values are checked
// against their declared types instead of being coerced, and unknown keys
// are rejected.
func Parse(data []byte) (*Descriptor, error) {
	raw, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !knownFields[k] {
			return nil, malformed(k, "is not a recognized option")
		}
	}

	var s Spec

	if v, ok := present(raw, FieldRemoteEndpoint); ok {
		str, ok := v.(string)
		if !ok {
			return nil, malformed(FieldRemoteEndpoint, "must be a string")
		}
		s.RemoteEndpoint = str
	}

	if v, ok := present(raw, FieldGlobalTimeoutMillis); ok {
		ms, err := asMillis(v)
		if err != nil {
			return nil, err
		}
		s.GlobalTimeoutMillis = ms
	}

	if v, ok := present(raw, FieldSpecPaths); ok {
		list, ok := v.([]interface{})
		if !ok {
			return nil, malformed(FieldSpecPaths, "must be a sequence of strings")
		}
		s.SpecPaths = make([]string, 0, len(list))
		for i, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, malformed(fmt.Sprintf("%s[%d]", FieldSpecPaths, i), "must be a string")
			}
			s.SpecPaths = append(s.SpecPaths, str)
		}
	}

	if v, ok := present(raw, FieldCapabilities); ok {
		m, err := asStringMap(FieldCapabilities, v)
		if err != nil {
			return nil, err
		}
		s.Capabilities = make(map[string]string, len(m))
		for k, cv := range m {
			str, ok := cv.(string)
			if !ok {
				return nil, malformed(FieldCapabilities+"."+k, "must be a string")
			}
			s.Capabilities[k] = str
		}
	}

	if v, ok := present(raw, FieldFrameworkName); ok {
		str, ok := v.(string)
		if !ok {
			return nil, malformed(FieldFrameworkName, "must be a string")
		}
		s.FrameworkName = str
	}

	if v, ok := present(raw, FieldFrameworkOptions); ok {
		m, err := asStringMap(FieldFrameworkOptions, v)
		if err != nil {
			return nil, err
		}
		s.FrameworkOptions = m
	}

	return New(s)
}

// decodeDocument decodes data into a generic mapping. Documents starting with
// '{' go through encoding/json so that tab-indented JSON is accepted.
func decodeDocument(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]interface{}{}, nil
	}

	var raw map[string]interface{}
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, &MalformedConfigurationError{Reason: "invalid JSON document", Err: err}
		}
		if dec.More() {
			return nil, &MalformedConfigurationError{Reason: "unexpected data after JSON document"}
		}
		return raw, nil
	}

	if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return nil, &MalformedConfigurationError{Reason: "invalid YAML document", Err: err}
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return raw, nil
}

// present returns the value under key, treating explicit nulls as absent.
func present(raw map[string]interface{}, key string) (interface{}, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func asMillis(v interface{}) (int64, error) {
	var ms int64
	switch val := v.(type) {
	case int:
		ms = int64(val)
	case int64:
		ms = val
	case uint64:
		if val > math.MaxInt64 {
			return 0, malformed(FieldGlobalTimeoutMillis, "is out of range")
		}
		ms = int64(val)
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.Abs(val) >= math.MaxInt64 {
			return 0, malformed(FieldGlobalTimeoutMillis, "must be a non-negative integer")
		}
		ms = int64(val)
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil {
				return 0, malformed(FieldGlobalTimeoutMillis, "must be a non-negative integer")
			}
			return asMillis(f)
		}
		ms = i
	default:
		return 0, malformed(FieldGlobalTimeoutMillis, "must be a non-negative integer")
	}
	if ms < 0 {
		return 0, malformed(FieldGlobalTimeoutMillis, "must be a non-negative integer")
	}
	return ms, nil
}

// asStringMap accepts both map shapes yaml.v3 can produce for a mapping and
// rejects non-string keys.
func asStringMap(field string, v interface{}) (map[string]interface{}, error) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, malformed(field, "must have string keys")
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, malformed(field, "must be a mapping")
	}
}
