// Package descriptor defines the immutable configuration handed to an external
// end-to-end test runner: where the automation server lives, how long a script
// may run, which spec files to execute, the target browser capabilities and the
// test framework with its options.
package descriptor

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Field names as they appear in descriptor documents.
const (
	FieldRemoteEndpoint      = "remoteEndpoint"
	FieldGlobalTimeoutMillis = "globalTimeoutMillis"
	FieldSpecPaths           = "specPaths"
	FieldCapabilities        = "capabilities"
	FieldFrameworkName       = "frameworkName"
	FieldFrameworkOptions    = "frameworkOptions"
)

// Spec holds the raw fields of a descriptor. It is the input of New and the
// output of Descriptor.Spec.
//
// A nil SpecPaths means the field is absent and is rejected; an empty,
// non-nil slice is a valid descriptor that runs nothing.
type Spec struct {
	RemoteEndpoint      string                 `json:"remoteEndpoint,omitempty" yaml:"remoteEndpoint,omitempty"`
	GlobalTimeoutMillis int64                  `json:"globalTimeoutMillis,omitempty" yaml:"globalTimeoutMillis,omitempty"`
	SpecPaths           []string               `json:"specPaths" yaml:"specPaths"`
	Capabilities        map[string]string      `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	FrameworkName       string                 `json:"frameworkName" yaml:"frameworkName"`
	FrameworkOptions    map[string]interface{} `json:"frameworkOptions,omitempty" yaml:"frameworkOptions,omitempty"`
}

// Descriptor is a validated, read-only runner configuration. The zero value
// is not usable; build one with New, Parse, Load or LoadFile.
type Descriptor struct {
	spec Spec
}

// New validates s and returns a Descriptor holding a private copy of it.
// Framework option values are normalized: integers become int64, floats
// become float64 and lists become []interface{}.
func New(s Spec) (*Descriptor, error) {
	if s.SpecPaths == nil {
		return nil, malformed(FieldSpecPaths, "is required")
	}
	for i, p := range s.SpecPaths {
		if strings.TrimSpace(p) == "" {
			return nil, malformed(fmt.Sprintf("%s[%d]", FieldSpecPaths, i), "must not be empty")
		}
	}

	if strings.TrimSpace(s.FrameworkName) == "" {
		return nil, malformed(FieldFrameworkName, "is required")
	}

	if s.GlobalTimeoutMillis < 0 {
		return nil, malformed(FieldGlobalTimeoutMillis, "must be a non-negative integer")
	}

	if s.RemoteEndpoint != "" {
		if err := validateEndpoint(s.RemoteEndpoint); err != nil {
			return nil, err
		}
	}

	caps := make(map[string]string, len(s.Capabilities))
	for k, v := range s.Capabilities {
		if k == "" {
			return nil, malformed(FieldCapabilities, "must not contain empty keys")
		}
		caps[k] = v
	}

	opts := make(map[string]interface{}, len(s.FrameworkOptions))
	for k, v := range s.FrameworkOptions {
		if k == "" {
			return nil, malformed(FieldFrameworkOptions, "must not contain empty keys")
		}
		nv, err := normalizeOption(FieldFrameworkOptions+"."+k, v, true)
		if err != nil {
			return nil, err
		}
		opts[k] = nv
	}

	return &Descriptor{
		spec: Spec{
			RemoteEndpoint:      s.RemoteEndpoint,
			GlobalTimeoutMillis: s.GlobalTimeoutMillis,
			SpecPaths:           append(make([]string, 0, len(s.SpecPaths)), s.SpecPaths...),
			Capabilities:        caps,
			FrameworkName:       s.FrameworkName,
			FrameworkOptions:    opts,
		},
	}, nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &MalformedConfigurationError{Field: FieldRemoteEndpoint, Reason: "must be a well-formed URL", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return malformed(FieldRemoteEndpoint, "must be an absolute URL with scheme and host")
	}
	return nil
}

// normalizeOption converts v into one of string, bool, int64, float64 or,
// when allowList is set, a []interface{} of those.
func normalizeOption(field string, v interface{}, allowList bool) (interface{}, error) {
	switch val := v.(type) {
	case string, bool, int64:
		return val, nil
	case float64:
		return finiteOption(field, val)
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return uintOption(field, uint64(val))
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		return uintOption(field, val)
	case float32:
		return finiteOption(field, float64(val))
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, malformed(field, "must be a number")
		}
		return finiteOption(field, f)
	case []string:
		if !allowList {
			return nil, malformed(field, "must not contain nested lists")
		}
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	case []interface{}:
		if !allowList {
			return nil, malformed(field, "must not contain nested lists")
		}
		out := make([]interface{}, len(val))
		for i, item := range val {
			nv, err := normalizeOption(fmt.Sprintf("%s[%d]", field, i), item, false)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case nil:
		return nil, malformed(field, "must not be null")
	default:
		return nil, malformed(field, fmt.Sprintf("has unsupported type %T", v))
	}
}

// finiteOption rejects NaN and infinities, which neither JSON nor the
// rendered runner config can represent.
func finiteOption(field string, v float64) (interface{}, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, malformed(field, "must be a finite number")
	}
	return v, nil
}

func uintOption(field string, v uint64) (interface{}, error) {
	if v > math.MaxInt64 {
		return nil, malformed(field, "is out of range")
	}
	return int64(v), nil
}

// RemoteEndpoint returns the automation server URL, or "" when unset.
func (d *Descriptor) RemoteEndpoint() string {
	return d.spec.RemoteEndpoint
}

// GlobalTimeoutMillis returns the per-script timeout in milliseconds. Zero
// means the external runner's default applies.
func (d *Descriptor) GlobalTimeoutMillis() int64 {
	return d.spec.GlobalTimeoutMillis
}

// GlobalTimeout returns GlobalTimeoutMillis as a duration.
func (d *Descriptor) GlobalTimeout() time.Duration {
	return time.Duration(d.spec.GlobalTimeoutMillis) * time.Millisecond
}

// SpecPaths returns a copy of the spec path patterns in declaration order.
func (d *Descriptor) SpecPaths() []string {
	return append(make([]string, 0, len(d.spec.SpecPaths)), d.spec.SpecPaths...)
}

// Capabilities returns a copy of the capability map.
func (d *Descriptor) Capabilities() map[string]string {
	out := make(map[string]string, len(d.spec.Capabilities))
	for k, v := range d.spec.Capabilities {
		out[k] = v
	}
	return out
}

// FrameworkName returns the test framework identifier.
func (d *Descriptor) FrameworkName() string {
	return d.spec.FrameworkName
}

// FrameworkOptions returns a deep copy of the framework options.
func (d *Descriptor) FrameworkOptions() map[string]interface{} {
	out := make(map[string]interface{}, len(d.spec.FrameworkOptions))
	for k, v := range d.spec.FrameworkOptions {
		if list, ok := v.([]interface{}); ok {
			v = append(make([]interface{}, 0, len(list)), list...)
		}
		out[k] = v
	}
	return out
}

// Spec returns a deep copy of the descriptor's fields.
func (d *Descriptor) Spec() Spec {
	return Spec{
		RemoteEndpoint:      d.spec.RemoteEndpoint,
		GlobalTimeoutMillis: d.spec.GlobalTimeoutMillis,
		SpecPaths:           d.SpecPaths(),
		Capabilities:        d.Capabilities(),
		FrameworkName:       d.spec.FrameworkName,
		FrameworkOptions:    d.FrameworkOptions(),
	}
}

// CapabilityNames returns the capability keys in sorted order.
func (d *Descriptor) CapabilityNames() []string {
	keys := make([]string, 0, len(d.spec.Capabilities))
	for k := range d.spec.Capabilities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Warnings returns findings that do not make the descriptor invalid but that
// a consumer should surface.
func (d *Descriptor) Warnings() []string {
	var warnings []string
	if len(d.spec.SpecPaths) == 0 {
		warnings = append(warnings, "specPaths is empty; the run will not execute any specs")
	}
	return warnings
}

// MarshalJSON encodes the descriptor using its document field names.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.document())
}

// MarshalYAML encodes the descriptor using its document field names.
func (d *Descriptor) MarshalYAML() (interface{}, error) {
	return d.document(), nil
}

// document is Spec with float options wrapped so that Parse reads them back
// as floats.
func (d *Descriptor) document() Spec {
	s := d.Spec()
	for k, v := range s.FrameworkOptions {
		s.FrameworkOptions[k] = encodableOption(v)
	}
	return s
}

func encodableOption(v interface{}) interface{} {
	switch val := v.(type) {
	case float64:
		return floatOption(val)
	case []interface{}:
		for i, item := range val {
			val[i] = encodableOption(item)
		}
		return val
	default:
		return v
	}
}

// floatOption always encodes with a fraction or exponent, so 3000.0 is not
// decoded as the integer 3000.
type floatOption float64

func (f floatOption) String() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// MarshalJSON implements json.Marshaler.
func (f floatOption) MarshalJSON() ([]byte, error) {
	return []byte(f.String()), nil
}

// MarshalYAML implements yaml.Marshaler.
func (f floatOption) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: f.String()}, nil
}
