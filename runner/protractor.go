package runner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hairizuan-noorazman/e2erun/descriptor"
)

// ConfigFileName is the name of the rendered runner configuration.
const ConfigFileName = "protractor.conf.js"

// RenderOptions controls how a descriptor is rendered.
type RenderOptions struct {
	// BaseDir anchors relative spec paths. The rendered file usually lives in
	// a temporary directory, and the runner resolves specs relative to it.
	BaseDir string
}

// OptionsKey returns the config key the runner reads framework options from.
func OptionsKey(framework string) string {
	switch framework {
	case "jasmine", "jasmine2":
		return "jasmineNodeOpts"
	case "":
		return "frameworkOpts"
	default:
		return framework + "Opts"
	}
}

// RenderProtractor writes d as a CommonJS protractor configuration module.
// Map keys are emitted in sorted order so identical descriptors render to
// identical bytes.
func RenderProtractor(w io.Writer, d *descriptor.Descriptor, opts RenderOptions) error {
	specs := d.SpecPaths()
	if opts.BaseDir != "" {
		for i, p := range specs {
			if !filepath.IsAbs(p) {
				specs[i] = filepath.Join(opts.BaseDir, p)
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("// Generated by e2erun. Do not edit.\n")
	buf.WriteString("exports.config = {\n")

	var fields []string
	add := func(key string, value interface{}) error {
		encoded, err := json.MarshalIndent(value, "    ", "    ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		fields = append(fields, fmt.Sprintf("    %s: %s", key, encoded))
		return nil
	}

	if endpoint := d.RemoteEndpoint(); endpoint != "" {
		if err := add("seleniumAddress", endpoint); err != nil {
			return err
		}
	}
	if timeout := d.GlobalTimeoutMillis(); timeout > 0 {
		if err := add("allScriptsTimeout", timeout); err != nil {
			return err
		}
	}
	if err := add("specs", specs); err != nil {
		return err
	}
	if err := add("capabilities", d.Capabilities()); err != nil {
		return err
	}
	if err := add("framework", d.FrameworkName()); err != nil {
		return err
	}
	if options := d.FrameworkOptions(); len(options) > 0 {
		if err := add(OptionsKey(d.FrameworkName()), options); err != nil {
			return err
		}
	}

	for i, f := range fields {
		buf.WriteString(f)
		if i < len(fields)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("};\n")

	_, err := w.Write(buf.Bytes())
	return err
}
