package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/hcl"
	"github.com/vk/gridlaunch/internal/registry"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by WriteConfig.
const (
	FormatHCL  = "hcl"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatForPath picks the output format from a file extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return FormatHCL, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot tell the output format of %q: use .hcl, .json or .yaml", path)
	}
}

// WriteOutput writes the final configuration to path in the format its
// extension names.
func (a *App) WriteOutput(path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := a.WriteConfig(&buf, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	a.logger.Info("Configuration written.", "path", path, "format", format)
	return nil
}

// WriteConfig renders the effective configuration. The hcl and json forms
// are option files that reproduce the same configuration when loaded.
func (a *App) WriteConfig(w io.Writer, format string) error {
	snapshots := dumpable(a.registry.Snapshots(), a.registry)
	switch format {
	case FormatHCL:
		return hcl.Write(w, snapshots)
	case FormatJSON:
		doc, err := jsonDocument(snapshots, escapeTemplates)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		doc, err := jsonDocument(snapshots, nil)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		var plain any
		if err := json.Unmarshal(raw, &plain); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// dumpable drops deprecated properties that were never set, so that a
// reloaded dump does not warn about them.
func dumpable(snapshots []config.Snapshot, reg *registry.Registry) []config.Snapshot {
	for _, s := range snapshots {
		inst, ok := reg.Instance(s.Name)
		if !ok {
			continue
		}
		for name := range s.Values {
			def, _ := inst.Property(name)
			if def != nil && def.Deprecated != "" && !inst.IsSet(name) {
				delete(s.Values, name)
				delete(s.Origins, name)
			}
		}
	}
	return snapshots
}

// jsonDocument lays the snapshots out the way HCL's JSON syntax spells
// `application` and `configure "Type" "name"` blocks.
func jsonDocument(snapshots []config.Snapshot, transform func(cty.Value) (cty.Value, error)) (map[string]any, error) {
	doc := make(map[string]any)
	configure := make(map[string]map[string]map[string]json.RawMessage)

	for _, s := range snapshots {
		attrs := make(map[string]json.RawMessage, len(s.Values))
		for name, val := range s.Values {
			if val.IsNull() || !val.IsWhollyKnown() {
				continue
			}
			if transform != nil {
				var err error
				if val, err = transform(val); err != nil {
					return nil, err
				}
			}
			raw, err := ctyjson.Marshal(val, val.Type())
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Name, name, err)
			}
			attrs[name] = raw
		}

		if s.Type == config.ApplicationType && s.Name == config.ApplicationName {
			doc["application"] = attrs
			continue
		}
		if configure[s.Type] == nil {
			configure[s.Type] = make(map[string]map[string]json.RawMessage)
		}
		configure[s.Type][s.Name] = attrs
	}
	if len(configure) > 0 {
		doc["configure"] = configure
	}
	return doc, nil
}

// escapeTemplates protects string values from template interpretation,
// since HCL's JSON syntax parses every string as a template.
func escapeTemplates(v cty.Value) (cty.Value, error) {
	return cty.Transform(v, func(_ cty.Path, v cty.Value) (cty.Value, error) {
		if !v.IsKnown() || v.IsNull() || !v.Type().Equals(cty.String) {
			return v, nil
		}
		s := strings.ReplaceAll(v.AsString(), "${", "$${")
		s = strings.ReplaceAll(s, "%{", "%%{")
		return cty.StringVal(s), nil
	})
}
