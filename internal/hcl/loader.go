package hcl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	env map[string]string
}

// NewLoader creates a new HCL configuration loader. Option file expressions
// see the given environment as the `env` variable; a nil map means the
// process environment.
func NewLoader(env map[string]string) *Loader {
	return &Loader{env: env}
}

// parse chooses the native or JSON syntax by file extension.
func parse(parser *hclparse.Parser, f config.File) (*hcl.File, hcl.Diagnostics) {
	if strings.EqualFold(filepath.Ext(f.Name), ".json") {
		return parser.ParseJSON(f.Bytes, f.Name)
	}
	return parser.ParseHCL(f.Bytes, f.Name)
}

// LoadManifests decodes `component` blocks from manifest files.
func (l *Loader) LoadManifests(ctx context.Context, files ...config.File) (map[string]*config.ComponentDefinition, error) {
	logger := ctxlog.FromContext(ctx)
	defs := make(map[string]*config.ComponentDefinition)
	parser := hclparse.NewParser()

	for _, f := range files {
		hclFile, diags := parse(parser, f)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", f.Name, diags)
		}

		var root manifestRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", f.Name, diags)
		}

		for _, c := range root.Components {
			def, err := translateComponentDefinition(c, f.Name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			if prev, exists := defs[def.Type]; exists {
				return nil, fmt.Errorf("component '%s' defined in both %s and %s", def.Type, prev.Source, f.Name)
			}
			defs[def.Type] = def
		}
		logger.Debug("Loaded manifest.", "file", f.Name, "components", len(root.Components))
	}
	return defs, nil
}

// Load decodes option files in order and merges their declarations.
func (l *Loader) Load(ctx context.Context, files ...config.File) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "file_count", len(files))

	model := &config.Model{}
	index := make(map[string]*config.Instance)
	parser := hclparse.NewParser()

	for _, f := range files {
		hclFile, diags := parse(parser, f)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse option file %s: %w", f.Name, diags)
		}

		var root optionsRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode option file %s: %w", f.Name, diags)
		}

		for _, a := range root.Application {
			if err := mergeInstance(model, index, config.ApplicationType, config.ApplicationName, a.Body, f.Name); err != nil {
				return nil, nil, err
			}
		}
		for _, c := range root.Configure {
			if c.Type == config.ApplicationType {
				return nil, nil, fmt.Errorf("%s: use an 'application' block to configure the %s", f.Name, config.ApplicationType)
			}
			if err := mergeInstance(model, index, c.Type, c.Name, c.Body, f.Name); err != nil {
				return nil, nil, err
			}
		}
		logger.Debug("Loaded option file.", "file", f.Name, "configure_blocks", len(root.Configure), "application_blocks", len(root.Application))
	}

	logger.Debug("HCL loading complete.", "instances", len(model.Instances))
	return model, NewConverter(l.env), nil
}
