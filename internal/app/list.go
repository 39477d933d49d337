package app

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/options"
	"github.com/vk/gridlaunch/internal/style"
)

// List prints the known component types with their properties, then the
// configured instances with the effective value and origin of every
// property.
func (a *App) List(w io.Writer) error {
	st := style.Default()
	var b strings.Builder

	b.WriteString(st.Section.Render("Component types"))
	b.WriteString("\n")
	for _, typ := range a.registry.Types() {
		def := a.registry.DefinitionRegistry[typ]
		fmt.Fprintf(&b, "  %s %s", st.Title.Render(def.Type), st.Type.Render("("+def.Kind+")"))
		if def.Description != "" {
			fmt.Fprintf(&b, "  %s", def.Description)
		}
		b.WriteString("\n")
		for _, name := range sortedProperties(def) {
			p := def.Properties[name]
			fmt.Fprintf(&b, "    %s %s", st.Name.Render(name), st.Type.Render(p.Type.FriendlyName()))
			if p.Default != nil {
				fmt.Fprintf(&b, " = %s", options.Render(*p.Default))
			}
			if p.Deprecated != "" {
				fmt.Fprintf(&b, " %s", st.Deprecated.Render("[deprecated: "+p.Deprecated+"]"))
			}
			if p.Description != "" {
				fmt.Fprintf(&b, "  %s", p.Description)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(st.Section.Render("Instances"))
	b.WriteString("\n")
	for _, inst := range a.registry.Instances() {
		fmt.Fprintf(&b, "  %s %s\n", st.Title.Render(inst.Name), st.Type.Render(inst.Type))
		for _, name := range inst.PropertyNames() {
			fmt.Fprintf(&b, "    --%s = %s %s\n",
				st.Name.Render(options.FlagName(inst.Name, name)),
				options.Render(inst.Value(name)),
				st.Origin.Render("("+inst.Origin(name)+")"))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedProperties(def *config.ComponentDefinition) []string {
	names := make([]string, 0, len(def.Properties))
	for name := range def.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
