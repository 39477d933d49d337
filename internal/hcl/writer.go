package hcl

import (
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/gridlaunch/internal/config"
)

// Write renders snapshots as an option file that Load can read back.
// Null values are omitted.
func Write(w io.Writer, snapshots []config.Snapshot) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	for i, s := range snapshots {
		if i > 0 {
			root.AppendNewline()
		}

		var block *hclwrite.Block
		if s.Type == config.ApplicationType && s.Name == config.ApplicationName {
			block = root.AppendNewBlock("application", nil)
		} else {
			block = root.AppendNewBlock("configure", []string{s.Type, s.Name})
		}

		names := make([]string, 0, len(s.Values))
		for name := range s.Values {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			val := s.Values[name]
			if val.IsNull() || !val.IsWhollyKnown() {
				continue
			}
			block.Body().SetAttributeValue(name, val)
		}
	}

	if _, err := w.Write(f.Bytes()); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	return nil
}
