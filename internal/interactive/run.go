package interactive

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vk/gridlaunch/internal/ctxlog"
	"github.com/vk/gridlaunch/internal/registry"
)

// Run shows the editor on the given terminal streams and blocks until the
// user starts the run or quits. Committed edits stay in the registry either
// way.
func Run(ctx context.Context, reg *registry.Registry, in io.Reader, out io.Writer) (Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	if reg.Converter() == nil {
		return Aborted, fmt.Errorf("registry is not configured")
	}

	p := tea.NewProgram(NewModel(reg, reg.Converter()),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return Aborted, nil
		}
		return Aborted, fmt.Errorf("interactive mode failed: %w", err)
	}
	m := final.(Model)
	logger.Info("Interactive review finished.", "edits", m.Edits(), "start", m.Outcome() == StartRun)
	return m.Outcome(), nil
}
