// Package sqlite_sink persists event data into a SQLite database.
package sqlite_sink

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/registry"
	_ "modernc.org/sqlite"
)

//go:embed manifest.hcl
var manifest []byte

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Props defines the SqliteSink properties.
type Props struct {
	Path  string   `prop:"path"`
	Table string   `prop:"table"`
	Keys  []string `prop:"keys"`
	RunID string   `prop:"run_id"`
}

// Sink writes one row per event.
type Sink struct {
	component.Base
	props Props

	db     *sql.DB
	insert *sql.Stmt
}

// New creates a SqliteSink. The database is opened in Initialize.
func New(ctx context.Context, env component.Env, props any) (component.Component, error) {
	p := *props.(*Props)
	if !tableNamePattern.MatchString(p.Table) {
		return nil, fmt.Errorf("invalid table name %q", p.Table)
	}
	if p.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if p.RunID == "" {
		p.RunID = env.RunID
	}
	return &Sink{Base: component.Base{InstanceName: env.Name}, props: p}, nil
}

// Initialize opens the database and creates the table.
func (s *Sink) Initialize(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.props.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.props.Path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run TEXT NOT NULL,
		event INTEGER NOT NULL,
		data TEXT NOT NULL
	)`, s.props.Table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return fmt.Errorf("failed to create table %s: %w", s.props.Table, err)
	}

	stmt, err := db.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (run, event, data) VALUES (?, ?, ?)`, s.props.Table))
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	s.db, s.insert = db, stmt
	return nil
}

// Execute implements component.Algorithm.
func (s *Sink) Execute(ctx context.Context, evt *component.Event) error {
	data := evt.Snapshot()
	if len(s.props.Keys) > 0 {
		selected := make(map[string]any, len(s.props.Keys))
		for _, k := range s.props.Keys {
			if v, ok := data[k]; ok {
				selected[k] = v
			}
		}
		data = selected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	if _, err := s.insert.ExecContext(ctx, s.props.RunID, evt.Number, string(payload)); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Finalize closes the database.
func (s *Sink) Finalize(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	s.insert.Close()
	return s.db.Close()
}

// Register registers the manifest and factory with the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterManifest("sqlite_sink/manifest.hcl", manifest)
	r.RegisterFactory("NewSqliteSink", &registry.RegisteredComponent{
		NewProps:  func() any { return new(Props) },
		PropsType: reflect.TypeOf(Props{}),
		New:       New,
	})
}
