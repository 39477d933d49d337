package object_upload

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/source"
	"gopkg.in/yaml.v3"
)

type recordingPutter struct {
	uri         string
	data        []byte
	contentType string
}

func (r *recordingPutter) Put(ctx context.Context, uri string, data []byte, contentType string) error {
	r.uri, r.data, r.contentType = uri, data, contentType
	return nil
}

func TestUploader_JSONToLocalFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := context.Background()
	dest := filepath.Join(t.TempDir(), "summary.json")
	u, err := newUploader(component.Env{Name: "up", RunID: "r1"}, Props{Destination: dest, Format: "JSON"}, &source.Fetcher{})
	require.NoError(t, err)

	// --- Act ---
	for n := int64(0); n < 3; n++ {
		evt := component.NewEvent(n)
		evt.Put("a", n)
		if n%2 == 0 {
			evt.Put("b", n)
		}
		require.NoError(t, u.Execute(ctx, evt))
	}
	require.NoError(t, u.Finalize(ctx))

	// --- Assert ---
	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "up", got.Instance)
	require.Equal(t, "r1", got.RunID)
	require.EqualValues(t, 3, got.Events)
	require.EqualValues(t, 2, got.LastEvent)
	if diff := cmp.Diff(map[string]int64{"a": 3, "b": 2}, got.KeyCounts); diff != "" {
		t.Errorf("unexpected key counts (-want +got):\n%s", diff)
	}
}

func TestUploader_YAMLSelectedKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	putter := &recordingPutter{}
	u, err := newUploader(component.Env{Name: "up"}, Props{Destination: "s3://b/k.yaml", Format: "yaml", Keys: []string{"b"}}, putter)
	require.NoError(t, err)

	evt := component.NewEvent(0)
	evt.Put("a", 1)
	evt.Put("b", 2)
	require.NoError(t, u.Execute(ctx, evt))
	require.NoError(t, u.Finalize(ctx))

	require.Equal(t, "s3://b/k.yaml", putter.uri)
	require.Equal(t, "application/yaml", putter.contentType)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(putter.data, &got))
	require.Equal(t, map[string]any{"b": 1}, got["key_counts"])
}

func TestNewUploader_Errors(t *testing.T) {
	t.Parallel()

	_, err := newUploader(component.Env{Name: "up"}, Props{Format: "json"}, &recordingPutter{})
	require.ErrorContains(t, err, "destination is required")

	_, err = newUploader(component.Env{Name: "up"}, Props{Destination: "x", Format: "xml"}, &recordingPutter{})
	require.ErrorContains(t, err, `unsupported format "xml"`)
}
