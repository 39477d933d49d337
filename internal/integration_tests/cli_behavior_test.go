package integration_tests

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridlaunch/internal/testutil"
)

const counterHCL = `
application {
  events   = 4
  sequence = ["counter"]
}

configure "Counter" "counter" {
  limit = 10
}

configure "Printer" "greeter" {
  message = "hello ${env.USER_NAME}"
}
`

// TestCLI_MergesDirectory validates that every option file of a directory
// is loaded, in name order.
func TestCLI_MergesDirectory(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	_, dir := testutil.WriteFiles(t, map[string]string{
		"jobs/a.hcl": counterHCL,
		"jobs/b.hcl": "configure \"Counter\" \"counter\" {\n  limit = 3\n}\n",
	})

	// --- Act ---
	result := launch(t, map[string]string{"USER_NAME": "ada"}, nil, filepath.Join(dir, "jobs"), "--dry-run")

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Regexp(t, `limit\s+= 3`, result.Stdout)
	require.Regexp(t, `message\s+= "hello ada"`, result.Stdout)
}

// TestCLI_JSONOverride validates that a JSON option file overrides an
// earlier HCL one.
func TestCLI_JSONOverride(t *testing.T) {
	t.Parallel()

	paths, _ := testutil.WriteFiles(t, map[string]string{
		"1-job.hcl":       counterHCL,
		"2-override.json": `{"configure": {"Counter": {"counter": {"limit": 4}}}}`,
	})

	result := launch(t, map[string]string{"USER_NAME": "ada"}, nil, append(paths, "--dry-run")...)

	require.NoError(t, result.Err)
	require.Regexp(t, `limit\s+= 4`, result.Stdout)
}

// TestCLI_OutputReloads writes the final configuration as JSON and checks
// that loading it back yields the same configuration.
func TestCLI_OutputReloads(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	job := testutil.WriteFile(t, "job.hcl", counterHCL)
	dump := filepath.Join(t.TempDir(), "final.json")
	environ := map[string]string{"USER_NAME": "${not a template}"}

	// --- Act ---
	first := launch(t, environ, nil, job, "--counter.step", "3", "-o", dump, "--dry-run")
	second := launch(t, nil, nil, dump, "--dry-run")

	// --- Assert ---
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	require.Equal(t, first.Stdout, second.Stdout)
	require.Contains(t, second.Stdout, "hello $${not a template}")
}

// TestCLI_RemoteOptionFile loads an option file over HTTP.
func TestCLI_RemoteOptionFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/job.hcl" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(counterHCL))
	}))
	t.Cleanup(srv.Close)

	// --- Act ---
	result := launch(t, map[string]string{"USER_NAME": "bob"}, nil, srv.URL+"/jobs/job.hcl", "--dry-run")

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Regexp(t, `message\s+= "hello bob"`, result.Stdout)
}

// TestCLI_ListShowsCompiledInComponents validates the listing of the
// compiled-in component types.
func TestCLI_ListShowsCompiledInComponents(t *testing.T) {
	t.Parallel()

	job := testutil.WriteFile(t, "job.hcl", counterHCL)

	result := launch(t, map[string]string{"USER_NAME": "ada"}, nil, "--list", job)

	require.NoError(t, result.Err)
	for _, typ := range []string{"Application", "Counter", "Printer", "EnvVars", "HttpClient", "HttpProbe", "SqliteSink", "ObjectUpload", "SocketIOClient", "SocketIOEmitter"} {
		require.Contains(t, result.Stdout, typ)
	}
	require.Contains(t, result.Stdout, "--counter.limit")
	require.Contains(t, result.Stdout, "use limit", "deprecated properties are marked")
}

// TestCLI_SettingsOnlyComponentFromModulesPath loads a manifest without a
// factory from --modules-path and configures an instance of it.
func TestCLI_SettingsOnlyComponentFromModulesPath(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	_, dir := testutil.WriteFiles(t, map[string]string{
		"modules/geometry.hcl": `
component "Geometry" {
  kind = "service"

  property "tag" {
    type    = string
    default = "v1"
  }
}
`,
		"job.hcl": `configure "Geometry" "geo" {}`,
	})

	// --- Act ---
	result := launch(t, nil, nil, filepath.Join(dir, "job.hcl"), "--modules-path", filepath.Join(dir, "modules"), "--geo.tag", "v2", "--dry-run")

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Contains(t, result.Stdout, `configure "Geometry" "geo"`)
	require.Regexp(t, `tag\s+= "v2"`, result.Stdout)
}
