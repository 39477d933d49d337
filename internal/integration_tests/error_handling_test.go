package integration_tests

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridlaunch/internal/cli"
	"github.com/vk/gridlaunch/internal/framework"
	"github.com/vk/gridlaunch/internal/testutil"
)

func TestErrors_ExitCodes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		files    map[string]string
		extra    []string
		code     int
		errorMsg string
	}{
		{
			name:     "invalid HCL is rejected",
			files:    map[string]string{"job.hcl": `configure "Counter" "c" {`},
			code:     cli.ExitLoadError,
			errorMsg: "failed to parse option file",
		},
		{
			name:     "unknown component type",
			files:    map[string]string{"job.hcl": `configure "Nope" "c" {}`},
			code:     cli.ExitLoadError,
			errorMsg: "unknown component type 'Nope'",
		},
		{
			name:     "wrong property type in file",
			files:    map[string]string{"job.hcl": `configure "Counter" "c" { limit = "lots" }`},
			code:     cli.ExitLoadError,
			errorMsg: "c.limit",
		},
		{
			name:     "unknown property in file",
			files:    map[string]string{"job.hcl": `configure "Counter" "c" { colour = "red" }`},
			code:     cli.ExitLoadError,
			errorMsg: "has no property 'colour'",
		},
		{
			name: "manifest without factory",
			files: map[string]string{
				"job.hcl":            `configure "Counter" "c" {}`,
				"modules/broken.hcl": "component \"Broken\" {\n  lifecycle {\n    factory = \"NewBroken\"\n  }\n}\n",
			},
			extra:    []string{"--modules-path", "modules"},
			code:     cli.ExitLoadError,
			errorMsg: "factory 'NewBroken' is not registered",
		},
		{
			name: "sequence names a service",
			files: map[string]string{"job.hcl": `
application {
  events   = 1
  sequence = ["client"]
}
configure "HttpClient" "client" {}
`},
			code:     int(framework.StatusConfigError),
			errorMsg: "not an algorithm",
		},
		{
			name:     "missing option file",
			files:    map[string]string{"other.hcl": ""},
			extra:    []string{"missing.hcl"},
			code:     cli.ExitUsageError,
			errorMsg: "option file not found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			_, dir := testutil.WriteFiles(t, tc.files)
			var args []string
			if _, ok := tc.files["job.hcl"]; ok {
				args = append(args, filepath.Join(dir, "job.hcl"))
			}
			for _, a := range tc.extra {
				if a == "modules" || a == "missing.hcl" {
					a = filepath.Join(dir, a)
				}
				args = append(args, a)
			}

			// --- Act ---
			result := launch(t, nil, nil, args...)

			// --- Assert ---
			require.Equal(t, tc.code, exitCode(result.Err), "error: %v", result.Err)
			require.ErrorContains(t, result.Err, tc.errorMsg)
		})
	}
}

// TestErrors_FailingProbeFailsRun checks that a failing algorithm maps to
// the failure exit status and that its error reaches the caller.
func TestErrors_FailingProbeFailsRun(t *testing.T) {
	t.Parallel()

	job := testutil.WriteFile(t, "job.hcl", `
application {
  events   = 1
  sequence = ["probe"]
}

configure "HttpClient" "client" {
  timeout = "1s"
}

configure "HttpProbe" "probe" {
  url    = "http://127.0.0.1:1/unreachable"
  client = "client"
}
`)

	result := launch(t, nil, nil, job)

	require.Equal(t, int(framework.StatusFailure), exitCode(result.Err), "error: %v", result.Err)
	require.ErrorContains(t, result.Err, "event 0: probe")
}
