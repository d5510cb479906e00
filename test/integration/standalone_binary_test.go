package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildStorefront compiles ./cmd/storefront and copies the binary outside the
// repository so no repo-relative files can leak into the run.
func buildStorefront(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary copy/exec test is unix-focused")
	}
	goModPathBytes, err := exec.Command("go", "env", "GOMOD").Output()
	require.NoError(t, err, "go env GOMOD")
	goModPath := strings.TrimSpace(string(goModPathBytes))
	require.NotEmpty(t, goModPath, "go env GOMOD returned empty")
	repoRoot := filepath.Dir(goModPath)

	binaryPath := filepath.Join(t.TempDir(), "storefront")
	build := exec.Command("go", "build", "-o", binaryPath, "./cmd/storefront")
	build.Dir = repoRoot
	build.Env = os.Environ()
	out, err := build.CombinedOutput()
	require.NoError(t, err, "go build: %s", out)

	data, err := os.ReadFile(binaryPath)
	require.NoError(t, err)
	copied := filepath.Join(t.TempDir(), "storefront")
	require.NoError(t, os.WriteFile(copied, data, 0o755))
	return copied
}

// isolatedEnv points config, data and .env lookups at empty temp dirs.
func isolatedEnv(t *testing.T) []string {
	t.Helper()
	home := t.TempDir()
	env := make([]string, 0, len(os.Environ())+3)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "STOREFRONT_") {
			continue
		}
		env = append(env, kv)
	}
	return append(env,
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, "config"),
		"XDG_DATA_HOME="+filepath.Join(home, "data"),
	)
}

func runStorefront(t *testing.T, binary string, args ...string) string {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = filepath.Dir(binary)
	cmd.Env = isolatedEnv(t)
	out, err := cmd.Output()
	if exitErr, ok := err.(*exec.ExitError); ok {
		t.Fatalf("storefront %s failed: %v\n%s", strings.Join(args, " "), err, exitErr.Stderr)
	}
	require.NoError(t, err)
	return string(out)
}

func TestStandaloneBinaryWorksOutsideRepo(t *testing.T) {
	binary := buildStorefront(t)

	version := runStorefront(t, binary, "version")
	assert.True(t, strings.HasPrefix(version, "storefront "), "unexpected version output %q", version)

	help := runStorefront(t, binary, "--help")
	for _, command := range []string{"serve", "product", "cart", "cache"} {
		assert.Contains(t, help, "  "+command+" ", "help should list %q", command)
	}

	cacheHelp := runStorefront(t, binary, "cache", "--help")
	assert.Contains(t, cacheHelp, "status")
	assert.Contains(t, cacheHelp, "clear")
}

func TestStandaloneBinaryReportsDefaultCacheLimits(t *testing.T) {
	binary := buildStorefront(t)

	out := runStorefront(t, binary, "cache", "status", "--output", "json")

	var status struct {
		RequestCount         int `json:"request_count"`
		MaxRequestsPerWindow int `json:"max_requests_per_window"`
		StoredKeyCount       int `json:"stored_key_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status), "output: %s", out)
	assert.Equal(t, 5, status.MaxRequestsPerWindow)
	assert.Zero(t, status.RequestCount)
	assert.Zero(t, status.StoredKeyCount)
}
