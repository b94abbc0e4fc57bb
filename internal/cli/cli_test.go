package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	cfg "ffpopup/internal/config"
	"ffpopup/internal/testutil"
	appver "ffpopup/internal/version"
)

// run executes the root command with args after resetting every flag.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || strings.TrimSpace(out) != appver.AppVersion {
		t.Fatalf("version = %q, %v", out, err)
	}
}

func TestConfigShowsDefaults(t *testing.T) {
	path := testutil.ConfigHome(t)
	out, err := run(t, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, path) || !strings.Contains(out, "missing") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "filterPosition: top") {
		t.Fatalf("defaults not printed: %q", out)
	}
}

func TestConfigSchema(t *testing.T) {
	out, err := run(t, "config", "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(out, `"filterPosition"`) {
		t.Fatalf("schema = %q", out)
	}
}

func TestPrintConfigAppliesFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffpopup.yaml")
	if err := os.WriteFile(path, []byte("prompt: find\nscrolloff: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := run(t, "--config", path, "--print-config", "--tree", "--filter-position", "bottom")
	if err != nil {
		t.Fatalf("print-config: %v", err)
	}
	for _, want := range []string{"displayTree: true", "filterPosition: bottom", "scrolloff: 3", "prompt: find"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestInvalidFlagValue(t *testing.T) {
	testutil.ConfigHome(t)
	if _, err := run(t, "--print-config", "--filter-position", "left"); err == nil {
		t.Fatalf("bad filter position accepted")
	}
}

func TestLoadParamsKeepsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	if err := cfg.Save(path, func() cfg.Params { p := cfg.Default(); p.Reversed = true; return p }()); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := run(t, "--config", path, "--print-config")
	if err != nil || !strings.Contains(out, "reversed: true") {
		t.Fatalf("out = %q, %v", out, err)
	}
}

func TestHistoryCommands(t *testing.T) {
	testutil.ConfigHome(t)
	if err := recordHistory([]string{"/tmp/a", "/tmp/b"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	out, err := run(t, "history")
	if err != nil || out != "/tmp/b\n/tmp/a\n" {
		t.Fatalf("history = %q, %v", out, err)
	}
	out, err = run(t, "history", "rm", "/tmp/a", "/tmp/x")
	if err != nil || !strings.Contains(out, "removed /tmp/a") || !strings.Contains(out, "not in history: /tmp/x") {
		t.Fatalf("rm = %q, %v", out, err)
	}
	if _, err := run(t, "history", "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if out, _ := run(t, "history"); out != "" {
		t.Fatalf("after clear = %q", out)
	}
}
