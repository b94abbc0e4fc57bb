package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ffpopup/internal/testutil"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Prompt != ">> " || p.FilterPosition != "top" || p.Highlights.Previewline != "Search" {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "prompt: '$ '\nreversed: true\nfilterPosition: bottom\nbounds:\n  finder: {line: 1, col: 2, width: 30, height: 20}\n  preview: {line: 1, col: 32, width: 30, height: 20}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Prompt != "$ " || !p.Reversed || p.FilterOnTop() {
		t.Fatalf("loaded %+v", p)
	}
	if p.Bounds == nil || p.Bounds.Preview.Col != 32 {
		t.Fatalf("bounds = %+v", p.Bounds)
	}
	if p.Highlights.Cursor != "Cursor" {
		t.Fatalf("missing keys should keep defaults, got %+v", p.Highlights)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("displayTree = true\nscrolloff = 2\n\n[highlights]\nselected = \"Visual\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.DisplayTree || p.Scrolloff != 2 || p.Highlights.Selected != "Visual" || p.Highlights.Popup != "Normal" {
		t.Fatalf("loaded %+v", p)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Params){
		"position":  func(p *Params) { p.FilterPosition = "left" },
		"scrolloff": func(p *Params) { p.Scrolloff = -1 },
		"highlight": func(p *Params) { p.Highlights.Cursor = "" },
		"mask":      func(p *Params) { p.ListerBorder.Mask = []int{1, 1, 1, 1, 1} },
	}
	for name, mutate := range cases {
		p := Default()
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		path := filepath.Join(t.TempDir(), "sub", name)
		p := Default()
		p.Prompt = "> "
		p.StartFilter = true
		if err := Save(path, p); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load %s: %v", name, err)
		}
		if got.Prompt != "> " || !got.StartFilter {
			t.Fatalf("%s round trip = %+v", name, got)
		}
	}
}

func TestSchemaMentionsFields(t *testing.T) {
	b, err := MarshalSchema(Schema())
	if err != nil {
		t.Fatalf("MarshalSchema: %v", err)
	}
	s := string(b)
	for _, want := range []string{"filterPosition", "highlights", "previewline"} {
		if !strings.Contains(s, want) {
			t.Errorf("schema lacks %q", want)
		}
	}
	if strings.Contains(s, "BoundsProvider") {
		t.Errorf("schema exposes the provider func")
	}
}

func TestDirUsesXDG(t *testing.T) {
	want := testutil.ConfigHome(t)
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if dir != filepath.Dir(want) {
		t.Fatalf("dir = %s, want %s", dir, filepath.Dir(want))
	}
	if f, _ := File(); f != want {
		t.Fatalf("file = %s", f)
	}
}

func TestDirEnvOverride(t *testing.T) {
	testutil.ConfigHome(t)
	dir := filepath.Join(t.TempDir(), "conf")
	t.Setenv(DirEnv, dir+"/")
	got, err := Dir()
	if err != nil || got != dir {
		t.Fatalf("Dir = %s, %v", got, err)
	}
	if f, _ := File(); filepath.Dir(f) != dir {
		t.Fatalf("file = %s", f)
	}
}
