package app

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	zone "github.com/lrstanley/bubblezone"

	"ffpopup/internal/config"
	"ffpopup/internal/item"
	"ffpopup/internal/layout"
	"ffpopup/internal/termhost"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

func newTestDriver(t *testing.T, tree bool) *driver {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"a/b/c.txt": "hello\n",
		"main.go":   "package main\n",
	} {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	h := termhost.New(termhost.Options{})
	h.Resize(100, 30)
	params := config.Default()
	params.DisplayTree = tree
	d, err := newDriver(h, Options{Root: root, Params: params})
	if err != nil {
		t.Fatalf("newDriver: %v", err)
	}
	h.SetHandler(d)
	h.SetCallbacks(Callbacks(h))
	if err := d.start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return d
}

func listed(d *driver) []string {
	var out []string
	for _, it := range d.ctrl.Items() {
		out = append(out, it.Word)
	}
	return out
}

func do(t *testing.T, d *driver, name string, params map[string]any) {
	t.Helper()
	if err := d.Action(context.Background(), UIName, name, params); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
}

func TestStartOpensSession(t *testing.T) {
	d := newTestDriver(t, false)
	if d.ctrl.Session() == "" {
		t.Fatalf("no session after start")
	}
	if got := listed(d); !reflect.DeepEqual(got, []string{"a", "a/b", "a/b/c.txt", "main.go"}) {
		t.Fatalf("items = %v", got)
	}
}

func TestRedrawFiltersItems(t *testing.T) {
	d := newTestDriver(t, true)
	if err := d.Redraw(context.Background(), UIName, "mgo"); err != nil {
		t.Fatalf("Redraw: %v", err)
	}
	if got := listed(d); !reflect.DeepEqual(got, []string{"main.go"}) {
		t.Fatalf("items = %v", got)
	}
}

func TestExpandAndCollapse(t *testing.T) {
	d := newTestDriver(t, true)
	if got := listed(d); !reflect.DeepEqual(got, []string{"a", "main.go"}) {
		t.Fatalf("top = %v", got)
	}
	do(t, d, "expandItem", nil)
	if got := listed(d); !reflect.DeepEqual(got, []string{"a", "a/b", "main.go"}) {
		t.Fatalf("expanded = %v", got)
	}
	if !d.ctrl.Items()[0].Expanded {
		t.Fatalf("parent not marked expanded")
	}
	do(t, d, "expandItem", map[string]any{"mode": "toggle"})
	if got := listed(d); !reflect.DeepEqual(got, []string{"a", "main.go"}) {
		t.Fatalf("toggled = %v", got)
	}
}

func TestExpandGroupedMergesChain(t *testing.T) {
	d := newTestDriver(t, true)
	do(t, d, "expandItem", map[string]any{"isGrouped": true})
	items := d.ctrl.Items()
	if got := listed(d); !reflect.DeepEqual(got, []string{"a/b", "a/b/c.txt", "main.go"}) {
		t.Fatalf("grouped = %v", got)
	}
	if items[0].Display != "a/b/" || !items[0].Expanded || items[1].Level != 1 {
		t.Fatalf("merged = %+v child = %+v", items[0], items[1])
	}
}

func TestExpandFileKeepsItem(t *testing.T) {
	d := newTestDriver(t, true)
	do(t, d, "selectLowerItem", nil)
	do(t, d, "expandItem", nil)
	if it := d.ctrl.Items()[1]; it.Expanded {
		t.Fatalf("file marked expanded: %+v", it)
	}
}

func TestOpenPicksAndQuits(t *testing.T) {
	d := newTestDriver(t, true)
	do(t, d, "selectLowerItem", nil)
	do(t, d, "itemAction", nil)
	want := []string{filepath.Join(d.src.Root(), "main.go")}
	if got := d.src.Picked(); !reflect.DeepEqual(got, want) {
		t.Fatalf("picked = %v", got)
	}
	if d.ctrl.Session() != "" {
		t.Fatalf("session still open")
	}
}

func TestDefaultActionNarrowsIntoDirectory(t *testing.T) {
	d := newTestDriver(t, true)
	first := d.ctrl.Session()
	do(t, d, "itemAction", nil)
	if filepath.Base(d.src.Root()) != "a" {
		t.Fatalf("root = %s", d.src.Root())
	}
	if got := listed(d); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("items = %v", got)
	}
	if d.ctrl.Session() == "" || d.ctrl.Session() == first {
		t.Fatalf("session not reopened")
	}
}

func TestChooseAction(t *testing.T) {
	d := newTestDriver(t, true)
	do(t, d, "chooseAction", nil)
	if !d.choosing || len(d.targets) != 1 || d.targets[0].Word != "a" {
		t.Fatalf("choosing=%v targets=%v", d.choosing, d.targets)
	}
	if got := listed(d); !reflect.DeepEqual(got, []string{"open", "narrow", "cd", "gitroot"}) {
		t.Fatalf("actions = %v", got)
	}
	if err := d.Redraw(context.Background(), UIName, "nar"); err != nil {
		t.Fatalf("Redraw: %v", err)
	}
	if got := listed(d); !reflect.DeepEqual(got, []string{"narrow"}) {
		t.Fatalf("filtered actions = %v", got)
	}
	do(t, d, "itemAction", nil)
	if d.choosing || filepath.Base(d.src.Root()) != "a" {
		t.Fatalf("choosing=%v root=%s", d.choosing, d.src.Root())
	}
}

func TestQuitLeavesActionList(t *testing.T) {
	d := newTestDriver(t, true)
	do(t, d, "chooseAction", nil)
	do(t, d, "quit", nil)
	if d.choosing || d.ctrl.Session() == "" {
		t.Fatalf("choosing=%v session=%q", d.choosing, d.ctrl.Session())
	}
	if got := listed(d); !reflect.DeepEqual(got, []string{"a", "main.go"}) {
		t.Fatalf("items = %v", got)
	}
	do(t, d, "quit", nil)
	if d.ctrl.Session() != "" {
		t.Fatalf("second quit kept the session")
	}
}

func TestActionWithoutSessionIsIgnored(t *testing.T) {
	d := newTestDriver(t, true)
	do(t, d, "quit", nil)
	do(t, d, "selectLowerItem", nil)
}

func TestFilterActions(t *testing.T) {
	got := filterActions("cd")
	if len(got) != 1 || !item.Equal(got[0], item.Item{Word: "cd"}) {
		t.Fatalf("filtered = %+v", got)
	}
	if n := len(filterActions("")); n != 4 {
		t.Fatalf("unfiltered = %d", n)
	}
}

func TestBoundsCallbacks(t *testing.T) {
	h := termhost.New(termhost.Options{})
	h.Resize(100, 31)
	for name, cb := range Callbacks(h) {
		v, err := cb(context.Background())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		p, err := layout.Parse(v)
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		if p.Finder.Width <= 0 || p.Preview.Height <= 0 {
			t.Fatalf("%s: bounds = %+v", name, p)
		}
	}
}
