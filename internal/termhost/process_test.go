package termhost

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ffpopup/internal/host"
)

func TestStripOSCAcrossChunks(t *testing.T) {
	pending := false
	a := stripOSC([]byte("ab\x1b]0;tit"), &pending)
	if string(a) != "ab" || !pending {
		t.Fatalf("first chunk = %q pending=%v", a, pending)
	}
	b := stripOSC([]byte("le\x07cd\x1b]8;;x\x1b\\ef"), &pending)
	if string(b) != "cdef" || pending {
		t.Fatalf("second chunk = %q pending=%v", b, pending)
	}
}

func TestSplitUTF8(t *testing.T) {
	s := []byte("aé")
	got, rest := splitUTF8(s[:2])
	if string(got) != "a" || len(rest) != 1 {
		t.Fatalf("split = %q %q", got, rest)
	}
	got, rest = splitUTF8(s)
	if string(got) != "aé" || rest != nil {
		t.Fatalf("split = %q %q", got, rest)
	}
}

func TestSpawnDeliversOutputAndClose(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh")
	}
	ctx := context.Background()
	h := New(Options{})
	msgs := make(chan tea.Msg, 64)
	h.send = func(m tea.Msg) { msgs <- m }

	var stdout, stderr strings.Builder
	closed := false
	_, err := h.Spawn(ctx, []string{"sh", "-c", "printf out; printf err >&2"}, host.ProcessOptions{
		Rows: 10, Cols: 40,
		OnStdout: func(_ context.Context, s string) { stdout.WriteString(s) },
		OnStderr: func(_ context.Context, s string) { stderr.WriteString(s) },
		OnClose:  func(context.Context) { closed = true },
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	deadline := time.After(10 * time.Second)
	for !closed {
		select {
		case m := <-msgs:
			m.(postMsg).fn(ctx)
		case <-deadline:
			t.Fatalf("process did not close; stdout=%q stderr=%q", stdout.String(), stderr.String())
		}
	}
	if stdout.String() != "out" || stderr.String() != "err" {
		t.Fatalf("stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
	if len(h.procs) != 0 {
		t.Fatalf("process still tracked")
	}
}

func TestKilledProcessIsSilent(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("no sleep")
	}
	ctx := context.Background()
	h := New(Options{})
	msgs := make(chan tea.Msg, 64)
	h.send = func(m tea.Msg) { msgs <- m }

	closed := false
	p, err := h.Spawn(ctx, []string{"sleep", "30"}, host.ProcessOptions{
		OnClose: func(context.Context) { closed = true },
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := p.Kill(ctx); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	deadline := time.After(10 * time.Second)
	for len(h.procs) > 0 {
		select {
		case m := <-msgs:
			m.(postMsg).fn(ctx)
		case <-deadline:
			t.Fatalf("killed process not reaped")
		}
	}
	if closed {
		t.Fatalf("OnClose ran after Kill")
	}
}
