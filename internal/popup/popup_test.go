package popup

import (
	"context"
	"errors"
	"testing"

	"ffpopup/internal/host"
	"ffpopup/internal/layout"
	"ffpopup/internal/testutil"
)

func TestOpenTwiceReportsError(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewFakeHost()
	p := New(h)
	if err := p.Open(ctx, layout.PopupCreateArgs{Highlight: "Normal"}, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	win := p.WinID()
	if err := p.Open(ctx, layout.PopupCreateArgs{}, nil); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("second Open error = %v, want ErrAlreadyOpen", err)
	}
	if len(h.Errors) != 1 || p.WinID() != win || h.CallCount("OpenPopup") != 1 {
		t.Fatalf("reentrant open changed state: errors=%q win=%d", h.Errors, p.WinID())
	}
}

func TestCloseCallbackRunsOnce(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewFakeHost()
	p := New(h)
	calls := 0
	if err := p.Open(ctx, layout.PopupCreateArgs{}, func(context.Context, host.WinID) { calls++ }); err != nil {
		t.Fatalf("Open: %v", err)
	}
	win := p.WinID()
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	h.UserClose(ctx, win)
	if calls != 1 || p.Exists() {
		t.Fatalf("close callback ran %d times, exists=%v", calls, p.Exists())
	}
	if h.CallCount("ClosePopup") != 1 {
		t.Fatalf("ClosePopup called %d times", h.CallCount("ClosePopup"))
	}
}

func TestUserCloseThenReopen(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewFakeHost()
	p := New(h)
	if err := p.Open(ctx, layout.PopupCreateArgs{}, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	h.UserClose(ctx, p.WinID())
	if p.Exists() {
		t.Fatalf("popup still open after user close")
	}
	if err := p.SetText(ctx, []string{"x"}); err != nil {
		t.Fatalf("SetText on closed popup: %v", err)
	}
	if err := p.Open(ctx, layout.PopupCreateArgs{}, nil); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := p.SetText(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if got := h.WindowLines(p.WinID()); len(got) != 2 {
		t.Fatalf("lines = %q", got)
	}
}

func TestSetBufferKeepsHighlight(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewFakeHost()
	p := New(h)
	if err := p.Open(ctx, layout.PopupCreateArgs{Highlight: "Pmenu"}, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf, _ := h.PreviewBuffer(ctx, "preview")
	if err := p.SetBuffer(ctx, buf); err != nil {
		t.Fatalf("SetBuffer: %v", err)
	}
	if p.BufNr() != buf || h.Windows[p.WinID()].Highlight != "Pmenu" {
		t.Fatalf("buffer %d highlight %q", p.BufNr(), h.Windows[p.WinID()].Highlight)
	}
}
