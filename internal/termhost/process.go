package termhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"unicode/utf8"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"

	"ffpopup/internal/host"
	"ffpopup/internal/system"
)

// process is a command attached to a pseudo terminal. stdout is the pty so
// that programs keep their colors; stderr is a plain pipe.
type process struct {
	cmd    *exec.Cmd
	tty    *os.File
	killed bool
}

func (p *process) Kill(context.Context) error {
	if p.killed {
		return nil
	}
	p.killed = true
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Spawn starts cmd. Output chunks and the close notification are posted to
// the update goroutine; nothing is delivered after Kill.
func (h *Host) Spawn(_ context.Context, argv []string, opts host.ProcessOptions) (host.Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("spawn: empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = opts.Cwd
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		fmt.Sprintf("COLUMNS=%d", opts.Cols),
		fmt.Sprintf("LINES=%d", opts.Rows),
	)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	tty, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(max(opts.Rows, 1)), Cols: uint16(max(opts.Cols, 1))})
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", argv[0], err)
	}
	p := &process{cmd: cmd, tty: tty}
	h.procs[p] = struct{}{}
	system.Logger.Debug("spawned", "cmd", argv, "pid", cmd.Process.Pid)

	var g errgroup.Group
	g.Go(func() error { return h.pump(p, tty, opts.OnStdout) })
	g.Go(func() error { return h.pump(p, stderr, opts.OnStderr) })
	go func() {
		if err := g.Wait(); err != nil {
			system.Logger.Debug("process output", "err", err)
		}
		werr := cmd.Wait()
		_ = tty.Close()
		h.post(func(ctx context.Context) {
			delete(h.procs, p)
			system.Logger.Debug("process exited", "cmd", argv, "err", werr)
			if !p.killed && opts.OnClose != nil {
				opts.OnClose(ctx)
			}
		})
	}()
	return p, nil
}

// pump forwards r to fn until EOF. OSC sequences are dropped and chunks
// never end inside a UTF-8 sequence.
func (h *Host) pump(p *process, r io.Reader, fn func(context.Context, string)) error {
	buf := make([]byte, 4096)
	var rest []byte
	osc := false
	for {
		n, err := r.Read(buf)
		if n > 0 && fn != nil {
			data := append(rest, stripOSC(buf[:n], &osc)...)
			var chunk []byte
			chunk, rest = splitUTF8(data)
			if len(chunk) > 0 {
				s := string(chunk)
				h.post(func(ctx context.Context) {
					if !p.killed {
						fn(ctx, s)
					}
				})
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// splitUTF8 splits off an incomplete trailing rune.
func splitUTF8(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i], append([]byte(nil), b[i:]...)
		}
		break
	}
	return b, nil
}

// stripOSC removes operating system commands from a byte stream. pending
// carries an unterminated sequence over to the next chunk.
func stripOSC(b []byte, pending *bool) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		if *pending {
			for i < len(b) {
				if b[i] == 0x07 {
					i++
					*pending = false
					break
				}
				if b[i] == '\\' && i > 0 && b[i-1] == 0x1b {
					i++
					*pending = false
					break
				}
				i++
			}
			continue
		}
		if b[i] == 0x1b && i+1 < len(b) && b[i+1] == ']' {
			*pending = true
			i += 2
			continue
		}
		out = append(out, b[i])
		i++
	}
	return out
}

// killAll stops every running process.
func (h *Host) killAll(ctx context.Context) {
	for p := range h.procs {
		if err := p.Kill(ctx); err != nil {
			system.Logger.Debug("kill", "err", err)
		}
	}
}
