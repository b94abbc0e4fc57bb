package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"ffpopup/internal/item"
	"ffpopup/internal/preview"
)

const markdownLimit = 512 * 1024

// Previews chooses the previewer of file items.
type Previews struct {
	src *Source
	// Cmd, when set, runs in a terminal preview with {} replaced by the
	// item path.
	Cmd string
}

func NewPreviews(src *Source, cmd string) *Previews {
	return &Previews{src: src, Cmd: cmd}
}

// Provider adapts p to the preview surface.
func (p *Previews) Provider() preview.Provider { return p.Previewer }

// Previewer returns nil for items without a path on disk.
func (p *Previews) Previewer(_ context.Context, it item.Item, _ map[string]any, pc preview.Context) (*preview.Previewer, error) {
	if _, ok := it.Action["path"]; !ok {
		return nil, nil
	}
	path := p.src.Path(it)
	if p.Cmd != "" {
		return &preview.Previewer{Kind: preview.KindTerminal, Cmd: commandLine(p.Cmd, path), Cwd: p.src.Root()}, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return &preview.Previewer{Kind: preview.KindNoFile, Contents: []string{"Error", err.Error()}}, nil
	}
	if fi.IsDir() {
		return dirPreview(path)
	}
	if isMarkdown(path) && fi.Size() < markdownLimit {
		if pv := markdownPreview(path, pc.Width); pv != nil {
			return pv, nil
		}
	}
	mt, err := mimetype.DetectFile(path)
	if err == nil && !isText(mt) {
		return &preview.Previewer{
			Kind: preview.KindNoFile,
			Contents: []string{
				"binary file",
				"",
				"type: " + mt.String(),
				"size: " + humanize.IBytes(uint64(fi.Size())),
			},
			Highlights: []preview.Highlight{{Name: "ffpopup-binary", HlGroup: "Comment", Row: 1, Col: 1, Width: len("binary file")}},
		}, nil
	}
	return &preview.Previewer{Kind: preview.KindBuffer, Path: path, Filetype: filetype(path)}, nil
}

// commandLine splits tmpl into fields and substitutes {} in each.
func commandLine(tmpl, path string) []string {
	fields := strings.Fields(tmpl)
	found := false
	for i, f := range fields {
		if strings.Contains(f, "{}") {
			fields[i] = strings.ReplaceAll(f, "{}", path)
			found = true
		}
	}
	if !found {
		fields = append(fields, path)
	}
	return fields
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// filetype is the chroma lexer name for path, or "".
func filetype(path string) string {
	if l := lexers.Match(filepath.Base(path)); l != nil {
		return l.Config().Name
	}
	return ""
}

func markdownPreview(path string, width int) *preview.Previewer {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines, err := renderMarkdown(string(data), width)
	if err != nil || len(lines) == 0 {
		return nil
	}
	return &preview.Previewer{Kind: preview.KindNoFile, Contents: lines, Ansi: true}
}

// dirPreview lists a directory with entry sizes; subdirectories are
// highlighted.
func dirPreview(path string) (*preview.Previewer, error) {
	des, err := os.ReadDir(path)
	if err != nil {
		return &preview.Previewer{Kind: preview.KindNoFile, Contents: []string{"Error", err.Error()}}, nil
	}
	if len(des) == 0 {
		return &preview.Previewer{Kind: preview.KindNoFile, Contents: []string{"(empty)"}}, nil
	}
	pv := &preview.Previewer{Kind: preview.KindNoFile}
	for i, de := range des {
		name := de.Name()
		if de.IsDir() {
			name += "/"
			pv.Highlights = append(pv.Highlights, preview.Highlight{
				Name: "ffpopup-directory", HlGroup: "Directory", Row: i + 1, Col: 1, Width: len(name),
			})
		}
		size := ""
		if info, err := de.Info(); err == nil && !de.IsDir() {
			size = humanize.IBytes(uint64(info.Size()))
		}
		pv.Contents = append(pv.Contents, fmt.Sprintf("%-40s %8s", name, size))
	}
	return pv, nil
}
