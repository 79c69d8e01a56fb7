package report

import (
	"io"
	"os"

	"github.com/EDemerzel/nuget-inspector/pkg/errors"
)

// Renderer writes an assembled run to an output stream.
type Renderer interface {
	Render(w io.Writer, run *Run) error
}

// Format names for RendererFor.
const (
	FormatConsole  = "console"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// RendererFor returns the renderer for a format name.
func RendererFor(format string) (Renderer, error) {
	switch format {
	case FormatConsole:
		return &ConsoleRenderer{}, nil
	case FormatMarkdown:
		return &MarkdownRenderer{}, nil
	case FormatHTML:
		return &HTMLRenderer{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown report format %q (console, markdown, html)", format)
	}
}

// Write renders run to the given path, or to stdout when path is empty.
func Write(run *Run, r Renderer, path string) error {
	if path == "" {
		return r.Render(os.Stdout, run)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Render(f, run); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
