// Package markdown turns entry content into HTML with goldmark.
package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options configures a Renderer.
type Options struct {
	// Extensions by name (see Extensions). Empty selects gfm, linkify and tasklist.
	Extensions []string
	HardWraps  bool
	// Unsafe lets raw HTML in entries through to the page.
	Unsafe bool
}

// Renderer converts Markdown to HTML. A Renderer is safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

// New builds a Renderer. Unknown extension names are an error.
func New(opts Options) (*Renderer, error) {
	exts, err := collectExtensions(opts.Extensions)
	if err != nil {
		return nil, err
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithExtensions(exts...),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}

	return &Renderer{engine: goldmark.New(engineOptions...)}, nil
}

// Render converts content to an HTML fragment.
func (r *Renderer) Render(content string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(content), &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// Extensions lists the accepted extension names in sorted order.
func Extensions() []string {
	names := make([]string, 0, len(extensionRegistry))
	for name := range extensionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectExtensions(names []string) ([]goldmark.Extender, error) {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}, nil
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			return nil, fmt.Errorf("unknown markdown extension %q (available: %s)", name, strings.Join(Extensions(), ", "))
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders, nil
}
