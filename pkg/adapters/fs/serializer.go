package fs

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/encyclopedia/pkg/core"
)

const frontmatterDelimiter = "---"

// MarkdownSerializer reads and writes entries as Markdown with an optional
// YAML frontmatter block.
type MarkdownSerializer struct{}

// Parse splits data into frontmatter metadata and the Markdown body.
// Files without frontmatter, or whose opening delimiter is never closed,
// are returned whole as the body.
func (MarkdownSerializer) Parse(data []byte) (core.Metadata, string, error) {
	meta := make(core.Metadata)

	text := string(data)
	firstLine, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimRight(firstLine, "\r") != frontmatterDelimiter {
		return meta, text, nil
	}

	var yamlPart strings.Builder
	remaining := rest
	for {
		line, after, more := strings.Cut(remaining, "\n")
		if strings.TrimRight(line, "\r") == frontmatterDelimiter {
			if err := yaml.Unmarshal([]byte(yamlPart.String()), &meta); err != nil {
				return nil, "", fmt.Errorf("failed to parse frontmatter: %w", err)
			}
			if meta == nil {
				meta = make(core.Metadata)
			}
			if !more {
				return meta, "", nil
			}
			return meta, after, nil
		}
		if !more {
			// No closing delimiter: not frontmatter after all.
			return make(core.Metadata), text, nil
		}
		yamlPart.WriteString(line)
		yamlPart.WriteString("\n")
		remaining = after
	}
}

// Serialize renders e as frontmatter followed by its content.
func (MarkdownSerializer) Serialize(e core.Entry) ([]byte, error) {
	meta := make(core.Metadata, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	if e.Title != "" {
		meta["title"] = e.Title
	}

	var buf bytes.Buffer
	if len(meta) > 0 {
		buf.WriteString(frontmatterDelimiter + "\n")
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(map[string]any(meta)); err != nil {
			return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, err
		}
		buf.WriteString(frontmatterDelimiter + "\n")
	}
	buf.WriteString(e.Content)
	return buf.Bytes(), nil
}
