// Package encyclopedia is the composition root of the encyclopedia wiki.
//
// It connects the domain service (pkg/core) with the filesystem storage
// adapter (pkg/adapters/fs) and optional git versioning (pkg/git).
//
// Entries are Markdown files in one flat directory. Titles are matched
// ignoring case: "Python", "python" and "PYTHON" all address python.md.
// Files dropped into the directory by hand (e.g. "CSS.md" without any
// frontmatter) are picked up as entries too.
//
// Usage:
//
//	svc, err := encyclopedia.New("./entries",
//		encyclopedia.WithAutoInit(true),
//		encyclopedia.WithLogger(logger),
//	)
//
//	entry, err := svc.CreateEntry(ctx, "Python", "A programming language.")
//
// The web server lives in internal/web and the command line in
// cmd/encyclopedia.
package encyclopedia
