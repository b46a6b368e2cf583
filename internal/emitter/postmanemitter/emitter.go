// Package postmanemitter writes a synthesized collection to disk as a
// Postman import file.
package postmanemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/swagger2postman/internal/collection"
)

const fileSuffix = ".postman_collection.json"

// Options controls where and how the collection file is written.
type Options struct {
	OutDir string // required; target directory
	Name   string // base name for the file; derived from the collection name when empty
	Force  bool   // overwrite an existing collection file
	DryRun bool   // don't write, only plan
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

type Result struct {
	Name    string
	Planned []PlannedFile
}

// Emit renders c as indented JSON into <OutDir>/<name>.postman_collection.json.
func Emit(ctx context.Context, c *collection.Collection, opts Options) (*Result, error) {
	if c == nil {
		return nil, fmt.Errorf("postmanemitter: nil collection")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("postmanemitter: OutDir is required")
	}
	name := sanitizeName(opts.Name)
	if name == "" {
		name = deriveName(c.Info.Name)
		if name == "" {
			name = "collection"
		}
	}

	data, err := collection.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal collection: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	rel := name + fileSuffix
	planned := []PlannedFile{{RelPath: rel, Size: len(data), Mode: 0o644}}

	if !opts.DryRun {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeFile(opts.OutDir, rel, data, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{Name: name, Planned: planned}, nil
}

func writeFile(outDir, rel string, content []byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	p := filepath.Join(abs, rel)
	if _, err := os.Stat(p); err == nil && !force {
		return fmt.Errorf("postmanemitter: %q already exists (use --force to overwrite)", p)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// atomic write via temp file + rename
	tmp := p + ".tmp-" + time.Now().Format("20060102150405")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", rel, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", rel, err)
	}
	return nil
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ToLower(strings.NewReplacer(" ", "-", "/", "-").Replace(name))
	// keep alnum, dash, underscore only
	b := strings.Builder{}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// deriveName slugs a collection title, dropping the " [date]" suffix the
// scaffold appends.
func deriveName(title string) string {
	if i := strings.LastIndex(title, " ["); i >= 0 && strings.HasSuffix(title, "]") {
		title = title[:i]
	}
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return ""
	}
	t = strings.NewReplacer("/", " ", "_", " ", ".", " ", ",", " ", ":", " ").Replace(t)
	return sanitizeName(strings.Join(strings.Fields(t), "-"))
}
