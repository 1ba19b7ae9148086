package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

// File writes records under a local directory. Existing records are never overwritten.
type File struct {
	Root string
}

func NewFile(root string) *File { return &File{Root: root} }

func (f *File) Write(ctx context.Context, rec analysis.Record) error {
	docs, err := Render(rec)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.create(d); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) create(d Document) error {
	p := filepath.Join(f.Root, filepath.FromSlash(d.Key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	fh, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", d.Key, analysis.ErrRecordExists)
	}
	if err != nil {
		return fmt.Errorf("open record %s: %w", d.Key, err)
	}
	if _, err := fh.Write(d.Body); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write record %s: %w", d.Key, err)
	}
	return fh.Close()
}
