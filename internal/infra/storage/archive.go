package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"digest-extractor/internal/domain/entity"
)

const pdfExt = ".pdf"

// Archive stores one digest PDF per calendar date as <dir>/<YYYY-MM-DD>.pdf.
// Writers for the same date are serialized by a lock file next to the PDF.
type Archive struct {
	dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

func (a *Archive) path(date string) (string, error) {
	if _, err := entity.ParseDate(date); err != nil {
		return "", err
	}
	return filepath.Join(a.dir, date+pdfExt), nil
}

// Exists reports whether a PDF is archived for date.
func (a *Archive) Exists(ctx context.Context, date string) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	p, err := a.path(date)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("archive exists %s: %w", date, err)
	}
}

// Load returns the archived PDF bytes for date, or ErrNotFound.
func (a *Archive) Load(ctx context.Context, date string) ([]byte, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	p, err := a.path(date)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("archive load %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("archive load %s: %w", date, err)
	}
	return data, nil
}

// Save stores data as the PDF of date, replacing any previous file.
func (a *Archive) Save(ctx context.Context, date string, data []byte) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	p, err := a.path(date)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("archive save %s: %w", date, err)
	}

	lock := flock.New(p + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("archive lock %s: %w", date, err)
	}
	if !locked {
		return fmt.Errorf("archive lock %s: not acquired", date)
	}
	defer func() { _ = lock.Unlock() }()

	if err := writeAtomic(p, data); err != nil {
		return fmt.Errorf("archive save %s: %w", date, err)
	}
	return nil
}

// ListDates returns the archived dates, newest first. Files that are not
// named after a valid date are ignored.
func (a *Archive) ListDates(ctx context.Context) ([]string, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(a.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive list: %w", err)
	}

	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, pdfExt) {
			continue
		}
		date := strings.TrimSuffix(name, pdfExt)
		if _, err := entity.ParseDate(date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}
