// Package submissions provides SubmissionSource implementations.
package submissions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// DefaultExtension is appended to a case ID to find its submission file.
const DefaultExtension = ".out"

// DirSource reads each submission from <dir>/<case id><ext>. Lookups are
// confined to dir, so a case ID cannot reach files outside it.
type DirSource struct {
	dir      string
	ext      string
	maxBytes int64
}

// DirOption configures a DirSource.
type DirOption func(*DirSource)

// WithExtension overrides DefaultExtension.
func WithExtension(ext string) DirOption {
	return func(s *DirSource) { s.ext = ext }
}

// WithMaxBytes rejects submissions larger than n bytes. Zero means no limit.
func WithMaxBytes(n int64) DirOption {
	return func(s *DirSource) { s.maxBytes = n }
}

// NewDirSource returns a source rooted at dir, which must be an existing
// directory.
func NewDirSource(dir string, opts ...DirOption) (*DirSource, error) {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, ports.NewSourceError(dir, err)
	}
	if !info.IsDir() {
		return nil, ports.NewSourceError(dir, fmt.Errorf("%w: not a directory", ports.ErrInvalidFormat))
	}

	s := &DirSource{dir: dir, ext: DefaultExtension}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submission implements ports.SubmissionSource.
func (s *DirSource) Submission(ctx context.Context, caseID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := caseID + s.ext
	path := filepath.Join(s.dir, name)
	if !filepath.IsLocal(name) {
		return "", ports.NewSourceError(path, fmt.Errorf("%w: case ID escapes the submission directory", ports.ErrInvalidFormat))
	}

	f, err := os.OpenInRoot(s.dir, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ports.NewSourceError(path, domain.ErrSubmissionNotFound)
		}
		return "", ports.NewSourceError(path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.maxBytes > 0 {
		r = io.LimitReader(f, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", ports.NewSourceError(path, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", ports.NewSourceError(path, fmt.Errorf("%w: submission exceeds %d bytes", ports.ErrInvalidFormat, s.maxBytes))
	}
	return string(data), nil
}

var _ ports.SubmissionSource = (*DirSource)(nil)
