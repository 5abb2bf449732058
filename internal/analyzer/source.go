package analyzer

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Source is a video chosen for upload. Open is called once per upload attempt.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Releaser is implemented by sources that hold resources once they are no
// longer selected.
type Releaser interface {
	Release() error
}

// DiskFile is a Source backed by a file on local disk.
type DiskFile struct {
	Path string
	// DisplayName overrides the base name sent to the analyzer.
	DisplayName string
	// Temporary files are removed on Release.
	Temporary bool
}

func (f DiskFile) Name() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return filepath.Base(f.Path)
}

func (f DiskFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// Release removes a temporary file. A file that is already gone is not an error.
func (f DiskFile) Release() error {
	if !f.Temporary {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var _ Releaser = DiskFile{}
