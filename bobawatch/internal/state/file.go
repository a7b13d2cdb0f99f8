package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
)

// File stores the state as {"was_unavailable": <bool>} at Path.
type File struct {
	Path string
}

// NewFile returns a File store for path.
func NewFile(path string) *File { return &File{Path: path} }

func (f *File) Name() string { return "file:" + f.Path }

func (f *File) Load(_ context.Context) (availability.State, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return availability.State{}, nil
	}
	if err != nil {
		return availability.State{}, fmt.Errorf("state: read %s: %w", f.Path, err)
	}
	var st availability.State
	if err := json.Unmarshal(data, &st); err != nil {
		return availability.State{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.Path, err)
	}
	return st, nil
}

// Save writes to a temp file in the same directory and renames it over Path
// so a crash never leaves a half-written record.
func (f *File) Save(_ context.Context, st availability.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return &PersistError{Backend: f.Name(), Cause: err}
	}
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, ".boba_status-*.json")
	if err != nil {
		return &PersistError{Backend: f.Name(), Cause: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistError{Backend: f.Name(), Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistError{Backend: f.Name(), Cause: err}
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		os.Remove(tmpName)
		return &PersistError{Backend: f.Name(), Cause: err}
	}
	return nil
}
