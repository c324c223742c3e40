// Package storage implements upload staging: multipart uploads land in a
// temp area under a generated name, and are moved into a permanent,
// per-post directory once a post references them.  The move is a plain
// rename and is not transactional with the database insert of the media
// row; a crash between move and commit can orphan a file, which is
// accepted for this domain.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTempNotFound is returned when a referenced staged file is absent
// from the temp area or its name carries no extension.
var ErrTempNotFound = errors.New("temp file not found")

const (
	publicDir  = "public"
	uploadsDir = "uploads"
	tempDir    = "temp"
)

// Store manages the on-disk layout {root}/public, {root}/uploads and
// {root}/temp.
type Store struct {
	root string
}

// New returns a Store rooted at dir.  Call Init before first use.
func New(dir string) *Store { return &Store{root: dir} }

// Init creates the public, uploads and temp directories.
func (s *Store) Init() error {
	for _, d := range []string{publicDir, uploadsDir, tempDir} {
		if err := os.MkdirAll(filepath.Join(s.root, d), 0o755); err != nil {
			return fmt.Errorf("init storage %s: %w", d, err)
		}
	}
	return nil
}

// TempPath returns the absolute path of a staged file name.
func (s *Store) TempPath(name string) string {
	return filepath.Join(s.root, tempDir, name)
}

// SaveTemp stages an uploaded file under a fresh name "{uuid}{ext}" where
// ext is taken from the original filename, and returns the generated name.
func (s *Store) SaveTemp(src io.Reader, originalName string) (string, error) {
	ext := ""
	if i := strings.LastIndex(originalName, "."); i >= 0 {
		ext = originalName[i:]
	}
	name := uuid.New().String() + ext

	f, err := os.Create(s.TempPath(name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return name, nil
}

// MoveToPermanent relocates a staged file into
// {root}/uploads/{eventID}/{postID}/ and returns its public path
// "/uploads/{eventID}/{postID}/{name}".  The file is located by name
// prefix in the temp area; a missing file or an extensionless name yields
// ErrTempNotFound.
func (s *Store) MoveToPermanent(tempName string, eventID, postID uint64) (string, error) {
	subPath := fmt.Sprintf("%d/%d", eventID, postID)
	return s.move(tempName, subPath)
}

func (s *Store) move(name, subPath string) (string, error) {
	if !strings.Contains(name, ".") {
		return "", ErrTempNotFound
	}

	entries, err := os.ReadDir(filepath.Join(s.root, tempDir))
	if err != nil {
		return "", err
	}
	src := ""
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), name) {
			src = s.TempPath(e.Name())
			name = e.Name()
			break
		}
	}
	if src == "" {
		return "", ErrTempNotFound
	}

	destDir := filepath.Join(s.root, uploadsDir, filepath.FromSlash(subPath))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	if err := os.Rename(src, filepath.Join(destDir, name)); err != nil {
		return "", err
	}
	return "/" + uploadsDir + "/" + subPath + "/" + name, nil
}
