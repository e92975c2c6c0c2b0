// Package media stores uploaded files under paths namespaced by the
// owning entity and hands back their public URLs.
package media

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"

	"github.com/example/marketplace/pkg/config"
	"github.com/spf13/afero"
)

type Storage struct {
	fs        afero.Fs
	root      string
	urlPrefix string
}

func NewStorage(fs afero.Fs, cfg *config.MediaConfig) *Storage {
	return &Storage{fs: fs, root: cfg.Root, urlPrefix: cfg.URLPrefix}
}

// HTTPFileSystem exposes the media root for static serving.
func (s *Storage) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.root))
}

func (s *Storage) URLPrefix() string {
	return s.urlPrefix
}

func (s *Storage) SaveCategoryImage(categoryID uint, filename string, r io.Reader) (string, error) {
	return s.save(fmt.Sprintf("categories/category_%d/images", categoryID), filename, r)
}

func (s *Storage) SaveProductImage(productID uint, filename string, r io.Reader) (string, error) {
	return s.save(fmt.Sprintf("products/product_%d/images", productID), filename, r)
}

func (s *Storage) SaveAvatar(userID uint, filename string, r io.Reader) (string, error) {
	return s.save(fmt.Sprintf("profiles/profile_%d/images", userID), filename, r)
}

func (s *Storage) save(dir, filename string, r io.Reader) (string, error) {
	// Uploaded names may carry path separators; keep the base only.
	filename = filepath.Base(filename)
	if filename == "." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", filename)
	}

	fullDir := path.Join(s.root, dir)
	if err := s.fs.MkdirAll(fullDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	target := path.Join(fullDir, filename)
	if err := afero.WriteReader(s.fs, target, r); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	return path.Join(s.urlPrefix, dir, filename), nil
}
