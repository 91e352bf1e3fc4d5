package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is where stored images are served from.
const URLPrefix = "/uploads"

var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// ImageStore keeps uploaded images on local disk under root/<folder> and
// hands out references of the form /uploads/<folder>/<file>.
type ImageStore struct {
	root   string
	folder string
}

func NewImageStore(root, folder string) *ImageStore {
	return &ImageStore{root: root, folder: folder}
}

func (s *ImageStore) Dir() string { return filepath.Join(s.root, s.folder) }

func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, fh.Filename)
	}
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.Dir(), name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	return path.Join(URLPrefix, s.folder, name), nil
}

// SaveAll stores every file or none of them.
func (s *ImageStore) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	refs := make([]string, 0, len(files))
	for _, fh := range files {
		ref, err := s.Save(fh)
		if err != nil {
			s.Remove(refs...)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Remove deletes stored images. References outside this store are ignored.
func (s *ImageStore) Remove(refs ...string) {
	prefix := path.Join(URLPrefix, s.folder) + "/"
	for _, ref := range refs {
		name, ok := strings.CutPrefix(ref, prefix)
		if !ok || name == "" || strings.ContainsAny(name, `/\`) {
			continue
		}
		_ = os.Remove(filepath.Join(s.Dir(), name))
	}
}
