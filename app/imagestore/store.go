package imagestore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	defaultExtension = ".jpg"
	reserveAttempts  = 5
)

var (
	ErrEmpty       = errors.New("image is empty")
	ErrTooLarge    = errors.New("image is too large")
	ErrUnsupported = errors.New("unsupported image type")
)

// imageExtensions lists the accepted types and the extensions that may be kept
// from the client's filename for each of them.
var imageExtensions = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Store keeps uploaded images in a directory that is served as static files
// under publicPath.
type Store struct {
	dir        string
	publicPath string
	maxBytes   int64
	now        func() time.Time
}

// Image is an upload that passed validation and has been given its final name.
type Image struct {
	Name string
	URL  string
	data []byte
}

func New(dir, publicPath string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Store{
		dir:        dir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
		maxBytes:   maxBytes,
		now:        time.Now,
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) PublicPath() string {
	return s.publicPath
}

// MaxBytes is the largest accepted upload.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Prepare validates the payload, names it <base>-<unix millis><ext> and reserves
// that name with an empty file. Another upload holding the same name gets a short
// random suffix instead. The caller must Remove the image if it is not kept.
func (s *Store) Prepare(filename string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	exts, ok := imageExtensions[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mtype.String())
	}

	base, ext := s.fileName(filename, exts, mtype.Extension())
	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)

	name := base + "-" + stamp + ext
	for attempt := 0; ; attempt++ {
		err := s.reserve(name)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || attempt == reserveAttempts {
			return nil, fmt.Errorf("failed to reserve image name: %w", err)
		}
		name = base + "-" + stamp + "-" + uuid.NewString()[:8] + ext
	}

	return &Image{
		Name: name,
		URL:  path.Join(s.publicPath, name),
		data: data,
	}, nil
}

func (s *Store) reserve(name string) error {
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Write fills the file reserved by Prepare.
func (s *Store) Write(img *Image) error {
	f, err := os.OpenFile(filepath.Join(s.dir, img.Name), os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	if _, err := f.Write(img.data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return f.Close()
}

// Remove deletes a previously written image. A missing file is not an error.
func (s *Store) Remove(img *Image) error {
	err := os.Remove(filepath.Join(s.dir, img.Name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// fileName returns the sanitized base name and the extension to store. The
// client's extension is kept only when it belongs to the detected type.
func (s *Store) fileName(original string, allowed []string, detectedExt string) (string, string) {
	original = filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(original, filepath.Ext(original))

	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-")
	if base == "" {
		base = "image"
	}
	if !slices.Contains(allowed, ext) {
		ext = detectedExt
	}
	if ext == "" {
		ext = defaultExtension
	}
	return base, ext
}
