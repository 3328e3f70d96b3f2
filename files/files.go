// Package files stores uploaded post images.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File store errors.
var (
	// ErrUnsupportedType indicates the upload's content type is not an accepted image type.
	ErrUnsupportedType = errors.New("files: unsupported content type")

	// ErrInvalidPath indicates a path outside the store.
	ErrInvalidPath = errors.New("files: invalid path")
)

// TimestampLayout prefixes every stored file name.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const maxNameAttempts = 100

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// Allowed reports whether contentType is an accepted image type.
func Allowed(contentType string) bool {
	return allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

// Info describes a stored file.
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Store persists images and releases them by path.
type Store interface {
	// Save writes r under a fresh name derived from name and returns its public path.
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)

	// Remove deletes the file at path. A missing file is not an error.
	Remove(ctx context.Context, path string) error

	// List returns every stored file.
	List(ctx context.Context) ([]Info, error)
}

// Disk stores files in a local directory and exposes them under a URL prefix.
type Disk struct {
	root   string
	prefix string
	now    func() time.Time
}

// DiskOption configures a Disk.
type DiskOption func(*Disk)

// WithPrefix sets the public path prefix. Defaults to "images".
func WithPrefix(prefix string) DiskOption {
	return func(d *Disk) {
		d.prefix = strings.Trim(prefix, "/")
	}
}

// WithClock sets the clock used to name files.
func WithClock(now func() time.Time) DiskOption {
	return func(d *Disk) {
		d.now = now
	}
}

// NewDisk returns a Disk rooted at dir, creating it if needed.
func NewDisk(dir string, opts ...DiskOption) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("files: create %s: %w", dir, err)
	}
	d := &Disk{root: dir, prefix: "images", now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Root returns the directory files are written to.
func (d *Disk) Root() string {
	return d.root
}

// Prefix returns the public path prefix.
func (d *Disk) Prefix() string {
	return d.prefix
}

// Save implements Store. The stored name is "<timestamp>-<base name>".
func (d *Disk) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if !Allowed(contentType) {
		return "", ErrUnsupportedType
	}

	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		base = "upload"
	}
	stamp := d.now().UTC().Format(TimestampLayout)

	f, fileName, err := d.create(stamp, base)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, contextReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return path.Join(d.prefix, fileName), nil
}

// create opens a new file named <stamp>-<base>. When that name is taken by an upload
// in the same millisecond, a counter is added: <stamp>-1-<base>, <stamp>-2-<base>.
func (d *Disk) create(stamp, base string) (*os.File, string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		fileName := stamp + "-" + base
		if n > 0 {
			fileName = stamp + "-" + strconv.Itoa(n) + "-" + base
		}
		f, err := os.OpenFile(filepath.Join(d.root, fileName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, fileName, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("files: no free name for %s after %d attempts", base, maxNameAttempts)
}

// Remove implements Store.
func (d *Disk) Remove(ctx context.Context, p string) error {
	local, err := d.localPath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(local); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List implements Store.
func (d *Disk) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}

	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			Path:    path.Join(d.prefix, e.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	return out, ctx.Err()
}

// localPath maps a public path to a file directly inside root.
func (d *Disk) localPath(p string) (string, error) {
	p = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
	rest, ok := strings.CutPrefix(p, d.prefix+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", ErrInvalidPath
	}
	return filepath.Join(d.root, rest), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ Store = (*Disk)(nil)
