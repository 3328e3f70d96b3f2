package gofeed

import (
	"context"
	"errors"
	"io"

	"github.com/aloks98/gofeed/files"
	"github.com/aloks98/gofeed/token"
)

// Upload is an incoming image file.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// StoreImage saves an upload for the acting user and returns its path.
// An upload of an unaccepted type is dropped: the returned path is empty and err is nil.
func (f *Feed) StoreImage(ctx context.Context, who token.Identity, up Upload) (string, error) {
	if !who.IsAuthenticated {
		return "", notAuthenticated()
	}
	if f.files == nil {
		return "", Classify(errors.New("no file store configured"))
	}

	p, err := f.files.Save(ctx, up.Name, up.ContentType, up.Body)
	if errors.Is(err, files.ErrUnsupportedType) {
		f.logger.Printf("dropped upload %q of type %q", up.Name, up.ContentType)
		return "", nil
	}
	if err != nil {
		return "", Classify(err)
	}
	return p, nil
}

// ReleaseImage deletes a stored image. Failures are logged and never returned.
func (f *Feed) ReleaseImage(ctx context.Context, path string) {
	if f.files == nil || path == "" || path == imageUnchanged {
		return
	}
	if err := f.files.Remove(ctx, path); err != nil {
		f.logger.Printf("release image %s: %v", path, err)
	}
}

// ReleaseUnusedImage deletes a stored image unless a post still references it.
// Call it after the store write that dropped the reference.
func (f *Feed) ReleaseUnusedImage(ctx context.Context, path string) {
	if f.files == nil || path == "" || path == imageUnchanged {
		return
	}
	used, err := f.store.ImageInUse(ctx, path)
	if err != nil {
		f.logger.Printf("check image %s: %v", path, err)
		return
	}
	if used {
		return
	}
	f.ReleaseImage(ctx, path)
}
