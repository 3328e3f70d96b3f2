package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/aloks98/gofeed"
	"github.com/aloks98/gofeed/middleware"
	mwchi "github.com/aloks98/gofeed/middleware/chi"
)

// ImageField is the multipart field carrying an image file.
const ImageField = "image"

// UploadResponse is written by UploadImage.
type UploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath,omitempty"`
}

// UploadImage stores the "image" file of a multipart request and releases "oldPath".
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	who := mwchi.Identity(r)
	if !who.IsAuthenticated {
		h.writeError(w, r, middleware.ErrNotAuthenticated)
		return
	}

	filePath, err := h.storeFormImage(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if filePath == "" {
		middleware.WriteJSON(w, http.StatusOK, UploadResponse{Message: "No file provided."})
		return
	}

	if oldPath := r.FormValue("oldPath"); oldPath != "" {
		h.feed.ReleaseUnusedImage(r.Context(), oldPath)
	}

	middleware.WriteJSON(w, http.StatusCreated, UploadResponse{Message: "File stored.", FilePath: filePath})
}

// storeFormImage saves the request's image file for the acting user. It returns an empty path
// when the request has no file or the file was dropped for its type.
func (h *Handler) storeFormImage(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", gofeed.NewError(gofeed.CodeValidationFailed, "File too large.", err)
		}
		return "", gofeed.NewError(gofeed.CodeValidationFailed, "Invalid multipart body.", err)
	}

	file, header, err := r.FormFile(ImageField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", gofeed.NewError(gofeed.CodeValidationFailed, "Invalid multipart body.", err)
	}
	defer file.Close()

	return h.feed.StoreImage(r.Context(), mwchi.Identity(r), upload(header, file))
}

func upload(header *multipart.FileHeader, file multipart.File) gofeed.Upload {
	return gofeed.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
}
