/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates strict JSON binding (unknown fields and trailing content are
rejected) and multipart form setup for the avatar upload endpoint.
*/
package req

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"parley/internal/pkg/errs"
)

const (
	// MaxFormMemory is the memory budget ParseMultipartForm uses for non-file
	// fields before spilling to temporary files.
	MaxFormMemory int64 = 8 << 20 // 8 MB

	// MaxUploadSize caps the entire multipart request body, enforced via
	// http.MaxBytesReader. Avatars are small images.
	MaxUploadSize int64 = 5 << 20 // 5 MB
)

// BindJSON binds the JSON request body to dst, rejecting unknown fields.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// FormFile parses the multipart form and returns the named file part.
// The caller closes the returned file.
func FormFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, *errs.CustomError) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		return nil, nil, errs.NewError(errs.ErrFormParseFailed)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, errs.NewError(errs.ErrFormParseFailed)
	}

	return file, header, nil
}
