/*
Package handler provides the development server's HTTP handlers and routing.

This file implements avatar upload and retrieval. Upload is unauthenticated
because the signup form needs it before an account exists.
*/
package handler

import (
	"io"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/req"
	"parley/internal/pkg/resp"
)

type avatarOutput struct {
	URL string `json:"url"`
}

// HandleUploadAvatar stores an uploaded avatar image and returns its URL for
// use in the signup payload.
func HandleUploadAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, customErr := req.FormFile(w, r, "avatar")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		key := uuid.NewString() + path.Ext(header.Filename)

		url, err := deps.Blobs.Put(r.Context(), key, contentType, file)
		if err != nil {
			logx.Error(err, "avatar upload failed", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondOK(w, r, avatarOutput{URL: url})
	}
}

// HandleGetAvatar serves a stored avatar. Only used when the blob store's
// URLs are server-relative (the in-memory implementation).
func HandleGetAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		if key == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		blob, contentType, err := deps.Blobs.Open(r.Context(), key)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer blob.Close()

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		io.Copy(w, blob)
	}
}
