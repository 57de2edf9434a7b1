package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/venuehall/venuesite/internal/ids"
	"github.com/venuehall/venuesite/uploads"
)

const (
	maxUploadSize      = 10 << 20
	defaultUploadDir   = "events"
	multipartMemoryCap = 1 << 20
)

var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/avif",
}

// UploadFile handles POST /uploads. The multipart field "file" holds the
// image; the optional field "folder" picks a subdirectory.
func (a *API) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+multipartMemoryCap)
	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds 10 MiB")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	folder := defaultUploadDir
	if v := strings.TrimSpace(r.FormValue("folder")); v != "" {
		cleaned, err := uploads.CleanRel(v)
		if err != nil {
			a.audit.logFailure(AuditUploadRejected, r, "invalid folder", slog.String("folder", v))
			writeError(w, http.StatusBadRequest, "invalid upload path")
			return
		}
		folder = cleaned
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds 10 MiB")
		return
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		a.audit.logFailure(AuditUploadRejected, r, "unsupported media type",
			slog.String("content_type", mtype.String()))
		writeError(w, http.StatusUnsupportedMediaType, "only jpeg, png, webp, gif and avif images are accepted")
		return
	}

	rel := path.Join(folder, strings.ToLower(ids.New())+mtype.Extension())
	if err := a.uploads.Save(r.Context(), rel, data, mtype.String()); err != nil {
		a.mapError(w, r, err)
		return
	}
	a.prom.uploadBytes.Add(float64(len(data)))
	a.audit.log(AuditUploadSaved, r,
		slog.String("path", rel),
		slog.String("content_type", mtype.String()),
		slog.Int("size", len(data)))
	writeJSON(w, http.StatusCreated, UploadResponse{Path: rel, URL: a.uploads.URL(rel)})
}

// DeleteUpload handles DELETE /uploads/*. The path is checked before the
// store is touched. A missing file counts as deleted; any other storage
// failure is logged and reported as {ok:false}.
func (a *API) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	rel, err := uploadParam(r)
	if err == nil {
		_, err = uploads.CleanRel(rel)
	}
	if err != nil {
		a.audit.logFailure(AuditUploadRejected, r, "invalid path", slog.String("path", rel))
		writeError(w, http.StatusBadRequest, "invalid upload path")
		return
	}

	err = a.uploads.Delete(r.Context(), rel)
	switch {
	case err == nil, errors.Is(err, uploads.ErrNotExist):
		a.audit.log(AuditUploadDeleted, r, slog.String("path", rel))
		writeJSON(w, http.StatusOK, DeleteUploadResponse{OK: true})
	case errors.Is(err, uploads.ErrInvalidPath):
		a.audit.logFailure(AuditUploadRejected, r, "invalid path", slog.String("path", rel))
		writeError(w, http.StatusBadRequest, "invalid upload path")
	default:
		a.audit.logFailure(AuditUploadDeleteFailed, r, err.Error(), slog.String("path", rel))
		writeJSON(w, http.StatusOK, DeleteUploadResponse{OK: false})
	}
}

// ServeUpload handles GET /uploads/* for stores that can serve their own
// files. Other stores publish through URL and 404 here.
func (a *API) ServeUpload(w http.ResponseWriter, r *http.Request) {
	server, ok := a.uploads.(interface{ Handler() http.Handler })
	if !ok {
		http.NotFound(w, r)
		return
	}
	rel, err := uploadParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = "/" + rel
	r2.URL.RawPath = ""
	server.Handler().ServeHTTP(w, r2)
}

// uploadParam returns the wildcard path segment. chi matches on RawPath
// when the request carries one, in which case it is still escaped.
func uploadParam(r *http.Request) (string, error) {
	rel := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		return url.PathUnescape(rel)
	}
	return rel, nil
}
