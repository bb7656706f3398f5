package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/openhearth/hearth/pkg/errs"
	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/model"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// handleImageUpload reads a multipart form with a "kind" field (avatar or
// banner) and a "file" part, stores the blob and attaches it to the
// container. Attaching replaces any existing attachment in the same slot.
// The caller has already authorized the write on the container.
func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request, containerType model.ContainerType, containerID int64) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		httputil.WriteDomainError(w, errs.Validation("file", "upload too large or malformed"))
		return
	}

	kind := model.AttachmentKind(r.FormValue("kind"))
	if kind != model.AttachmentAvatar && kind != model.AttachmentBanner {
		httputil.WriteDomainError(w, errs.Validation("kind", "kind must be one of avatar, banner"))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteDomainError(w, errs.Validation("file", "file is required"))
		return
	}
	defer part.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedImageTypes[mimeType] {
		httputil.WriteDomainError(w, errs.Validation("file", "file must be a jpeg, png, gif or webp image"))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	path, size, err := s.files.Save(part, ext)
	if err != nil {
		s.logger.WithError(err).Error("failed to store upload")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	file := &model.File{
		Name:     header.Filename,
		Path:     path,
		MimeType: mimeType,
		Size:     size,
	}
	attachment, err := s.store.AttachFile(r.Context(), identityFrom(r), kind, containerType, containerID, file)
	if err != nil {
		s.files.Remove(path)
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, attachment)
}
