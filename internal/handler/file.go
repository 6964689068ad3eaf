package handler

import (
	"log/slog"
	"net/http"

	"stratus/internal/config"
	"stratus/internal/domain/services"
	"stratus/internal/httputil"
)

// FileHandler serves file upload, download-URL and deletion endpoints.
type FileHandler struct {
	files   services.FileService
	folders services.FolderService
	sharing services.SharingService
	logger  *slog.Logger
}

// NewFileHandler creates a FileHandler.
func NewFileHandler(files services.FileService, folders services.FolderService, sharing services.SharingService, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		files:   files,
		folders: folders,
		sharing: sharing,
		logger:  logger,
	}
}

// Upload handles POST /api/files. Expects multipart form data with a "file"
// part and a "folder_id" field.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer part.Close()

	folderID := r.FormValue("folder_id")
	if folderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder_id is required")
		return
	}

	folder, err := h.folders.GetFolder(r.Context(), folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if folder.OwnerID != principal.ID {
		httputil.RespondError(w, http.StatusForbidden, "not your folder")
		return
	}

	file, err := h.files.Upload(r.Context(), &services.UploadRequest{
		OwnerID:  principal.ID,
		FolderID: folderID,
		FileName: header.Filename,
		Size:     header.Size,
		Content:  part,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// GetFileURL handles GET /api/files/{id}/url, returning a short-lived
// presigned download URL for the owner.
func (h *FileHandler) GetFileURL(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := r.PathValue("id")

	file, err := h.files.GetFile(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if file.OwnerID != principal.ID {
		httputil.RespondError(w, http.StatusForbidden, "not your file")
		return
	}

	url, err := h.sharing.GetFileURL(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// DeleteFile handles DELETE /api/files/{id}.
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := r.PathValue("id")

	file, err := h.files.GetFile(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if file.OwnerID != principal.ID {
		httputil.RespondError(w, http.StatusForbidden, "not your file")
		return
	}

	if err := h.files.DeleteFile(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}
