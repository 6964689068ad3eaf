package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stratus/internal/domain"
	"stratus/internal/domain/services"
	"stratus/internal/filetype"
	"stratus/internal/httputil"
)

// ShareHandler serves share creation and anonymous share resolution.
type ShareHandler struct {
	sharing   services.SharingService
	folders   services.FolderService
	files     services.FileService
	filetypes *filetype.Registry
	baseURL   string
	logger    *slog.Logger
}

// NewShareHandler creates a ShareHandler. baseURL is the public origin that
// share URLs are minted against.
func NewShareHandler(sharing services.SharingService, folders services.FolderService, files services.FileService, filetypes *filetype.Registry, baseURL string, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		sharing:   sharing,
		folders:   folders,
		files:     files,
		filetypes: filetypes,
		baseURL:   baseURL,
		logger:    logger,
	}
}

type shareRequest struct {
	Hours int `json:"hours"`
}

// ShareFolder handles POST /api/share/folder/{id}. Issues a fresh share
// token for the folder; any previously issued token stops working.
func (h *ShareHandler) ShareFolder(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req shareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")

	folder, err := h.folders.GetFolder(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if folder.OwnerID != principal.ID {
		httputil.RespondError(w, http.StatusForbidden, "not your folder")
		return
	}

	link, err := h.sharing.ShareFolder(r.Context(), id, req.Hours, h.baseURL)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, link)
}

// ShareFile handles POST /api/share/file/{id}. Repeated shares only ever
// extend the persisted expiry, never shorten it.
func (h *ShareHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req shareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
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

	link, err := h.sharing.ShareFile(r.Context(), id, req.Hours)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, link)
}

// sharedFolderResponse is the anonymous view of a shared folder.
type sharedFolderResponse struct {
	Folder    interface{} `json:"folder"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// GetSharedFolder handles GET /shared/folder/{token}. Public endpoint; the
// token is the only credential.
func (h *ShareHandler) GetSharedFolder(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	folder, err := h.sharing.ResolveShareToken(r.Context(), token)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	tree, err := h.folders.GetFolderRecursively(r.Context(), folder.ID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if tree == nil {
		httputil.RespondError(w, http.StatusNotFound, "folder not found")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sharedFolderResponse{
		Folder:    tree,
		ExpiresAt: folder.ExpiresAt,
	})
}

// sharedFileResponse carries the presigned URL plus enough metadata for the
// client to render a preview.
type sharedFileResponse struct {
	FileName  string               `json:"file_name"`
	URL       string               `json:"url"`
	ExpiresAt time.Time            `json:"expires_at"`
	MIMEType  string               `json:"mime_type"`
	Preview   filetype.PreviewKind `json:"preview"`
}

// GetSharedFile handles GET /shared/folder/{token}/files/{fileId}. The file
// must lie beneath the shared folder; anything else is reported as not found
// so the endpoint leaks nothing about files outside the share.
func (h *ShareHandler) GetSharedFile(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	fileID := r.PathValue("fileId")

	folder, err := h.sharing.ResolveShareToken(r.Context(), token)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	file, err := h.files.GetFile(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "file not found")
			return
		}
		handleError(w, h.logger, err)
		return
	}

	link, err := h.sharing.GetFileFromShareToken(r.Context(), folder, file)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if link == nil {
		httputil.RespondError(w, http.StatusNotFound, "file not found")
		return
	}

	entry := h.filetypes.Lookup(file.FileName)
	httputil.RespondJSON(w, http.StatusOK, sharedFileResponse{
		FileName:  file.FileName,
		URL:       link.URL,
		ExpiresAt: link.ExpiresAt,
		MIMEType:  entry.MIMEType,
		Preview:   entry.Preview,
	})
}
