package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"stratus/internal/domain/models"
	"stratus/internal/domain/services"
	"stratus/internal/httputil"
)

// FolderHandler serves the folder hierarchy endpoints.
type FolderHandler struct {
	folders services.FolderService
	logger  *slog.Logger
}

// NewFolderHandler creates a FolderHandler.
func NewFolderHandler(folders services.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folders: folders,
		logger:  logger,
	}
}

// GetRootFolder handles GET /api/folders/root. Provisions the root folder on
// first access; subsequent calls return the same folder.
func (h *FolderHandler) GetRootFolder(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	folder, err := h.folders.CreateRootFolder(r.Context(), principal)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// GetFolder handles GET /api/folders/{id}.
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	folder, err := h.folders.GetFolder(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if folder.OwnerID != principal.ID {
		httputil.RespondError(w, http.StatusForbidden, "not your folder")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// GetFolderTree handles GET /api/folders/{id}/tree, returning the folder and
// all of its descendants as a nested tree.
func (h *FolderHandler) GetFolderTree(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
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

	tree, err := h.folders.GetFolderRecursively(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if tree == nil {
		httputil.RespondError(w, http.StatusNotFound, "folder not found")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

type createFolderRequest struct {
	ParentFolderID string `json:"parent_folder_id"`
	Name           string `json:"name"`
}

// CreateFolder handles POST /api/folders. Sibling name collisions are
// rejected here, case-insensitively, before the service is invoked.
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ParentFolderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "parent_folder_id is required")
		return
	}

	parent, err := h.folders.GetFolder(r.Context(), req.ParentFolderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if parent.OwnerID != principal.ID {
		httputil.RespondError(w, http.StatusForbidden, "not your folder")
		return
	}

	for _, sibling := range parent.Subfolders {
		if strings.EqualFold(sibling.DisplayName, req.Name) {
			httputil.RespondError(w, http.StatusConflict, "a folder with this name already exists")
			return
		}
	}

	root, err := h.resolveRoot(r, principal, parent)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	folder, err := h.folders.CreateSubfolder(r.Context(), parent, req.Name, root, principal.ID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// resolveRoot finds the principal's root folder, which anchors the blob path
// of every new subfolder. When the parent is itself the root no second fetch
// is needed.
func (h *FolderHandler) resolveRoot(r *http.Request, principal *models.Principal, parent *models.Folder) (*models.Folder, error) {
	if parent.IsRoot {
		return parent, nil
	}
	if principal.RootFolderID != "" {
		return h.folders.GetFolder(r.Context(), principal.RootFolderID)
	}
	return h.folders.CreateRootFolder(r.Context(), principal)
}

// DeleteFolder handles DELETE /api/folders/{id}, removing the folder and its
// entire subtree.
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
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
	if folder.IsRoot {
		httputil.RespondError(w, http.StatusBadRequest, "root folder cannot be deleted")
		return
	}

	if err := h.folders.DeleteFolderRecursively(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "folder deleted"})
}

// GetBreadcrumbs handles GET /api/breadcrumbs?folder_id=... and returns the
// root-to-leaf ancestor chain. Without folder_id the chain is just the
// principal's root folder.
func (h *FolderHandler) GetBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var folderID *string
	if v := r.URL.Query().Get("folder_id"); v != "" {
		folderID = &v
	}

	chain, err := h.folders.GetAncestors(r.Context(), folderID, principal)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	if chain == nil {
		httputil.RespondError(w, http.StatusNotFound, "folder not found")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chain)
}
