package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"strata/internal/domain/services"
	"strata/internal/httputil"
)

// maxUploadBytes caps a single multipart upload
const maxUploadBytes = 50 << 20

// NodeHandler serves the file tree endpoints
type NodeHandler struct {
	nodes   services.NodeService
	listing services.ListingService
	logger  *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodes services.NodeService, listing services.ListingService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		nodes:   nodes,
		listing: listing,
		logger:  logger,
	}
}

// optionalID reads a query or form value as a nullable id
func optionalID(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// List handles GET /api/files
func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	req := &services.ListNodesRequest{
		ParentID: optionalID(r.URL.Query().Get("parent_id")),
		Search:   r.URL.Query().Get("search"),
	}
	if page := r.URL.Query().Get("page"); page != "" {
		req.Page, _ = strconv.Atoi(page)
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		req.PageSize, _ = strconv.Atoi(limit)
	}

	result, err := h.listing.List(r.Context(), principal, req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Upload handles POST /api/files/upload (multipart)
func (h *NodeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	req := &services.UploadRequest{
		Name:        header.Filename,
		ParentID:    optionalID(r.FormValue("parent_id")),
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}
	if level := r.FormValue("access_level"); level != "" {
		parsed, err := strconv.Atoi(level)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "access_level must be a number")
			return
		}
		req.Clearance = &parsed
	}

	node, err := h.nodes.Upload(r.Context(), principal, req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]string{"fileId": node.ID})
}

// CreateFolder handles POST /api/files/folder
func (h *NodeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.nodes.CreateFolder(r.Context(), principal, &req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]string{"id": node.ID})
}

// Get handles GET /api/files/{id}
func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	node, err := h.nodes.Get(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// Update handles PUT /api/files/{id}
func (h *NodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	var req services.UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.nodes.Update(r.Context(), principal, r.PathValue("id"), &req)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// Delete handles DELETE /api/files/{id}
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	if err := h.nodes.Delete(r.Context(), principal, r.PathValue("id")); err != nil {
		HandleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download handles GET /api/files/download/{id}
func (h *NodeHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, "attachment")
}

// Preview handles GET /api/files/preview/{id}
func (h *NodeHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, "inline")
}

// serveBlob streams file content with the given disposition. The filename
// is sent RFC 5987 encoded so non-ASCII names survive the header.
func (h *NodeHandler) serveBlob(w http.ResponseWriter, r *http.Request, disposition string) {
	principal := httputil.GetPrincipal(r)

	node, rc, err := h.nodes.OpenBlob(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", node.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("%s; filename*=UTF-8''%s", disposition, url.PathEscape(node.Name)))
	if node.ByteSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(node.ByteSize, 10))
	}

	if _, err := io.Copy(w, rc); err != nil {
		// Headers are gone; nothing to do but log
		h.logger.Debug("blob stream interrupted", "node_id", node.ID, "error", err)
	}
}
