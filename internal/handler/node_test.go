package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"strata/internal/domain/models"
	"strata/internal/domain/services"
	"strata/internal/httputil"
)

// stubNodeService returns canned nodes so route and response shapes can be
// exercised without storage
type stubNodeService struct {
	node *models.Node
}

func (s *stubNodeService) CreateFolder(ctx context.Context, p *models.Principal, req *services.CreateFolderRequest) (*models.Node, error) {
	return s.node, nil
}

func (s *stubNodeService) Upload(ctx context.Context, p *models.Principal, req *services.UploadRequest) (*models.Node, error) {
	return s.node, nil
}

func (s *stubNodeService) Get(ctx context.Context, p *models.Principal, id string) (*models.Node, error) {
	return s.node, nil
}

func (s *stubNodeService) OpenBlob(ctx context.Context, p *models.Principal, id string) (*models.Node, io.ReadCloser, error) {
	return s.node, io.NopCloser(strings.NewReader("blob bytes")), nil
}

func (s *stubNodeService) Update(ctx context.Context, p *models.Principal, id string, req *services.UpdateNodeRequest) (*models.Node, error) {
	return s.node, nil
}

func (s *stubNodeService) Delete(ctx context.Context, p *models.Principal, id string) error {
	return nil
}

func (s *stubNodeService) DeleteAllOwnedBy(ctx context.Context, ownerID string) error {
	return nil
}

type stubListingService struct{}

func (stubListingService) List(ctx context.Context, p *models.Principal, req *services.ListNodesRequest) (*models.NodePage, error) {
	return &models.NodePage{Items: []models.NodeListItem{}, Page: 1}, nil
}

// newFilesMux registers the file routes with the same patterns the server
// uses
func newFilesMux(t *testing.T) *http.ServeMux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewNodeHandler(&stubNodeService{node: &models.Node{
		ID:          "n001",
		Name:        "report.pdf",
		Kind:        models.KindFile,
		ContentType: "application/pdf",
		ByteSize:    10,
	}}, stubListingService{}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files", h.List)
	mux.HandleFunc("POST /api/files/upload", h.Upload)
	mux.HandleFunc("POST /api/files/folder", h.CreateFolder)
	mux.HandleFunc("GET /api/files/{id}", h.Get)
	mux.HandleFunc("PUT /api/files/{id}", h.Update)
	mux.HandleFunc("DELETE /api/files/{id}", h.Delete)
	mux.HandleFunc("GET /api/files/download/{id}", h.Download)
	mux.HandleFunc("GET /api/files/preview/{id}", h.Preview)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	principal := &models.Principal{ID: "alice", Role: models.RoleUser, Position: models.PositionStaff}
	mux.ServeHTTP(rec, httputil.WithPrincipal(req, principal))
	return rec
}

func multipartBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("pdf bytes"))
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadRouteAndResponseShape(t *testing.T) {
	mux := newFilesMux(t)

	body, contentType := multipartBody(t)
	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, mux, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["fileId"] != "n001" {
		t.Errorf(`response = %v, want {"fileId":"n001"}`, resp)
	}
}

func TestCreateFolderResponseShape(t *testing.T) {
	mux := newFilesMux(t)

	req := httptest.NewRequest(http.MethodPost, "/api/files/folder",
		strings.NewReader(`{"name":"docs"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(t, mux, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["id"] != "n001" {
		t.Errorf(`response = %v, want {"id":"n001"}`, resp)
	}
}

func TestDownloadAndPreviewRoutes(t *testing.T) {
	mux := newFilesMux(t)

	tests := []struct {
		path            string
		wantDisposition string
	}{
		{"/api/files/download/n001", "attachment"},
		{"/api/files/preview/n001", "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := doRequest(t, mux, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			disposition := rec.Header().Get("Content-Disposition")
			if !strings.HasPrefix(disposition, tt.wantDisposition+";") {
				t.Errorf("disposition = %q, want %s", disposition, tt.wantDisposition)
			}
			if rec.Body.String() != "blob bytes" {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}

	// the metadata route must still match alongside the stream routes
	rec := doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/api/files/n001", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metadata status = %d, want 200", rec.Code)
	}
	var node models.Node
	if err := json.Unmarshal(rec.Body.Bytes(), &node); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if node.ID != "n001" {
		t.Errorf("node id = %q", node.ID)
	}
}
