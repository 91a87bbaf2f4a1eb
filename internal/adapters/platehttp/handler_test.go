package platehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"platecore/internal/blob"
	"platecore/internal/core"
	"platecore/internal/persistence/memory"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	svc := core.NewService(memory.NewStore(core.DefaultRulesEngine()))
	h := NewHandler(svc)
	h.Blobs = blob.NewMemory()
	return h
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createPlateHTTP(t *testing.T, h *Handler) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/plates", map[string]any{"wells": 96, "name": "screen"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create plate: %d %s", rec.Code, rec.Body.String())
	}
	plate := decode(t, rec)["plate"].(map[string]any)
	id, _ := plate["id"].(string)
	if id == "" {
		t.Fatal("plate id missing from response")
	}
	return id
}

func TestPlateCreateAndGet(t *testing.T) {
	h := newTestHandler(t)
	id := createPlateHTTP(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/plates/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get plate: %d", rec.Code)
	}
	plate := decode(t, rec)["plate"].(map[string]any)
	if plate["rows"].(float64) != 8 || plate["cols"].(float64) != 12 {
		t.Fatalf("plate shape: %v x %v", plate["rows"], plate["cols"])
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/plates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list plates: %d", rec.Code)
	}
	if plates := decode(t, rec)["plates"].([]any); len(plates) != 1 {
		t.Fatalf("plate list: %d", len(plates))
	}
}

func TestPlateCreateInvalidConfig(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/plates", map[string]any{"wells": 13})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPlateNotFound(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/plates/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/plates/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing: %d", rec.Code)
	}
}

func TestPlateDelete(t *testing.T) {
	h := newTestHandler(t)
	id := createPlateHTTP(t, h)
	rec := doJSON(t, h, http.MethodDelete, "/api/v1/plates/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/plates/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
}

func TestWellListFilters(t *testing.T) {
	h := newTestHandler(t)
	id := createPlateHTTP(t, h)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/plates/"+id+"/wells/A1", map[string]any{"samples": []string{"s-1"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("fill well: %d %s", rec.Code, rec.Body.String())
	}

	cases := []struct {
		query string
		want  int
	}{
		{"", 96},
		{"?filled=true", 1},
		{"?row=A", 12},
		{"?col=1", 8},
		{"?row=Q", 0},
	}
	for _, tc := range cases {
		rec := doJSON(t, h, http.MethodGet, "/api/v1/plates/"+id+"/wells"+tc.query, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list wells %q: %d", tc.query, rec.Code)
		}
		wells := decode(t, rec)["wells"].([]any)
		if len(wells) != tc.want {
			t.Fatalf("wells %q: got %d want %d", tc.query, len(wells), tc.want)
		}
	}
}

func TestWellGetAndRefillWarning(t *testing.T) {
	h := newTestHandler(t)
	id := createPlateHTTP(t, h)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/plates/"+id+"/wells/B2", map[string]any{"samples": []string{"s-1"}, "label": "ctrl"})
	if rec.Code != http.StatusOK {
		t.Fatalf("fill: %d", rec.Code)
	}
	if _, warned := decode(t, rec)["warnings"]; warned {
		t.Fatal("first fill should not warn")
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/plates/"+id+"/wells/B2", map[string]any{"samples": []string{"s-2"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("refill: %d", rec.Code)
	}
	warnings, ok := decode(t, rec)["warnings"].([]any)
	if !ok || len(warnings) != 1 {
		t.Fatalf("refill warnings: %v", warnings)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/plates/"+id+"/wells/B2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get well: %d", rec.Code)
	}
	well := decode(t, rec)["well"].(map[string]any)
	samples := well["samples"].([]any)
	if len(samples) != 1 || samples[0] != "s-1" {
		t.Fatalf("well samples: %v", samples)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/plates/"+id+"/wells/Z99", map[string]any{"samples": []string{"s-1"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("fill invalid position: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/plates/"+id+"/wells/Z99", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get invalid position: %d", rec.Code)
	}
}

func TestReplicateEndpoint(t *testing.T) {
	h := newTestHandler(t)
	id := createPlateHTTP(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/plates/"+id+"/replicates", map[string]any{"count": 2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("replicate: %d %s", rec.Code, rec.Body.String())
	}
	plates := decode(t, rec)["plates"].([]any)
	if len(plates) != 2 {
		t.Fatalf("replicates: %d", len(plates))
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/plates/"+id+"/replicates", map[string]any{"count": -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative count: %d", rec.Code)
	}
}

func TestDataUploadAndList(t *testing.T) {
	h := newTestHandler(t)
	id := createPlateHTTP(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plates/"+id+"/data", strings.NewReader("a,b,c\n1,2,3\n"))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-Data-Filename", "run.csv")
	req.Header.Set("X-Data-Type", "raw")
	req.Header.Set("X-Data-Format", "csv")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	blobKey, _ := body["blob_key"].(string)
	if blobKey == "" {
		t.Fatal("blob key missing from upload response")
	}

	info, err := h.Blobs.Head(context.Background(), blobKey)
	if err != nil {
		t.Fatalf("uploaded blob missing: %v", err)
	}
	if info.Size != int64(len("a,b,c\n1,2,3\n")) {
		t.Fatalf("blob size: %d", info.Size)
	}

	rec2 := doJSON(t, h, http.MethodGet, "/api/v1/plates/"+id+"/data", nil)
	if rec2.Code != http.StatusOK {
		t.Fatalf("list data: %d", rec2.Code)
	}
	files := decode(t, rec2)["data"].([]any)
	if len(files) != 1 {
		t.Fatalf("data files: %d", len(files))
	}
	file := files[0].(map[string]any)
	if file["blob_key"] != blobKey || file["filename"] != "run.csv" {
		t.Fatalf("attached file: %v", file)
	}
}

func TestDataUploadRequiresFilename(t *testing.T) {
	h := newTestHandler(t)
	id := createPlateHTTP(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plates/"+id+"/data", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDataUploadWithoutBlobStore(t *testing.T) {
	svc := core.NewService(memory.NewStore(nil))
	h := NewHandler(svc)
	plate, _, err := svc.CreatePlate(context.Background(), core.PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("create plate: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/plates/%s/data", plate.ID), strings.NewReader("x"))
	req.Header.Set("X-Data-Filename", "run.csv")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestTreatmentEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/treatments", map[string]any{
		"type":         "compound",
		"reference_db": "chembl",
		"attributes":   map[string]any{"dose_um": 10},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create treatment: %d %s", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)["treatment"].(map[string]any)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("treatment id missing")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/treatments/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get treatment: %d", rec.Code)
	}
	got := decode(t, rec)["treatment"].(map[string]any)
	if got["reference_db"] != "chembl" {
		t.Fatalf("treatment: %v", got)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/treatments", nil)
	if treatments := decode(t, rec)["treatments"].([]any); len(treatments) != 1 {
		t.Fatalf("treatment list: %d", len(treatments))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/treatments/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing treatment: %d", rec.Code)
	}
}

func TestMethodNotAllowedAndUnknownRoutes(t *testing.T) {
	h := newTestHandler(t)
	id := createPlateHTTP(t, h)

	rec := doJSON(t, h, http.MethodPatch, "/api/v1/plates", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("patch plates: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/plates/"+id+"/replicates", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("get replicates: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/plates/"+id+"/bogus", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("bogus subresource: %d", rec.Code)
	}
}

func TestHandlerWithoutService(t *testing.T) {
	h := &Handler{}
	rec := doJSON(t, h, http.MethodGet, "/api/v1/plates", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
