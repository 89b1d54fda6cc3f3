package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/pipeline"
	"github.com/storyloom/storyflow/pkg/store"
)

func testServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	s := New(pipeline.NewRunner(nil, nil, nil), st, nil, ":0")
	return s, st
}

func testEntities() []entity.Entity {
	return []entity.Entity{
		{ID: "el-key", Kind: entity.KindElement, Name: "brass key"},
		{ID: "pz-safe", Kind: entity.KindPuzzle, Name: "wall safe", RequirementIDs: []string{"el-key"}, RewardIDs: []string{"el-will"}},
		{ID: "el-will", Kind: entity.KindElement, Name: "the will"},
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLayoutEndpoint(t *testing.T) {
	s, _ := testServer(t)
	rec := postJSON(t, s.Handler(), "/v1/layout", layoutRequest{Entities: testEntities()})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Nodes) != 3 {
		t.Errorf("got %d nodes, want 3", len(result.Nodes))
	}
	if result.Algorithm == "" {
		t.Error("result has no algorithm")
	}
	for _, e := range result.Edges {
		if e.Virtual {
			t.Errorf("virtual edge %s in response", e.ID)
		}
	}
}

func TestLayoutEndpointBadBody(t *testing.T) {
	s, _ := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/layout", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_FORMAT") {
		t.Errorf("body = %s, want INVALID_FORMAT code", rec.Body.String())
	}
}

func TestQualityEndpoint(t *testing.T) {
	s, _ := testServer(t)
	rec := postJSON(t, s.Handler(), "/v1/quality", map[string]any{
		"nodes": []map[string]any{
			{"id": "a", "kind": "element", "x": 0, "y": 0, "width": 100, "height": 50},
			{"id": "b", "kind": "puzzle", "x": 300, "y": 0, "width": 100, "height": 50},
		},
		"edges": []map[string]any{
			{"id": "e1", "source": "a", "target": "b", "kind": "requirement"},
		},
		"algorithm": "hierarchical",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp qualityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Quality.Overlaps != 0 {
		t.Errorf("overlaps = %d, want 0", resp.Quality.Overlaps)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, _ := testServer(t)
	h := s.Handler()

	put := httptest.NewRequest(http.MethodPut, "/v1/snapshots/manor",
		strings.NewReader(`{"entities":[{"id":"el-1","kind":"element","name":"key"}]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, put)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/snapshots/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "manor") {
		t.Errorf("list status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/snapshots/manor", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "el-1") {
		t.Errorf("get status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/snapshots/manor", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/snapshots/manor", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestSnapshotLayout(t *testing.T) {
	s, st := testServer(t)
	c, _ := entity.FromSlice(testEntities())
	if err := st.Save(t.Context(), "manor", c); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/snapshots/manor/layout", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Nodes) != 3 {
		t.Errorf("got %d nodes, want 3", len(result.Nodes))
	}
}

func TestSnapshotLayoutNotFound(t *testing.T) {
	s, _ := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/snapshots/missing/layout", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRenderDOT(t *testing.T) {
	s, _ := testServer(t)
	rec := postJSON(t, s.Handler(), "/v1/render", map[string]any{
		"nodes": []map[string]any{
			{"id": "a", "kind": "element", "label": "key", "x": 0, "y": 0, "width": 100, "height": 50},
		},
		"edges": []map[string]any{},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "digraph storyflow") {
		t.Errorf("body is not DOT: %s", rec.Body.String())
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	s, _ := testServer(t)
	rec := postJSON(t, s.Handler(), "/v1/render?format=bmp", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
