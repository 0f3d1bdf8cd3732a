package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LJTian/CompetitorTracker/internal/storage"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewStore(t.TempDir())
	r := gin.New()
	NewServer(store).RegisterRoutes(r)
	return r, store
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	if w := doGet(r, "/health"); w.Code != http.StatusOK {
		t.Fatalf("/health status = %d", w.Code)
	}
}

func TestListAndGetReports(t *testing.T) {
	r, store := newTestRouter(t)
	for _, d := range []string{"2026-10-17", "2026-10-18"} {
		if _, err := store.Save(d, []byte("# report "+d)); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	w := doGet(r, "/api/v1/reports")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var body struct {
		Code string   `json:"code"`
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(body.Data) != 2 || body.Data[0] != "2026-10-18" {
		t.Fatalf("unexpected dates %v", body.Data)
	}

	w = doGet(r, "/api/v1/reports/2026-10-17")
	if w.Code != http.StatusOK || w.Body.String() != "# report 2026-10-17" {
		t.Fatalf("get by date: %d %q", w.Code, w.Body.String())
	}

	w = doGet(r, "/api/v1/reports/latest")
	if w.Code != http.StatusOK || w.Body.String() != "# report 2026-10-18" {
		t.Fatalf("get latest: %d %q", w.Code, w.Body.String())
	}
}

func TestGetReportErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		path string
		want int
	}{
		{"/api/v1/reports/latest", http.StatusNotFound},
		{"/api/v1/reports/2026-01-01", http.StatusNotFound},
		{"/api/v1/reports/not-a-date", http.StatusBadRequest},
	}
	for _, c := range cases {
		if w := doGet(r, c.path); w.Code != c.want {
			t.Errorf("GET %s = %d, want %d", c.path, w.Code, c.want)
		}
	}
}
