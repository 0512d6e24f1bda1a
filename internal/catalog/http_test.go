package catalog_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"FileCatalog/internal/auth"
	"FileCatalog/internal/catalog"
)

const (
	testSecret   = "test-secret-test-secret-test-secret"
	testPassword = "password123"
)

func newCatalogTS(t *testing.T) (*httptest.Server, *catalog.FileStore) {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	store := catalog.NewFileStore(filepath.Join(t.TempDir(), "products.json"))
	h := catalog.NewHandler(&catalog.Server{Store: store, Log: zap.NewNop()}, catalog.HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "catalog",
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   "scrape",
		Auth: &auth.Server{
			Log:   zap.NewNop(),
			Admin: auth.NewAdmin("admin", hash),
			JWT:   auth.NewTokenMaker(testSecret),
		},
		LoginLimitPerMin: 100,
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func login(t *testing.T, baseURL string) map[string]string {
	t.Helper()

	resp, raw := doJSON(t, http.MethodPost, baseURL+"/auth/login", map[string]any{
		"user":     "admin",
		"password": testPassword,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, raw)
	}

	var lr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &lr); err != nil || lr.AccessToken == "" {
		t.Fatalf("decode login: %v body=%s", err, raw)
	}
	return map[string]string{"Authorization": "Bearer " + lr.AccessToken}
}

var camiseta = map[string]any{
	"title":       "Camiseta Argentina",
	"description": "Camiseta original",
	"price":       40000,
	"thumbnail":   "Sin imagen",
	"code":        "123456",
	"stock":       50,
}

func TestCatalog_CRUD(t *testing.T) {
	ts, store := newCatalogTS(t)
	admin := login(t, ts.URL)

	{
		resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list status=%d", resp.StatusCode)
		}
		var got []catalog.Product
		if err := json.Unmarshal(raw, &got); err != nil || got == nil || len(got) != 0 {
			t.Fatalf("want empty array, got %s (err=%v)", raw, err)
		}
	}

	var created catalog.Product
	{
		resp, raw := doJSON(t, http.MethodPost, ts.URL+"/products", camiseta, admin)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", resp.StatusCode, raw)
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.ID != 1 || created.Code != "123456" || created.Price != 40000 {
			t.Fatalf("created=%+v", created)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products/1", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("get status=%d body=%s", resp.StatusCode, raw)
		}
		var got catalog.Product
		if err := json.Unmarshal(raw, &got); err != nil || got != created {
			t.Fatalf("got=%+v want=%+v err=%v", got, created, err)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodPatch, ts.URL+"/products/1", map[string]any{"price": 50000}, admin)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("update status=%d body=%s", resp.StatusCode, raw)
		}
		var got catalog.Product
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := created
		want.Price = 50000
		if got != want {
			t.Fatalf("got=%+v want=%+v", got, want)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodDelete, ts.URL+"/products/1", nil, admin)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("delete status=%d body=%s", resp.StatusCode, raw)
		}
		if n := len(store.List()); n != 0 {
			t.Fatalf("store size=%d after delete", n)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products/1", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("get after delete status=%d body=%s", resp.StatusCode, raw)
		}
	}
}

func TestCatalog_CreateErrors(t *testing.T) {
	ts, store := newCatalogTS(t)
	admin := login(t, ts.URL)

	if resp, raw := doJSON(t, http.MethodPost, ts.URL+"/products", camiseta, admin); resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed status=%d body=%s", resp.StatusCode, raw)
	}

	missing := map[string]any{}
	for k, v := range camiseta {
		missing[k] = v
	}
	missing["code"] = "other"
	missing["stock"] = 0

	testCases := []struct {
		name   string
		body   any
		status int
	}{
		{name: "duplicate code", body: camiseta, status: http.StatusConflict},
		{name: "zero stock", body: missing, status: http.StatusBadRequest},
		{name: "malformed json", body: `{"title":`, status: http.StatusBadRequest},
		{name: "unknown field", body: map[string]any{"title": "A", "color": "red"}, status: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := doJSON(t, http.MethodPost, ts.URL+"/products", tc.body, admin)
			if resp.StatusCode != tc.status {
				t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, tc.status, raw)
			}
			if n := len(store.List()); n != 1 {
				t.Fatalf("store size=%d, want 1", n)
			}
		})
	}
}

func TestCatalog_BadAndMissingIDs(t *testing.T) {
	ts, _ := newCatalogTS(t)
	admin := login(t, ts.URL)

	testCases := []struct {
		method string
		path   string
		body   any
		status int
	}{
		{http.MethodGet, "/products/abc", nil, http.StatusBadRequest},
		{http.MethodGet, "/products/9", nil, http.StatusNotFound},
		{http.MethodPatch, "/products/9", map[string]any{"price": 1}, http.StatusNotFound},
		{http.MethodPatch, "/products/9", map[string]any{}, http.StatusBadRequest},
		{http.MethodDelete, "/products/9", nil, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, raw := doJSON(t, tc.method, ts.URL+tc.path, tc.body, admin)
			if resp.StatusCode != tc.status {
				t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, tc.status, raw)
			}
		})
	}
}

func TestCatalog_MutationsRequireAdmin(t *testing.T) {
	ts, store := newCatalogTS(t)

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/products", camiseta, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status=%d body=%s", resp.StatusCode, raw)
	}

	viewer, err := auth.NewTokenMaker(testSecret).New("someone", "viewer", time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	resp, raw = doJSON(t, http.MethodDelete, ts.URL+"/products/1", nil, map[string]string{
		"Authorization": "Bearer " + viewer,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("viewer status=%d body=%s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodPost, ts.URL+"/auth/login", map[string]any{
		"user":     "admin",
		"password": "wrong-password",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status=%d body=%s", resp.StatusCode, raw)
	}

	if n := len(store.List()); n != 0 {
		t.Fatalf("store size=%d", n)
	}
}

func TestCatalog_HealthAndMetrics(t *testing.T) {
	ts, _ := newCatalogTS(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		if resp, _ := doJSON(t, http.MethodGet, ts.URL+path, nil, nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status=%d", path, resp.StatusCode)
		}
	}

	if resp, _ := doJSON(t, http.MethodGet, ts.URL+"/metrics", nil, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("metrics without token status=%d", resp.StatusCode)
	}

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/metrics", nil, map[string]string{"Authorization": "Bearer scrape"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status=%d", resp.StatusCode)
	}
	if !bytes.Contains(raw, []byte("http_requests_total")) {
		t.Fatalf("metrics body missing http_requests_total")
	}
}

func TestCatalog_ReadOnlyWithoutAuth(t *testing.T) {
	store := catalog.NewFileStore(filepath.Join(t.TempDir(), "products.json"))
	ts := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: store}, catalog.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "catalog",
	}))
	t.Cleanup(ts.Close)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/products", camiseta, nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}
