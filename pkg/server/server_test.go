package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/declutter/pkg/cache"
	"github.com/matzehuels/declutter/pkg/errors"
	"github.com/matzehuels/declutter/pkg/observability"
	"github.com/matzehuels/declutter/pkg/pipeline"
)

// Two markers whose sprites overlap; the first in input order wins.
const sceneAB = `{
  "bounds": {"min_x": 0, "min_y": 0, "max_x": 64, "max_y": 64},
  "groups": [{"icon": 0}],
  "sprites": [{"icon": 0, "size": [8, 8], "anchor": [0.5, 0.5]}],
  "markers": [{"id": "a", "group": 0, "x": 20, "y": 20}, {"id": "b", "group": 0, "x": 24, "y": 20}]
}`

const sceneBA = `{
  "bounds": {"min_x": 0, "min_y": 0, "max_x": 64, "max_y": 64},
  "groups": [{"icon": 0}],
  "sprites": [{"icon": 0, "size": [8, 8], "anchor": [0.5, 0.5]}],
  "markers": [{"id": "b", "group": 0, "x": 24, "y": 20}, {"id": "a", "group": 0, "x": 20, "y": 20}]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(Config{Cache: cache.NewMemoryCache()}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/sessions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d, want 201", resp.StatusCode)
	}
	var body sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body.ID
}

func generalize(t *testing.T, srv *httptest.Server, id, query, body string) (*http.Response, []byte) {
	t.Helper()
	url := srv.URL + "/v1/sessions/" + id + "/generalize"
	if query != "" {
		url += "?" + query
	}
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func visible(t *testing.T, data []byte) []string {
	t.Helper()
	var res pipeline.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode result: %v\n%s", err, data)
	}
	var ids []string
	for _, m := range res.Markers {
		if m.Visible {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestVersion(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var info map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info["version"] == "" {
		t.Errorf("version response = %v, want a version", info)
	}
}

func TestGeneralizeIsStablePerSession(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	resp, body := generalize(t, srv, id, "", sceneAB)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if got := visible(t, body); len(got) != 1 || got[0] != "a" {
		t.Fatalf("first call visible = %v, want [a]", got)
	}

	_, body = generalize(t, srv, id, "", sceneBA)
	if got := visible(t, body); len(got) != 1 || got[0] != "a" {
		t.Errorf("same session visible = %v, want [a]", got)
	}

	other := createSession(t, srv)
	_, body = generalize(t, srv, other, "", sceneBA)
	if got := visible(t, body); len(got) != 1 || got[0] != "b" {
		t.Errorf("other session visible = %v, want [b]", got)
	}
}

func TestGeneralizeQueryOptions(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	resp, body := generalize(t, srv, id, "pan_x=4&pan_y=-2&name=north", sceneAB)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var res pipeline.Result
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatal(err)
	}
	if res.Scene != "north" || res.Bounds.MinX != 4 || res.Bounds.MinY != -2 {
		t.Errorf("result = scene %q bounds %+v", res.Scene, res.Bounds)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/sessions/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, _ = generalize(t, srv, id, "", sceneAB)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("generalize after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	tests := []struct {
		name   string
		id     string
		query  string
		body   string
		status int
		code   errors.Code
	}{
		{"bad id", "not-a-uuid", "", sceneAB, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown session", "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", "", sceneAB, http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"malformed scene", id, "", "{", http.StatusBadRequest, errors.ErrCodeInvalidScene},
		{"invalid scene", id, "", `{"bounds": {"max_x": 10, "max_y": 10}, "groups": []}`, http.StatusBadRequest, errors.ErrCodeInvalidScene},
		{"bad pan", id, "pan_x=left", sceneAB, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad name", id, "name=..", sceneAB, http.StatusBadRequest, errors.ErrCodeInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := generalize(t, srv, tt.id, tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			var e errorResponse
			if err := json.Unmarshal(body, &e); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	s := New(Config{MaxBodyBytes: 16})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	id := createSession(t, srv)

	resp, _ := generalize(t, srv, id, "", sceneAB)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu    sync.Mutex
	paths []string
}

func (h *recordingHooks) OnResponse(_ context.Context, method, path string, status int, _ time.Duration) {
	h.mu.Lock()
	h.paths = append(h.paths, method+" "+path)
	h.mu.Unlock()
}

func TestHTTPHooksUseRoutePatterns(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv := newTestServer(t)
	id := createSession(t, srv)
	generalize(t, srv, id, "", sceneAB)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := "POST /v1/sessions/{id}/generalize"
	for _, p := range hooks.paths {
		if p == want {
			return
		}
	}
	t.Errorf("hook paths = %v, want %q among them", hooks.paths, want)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidBounds, http.StatusBadRequest},
		{errors.ErrCodeSessionNotFound, http.StatusNotFound},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusCode(tt.code); got != tt.want {
			t.Errorf("statusCode(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
