package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ivlev/democam/internal/config"
	"github.com/ivlev/democam/internal/engine"
	"github.com/ivlev/democam/internal/logging"
	"github.com/ivlev/democam/internal/prefstore"
)

const recordingJSON = `{
	"name": "signup",
	"viewport": {"width": 1280, "height": 720},
	"clicks": [{"x": 0.6, "y": 0.4, "t": 1.0}, {"x": "bad"}],
	"moves": [{"x": 0.5, "y": 0.5, "t": 0.0}, {"x": 0.6, "y": 0.4, "t": 0.9}]
}`

func newServer(t *testing.T, withStore bool) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Render.Tail = 2
	project := engine.NewProject(&cfg, logging.Discard())

	var prefs Preferences
	if withStore {
		store, err := prefstore.Open(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { store.Close() })
		prefs = store
	}
	srv := httptest.NewServer(New(project, prefs, logging.Discard()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: response is not json: %v", method, url, err)
		}
	}
	return resp, out
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, false)
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
}

func TestPlanAndLearn(t *testing.T) {
	srv := newServer(t, true)

	// The second click has a string coordinate and fails decoding as a whole.
	resp, _ := do(t, http.MethodPost, srv.URL+"/v1/plan", recordingJSON)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed recording, got %d", resp.StatusCode)
	}

	good := strings.Replace(recordingJSON, `, {"x": "bad"}`, "", 1)
	resp, body := do(t, http.MethodPost, srv.URL+"/v1/plan?profile=alice&learn=true", good)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("plan failed: %d %v", resp.StatusCode, body)
	}
	track, _ := body["track"].(map[string]any)
	if track["name"] != "signup" || track["width"] != float64(1280) {
		t.Errorf("unexpected track %v", track)
	}
	if kfs, _ := track["keyframes"].([]any); len(kfs) < 2 {
		t.Errorf("expected keyframes, got %v", track["keyframes"])
	}
	if body["learned"] != true {
		t.Errorf("expected the session to be learned, got %v", body["learned"])
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/v1/preferences/alice", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get preferences failed: %d", resp.StatusCode)
	}
	learner, _ := body["learner"].(map[string]any)
	if learner["sessions"] != float64(1) {
		t.Errorf("expected one learned session, got %v", learner)
	}
}

func TestPlanTooLong(t *testing.T) {
	srv := newServer(t, true)
	long := strings.Replace(recordingJSON, `, {"x": "bad"}`, "", 1)
	long = strings.Replace(long, `"name": "signup",`, `"name": "signup", "duration": 1e300,`, 1)

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/plan?profile=alice&learn=true", long)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %v", resp.StatusCode, body)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "too long") {
		t.Errorf("unexpected error %v", body)
	}

	// A rejected plan is not learned.
	resp, body = do(t, http.MethodGet, srv.URL+"/v1/preferences/alice", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get preferences failed: %d", resp.StatusCode)
	}
	if learner, _ := body["learner"].(map[string]any); learner["sessions"] != float64(0) {
		t.Errorf("expected no learned sessions, got %v", learner)
	}
}

func TestPutAndDeletePreferences(t *testing.T) {
	srv := newServer(t, true)

	blob := `{"version":1,"sessions":5,"alpha":0.3,"zoom_frequency":8,"preferred_zoom":1.9,"smoothness":0.5}`
	resp, body := do(t, http.MethodPut, srv.URL+"/v1/preferences/bob", blob)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put failed: %d %v", resp.StatusCode, body)
	}
	bias, _ := body["bias"].(map[string]any)
	if z, _ := bias["zoom"].(float64); z <= 1 {
		t.Errorf("a preferred zoom above the reference should raise the zoom bias, got %v", bias)
	}

	resp, _ = do(t, http.MethodPut, srv.URL+"/v1/preferences/bob", `{"version":7}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown version, got %d", resp.StatusCode)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/v1/preferences", "")
	if profiles, _ := body["profiles"].([]any); resp.StatusCode != http.StatusOK || len(profiles) != 1 || profiles[0] != "bob" {
		t.Errorf("unexpected profile list %d %v", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodDelete, srv.URL+"/v1/preferences/bob", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodDelete, srv.URL+"/v1/preferences/bob", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWithoutStore(t *testing.T) {
	srv := newServer(t, false)
	resp, _ := do(t, http.MethodGet, srv.URL+"/v1/preferences/alice", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}

	good := strings.Replace(recordingJSON, `, {"x": "bad"}`, "", 1)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/plan?profile=alice", bytes.NewBufferString(good))
	r, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusOK {
		t.Errorf("planning should work without a store, got %d", r.StatusCode)
	}
}
