package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/kathakali/internal/clip"
	"github.com/ayusman/kathakali/internal/config"
	"github.com/ayusman/kathakali/internal/session"
	"github.com/ayusman/kathakali/internal/store"
)

type testEnv struct {
	ts      *httptest.Server
	store   *store.Store
	session *session.Session
	tables  []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := log.New(&bytes.Buffer{}, "", 0)
	cfg := session.DefaultConfig()
	cfg.Logger = logger
	sess := session.New(cfg, nil)
	tuning, err := config.ParseTuning([]byte("drive_legs: false\n"))
	if err != nil {
		t.Fatalf("ParseTuning: %v", err)
	}

	env := &testEnv{store: st, session: sess}
	srv := New(Config{
		Store:   st,
		Session: sess,
		ApplySignTable: func(variant string) error {
			env.tables = append(env.tables, variant)
			mapper, err := tuning.MapperConfig(variant)
			if err != nil {
				return err
			}
			sess.UseMapper(mapper)
			return nil
		},
		ReloadClips: func() error {
			stored, err := st.Clips().List()
			if err != nil {
				return err
			}
			var clips []*clip.Clip
			for _, c := range stored {
				decoded, err := clip.Decode(c.Data)
				if err != nil {
					return err
				}
				clips = append(clips, decoded)
			}
			sess.SetClips(clips)
			return nil
		},
		Logger: logger,
	})
	env.ts = httptest.NewServer(srv)
	t.Cleanup(env.ts.Close)
	return env
}

func readTestdata(t *testing.T, parts ...string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(append([]string{"..", "..", "testdata"}, parts...)...))
	if err != nil {
		t.Fatalf("read testdata: %v", err)
	}
	return data
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.ts.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	return resp
}

func TestAPI_ClipWorkflow(t *testing.T) {
	env := newTestEnv(t)

	// 1. Upload two clips
	var ids []string
	for _, name := range []string{"wave.json", "idle.json"} {
		resp := env.do(t, http.MethodPost, "/api/clips", readTestdata(t, "clips", name))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST /api/clips status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		var created struct {
			ID    string `json:"id"`
			Index int    `json:"index"`
			Name  string `json:"name"`
		}
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()
		if created.Index != len(ids) {
			t.Errorf("created index = %d, want %d", created.Index, len(ids))
		}
		ids = append(ids, created.ID)
	}

	if got := env.session.Status().ClipCount; got != 2 {
		t.Fatalf("session clip count = %d, want 2", got)
	}

	// 2. Duplicate names are rejected
	resp := env.do(t, http.MethodPost, "/api/clips", readTestdata(t, "clips", "wave.json"))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate POST status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	// 3. List
	resp = env.do(t, http.MethodGet, "/api/clips", nil)
	var listed struct {
		Clips []struct {
			Name   string `json:"name"`
			Index  int    `json:"index"`
			Tracks int    `json:"tracks"`
		} `json:"clips"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Clips) != 2 || listed.Clips[0].Name != "wave" || listed.Clips[0].Tracks == 0 {
		t.Fatalf("unexpected list %+v", listed.Clips)
	}

	// 4. Get returns the document
	resp = env.do(t, http.MethodGet, "/api/clips/"+ids[0], nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET clip status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var doc struct {
		Name string `json:"name"`
	}
	json.NewDecoder(resp.Body).Decode(&doc)
	resp.Body.Close()
	if doc.Name != "wave" {
		t.Errorf("document name = %s, want wave", doc.Name)
	}

	// 5. Delete the first; the second moves to index 0
	resp = env.do(t, http.MethodDelete, "/api/clips/"+ids[0], nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	clips := env.session.Clips()
	if len(clips) != 1 || clips[0].Name != "idle" {
		t.Errorf("expected only idle left in the session, got %d clips", len(clips))
	}

	resp = env.do(t, http.MethodGet, "/api/clips/"+ids[0], nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_InvalidClip(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{`not json`, `{"name":"x","tracks":[{"joint":"Tail","times":[0]}]}`, `{"duration":1}`} {
		resp := env.do(t, http.MethodPost, "/api/clips", []byte(body))
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s status = %d, want %d", body, resp.StatusCode, http.StatusBadRequest)
		}
		resp.Body.Close()
	}
}

func TestAPI_PlaybackWorkflow(t *testing.T) {
	env := newTestEnv(t)

	// Without a skeleton the player is unbound.
	resp := env.do(t, http.MethodPost, "/api/clips", readTestdata(t, "clips", "wave.json"))
	resp.Body.Close()
	resp = env.do(t, http.MethodPost, "/api/playback", []byte(`{"index":0}`))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("play unbound status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/rig", readTestdata(t, "skeletons", "mixamo.json"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/rig status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var loaded struct {
		SkeletonID string `json:"skeletonId"`
	}
	json.NewDecoder(resp.Body).Decode(&loaded)
	resp.Body.Close()
	if loaded.SkeletonID == "" {
		t.Error("expected a skeleton id")
	}

	resp = env.do(t, http.MethodPost, "/api/playback", []byte(`{"index":3}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("play out of range status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/playback", []byte(`{"next":true}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("play next status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var status session.Status
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if !status.Playing || status.CurrentClip != 0 {
		t.Errorf("expected clip 0 playing, got %+v", status)
	}

	resp = env.do(t, http.MethodDelete, "/api/playback?expedited=true", nil)
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if status.Playing {
		t.Error("expected playback stopped")
	}

	resp = env.do(t, http.MethodGet, "/api/rig", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/rig status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()
}

func TestAPI_TrackingAndSettings(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/tracking", []byte(`{"enabled":true}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enable status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var status session.Status
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if !status.Enabled || status.State != "waiting" {
		t.Errorf("expected waiting, got %+v", status)
	}

	if v, _ := env.store.Settings().Get(store.SettingTrackingEnabled); v != "true" {
		t.Errorf("tracking setting = %q, want true", v)
	}

	resp = env.do(t, http.MethodPost, "/api/tracking", []byte(`{}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodPut, "/api/settings", []byte(`{"signTable":"passthrough"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT settings status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var settings struct {
		SignTable       string `json:"signTable"`
		TrackingEnabled bool   `json:"trackingEnabled"`
	}
	json.NewDecoder(resp.Body).Decode(&settings)
	resp.Body.Close()
	if settings.SignTable != "passthrough" || !settings.TrackingEnabled {
		t.Errorf("unexpected settings %+v", settings)
	}
	if len(env.tables) != 1 || env.tables[0] != "passthrough" {
		t.Errorf("expected the sign table applied once, got %v", env.tables)
	}

	resp = env.do(t, http.MethodPut, "/api/settings", []byte(`{"signTable":"upside-down"}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown table status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/events?limit=10", nil)
	var events struct {
		Events []store.Event `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&events)
	resp.Body.Close()
	if events.Events == nil {
		t.Error("expected an events array")
	}

	resp = env.do(t, http.MethodGet, "/api/events?limit=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status   string `json:"status"`
		Tracking string `json:"tracking"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" || !strings.EqualFold(health.Tracking, "disabled") {
		t.Errorf("unexpected health %+v", health)
	}
}
