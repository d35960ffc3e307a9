package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

const waveJSON = `{"name":"wave","duration":2,"tracks":[]}`

func TestClipRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Clips()

	c := &Clip{Name: "wave", Duration: 2, Data: json.RawMessage(waveJSON)}
	if err := repo.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uuid.Parse(c.ID); err != nil {
		t.Errorf("expected a generated uuid, got %q", c.ID)
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "wave" || got.Duration != 2 || string(got.Data) != waveJSON {
		t.Errorf("unexpected clip %+v", got)
	}

	byName, err := repo.GetByName("wave")
	if err != nil || byName.ID != c.ID {
		t.Errorf("expected lookup by name to find %s, got %v (%v)", c.ID, byName, err)
	}

	c.Name = "wave-fast"
	c.Duration = 1
	if err := repo.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetByID(c.ID)
	if got.Name != "wave-fast" || got.Duration != 1 {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := repo.Delete(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestClipRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).Clips()

	t.Run("get", func(t *testing.T) {
		if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
	t.Run("update", func(t *testing.T) {
		err := repo.Update(&Clip{ID: "missing", Name: "x", Data: json.RawMessage("{}")})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestClipRepository_DuplicateName(t *testing.T) {
	repo := newTestStore(t).Clips()

	if err := repo.Create(&Clip{Name: "idle", Data: json.RawMessage("{}")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(&Clip{Name: "idle", Data: json.RawMessage("{}")}); err == nil {
		t.Error("expected unique name violation")
	}
}

func TestClipRepository_ListKeepsLibraryOrder(t *testing.T) {
	repo := newTestStore(t).Clips()

	names := []string{"wave", "idle", "bow"}
	for _, n := range names {
		if err := repo.Create(&Clip{Name: n, Data: json.RawMessage("{}")}); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}

	clips, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, c := range clips {
		got = append(got, c.Name)
	}
	if diff := cmp.Diff(names, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingSignTable); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unset key, got %v", err)
	}
	if v, err := repo.GetOr(SettingSignTable, "mirrored"); err != nil || v != "mirrored" {
		t.Errorf("expected default, got %q (%v)", v, err)
	}

	if err := repo.Set(SettingSignTable, "passthrough"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(SettingSignTable, "mirrored"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := repo.Set(SettingTrackingEnabled, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	want := map[string]string{SettingSignTable: "mirrored", SettingTrackingEnabled: "true"}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestEventRepository(t *testing.T) {
	repo := newTestStore(t).Events()
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	events := []Event{
		{SessionID: "a", Name: "tracking.waiting", State: "waiting", CreatedAt: at},
		{SessionID: "a", Name: "tracking.live", State: "live", CreatedAt: at.Add(time.Second)},
		{SessionID: "b", Name: "clip.play", State: "disabled", Clip: "wave"},
	}
	for i := range events {
		if err := repo.Record(&events[i]); err != nil {
			t.Fatalf("record: %v", err)
		}
		if events[i].ID == 0 {
			t.Error("expected an id after record")
		}
	}

	recent, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Name != "clip.play" || recent[0].Clip != "wave" {
		t.Errorf("unexpected recent events %+v", recent)
	}

	got, err := repo.BySession("a")
	if err != nil {
		t.Fatalf("by session: %v", err)
	}
	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"tracking.waiting", "tracking.live"}, names); diff != "" {
		t.Errorf("session events mismatch (-want +got):\n%s", diff)
	}
	if !got[0].CreatedAt.Equal(at) {
		t.Errorf("expected created_at %v, got %v", at, got[0].CreatedAt)
	}
}
