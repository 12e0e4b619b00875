package prefstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivlev/democam/internal/intent"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	if _, err := s.Load(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Save(ctx, "alice", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "alice", []byte("two")); err != nil {
		t.Fatal(err)
	}
	blob, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != "two" {
		t.Errorf("expected the latest blob, got %q", blob)
	}
	if err := s.Save(ctx, "", []byte("x")); err == nil {
		t.Error("expected an error for an empty profile")
	}
	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestProfilesOrder(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	base := time.Unix(1_700_000_000, 0)
	for i, p := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		if err := s.Save(ctx, p, []byte(p)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Profiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestLearnerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	l, err := s.LoadLearner(ctx, "new")
	if err != nil {
		t.Fatal(err)
	}
	if l.Sessions != 0 {
		t.Errorf("missing profile should give a fresh learner, got %+v", l)
	}

	l.Observe(intent.Stats{Duration: 120, Episodes: 12, MeanZoom: 1.8, Smoothness: 0.4})
	if err := s.SaveLearner(ctx, "new", l); err != nil {
		t.Fatal(err)
	}
	back, err := s.LoadLearner(ctx, "new")
	if err != nil {
		t.Fatal(err)
	}
	if back.Sessions != 1 || back.Biases() != l.Biases() {
		t.Errorf("learner changed across the store: %+v vs %+v", back, l)
	}

	if err := s.Save(ctx, "broken", []byte("{")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadLearner(ctx, "broken"); err == nil {
		t.Error("expected a decode error for a corrupt blob")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")
	s, err := Open(path, WithMkdirAll(), WithBusyTimeout(500))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(context.Background(), "p", []byte("x")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Load(context.Background(), "p"); err != nil {
		t.Errorf("blob should survive reopening: %v", err)
	}
}
