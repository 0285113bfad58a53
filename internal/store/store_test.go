package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSaveLoadRoundtrip(t *testing.T) {
	st := openTestStore(t)

	in := map[string]int{"a": 1, "b": 2}
	if err := st.SaveJSON(ArtifactArticles, in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var out map[string]int
	if err := st.LoadJSON(ArtifactArticles, &out); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Errorf("unexpected roundtrip result: %v", out)
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	st := openTestStore(t)

	var out map[string]int
	err := st.LoadJSON(ArtifactFinalContent, &out)
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	st := openTestStore(t)

	if err := st.SaveJSON(ArtifactSectorTopicMap, []string{"old"}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := st.SaveJSON(ArtifactSectorTopicMap, []string{"new"}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	var out []string
	if err := st.LoadJSON(ArtifactSectorTopicMap, &out); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != 1 || out[0] != "new" {
		t.Errorf("expected the second write to win, got %v", out)
	}
}

func TestStat(t *testing.T) {
	st := openTestStore(t)

	if err := st.SaveJSON(ArtifactArticles, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	infos, err := st.Stat()
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(infos))
	}
	if infos[0].Name != ArtifactArticles {
		t.Errorf("unexpected artifact name %q", infos[0].Name)
	}
	if infos[0].Size == 0 {
		t.Error("expected non-zero artifact size")
	}
	if infos[0].UpdatedAt == "" {
		t.Error("expected updated_at to be set")
	}
}
