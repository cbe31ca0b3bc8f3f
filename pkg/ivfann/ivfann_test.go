package ivfann

import (
	"path/filepath"
	"testing"

	"github.com/ivfann/ivfann/internal/vecstore"
)

func fillStore(t *testing.T, kind vecstore.Kind, rows [][]float32) *vecstore.Store {
	t.Helper()
	d := len(rows[0])
	store, err := vecstore.New(kind, d, len(rows))
	if err != nil {
		t.Fatalf("vecstore.New: %v", err)
	}
	for i, row := range rows {
		if err := store.AddVector(i, row); err != nil {
			t.Fatalf("AddVector(%d): %v", i, err)
		}
	}
	return store
}

func clusteredRows(n int) [][]float32 {
	rows := make([][]float32, n)
	centers := [][]float32{{0, 0}, {50, 50}, {100, 0}}
	for i := range rows {
		c := centers[i%len(centers)]
		rows[i] = []float32{c[0] + float32(i%3), c[1] + float32(i%5)}
	}
	return rows
}

func TestBuildThenSearchFindsNearbyPoint(t *testing.T) {
	rows := clusteredRows(120)
	store := fillStore(t, vecstore.OffHeap, rows)

	cfg := DefaultConfig()
	cfg.SampleFraction = 0.5
	cfg.ProbeFraction = 1.0
	idx := New(cfg)
	if err := idx.Build(store); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer idx.Close()

	ids, err := idx.Search([]float32{0, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 5 {
		t.Fatalf("got %d ids, want 5", len(ids))
	}
	if ids[0]%3 != 0 {
		t.Errorf("closest result %d is not from the cluster centered at (0,0)", ids[0])
	}
}

func TestSearchBeforeBuildFails(t *testing.T) {
	idx := New(nil)
	if _, err := idx.Search([]float32{0, 0}, 1); err == nil {
		t.Fatal("expected an error searching an unbuilt index")
	}
}

func TestStatsBeforeBuildFails(t *testing.T) {
	idx := New(nil)
	if _, err := idx.Stats(); err == nil {
		t.Fatal("expected an error calling Stats on an unbuilt index")
	}
}

func TestWriteThenReadProducesEquivalentSearchResults(t *testing.T) {
	rows := clusteredRows(90)
	store := fillStore(t, vecstore.OffHeap, rows)

	cfg := DefaultConfig()
	cfg.SampleFraction = 0.5
	cfg.ProbeFraction = 1.0
	built := New(cfg)
	if err := built.Build(store); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer built.Close()

	base := filepath.Join(t.TempDir(), "idx")
	if err := built.Write(base); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := Read(base, cfg)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer loaded.Close()

	queries := [][]float32{{0, 0}, {50, 50}, {100, 0}}
	for _, q := range queries {
		want, err := built.Search(q, 4)
		if err != nil {
			t.Fatalf("built.Search: %v", err)
		}
		got, err := loaded.Search(q, 4)
		if err != nil {
			t.Fatalf("loaded.Search: %v", err)
		}
		if len(want) != len(got) {
			t.Fatalf("result length mismatch for query %v: built=%d loaded=%d", q, len(want), len(got))
		}
		for i := range want {
			if want[i] != got[i] {
				t.Errorf("query %v: result %d mismatch: built=%d loaded=%d", q, i, want[i], got[i])
			}
		}
	}
}

func TestStatsReportsClusterCount(t *testing.T) {
	rows := clusteredRows(60)
	store := fillStore(t, vecstore.OffHeap, rows)

	idx := New(DefaultConfig())
	if err := idx.Build(store); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer idx.Close()

	s, err := idx.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s == "" {
		t.Error("expected a non-empty stats summary")
	}
}
