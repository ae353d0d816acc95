package pocketflow_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/agentstation/pocketflow"
)

func TestStore(t *testing.T) {
	initial := map[string]any{"url": "abc"}
	store := pocketflow.NewStore(initial)

	t.Run("copies initial contents", func(t *testing.T) {
		initial["url"] = "changed"
		if got := store.GetOr("url", ""); got != "abc" {
			t.Errorf("url = %v, want abc", got)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		store.Set("title", "X")
		val, ok := store.Get("title")
		if !ok || val != "X" {
			t.Errorf("Get(title) = %v, %v; want X, true", val, ok)
		}
	})

	t.Run("absent key yields default", func(t *testing.T) {
		if got := store.GetOr("missing", "fallback"); got != "fallback" {
			t.Errorf("GetOr(missing) = %v, want fallback", got)
		}
		if _, ok := store.Get("missing"); ok {
			t.Error("Get(missing) reported existence")
		}
	})

	t.Run("delete", func(t *testing.T) {
		store.Set("tmp", 1)
		store.Delete("tmp")
		if _, ok := store.Get("tmp"); ok {
			t.Error("tmp should be deleted")
		}
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		snap := store.Snapshot()
		snap["url"] = "mutated"
		if got := store.GetOr("url", ""); got != "abc" {
			t.Errorf("url = %v after snapshot mutation, want abc", got)
		}
		if len(snap) != store.Len() {
			t.Errorf("len(snapshot) = %d, Len() = %d", len(snap), store.Len())
		}
	})
}

func TestLookup(t *testing.T) {
	store := pocketflow.NewStore(map[string]any{"count": 3, "name": "pocket"})

	tests := []struct {
		name    string
		key     string
		def     int
		want    int
		wantErr bool
	}{
		{"present", "count", 0, 3, false},
		{"absent uses default", "missing", 42, 42, false},
		{"wrong type", "name", 7, 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pocketflow.Lookup(store, tt.key, tt.def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Lookup() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := pocketflow.NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			store.Set(key, i)
			store.GetOr(key, nil)
		}(i)
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Errorf("Len() = %d, want 50", store.Len())
	}
}
