package digest_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/askhat/neighborbot/internal/digest"
)

func TestRegistrySeedAndAdd(t *testing.T) {
	t.Parallel()

	registry := digest.NewRegistry()
	if registry.Len() != 0 {
		t.Fatalf("new registry length = %d, want 0", registry.Len())
	}

	registry.Seed([]int64{3, 1})
	registry.Add(2)
	registry.Add(2) // duplicate is a no-op

	if registry.Len() != 3 {
		t.Fatalf("registry length = %d, want 3", registry.Len())
	}

	got := registry.Snapshot()
	want := []int64{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot = %v, want %v", got, want)
	}
}

func TestRegistryConcurrentAdd(t *testing.T) {
	t.Parallel()

	registry := digest.NewRegistry()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.Add(int64(i % 10))
		}()
	}
	wg.Wait()

	if registry.Len() != 10 {
		t.Fatalf("registry length = %d, want 10", registry.Len())
	}
}
