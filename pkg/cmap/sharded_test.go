package cmap

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	m := New[int]()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.ShardCount() != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", m.ShardCount(), DefaultShardCount)
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},  // invalid → default
		{-1, DefaultShardCount}, // invalid → default
		{3, DefaultShardCount},  // not power of 2 → default
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("key1", 100)
	m.Set("key2", 200)

	if val, ok := m.Get("key1"); !ok || val != 100 {
		t.Errorf("Get(key1) = (%d, %v), want (100, true)", val, ok)
	}
	if !m.Has("key2") {
		t.Error("Has(key2) should return true")
	}
	if _, ok := m.Get("nonexistent"); ok {
		t.Error("Get(nonexistent) should return false")
	}

	m.Delete("key1")
	if m.Has("key1") {
		t.Error("key1 should not exist after deletion")
	}
	m.Delete("nonexistent")

	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestGetOrCompute(t *testing.T) {
	m := New[string]()

	v, existed := m.GetOrCompute("k", func() string { return "first" })
	if existed || v != "first" {
		t.Errorf("GetOrCompute = (%q, %v), want (first, false)", v, existed)
	}

	v, existed = m.GetOrCompute("k", func() string {
		t.Error("fn should not be called for an existing key")
		return "second"
	})
	if !existed || v != "first" {
		t.Errorf("GetOrCompute = (%q, %v), want (first, true)", v, existed)
	}
}

func TestGetOrCompute_Concurrent(t *testing.T) {
	m := New[int]()
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.GetOrCompute("shared", func() int {
				return int(calls.Add(1))
			})
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fn called %d times, want 1", calls.Load())
	}
}

func TestPop(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)

	if v, ok := m.Pop("a"); !ok || v != 1 {
		t.Errorf("Pop(a) = (%d, %v), want (1, true)", v, ok)
	}
	if _, ok := m.Pop("a"); ok {
		t.Error("second Pop(a) should return false")
	}
}

func TestDeleteIf(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)

	if m.DeleteIf("a", func(v int) bool { return v == 2 }) {
		t.Error("DeleteIf should not delete when fn returns false")
	}
	if !m.DeleteIf("a", func(v int) bool { return v == 1 }) {
		t.Error("DeleteIf should delete when fn returns true")
	}
	if m.DeleteIf("missing", func(int) bool { return true }) {
		t.Error("DeleteIf on a missing key should return false")
	}
}

func TestRangeAndKeys(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	if sum != 45 {
		t.Errorf("Range sum = %d, want 45", sum)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("Range with early stop visited %d, want 3", visited)
	}

	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 10 || keys[0] != "k0" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestDrain(t *testing.T) {
	m := New[string]()
	m.Set("a", "x")
	m.Set("b", "y")

	got := m.Drain()
	sort.Strings(got)
	if strings.Join(got, ",") != "x,y" {
		t.Errorf("Drain() = %v, want [x y]", got)
	}
	if m.Count() != 0 {
		t.Errorf("Count() after Drain = %d, want 0", m.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 200

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("%d-%d", id, j)
				m.Set(key, j)
				m.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != numGoroutines*numOps {
		t.Errorf("Count() = %d, want %d", m.Count(), numGoroutines*numOps)
	}
}
