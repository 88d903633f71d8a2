// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package cache

import (
	"reflect"
	"sync"
	"testing"
)

func TestLRU_PutPeek(t *testing.T) {
	c := NewLRU[int]("test", 3)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if v, ok := c.Peek("b"); !ok || v != 2 {
		t.Errorf("Expected b=2, got %d (%v)", v, ok)
	}
	if c.Len() != 3 {
		t.Errorf("Expected len 3, got %d", c.Len())
	}
	if !reflect.DeepEqual(c.Keys(), []string{"a", "b", "c"}) {
		t.Errorf("Expected oldest-first [a b c], got %v", c.Keys())
	}
}

func TestLRU_PeekDoesNotReorder(t *testing.T) {
	c := NewLRU[int]("test", 2)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Peek("a")
	c.Put("c", 3)

	if _, ok := c.Peek("a"); ok {
		t.Error("Expected 'a' evicted; Peek must not refresh it")
	}
	if !reflect.DeepEqual(c.Keys(), []string{"b", "c"}) {
		t.Errorf("Expected [b c], got %v", c.Keys())
	}
}

func TestLRU_PutMovesToNewest(t *testing.T) {
	c := NewLRU[int]("test", 3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	c.Put("a", 10)
	evicted := c.Put("d", 4)

	if evicted != 1 {
		t.Errorf("Expected 1 eviction, got %d", evicted)
	}
	if !reflect.DeepEqual(c.Keys(), []string{"c", "a", "d"}) {
		t.Errorf("Expected [c a d], got %v", c.Keys())
	}
	if v, _ := c.Peek("a"); v != 10 {
		t.Errorf("Expected a=10, got %d", v)
	}
}

func TestLRU_ReplaceKeepsPosition(t *testing.T) {
	c := NewLRU[int]("test", 3)
	c.Put("a", 1)
	c.Put("b", 2)

	if !c.Replace("a", 5) {
		t.Fatal("Expected Replace to find 'a'")
	}
	if c.Replace("zzz", 1) {
		t.Error("Expected Replace on missing key to return false")
	}
	if !reflect.DeepEqual(c.Keys(), []string{"a", "b"}) {
		t.Errorf("Expected order unchanged [a b], got %v", c.Keys())
	}
	if v, _ := c.Peek("a"); v != 5 {
		t.Errorf("Expected a=5, got %d", v)
	}
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c := NewLRU[string]("test", 3)
	c.Put("a", "x")
	c.Put("b", "y")

	if !c.Remove("a") {
		t.Error("Expected Remove to report presence")
	}
	if c.Remove("a") {
		t.Error("Expected second Remove to report absence")
	}
	c.Clear()
	if c.Len() != 0 || len(c.Keys()) != 0 {
		t.Errorf("Expected empty cache, got %v", c.Keys())
	}
}

func TestLRU_Each(t *testing.T) {
	c := NewLRU[int]("test", 5)
	c.Put("a", 1)
	c.Put("b", 2)

	var keys []string
	sum := 0
	c.Each(func(k string, v int) {
		keys = append(keys, k)
		sum += v
	})
	if !reflect.DeepEqual(keys, []string{"a", "b"}) || sum != 3 {
		t.Errorf("Expected [a b] sum 3, got %v sum %d", keys, sum)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int]("test", 50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := string(rune('a' + (n+j)%26))
				c.Put(key, j)
				c.Peek(key)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Errorf("Expected at most 50 entries, got %d", c.Len())
	}
}
