package calendar

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestQueryCache_HitAndExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)}
	cache := newQueryCache(10*time.Second, 4, clock.now)

	events := []Event{{ID: "evt-1"}}
	warnings := []Warning{{Type: WarningStoreUnavailable, Message: "degraded"}}
	cache.Store("k", events, warnings)

	gotEvents, gotWarnings, ok := cache.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(gotEvents) != 1 || gotEvents[0].ID != "evt-1" {
		t.Fatalf("unexpected cached events: %v", gotEvents)
	}
	if len(gotWarnings) != 1 {
		t.Fatalf("unexpected cached warnings: %v", gotWarnings)
	}

	clock.advance(11 * time.Second)
	if _, _, ok := cache.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestQueryCache_ReturnsCopies(t *testing.T) {
	t.Parallel()

	cache := newQueryCache(time.Minute, 4, time.Now)
	cache.Store("k", []Event{{ID: "evt-1", Title: "original"}}, nil)

	first, _, _ := cache.Get("k")
	first[0].Title = "mutated"

	second, _, _ := cache.Get("k")
	if second[0].Title != "original" {
		t.Fatal("cached events share backing storage with callers")
	}
}

func TestQueryCache_ClonesReferenceFields(t *testing.T) {
	t.Parallel()

	cache := newQueryCache(time.Minute, 4, time.Now)
	cache.Store("k", []Event{{
		ID:          "evt-1",
		AttendeeIDs: []string{"student-1"},
		Attachments: []Attachment{{ID: "att-1", Name: "guía.pdf"}},
		Metadata:    map[string]string{"room": "lab-1"},
	}}, nil)

	first, _, _ := cache.Get("k")
	first[0].AttendeeIDs[0] = "intruder"
	first[0].Attachments[0].Name = "mutated"
	first[0].Metadata["room"] = "mutated"

	second, _, _ := cache.Get("k")
	if second[0].AttendeeIDs[0] != "student-1" {
		t.Fatal("attendee slice shared between cache and caller")
	}
	if second[0].Attachments[0].Name != "guía.pdf" {
		t.Fatal("attachment slice shared between cache and caller")
	}
	if second[0].Metadata["room"] != "lab-1" {
		t.Fatal("metadata map shared between cache and caller")
	}
}

func TestQueryCache_Invalidate(t *testing.T) {
	t.Parallel()

	cache := newQueryCache(time.Minute, 4, time.Now)
	cache.Store("k", []Event{{ID: "evt-1"}}, nil)
	cache.Invalidate()
	if _, _, ok := cache.Get("k"); ok {
		t.Fatal("expected invalidation to drop entries")
	}
}

func TestQueryCache_BoundedSize(t *testing.T) {
	t.Parallel()

	cache := newQueryCache(time.Minute, 2, time.Now)
	cache.Store("a", []Event{{ID: "a"}}, nil)
	cache.Store("b", []Event{{ID: "b"}}, nil)
	cache.Store("c", []Event{{ID: "c"}}, nil)

	hits := 0
	for _, key := range []string{"a", "b", "c"} {
		if _, _, ok := cache.Get(key); ok {
			hits++
		}
	}
	if hits > 2 {
		t.Fatalf("cache holds %d entries, max is 2", hits)
	}
}

func TestBuildQueryCacheKey_DistinguishesPrincipals(t *testing.T) {
	t.Parallel()

	base := QuerySpec{Principal: Principal{UserID: "u1", Role: RoleStudent}}
	other := QuerySpec{Principal: Principal{UserID: "u2", Role: RoleStudent}}
	if buildQueryCacheKey(base) == buildQueryCacheKey(other) {
		t.Fatal("cache keys must differ per principal")
	}

	elevated := base
	elevated.Principal.Role = RoleAdmin
	if buildQueryCacheKey(base) == buildQueryCacheKey(elevated) {
		t.Fatal("cache keys must differ per role")
	}
}

func TestBuildQueryCacheKey_CategoryOrderIrrelevant(t *testing.T) {
	t.Parallel()

	a := QuerySpec{Categories: []Category{CategoryExam, CategoryHoliday}}
	b := QuerySpec{Categories: []Category{CategoryHoliday, CategoryExam}}
	if buildQueryCacheKey(a) != buildQueryCacheKey(b) {
		t.Fatal("category order must not change the cache key")
	}
}
