package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

func candidates(ids ...string) []domain.RetrievalCandidate {
	out := make([]domain.RetrievalCandidate, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.RetrievalCandidate{
			Unit:           domain.TextUnit{ID: id},
			RetrievalScore: float64(len(ids) - i),
		})
	}
	return out
}

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTLCache(4, time.Minute)
	c.Set("q1", candidates("a", "b"))

	got, ok := c.Get("q1")
	if !ok {
		t.Fatalf("expected hit")
	}
	if len(got) != 2 || got[0].Unit.ID != "a" {
		t.Fatalf("unexpected cached list %+v", got)
	}

	if _, ok := c.Get("q2"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache(4, time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("q1", candidates("a"))

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := c.Get("q1"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestTTLCacheEvictsAtCapacity(t *testing.T) {
	c := NewTTLCache(3, time.Minute)
	base := time.Now()
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("q%d", i), candidates("a"))
	}

	// q0 was written first, so it expires first and is the eviction victim.
	if _, ok := c.Get("q0"); ok {
		t.Fatalf("expected earliest entry to be evicted")
	}
	if _, ok := c.Get("q3"); !ok {
		t.Fatalf("expected newest entry to survive")
	}
}

func TestTTLCacheGetReturnsCopy(t *testing.T) {
	c := NewTTLCache(4, time.Minute)
	c.Set("q1", candidates("a", "b"))

	got, _ := c.Get("q1")
	got[0].RerankScore = 0.99

	again, _ := c.Get("q1")
	if again[0].RerankScore != 0 {
		t.Fatalf("cache entry was mutated through a returned slice")
	}
}
