package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

func TestSearchStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	store := NewSearchStore().WithClock(func() time.Time { return now })

	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss on empty store, got %v", err)
	}

	products := []domain.Product{{ID: 1, Name: "감자"}}
	if err := store.Set(ctx, "k", products, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	products[0].Name = "mutated"

	got, err := store.Get(ctx, "k")
	if err != nil || len(got) != 1 || got[0].Name != "감자" {
		t.Fatalf("expected cached copy, got %+v %v", got, err)
	}

	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
}

func TestSearchStore_EmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	store := NewSearchStore()

	if err := store.Set(ctx, "empty", nil, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := store.Get(ctx, "empty")
	if err != nil {
		t.Fatalf("expected hit for empty list, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}

func TestCounterStore_IncrementAndCounts(t *testing.T) {
	ctx := context.Background()
	store := NewCounterStore()

	for i := 0; i < 3; i++ {
		if _, err := store.Increment(ctx, 1, 10); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}
	n, _ := store.Increment(ctx, 1, 20)
	if n != 1 {
		t.Fatalf("expected first increment to return 1, got %d", n)
	}

	counts, err := store.Counts(ctx, 1)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if counts[10] != 3 || counts[20] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	empty, _ := store.Counts(ctx, 2)
	if len(empty) != 0 {
		t.Fatalf("expected no counts for unknown client, got %v", empty)
	}
}

func TestTimelineRepository_ChronologicalOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewTimelineRepository()
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	_ = repo.Append(ctx, domain.TimelineEvent{QuotationID: 1, Type: domain.TimelineQuotationCompleted, Occurred: base.Add(2 * time.Minute)})
	_ = repo.Append(ctx, domain.TimelineEvent{QuotationID: 1, Type: domain.TimelineQuotationCreated, Occurred: base})
	_ = repo.Append(ctx, domain.TimelineEvent{QuotationID: 2, Type: domain.TimelineQuotationCreated, Occurred: base})

	events, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(events) != 2 || events[0].Type != domain.TimelineQuotationCreated {
		t.Fatalf("unexpected timeline: %+v", events)
	}
}
