package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

func TestLineItemRepository_BulkCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewLineItemRepository()

	items := []domain.LineItem{
		{QuotationID: 1, ProductID: 30, Price: 300, Quantity: 1},
		{QuotationID: 1, ProductID: 10, Price: 100, Quantity: 1},
		{QuotationID: 2, ProductID: 10, Price: 200, Quantity: 2},
	}
	if err := repo.BulkCreate(ctx, items); err != nil {
		t.Fatalf("bulk create failed: %v", err)
	}

	listed, err := repo.ListByQuotation(ctx, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 2 || listed[0].ProductID != 30 || listed[1].ProductID != 10 {
		t.Fatalf("expected insertion order [30 10], got %+v", listed)
	}

	err = repo.BulkCreate(ctx, []domain.LineItem{
		{QuotationID: 1, ProductID: 20, Price: 50, Quantity: 1},
		{QuotationID: 1, ProductID: 10, Price: 100, Quantity: 1},
	})
	if !errors.Is(err, domain.ErrQuotationProductAlreadyExists) {
		t.Fatalf("expected ErrQuotationProductAlreadyExists, got %v", err)
	}
	// Элемент до дубликата остаётся вставленным.
	if _, err := repo.Get(ctx, 1, 20); err != nil {
		t.Fatalf("expected partial insert to survive, got %v", err)
	}
}

func TestLineItemRepository_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewLineItemRepository()

	if err := repo.BulkCreate(ctx, []domain.LineItem{{QuotationID: 1, ProductID: 10, Price: 100, Quantity: 1}}); err != nil {
		t.Fatalf("bulk create failed: %v", err)
	}

	if err := repo.Update(ctx, domain.LineItem{QuotationID: 1, ProductID: 10, Price: 500, Quantity: 5}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	item, _ := repo.Get(ctx, 1, 10)
	if item.Price != 500 || item.Quantity != 5 {
		t.Fatalf("unexpected item after update: %+v", item)
	}

	if err := repo.Update(ctx, domain.LineItem{QuotationID: 1, ProductID: 99}); !errors.Is(err, domain.ErrLineItemNotUpdated) {
		t.Fatalf("expected ErrLineItemNotUpdated, got %v", err)
	}

	deleted, err := repo.Delete(ctx, 1, 10)
	if err != nil || !deleted {
		t.Fatalf("expected delete to report removal, got %v %v", deleted, err)
	}
	deleted, err = repo.Delete(ctx, 1, 10)
	if err != nil || deleted {
		t.Fatalf("expected second delete to be a no-op, got %v %v", deleted, err)
	}
	if _, err := repo.Get(ctx, 1, 10); !errors.Is(err, domain.ErrLineItemNotFound) {
		t.Fatalf("expected ErrLineItemNotFound, got %v", err)
	}
}

func TestLineItemRepository_DeleteByQuotation(t *testing.T) {
	ctx := context.Background()
	repo := NewLineItemRepository()

	_ = repo.BulkCreate(ctx, []domain.LineItem{
		{QuotationID: 1, ProductID: 10},
		{QuotationID: 1, ProductID: 20},
		{QuotationID: 2, ProductID: 10},
	})

	if err := repo.DeleteByQuotation(ctx, 1); err != nil {
		t.Fatalf("delete by quotation failed: %v", err)
	}
	if items, _ := repo.ListByQuotation(ctx, 1); len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
	if items, _ := repo.ListByQuotation(ctx, 2); len(items) != 1 {
		t.Fatalf("expected other quotation untouched, got %d", len(items))
	}
}
