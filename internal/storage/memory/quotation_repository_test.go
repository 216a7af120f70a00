package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

func newQuotation(clientID int64, day int, createdAt time.Time) domain.Quotation {
	inputDate := time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
	return domain.Quotation{
		ClientID:  clientID,
		Name:      domain.QuotationName(inputDate, "client"),
		Status:    domain.QuotationStatusCreated,
		InputDate: inputDate,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestQuotationRepository_CreateAssignsIDAndRejectsDuplicateDate(t *testing.T) {
	ctx := context.Background()
	repo := NewQuotationRepository()
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	first, err := repo.Create(ctx, newQuotation(1, 5, now))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected generated id")
	}

	if _, err := repo.Create(ctx, newQuotation(1, 5, now)); !errors.Is(err, domain.ErrQuotationAlreadyExists) {
		t.Fatalf("expected ErrQuotationAlreadyExists, got %v", err)
	}

	// Другой клиент на ту же дату допустим.
	if _, err := repo.Create(ctx, newQuotation(2, 5, now)); err != nil {
		t.Fatalf("create for another client failed: %v", err)
	}

	exists, err := repo.ExistsForClientDate(ctx, 1, first.InputDate)
	if err != nil || !exists {
		t.Fatalf("expected quotation to exist, got %v %v", exists, err)
	}
	exists, _ = repo.ExistsForClientDate(ctx, 1, first.InputDate.AddDate(0, 0, 1))
	if exists {
		t.Fatal("expected no quotation on the next day")
	}
}

func TestQuotationRepository_UpdateAndSetters(t *testing.T) {
	ctx := context.Background()
	repo := NewQuotationRepository()
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	q, err := repo.Create(ctx, newQuotation(1, 5, now))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	later := now.Add(time.Hour)
	if err := repo.SetTotalPrice(ctx, q.ID, 1500, later); err != nil {
		t.Fatalf("set total failed: %v", err)
	}
	if err := repo.SetStatus(ctx, q.ID, domain.QuotationStatusCompleted, later); err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if err := repo.SetParticulars(ctx, q.ID, "до 9 утра", later); err != nil {
		t.Fatalf("set particulars failed: %v", err)
	}

	got, err := repo.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TotalPrice != 1500 || got.Status != domain.QuotationStatusCompleted || got.Particulars != "до 9 утра" {
		t.Fatalf("unexpected quotation state: %+v", got)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at %v, got %v", later, got.UpdatedAt)
	}

	got.CreatedAt = time.Time{}
	got.Particulars = "перезапись"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	reloaded, _ := repo.Get(ctx, q.ID)
	if !reloaded.CreatedAt.Equal(now) {
		t.Fatal("update must keep created_at")
	}

	missing := got
	missing.ID = 999
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrQuotationNotUpdated) {
		t.Fatalf("expected ErrQuotationNotUpdated, got %v", err)
	}
	if err := repo.SetStatus(ctx, 999, domain.QuotationStatusUpdated, later); !errors.Is(err, domain.ErrQuotationNotFound) {
		t.Fatalf("expected ErrQuotationNotFound, got %v", err)
	}
}

func TestQuotationRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewQuotationRepository()

	q, _ := repo.Create(ctx, newQuotation(1, 5, time.Now()))
	if err := repo.Delete(ctx, q.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, q.ID); !errors.Is(err, domain.ErrQuotationNotFound) {
		t.Fatalf("expected ErrQuotationNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, q.ID); !errors.Is(err, domain.ErrQuotationNotFound) {
		t.Fatalf("expected ErrQuotationNotFound on second delete, got %v", err)
	}
}

func TestQuotationRepository_ListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewQuotationRepository()
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	for day := 1; day <= 5; day++ {
		if _, err := repo.Create(ctx, newQuotation(1, day, base.AddDate(0, 0, day))); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := repo.Create(ctx, newQuotation(2, 1, base)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	items, total, err := repo.List(ctx, domain.QuotationFilter{ClientID: 1, Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].InputDate.Day() != 4 || items[1].InputDate.Day() != 3 {
		t.Fatalf("expected newest first, got days %d and %d", items[0].InputDate.Day(), items[1].InputDate.Day())
	}

	items, total, _ = repo.List(ctx, domain.QuotationFilter{
		CreatedFrom: base.AddDate(0, 0, 2),
		CreatedTo:   base.AddDate(0, 0, 3),
	})
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 quotations in range, got %d", total)
	}

	items, total, _ = repo.List(ctx, domain.QuotationFilter{ClientID: 1, Offset: 10, Limit: 2})
	if total != 5 || len(items) != 0 {
		t.Fatalf("expected empty page past the end, got %d items", len(items))
	}

	_, total, _ = repo.List(ctx, domain.QuotationFilter{NameContains: "2026/03/02"})
	if total != 1 {
		t.Fatalf("expected one quotation by name, got %d", total)
	}
}
