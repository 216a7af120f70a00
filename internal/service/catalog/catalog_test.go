package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/qms/internal/domain"
	"github.com/vladislavdragonenkov/qms/internal/storage/memory"
)

func TestService_CreateAndGet(t *testing.T) {
	svc := NewService(memory.NewProductCatalog(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{Name: " 감자 ", Category: "채소", Unit: "kg", UnitPrice: 3000})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "감자", created.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(3000), got.UnitPrice)

	_, err = svc.Get(ctx, created.ID+100)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestService_CreateRejectsInvalidProduct(t *testing.T) {
	svc := NewService(memory.NewProductCatalog(), nil)

	_, err := svc.Create(context.Background(), domain.Product{Name: "  ", UnitPrice: -1})
	assert.ErrorIs(t, err, domain.ErrFieldRequired)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestService_UpdatePrice(t *testing.T) {
	svc := NewService(memory.NewProductCatalog(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{Name: "양파", UnitPrice: 1000})
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePrice(ctx, created.ID, 0))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UnitPrice)

	assert.ErrorIs(t, svc.UpdatePrice(ctx, created.ID, -5), domain.ErrInvalidPrice)
	assert.ErrorIs(t, svc.UpdatePrice(ctx, 999, 100), domain.ErrProductNotFound)
}

func TestService_ByCategory(t *testing.T) {
	svc := NewService(memory.NewProductCatalog(), nil)
	ctx := context.Background()

	for _, p := range []domain.Product{
		{Name: "감자", Category: "채소", UnitPrice: 1},
		{Name: "사과", Category: "과일", UnitPrice: 1},
		{Name: "양파", Category: "채소", UnitPrice: 1},
	} {
		_, err := svc.Create(ctx, p)
		require.NoError(t, err)
	}

	vegetables, err := svc.ByCategory(ctx, "채소")
	require.NoError(t, err)
	require.Len(t, vegetables, 2)
	assert.Equal(t, "감자", vegetables[0].Name)
	assert.Equal(t, "양파", vegetables[1].Name)

	_, err = svc.ByCategory(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrFieldRequired)
}

func TestService_CreateStoresComposedName(t *testing.T) {
	svc := NewService(memory.NewProductCatalog(), nil)

	decomposed := "\u1100\u1161\u11b7\u110c\u1161"
	created, err := svc.Create(context.Background(), domain.Product{Name: " " + decomposed + " ", UnitPrice: 1000})
	require.NoError(t, err)
	assert.Equal(t, "\uac10\uc790", created.Name)
}

func TestService_Update(t *testing.T) {
	svc := NewService(memory.NewProductCatalog(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{Name: "양파", Category: "채소", Unit: "kg", UnitPrice: 1000})
	require.NoError(t, err)

	name, unit, price := " 적양파 ", "box", int64(1800)
	updated, err := svc.Update(ctx, created.ID, domain.ProductUpdate{Name: &name, Unit: &unit, UnitPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "적양파", updated.Name)
	assert.Equal(t, "box", updated.Unit)
	assert.Equal(t, "채소", updated.Category, "omitted fields stay as they were")
	assert.Equal(t, int64(1800), updated.UnitPrice)

	same, err := svc.Update(ctx, created.ID, domain.ProductUpdate{})
	require.NoError(t, err)
	assert.Equal(t, updated.Name, same.Name)

	negative := int64(-5)
	_, err = svc.Update(ctx, created.ID, domain.ProductUpdate{UnitPrice: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	blank := "  "
	_, err = svc.Update(ctx, created.ID, domain.ProductUpdate{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrFieldRequired)

	_, err = svc.Update(ctx, created.ID+100, domain.ProductUpdate{UnitPrice: &price})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestService_Delete(t *testing.T) {
	svc := NewService(memory.NewProductCatalog(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{Name: "대파", UnitPrice: 700})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrProductNotFound)
}
