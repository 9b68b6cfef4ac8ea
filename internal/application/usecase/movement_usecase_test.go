package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestCursor_IdaYVuelta(t *testing.T) {
	seq, err := usecase.DecodeCursor(usecase.EncodeCursor(42))
	require.NoError(t, err)
	assert.EqualValues(t, 42, seq)

	seq, err = usecase.DecodeCursor("")
	require.NoError(t, err)
	assert.Zero(t, seq)

	for _, bad := range []string{"%%%", "bTo", usecase.EncodeCursor(-1)} {
		_, err := usecase.DecodeCursor(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

// seedMovements deja 1 receipt + n ajustes en SKU-1.
func seedMovements(t *testing.T, f *fixture, n int) {
	t.Helper()
	f.receive(t, "SKU-1", "", 100)
	for i := 0; i < n; i++ {
		_, err := f.uc.AdjustStock(context.Background(), dto.AdjustStockRequest{SKU: "SKU-1", Delta: d(1), Reason: "x"})
		require.NoError(t, err)
	}
}

func TestListMovements_PaginaConCursor(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	ctx := context.Background()
	seedMovements(t, f, 4)

	first, err := f.uc.ListMovements(ctx, "SKU-1", "", dto.CursorPageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "receipt", first.Items[0].Type)
	require.NotEmpty(t, first.NextCursor)

	var seen []int64
	for _, m := range first.Items {
		seen = append(seen, m.Seq)
	}
	cursor := first.NextCursor
	for cursor != "" {
		page, err := f.uc.ListMovements(ctx, "SKU-1", "", dto.CursorPageRequest{Cursor: cursor, Limit: 2})
		require.NoError(t, err)
		for _, m := range page.Items {
			seen = append(seen, m.Seq)
		}
		cursor = page.NextCursor
	}
	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}

func TestListMovements_LimitePorDefectoYMaximo(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	seedMovements(t, f, 1)

	page, err := f.uc.ListMovements(context.Background(), "SKU-1", "", dto.CursorPageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 50, page.Limit)
	assert.Empty(t, page.NextCursor)

	page, err = f.uc.ListMovements(context.Background(), "SKU-1", "", dto.CursorPageRequest{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 200, page.Limit)
}

func TestListMovements_Errores(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	_, err := f.uc.ListMovements(context.Background(), "NOPE", "", dto.CursorPageRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	seedMovements(t, f, 0)
	_, err = f.uc.ListMovements(context.Background(), "SKU-1", "", dto.CursorPageRequest{Cursor: "basura"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovements_IteradorPerezoso(t *testing.T) {
	f := newFixture(t, usecase.Options{})
	seedMovements(t, f, 6)

	var count int
	for m, err := range f.uc.Movements(context.Background(), "SKU-1", "", 0, 2) {
		require.NoError(t, err)
		require.NotNil(t, m)
		count++
	}
	assert.Equal(t, 7, count)

	// Corte anticipado.
	count = 0
	for range f.uc.Movements(context.Background(), "SKU-1", "", 0, 2) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)

	for m, err := range f.uc.Movements(context.Background(), "NOPE", "", 0, 2) {
		assert.Nil(t, m)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}
