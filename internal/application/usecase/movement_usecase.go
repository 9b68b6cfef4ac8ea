package usecase

import (
	"context"
	"encoding/base64"
	"iter"
	"strconv"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

const (
	cursorPrefix    = "m:"
	maxMovementPage = 200
)

// EncodeCursor cursor opaco que apunta después del movimiento con el seq dado.
func EncodeCursor(seq int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(seq, 10)))
}

// DecodeCursor interpreta el cursor; vacío = desde el inicio.
func DecodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || !strings.HasPrefix(string(raw), cursorPrefix) {
		return 0, domain.ErrInvalidInput
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(string(raw), cursorPrefix), 10, 64)
	if err != nil || seq < 0 {
		return 0, domain.ErrInvalidInput
	}
	return seq, nil
}

// ListMovements página del ledger de un ítem en orden de registro. Reanudable con NextCursor.
func (uc *StockUseCase) ListMovements(ctx context.Context, sku, location string, page dto.CursorPageRequest) (*dto.MovementPageResponse, error) {
	page.DefaultPage()
	if page.Limit > maxMovementPage {
		page.Limit = maxMovementPage
	}
	after, err := DecodeCursor(page.Cursor)
	if err != nil {
		return nil, err
	}
	item, err := uc.item(ctx, sku, location)
	if err != nil {
		return nil, err
	}
	list, err := uc.movements.ListByItem(ctx, item.ID, after, page.Limit+1)
	if err != nil {
		return nil, uc.readErr("list_movements", err)
	}
	out := &dto.MovementPageResponse{Items: make([]dto.MovementResponse, 0, len(list)), Limit: page.Limit}
	if len(list) > page.Limit {
		list = list[:page.Limit]
		out.NextCursor = EncodeCursor(list[len(list)-1].Seq)
	}
	for _, m := range list {
		out.Items = append(out.Items, toMovementResponse(m))
	}
	return out, nil
}

// Movements recorre el ledger completo de un ítem de forma perezosa, pidiendo páginas de pageSize.
// Se detiene al primer error, que se entrega como último elemento.
func (uc *StockUseCase) Movements(ctx context.Context, sku, location string, afterSeq int64, pageSize int) iter.Seq2[*entity.Movement, error] {
	if pageSize <= 0 || pageSize > maxMovementPage {
		pageSize = 100
	}
	return func(yield func(*entity.Movement, error) bool) {
		item, err := uc.item(ctx, sku, location)
		if err != nil {
			yield(nil, err)
			return
		}
		cursor := afterSeq
		for {
			list, err := uc.movements.ListByItem(ctx, item.ID, cursor, pageSize)
			if err != nil {
				yield(nil, uc.readErr("iterate_movements", err))
				return
			}
			for _, m := range list {
				if !yield(m, nil) {
					return
				}
				cursor = m.Seq
			}
			if len(list) < pageSize {
				return
			}
		}
	}
}

func (uc *StockUseCase) item(ctx context.Context, sku, location string) (*entity.InventoryItem, error) {
	key := uc.key(sku, location)
	if !key.Valid() {
		return nil, domain.ErrInvalidInput
	}
	it, err := uc.items.Get(ctx, key)
	if err != nil {
		return nil, uc.readErr("get_item", err)
	}
	return it, nil
}
