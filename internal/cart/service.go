package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-pack-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-pack-storefront.git/internal/reservation"
	"github.com/google/uuid"
)

// Service: CRUD cart line per owner key. Semua mutasi yg menyentuh qty lewat
// reservation engine dulu supaya counter reserved tetap = qty × kebutuhan per unit.
type Service struct {
	Store   Store
	Engine  *reservation.Engine
	Catalog catalog.Store

	CustomPackPriceCents int
}

// Add: merge-or-create. Request duplikat utk (owner, komposisi) yg sama digabung
// ke line yg ada dgn menjumlah qty — reservation cuma utk delta, tidak dobel.
func (s *Service) Add(ctx context.Context, ownerKey string, in reservation.Intent, packName string) (Line, error) {
	sku := skuFor(in)

	if err := s.Engine.Reserve(ctx, in); err != nil {
		return Line{}, err
	}

	existing, err := s.Store.BySKU(ctx, ownerKey, sku)
	if err == nil {
		newQty := existing.Qty + in.Qty
		if err := s.Store.UpdateQty(ctx, ownerKey, existing.ID, newQty); err != nil {
			// kompensasi: reservation delta tadi dilepas lagi
			_ = s.Engine.Release(ctx, in)
			return Line{}, err
		}
		existing.Qty = newQty
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		_ = s.Engine.Release(ctx, in)
		return Line{}, err
	}

	price, err := s.unitPrice(ctx, in)
	if err != nil {
		_ = s.Engine.Release(ctx, in)
		return Line{}, err
	}
	l := Line{
		ID:             uuid.NewString(),
		OwnerKey:       ownerKey,
		SKU:            sku,
		RecipeID:       in.RecipeID,
		FlavorIDs:      in.FlavorIDs,
		PackName:       packName,
		Qty:            in.Qty,
		UnitPriceCents: price,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.Store.Insert(ctx, l); err != nil {
		_ = s.Engine.Release(ctx, in)
		return Line{}, err
	}
	return l, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, ownerKey, lineID string, newQty int) (Line, error) {
	if newQty < 1 {
		return Line{}, ErrInvalidQty
	}
	l, err := s.Store.Line(ctx, ownerKey, lineID)
	if err != nil {
		return Line{}, err
	}
	if err := s.Engine.AdjustQuantity(ctx, intentFrom(l), l.Qty, newQty); err != nil {
		return Line{}, err
	}
	if err := s.Store.UpdateQty(ctx, ownerKey, lineID, newQty); err != nil {
		// kompensasi: delta reservation dikembalikan, reserved tetap = qty line
		_ = s.Engine.AdjustQuantity(ctx, intentFrom(l), newQty, l.Qty)
		return Line{}, err
	}
	l.Qty = newQty
	return l, nil
}

func (s *Service) Remove(ctx context.Context, ownerKey, lineID string) error {
	l, err := s.Store.Line(ctx, ownerKey, lineID)
	if err != nil {
		return err
	}
	if err := s.Engine.Release(ctx, intentFrom(l)); err != nil {
		return err
	}
	return s.Store.Delete(ctx, ownerKey, lineID)
}

// Clear: release semua line lalu hapus. Gagal release satu line tidak menghentikan
// sisanya — satu referensi flavor rusak jangan memblokir pengosongan cart.
func (s *Service) Clear(ctx context.Context, ownerKey string) []error {
	lines, err := s.Store.Lines(ctx, ownerKey)
	if err != nil {
		return []error{err}
	}
	var warnings []error
	for _, l := range lines {
		if err := s.Engine.Release(ctx, intentFrom(l)); err != nil {
			warnings = append(warnings, fmt.Errorf("release line %s: %w", l.ID, err))
		}
	}
	if err := s.Store.DeleteAll(ctx, ownerKey); err != nil {
		warnings = append(warnings, err)
	}
	return warnings
}

// Consume: hapus line yg ikut jadi order TANPA release — reservation-nya
// pindah kepemilikan ke order dan habis dikonsumsi oleh stock commit.
// frozen = sku -> qty yg dibekukan saat checkout:
//   - line di luar frozen (ditambah setelah checkout) tetap tinggal di cart
//     bersama reservation-nya;
//   - qty line di atas qty beku (dinaikkan setelah checkout) dilepas dulu,
//     cuma porsi beku yg dikonsumsi order.
func (s *Service) Consume(ctx context.Context, ownerKey string, frozen map[string]int) error {
	lines, err := s.Store.Lines(ctx, ownerKey)
	if err != nil {
		return err
	}
	for _, l := range lines {
		frozenQty, ok := frozen[l.SKU]
		if !ok {
			continue
		}
		if l.Qty > frozenQty {
			in := intentFrom(l)
			in.Qty = l.Qty - frozenQty
			if err := s.Engine.Release(ctx, in); err != nil {
				return err
			}
		}
		if err := s.Store.Delete(ctx, ownerKey, l.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *Service) Lines(ctx context.Context, ownerKey string) ([]Line, error) {
	return s.Store.Lines(ctx, ownerKey)
}

func (s *Service) unitPrice(ctx context.Context, in reservation.Intent) (int, error) {
	if in.RecipeID != "" {
		r, err := s.Catalog.Recipe(ctx, in.RecipeID)
		if err != nil {
			return 0, err
		}
		return r.PriceCents, nil
	}
	return s.CustomPackPriceCents, nil
}

func skuFor(in reservation.Intent) string {
	if in.RecipeID != "" {
		return SKUForRecipe(in.RecipeID)
	}
	return SKUForPack(in.FlavorIDs)
}

func intentFrom(l Line) reservation.Intent {
	return reservation.Intent{RecipeID: l.RecipeID, FlavorIDs: l.FlavorIDs, Qty: l.Qty}
}
