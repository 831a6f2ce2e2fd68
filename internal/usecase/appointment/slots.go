package appointment

import (
	"context"
	"errors"
	"time"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/httperr"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

// ======================================================
// LIST FREE SLOTS
// ======================================================

type ListFreeSlots struct {
	repo domain.Repository
	now  func() time.Time
}

func NewListFreeSlots(repo domain.Repository) *ListFreeSlots {
	return &ListFreeSlots{repo: repo, now: time.Now}
}

// Sem From, lista só os slots que ainda não começaram.
func (uc *ListFreeSlots) Execute(
	ctx context.Context,
	filter domain.SlotFilter,
) ([]domain.FreeSlot, error) {

	if filter.From.IsZero() {
		filter.From = uc.now()
	}
	filter.From = filter.From.UTC()

	return uc.repo.ListFreeSlots(ctx, filter)
}

// ======================================================
// LIST PROVIDER SLOTS
// ======================================================

type ListProviderSlots struct {
	repo domain.Repository
}

func NewListProviderSlots(repo domain.Repository) *ListProviderSlots {
	return &ListProviderSlots{repo: repo}
}

func (uc *ListProviderSlots) Execute(
	ctx context.Context,
	providerID uint,
) ([]models.Slot, error) {

	if _, err := uc.repo.GetProvider(ctx, providerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeProviderNotFound)
		}
		return nil, err
	}

	return uc.repo.ListProviderSlots(ctx, providerID)
}

// ======================================================
// CREATE SLOTS
// ======================================================

type CreateSlotsInput struct {
	ProviderID uint
	Start      time.Time
	End        time.Time
	Duration   time.Duration
}

type CreateSlots struct {
	repo     domain.Repository
	maxSlots int
}

func NewCreateSlots(repo domain.Repository, maxSlots int) *CreateSlots {
	return &CreateSlots{repo: repo, maxSlots: maxSlots}
}

func (uc *CreateSlots) Execute(
	ctx context.Context,
	in CreateSlotsInput,
) ([]models.Slot, error) {

	if _, err := uc.repo.GetProvider(ctx, in.ProviderID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, httperr.ErrBusiness(httperr.CodeProviderNotFound)
		}
		return nil, err
	}

	slots, err := domain.BuildSlots(
		in.ProviderID,
		in.Start.UTC(),
		in.End.UTC(),
		in.Duration,
		uc.maxSlots,
	)
	if err != nil {
		return nil, err
	}

	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		overlap, err := tx.HasSlotOverlap(
			ctx,
			in.ProviderID,
			slots[0].StartTime,
			slots[len(slots)-1].EndTime,
		)
		if err != nil {
			return err
		}
		if overlap {
			return httperr.ErrBusiness(httperr.CodeSlotOverlap)
		}
		return tx.CreateSlots(ctx, slots)
	})
	if httperr.IsExclusionConflict(err) {
		return nil, httperr.ErrBusiness(httperr.CodeSlotOverlap)
	}
	if err != nil {
		return nil, err
	}

	return slots, nil
}
