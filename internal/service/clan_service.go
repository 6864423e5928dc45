package service

import (
	"context"
	"strings"

	"genealogy/internal/auth"
	"genealogy/internal/database"
	"genealogy/internal/models"
	"genealogy/internal/repository"
	"genealogy/internal/validation"
)

// ClanService handles clan business logic
type ClanService struct {
	base
	clanRepo *repository.ClanRepository
}

// NewClanService creates a new clan service
func NewClanService(db *database.DB, clanRepo *repository.ClanRepository, opts Options) *ClanService {
	return &ClanService{base: newBase(db, opts), clanRepo: clanRepo}
}

func normalizeClan(in *models.ClanInput) {
	in.ClanName = strings.TrimSpace(in.ClanName)
	in.Description = strings.TrimSpace(in.Description)
	in.Locations = models.CleanTags(in.Locations)
	in.Surnames = models.CleanTags(in.Surnames)
}

// Create adds a clan with its locations and surnames. The first of each is
// stored as primary.
func (s *ClanService) Create(ctx context.Context, actor auth.Actor, in *models.ClanInput) (*models.ClanWithDetails, error) {
	if err := authorize(actor, auth.ManageClans); err != nil {
		return nil, err
	}

	if err := invalid(validation.ValidateClan(in)...); err != nil {
		s.record(ctx, "clan", "create", err)
		return nil, err
	}
	normalizeClan(in)

	id, err := s.clanRepo.Add(in, s.stamp(actor))
	if err = s.storageFailure(ctx, "clan.create", err); err != nil {
		s.record(ctx, "clan", "create", err)
		return nil, err
	}

	s.record(ctx, "clan", "create", nil, "clan_id", id)
	clan, err := s.clanRepo.GetWithDetails(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "clan.create", err)
	}
	return clan, nil
}

// Update overwrites a clan and replaces its locations and surnames
func (s *ClanService) Update(ctx context.Context, actor auth.Actor, id int64, in *models.ClanInput) (*models.ClanWithDetails, error) {
	if err := authorize(actor, auth.ManageClans); err != nil {
		return nil, err
	}

	if err := invalid(validation.ValidateClan(in)...); err != nil {
		s.record(ctx, "clan", "update", err)
		return nil, err
	}
	normalizeClan(in)

	ok, err := s.clanRepo.Update(id, in, s.stamp(actor))
	if err = s.storageFailure(ctx, "clan.update", err); err != nil {
		s.record(ctx, "clan", "update", err)
		return nil, err
	}
	if !ok {
		return nil, ErrClanNotFound
	}

	s.record(ctx, "clan", "update", nil, "clan_id", id)
	clan, err := s.clanRepo.GetWithDetails(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "clan.update", err)
	}
	return clan, nil
}

// Delete removes a clan with its locations and surnames. Members of the clan
// are kept with their clan fields cleared.
func (s *ClanService) Delete(ctx context.Context, actor auth.Actor, id int64) error {
	if err := authorize(actor, auth.ManageClans); err != nil {
		return err
	}

	var (
		ok       bool
		detached int
	)
	err := s.db.WithTx(func(tx *database.Tx) error {
		clans := s.clanRepo.WithTx(tx)
		var err error
		if detached, err = clans.CountMembers(id); err != nil {
			return err
		}
		ok, err = clans.Delete(id)
		return err
	})
	if err = s.storageFailure(ctx, "clan.delete", err); err != nil {
		s.record(ctx, "clan", "delete", err)
		return err
	}
	if !ok {
		return ErrClanNotFound
	}

	s.record(ctx, "clan", "delete", nil, "clan_id", id, "members", detached)
	return nil
}

// Get returns a clan with its locations and surnames
func (s *ClanService) Get(ctx context.Context, actor auth.Actor, id int64) (*models.ClanWithDetails, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	clan, err := s.clanRepo.GetWithDetails(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "clan.get", err)
	}
	if clan == nil {
		return nil, ErrClanNotFound
	}
	return clan, nil
}

// List returns every clan with its locations and surnames
func (s *ClanService) List(ctx context.Context, actor auth.Actor) ([]models.ClanWithDetails, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	clans, err := s.clanRepo.GetAllWithDetails()
	if err != nil {
		return nil, s.storageFailure(ctx, "clan.list", err)
	}
	return clans, nil
}

// ListSimple returns the id and name of every clan
func (s *ClanService) ListSimple(ctx context.Context, actor auth.Actor) ([]models.ClanSummary, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	clans, err := s.clanRepo.GetAllSimple()
	if err != nil {
		return nil, s.storageFailure(ctx, "clan.list_simple", err)
	}
	return clans, nil
}
