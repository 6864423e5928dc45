package service

import (
	"context"

	"genealogy/internal/auth"
	"genealogy/internal/database"
	"genealogy/internal/models"
	"genealogy/internal/repository"
	"genealogy/internal/validation"
)

// MarriageService handles marriage business logic
type MarriageService struct {
	base
	marriageRepo *repository.MarriageRepository
	memberRepo   *repository.MemberRepository
}

// NewMarriageService creates a new marriage service
func NewMarriageService(
	db *database.DB,
	marriageRepo *repository.MarriageRepository,
	memberRepo *repository.MemberRepository,
	opts Options,
) *MarriageService {
	return &MarriageService{base: newBase(db, opts), marriageRepo: marriageRepo, memberRepo: memberRepo}
}

// checkSpouses reports linked spouses that do not exist
func (s *MarriageService) checkSpouses(in *models.MarriageInput) ([]string, error) {
	msgs := []string{}
	sides := []struct {
		label string
		id    *int64
	}{{"Husband", in.HusbandID}, {"Wife", in.WifeID}}

	for _, side := range sides {
		if side.id == nil {
			continue
		}
		m, err := s.memberRepo.Find(*side.id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			msgs = append(msgs, side.label+" does not exist")
		}
	}
	return msgs, nil
}

func (s *MarriageService) validate(in *models.MarriageInput) error {
	validation.NormalizeMarriage(in)
	msgs := validation.ValidateMarriage(in)
	refMsgs, err := s.checkSpouses(in)
	if err != nil {
		return err
	}
	return invalid(append(msgs, refMsgs...)...)
}

// Create adds a marriage. Without an explicit order it takes the next order
// of the husband, or of the wife when the husband is not a member.
func (s *MarriageService) Create(ctx context.Context, actor auth.Actor, in *models.MarriageInput) (*models.MarriageWithNames, error) {
	if err := authorize(actor, auth.ManageMarriages); err != nil {
		return nil, err
	}

	if err := s.storageFailure(ctx, "marriage.create", s.validate(in)); err != nil {
		s.record(ctx, "marriage", "create", err)
		return nil, err
	}

	id, err := s.marriageRepo.Add(in, s.stamp(actor))
	if err = s.storageFailure(ctx, "marriage.create", err); err != nil {
		s.record(ctx, "marriage", "create", err)
		return nil, err
	}

	s.record(ctx, "marriage", "create", nil, "marriage_id", id)
	marriage, err := s.marriageRepo.FindByID(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "marriage.create", err)
	}
	return marriage, nil
}

// Update overwrites a marriage. A nil order keeps the stored one.
func (s *MarriageService) Update(ctx context.Context, actor auth.Actor, id int64, in *models.MarriageInput) (*models.MarriageWithNames, error) {
	if err := authorize(actor, auth.ManageMarriages); err != nil {
		return nil, err
	}

	if err := s.storageFailure(ctx, "marriage.update", s.validate(in)); err != nil {
		s.record(ctx, "marriage", "update", err)
		return nil, err
	}

	ok, err := s.marriageRepo.Update(id, in, s.stamp(actor))
	if err = s.storageFailure(ctx, "marriage.update", err); err != nil {
		s.record(ctx, "marriage", "update", err)
		return nil, err
	}
	if !ok {
		return nil, ErrMarriageNotFound
	}

	s.record(ctx, "marriage", "update", nil, "marriage_id", id)
	marriage, err := s.marriageRepo.FindByID(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "marriage.update", err)
	}
	return marriage, nil
}

// Delete removes a marriage. It fails with a *ReferentialIntegrityError while
// the couple has non-deleted children.
func (s *MarriageService) Delete(ctx context.Context, actor auth.Actor, id int64) error {
	if err := authorize(actor, auth.ManageMarriages); err != nil {
		return err
	}

	err := s.db.WithTx(func(tx *database.Tx) error {
		marriages := s.marriageRepo.WithTx(tx)
		m, err := marriages.FindByID(id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrMarriageNotFound
		}

		count, err := marriages.CountChildrenOf(id)
		if err != nil {
			return err
		}
		if count > 0 {
			return &ReferentialIntegrityError{Entity: "marriage", ID: id, Count: count}
		}

		_, err = marriages.Delete(id)
		return err
	})
	if err = s.storageFailure(ctx, "marriage.delete", err); err != nil {
		s.record(ctx, "marriage", "delete", err, "marriage_id", id)
		return err
	}

	s.record(ctx, "marriage", "delete", nil, "marriage_id", id)
	return nil
}

// Get returns one marriage with resolved spouse names
func (s *MarriageService) Get(ctx context.Context, actor auth.Actor, id int64) (*models.MarriageWithNames, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	m, err := s.marriageRepo.FindByID(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "marriage.get", err)
	}
	if m == nil {
		return nil, ErrMarriageNotFound
	}
	return m, nil
}

// ForMember returns a member's marriages by date, then order
func (s *MarriageService) ForMember(ctx context.Context, actor auth.Actor, memberID int64) ([]models.MarriageWithNames, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	marriages, err := s.marriageRepo.GetForMember(memberID)
	if err != nil {
		return nil, s.storageFailure(ctx, "marriage.for_member", err)
	}
	return marriages, nil
}

// Children returns the non-deleted children of a marriage, oldest first
func (s *MarriageService) Children(ctx context.Context, actor auth.Actor, id int64) ([]models.Member, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	children, err := s.marriageRepo.GetChildrenOf(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "marriage.children", err)
	}
	return children, nil
}

// History returns a member's ordered marriages, each with the couple's children
func (s *MarriageService) History(ctx context.Context, actor auth.Actor, memberID int64) ([]models.MarriageWithChildren, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	history, err := marriageHistory(s.marriageRepo, memberID)
	if err != nil {
		return nil, s.storageFailure(ctx, "marriage.history", err)
	}
	return history, nil
}

// marriageHistory loads the marriages first and their children after, so no
// query runs while another result set is open
func marriageHistory(repo *repository.MarriageRepository, memberID int64) ([]models.MarriageWithChildren, error) {
	marriages, err := repo.GetForMember(memberID)
	if err != nil {
		return nil, err
	}

	history := make([]models.MarriageWithChildren, 0, len(marriages))
	for _, m := range marriages {
		children, err := repo.GetChildrenOf(m.ID)
		if err != nil {
			return nil, err
		}
		history = append(history, models.MarriageWithChildren{MarriageWithNames: m, Children: children})
	}
	return history, nil
}
