package service

import (
	"context"
	"fmt"
	"strings"

	"genealogy/internal/auth"
	"genealogy/internal/database"
	"genealogy/internal/models"
	"genealogy/internal/repository"
	"genealogy/internal/validation"
)

// Paging bounds for member listings
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// MemberService handles member business logic
type MemberService struct {
	base
	memberRepo   *repository.MemberRepository
	clanRepo     *repository.ClanRepository
	marriageRepo *repository.MarriageRepository
}

// NewMemberService creates a new member service
func NewMemberService(
	db *database.DB,
	memberRepo *repository.MemberRepository,
	clanRepo *repository.ClanRepository,
	marriageRepo *repository.MarriageRepository,
	opts Options,
) *MemberService {
	return &MemberService{
		base:         newBase(db, opts),
		memberRepo:   memberRepo,
		clanRepo:     clanRepo,
		marriageRepo: marriageRepo,
	}
}

// Create adds a member. A payload whose marital status implies a spouse also
// records the marriage in the same transaction.
func (s *MemberService) Create(ctx context.Context, actor auth.Actor, in *models.MemberInput) (*models.Member, error) {
	if err := authorize(actor, auth.EditMembers); err != nil {
		return nil, err
	}

	validation.NormalizeMember(in)
	msgs := append(validation.RequireMemberFields(in), validation.ValidateMember(in, nil)...)
	refMsgs, err := s.checkReferences(in, nil)
	if err != nil {
		return nil, s.storageFailure(ctx, "member.create", err)
	}
	if err := invalid(append(msgs, refMsgs...)...); err != nil {
		s.record(ctx, "member", "create", err)
		return nil, err
	}

	stamp := s.stamp(actor)
	var id int64
	err = s.db.WithTx(func(tx *database.Tx) error {
		var err error
		if id, err = s.memberRepo.WithTx(tx).Add(in, stamp); err != nil {
			return err
		}
		return s.syncMarriage(tx, id, in, stamp)
	})
	if err = s.storageFailure(ctx, "member.create", err); err != nil {
		s.record(ctx, "member", "create", err)
		return nil, err
	}

	s.record(ctx, "member", "create", nil, "member_id", id)
	member, err := s.memberRepo.Find(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "member.create", err)
	}
	return member, nil
}

// Update overwrites a member and applies the same marriage side effect as Create
func (s *MemberService) Update(ctx context.Context, actor auth.Actor, id int64, in *models.MemberInput) (*models.Member, error) {
	if err := authorize(actor, auth.EditMembers); err != nil {
		return nil, err
	}

	existing, err := s.memberRepo.Find(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "member.update", err)
	}
	if existing == nil {
		return nil, ErrMemberNotFound
	}

	validation.NormalizeMember(in)
	msgs := append(validation.RequireMemberFields(in), validation.ValidateMember(in, &id)...)
	refMsgs, err := s.checkReferences(in, &id)
	if err != nil {
		return nil, s.storageFailure(ctx, "member.update", err)
	}
	if err := invalid(append(msgs, refMsgs...)...); err != nil {
		s.record(ctx, "member", "update", err)
		return nil, err
	}

	stamp := s.stamp(actor)
	err = s.db.WithTx(func(tx *database.Tx) error {
		ok, err := s.memberRepo.WithTx(tx).Update(id, in, stamp)
		if err != nil {
			return err
		}
		if !ok {
			return ErrMemberNotFound
		}
		return s.syncMarriage(tx, id, in, stamp)
	})
	if err = s.storageFailure(ctx, "member.update", err); err != nil {
		s.record(ctx, "member", "update", err)
		return nil, err
	}

	s.record(ctx, "member", "update", nil, "member_id", id)
	member, err := s.memberRepo.Find(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "member.update", err)
	}
	return member, nil
}

// checkReferences verifies that the clan, clan location, clan surname,
// parents and spouse a payload points at exist and fit together. Field
// rules, the spouse payload included, belong to validation.ValidateMember.
func (s *MemberService) checkReferences(in *models.MemberInput, memberID *int64) ([]string, error) {
	msgs := []string{}

	if in.ClanID != nil {
		clan, err := s.clanRepo.Find(*in.ClanID)
		if err != nil {
			return nil, err
		}
		if clan == nil {
			msgs = append(msgs, "Selected clan does not exist")
		}
	}

	if in.ClanLocationID != nil {
		if in.ClanID == nil {
			msgs = append(msgs, "A clan location requires a clan")
		} else {
			ok, err := s.clanRepo.LocationBelongsTo(*in.ClanID, *in.ClanLocationID)
			if err != nil {
				return nil, err
			}
			if !ok {
				msgs = append(msgs, "Selected location does not belong to the member's clan")
			}
		}
	}

	if in.ClanSurnameID != nil {
		if in.ClanID == nil {
			msgs = append(msgs, "A clan surname requires a clan")
		} else {
			ok, err := s.clanRepo.SurnameBelongsTo(*in.ClanID, *in.ClanSurnameID)
			if err != nil {
				return nil, err
			}
			if !ok {
				msgs = append(msgs, "Selected surname does not belong to the member's clan")
			}
		}
	}

	parents := []struct {
		label string
		id    *int64
	}{{"Parent 1", in.Parent1ID}, {"Parent 2", in.Parent2ID}}
	for _, p := range parents {
		if p.id == nil {
			continue
		}
		parent, err := s.memberRepo.Find(*p.id)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			msgs = append(msgs, p.label+" does not exist")
		}
	}

	if in.HasSpouse() {
		if in.SpouseID != nil {
			if memberID != nil && *in.SpouseID == *memberID {
				msgs = append(msgs, "A member cannot marry themselves")
			} else {
				spouse, err := s.memberRepo.Find(*in.SpouseID)
				if err != nil {
					return nil, err
				}
				if spouse == nil {
					msgs = append(msgs, "Selected spouse does not exist")
				}
			}
		}
	}

	return msgs, nil
}

// syncMarriage records the marriage implied by a member payload. An existing
// marriage to the same spouse is updated; otherwise a new one is added with
// the next order for the member.
func (s *MemberService) syncMarriage(tx *database.Tx, memberID int64, in *models.MemberInput, stamp models.Stamp) error {
	if !in.HasSpouse() {
		return nil
	}
	marriages := s.marriageRepo.WithTx(tx)

	spouseName := strings.TrimSpace(in.SpouseName)
	existing, err := marriages.FindBetween(memberID, in.SpouseID, spouseName)
	if err != nil {
		return err
	}

	status := string(models.ParseMarriageStatus(in.MaritalStatus))

	if existing != nil {
		update := marriageInputFrom(&existing.Marriage)
		update.MarriageStatus = status
		if in.MarriageDate != "" {
			update.MarriageDate = in.MarriageDate
		}
		if loc := strings.TrimSpace(in.MarriageLocation); loc != "" {
			update.MarriageLocation = loc
		}
		validation.NormalizeMarriage(update)
		_, err := marriages.Update(existing.ID, update, stamp)
		return err
	}

	order, err := marriages.NextOrder(memberID)
	if err != nil {
		return err
	}

	add := &models.MarriageInput{
		MarriageDate:     in.MarriageDate,
		MarriageLocation: in.MarriageLocation,
		MarriageOrder:    &order,
		MarriageStatus:   status,
	}
	member := memberID
	if models.InferRole(models.ParseGender(in.Gender)) == models.RoleWife {
		add.WifeID = &member
		add.HusbandID = in.SpouseID
		add.HusbandName = spouseName
	} else {
		add.HusbandID = &member
		add.WifeID = in.SpouseID
		add.WifeName = spouseName
	}
	validation.NormalizeMarriage(add)

	_, err = marriages.Add(add, stamp)
	return err
}

// marriageInputFrom copies a stored marriage into an update payload
func marriageInputFrom(m *models.Marriage) *models.MarriageInput {
	order := m.MarriageOrder
	return &models.MarriageInput{
		HusbandID:        m.HusbandID,
		HusbandName:      m.HusbandName,
		WifeID:           m.WifeID,
		WifeName:         m.WifeName,
		MarriageDate:     m.MarriageDate,
		MarriageLocation: m.MarriageLocation,
		MarriageOrder:    &order,
		MarriageStatus:   string(m.MarriageStatus),
		DivorceDate:      m.DivorceDate,
		EndDate:          m.EndDate,
		EndReason:        m.EndReason,
		Notes:            m.Notes,
	}
}

// SoftDelete hides a member from listings. Repeating it is harmless.
func (s *MemberService) SoftDelete(ctx context.Context, actor auth.Actor, id int64) error {
	if err := authorize(actor, auth.DeleteMembers); err != nil {
		return err
	}

	ok, err := s.memberRepo.SoftDelete(id, s.stamp(actor))
	if err = s.storageFailure(ctx, "member.soft_delete", err); err != nil {
		s.record(ctx, "member", "soft_delete", err)
		return err
	}
	if !ok {
		return ErrMemberNotFound
	}

	s.record(ctx, "member", "soft_delete", nil, "member_id", id)
	return nil
}

// Restore brings back a soft-deleted member. Repeating it is harmless.
func (s *MemberService) Restore(ctx context.Context, actor auth.Actor, id int64) error {
	if err := authorize(actor, auth.RestoreMembers); err != nil {
		return err
	}

	ok, err := s.memberRepo.Restore(id, s.stamp(actor))
	if err = s.storageFailure(ctx, "member.restore", err); err != nil {
		s.record(ctx, "member", "restore", err)
		return err
	}
	if !ok {
		return ErrMemberNotFound
	}

	s.record(ctx, "member", "restore", nil, "member_id", id)
	return nil
}

// HardDelete removes a member permanently. It fails with a
// *ReferentialIntegrityError while the member has non-deleted children.
func (s *MemberService) HardDelete(ctx context.Context, actor auth.Actor, id int64) error {
	if err := authorize(actor, auth.DeleteMembers); err != nil {
		return err
	}

	ok, err := s.memberRepo.HardDelete(id)
	if err = s.storageFailure(ctx, "member.hard_delete", err); err != nil {
		s.record(ctx, "member", "hard_delete", err, "member_id", id)
		return err
	}
	if !ok {
		return ErrMemberNotFound
	}

	s.record(ctx, "member", "hard_delete", nil, "member_id", id)
	return nil
}

// Get returns one member, soft-deleted or not
func (s *MemberService) Get(ctx context.Context, actor auth.Actor, id int64) (*models.Member, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	m, err := s.memberRepo.Find(id)
	if err != nil {
		return nil, s.storageFailure(ctx, "member.get", err)
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// List returns a page of members. Deleted members are only included for
// actors who may restore them.
func (s *MemberService) List(ctx context.Context, actor auth.Actor, page, perPage int, includeDeleted bool) ([]models.Member, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	includeDeleted = includeDeleted && actor.Can(auth.RestoreMembers)

	members, err := s.memberRepo.List(perPage, (page-1)*perPage, includeDeleted)
	if err != nil {
		return nil, s.storageFailure(ctx, "member.list", err)
	}
	return members, nil
}

// Search finds non-deleted members by name
func (s *MemberService) Search(ctx context.Context, actor auth.Actor, query string, limit int) ([]models.Member, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	members, err := s.memberRepo.Search(query, limit)
	if err != nil {
		return nil, s.storageFailure(ctx, "member.search", err)
	}
	return members, nil
}

// Profile resolves a member with parents, children and marriage history
func (s *MemberService) Profile(ctx context.Context, actor auth.Actor, id int64) (*models.MemberProfile, error) {
	m, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	profile := &models.MemberProfile{Member: *m}
	if profile.Parent1, err = s.findParent(m.Parent1ID); err != nil {
		return nil, s.storageFailure(ctx, "member.profile", err)
	}
	if profile.Parent2, err = s.findParent(m.Parent2ID); err != nil {
		return nil, s.storageFailure(ctx, "member.profile", err)
	}
	if profile.Children, err = s.memberRepo.Children(id); err != nil {
		return nil, s.storageFailure(ctx, "member.profile", err)
	}
	if profile.Marriages, err = marriageHistory(s.marriageRepo, id); err != nil {
		return nil, s.storageFailure(ctx, "member.profile", err)
	}
	return profile, nil
}

func (s *MemberService) findParent(id *int64) (*models.Member, error) {
	if id == nil {
		return nil, nil
	}
	p, err := s.memberRepo.Find(*id)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent: %w", err)
	}
	return p, nil
}
