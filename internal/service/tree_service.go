package service

import (
	"context"

	"genealogy/internal/auth"
	"genealogy/internal/database"
	"genealogy/internal/models"
	"genealogy/internal/repository"
	"genealogy/internal/tree"
)

// Forest is the assembled family tree with its summary numbers
type Forest struct {
	Roots   []*tree.Node `json:"roots"`
	Members int          `json:"members"`
	Depth   int          `json:"depth"`
}

// Lineage is a member's ancestor or descendant line, nearest generation first
type Lineage struct {
	MemberID int64               `json:"member_id"`
	Members  []models.TreeMember `json:"members"`
}

// TreeService builds family trees from member rows
type TreeService struct {
	base
	memberRepo *repository.MemberRepository
	clanRepo   *repository.ClanRepository
}

// NewTreeService creates a new tree service
func NewTreeService(db *database.DB, memberRepo *repository.MemberRepository, clanRepo *repository.ClanRepository, opts Options) *TreeService {
	return &TreeService{base: newBase(db, opts), memberRepo: memberRepo, clanRepo: clanRepo}
}

func (s *TreeService) rows(ctx context.Context, actor auth.Actor) ([]models.TreeMember, error) {
	if err := authorize(actor, auth.ViewFamily); err != nil {
		return nil, err
	}
	rows, err := s.memberRepo.TreeData()
	if err != nil {
		return nil, s.storageFailure(ctx, "tree.rows", err)
	}
	return rows, nil
}

// Forest builds the tree of every non-deleted member, or of one clan when
// clanID is set. A clan filter turns members whose parents sit outside the
// clan into roots.
func (s *TreeService) Forest(ctx context.Context, actor auth.Actor, clanID *int64) (*Forest, error) {
	rows, err := s.rows(ctx, actor)
	if err != nil {
		return nil, err
	}

	if clanID != nil {
		clan, err := s.clanRepo.Find(*clanID)
		if err != nil {
			return nil, s.storageFailure(ctx, "tree.forest", err)
		}
		if clan == nil {
			return nil, ErrClanNotFound
		}
		rows = tree.FilterByClan(rows, *clanID)
	}

	roots := tree.Build(rows)
	return &Forest{Roots: roots, Members: tree.Count(roots), Depth: tree.Depth(roots)}, nil
}

// Flat returns the rows the tree is built from
func (s *TreeService) Flat(ctx context.Context, actor auth.Actor) ([]models.TreeMember, error) {
	return s.rows(ctx, actor)
}

// Ancestors returns every ancestor of a member
func (s *TreeService) Ancestors(ctx context.Context, actor auth.Actor, memberID int64) (*Lineage, error) {
	return s.lineage(ctx, actor, memberID, tree.Ancestors)
}

// Descendants returns every descendant of a member
func (s *TreeService) Descendants(ctx context.Context, actor auth.Actor, memberID int64) (*Lineage, error) {
	return s.lineage(ctx, actor, memberID, tree.Descendants)
}

func (s *TreeService) lineage(
	ctx context.Context,
	actor auth.Actor,
	memberID int64,
	walk func([]models.TreeMember, int64) []int64,
) (*Lineage, error) {
	rows, err := s.rows(ctx, actor)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.TreeMember, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	if _, ok := byID[memberID]; !ok {
		return nil, ErrMemberNotFound
	}

	line := &Lineage{MemberID: memberID, Members: []models.TreeMember{}}
	for _, id := range walk(rows, memberID) {
		line.Members = append(line.Members, byID[id])
	}
	return line, nil
}
