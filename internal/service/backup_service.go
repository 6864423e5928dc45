package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"genealogy/internal/database"
	"genealogy/internal/models"
	"genealogy/internal/repository"
)

// ArchiveVersion is the format written by Export and accepted by Import
const ArchiveVersion = "1.0"

// ErrArchiveVersion is returned for archives written in another format
var ErrArchiveVersion = errors.New("unsupported archive version")

// ErrArchiveConflict is returned when archive ids collide with stored rows
var ErrArchiveConflict = errors.New("archive ids collide with existing records; import with clear")

// Archive is the complete backup of the genealogy tables
type Archive struct {
	Version      string                `json:"version"`
	ID           uuid.UUID             `json:"id"`
	ExportedAt   time.Time             `json:"exported_at"`
	DatabaseType string                `json:"database_type"`
	Clans        []models.Clan         `json:"clans"`
	Locations    []models.ClanLocation `json:"locations"`
	Surnames     []models.ClanSurname  `json:"surnames"`
	Members      []models.Member       `json:"members"`
	Marriages    []models.Marriage     `json:"marriages"`
}

// Tables in dependency order
var archiveTables = []string{"clans", "clan_locations", "clan_surnames", "members", "marriages"}

// BackupService handles database backup and restore operations
type BackupService struct {
	base
	memberRepo   *repository.MemberRepository
	clanRepo     *repository.ClanRepository
	marriageRepo *repository.MarriageRepository
}

// NewBackupService creates a new backup service
func NewBackupService(
	db *database.DB,
	memberRepo *repository.MemberRepository,
	clanRepo *repository.ClanRepository,
	marriageRepo *repository.MarriageRepository,
	opts Options,
) *BackupService {
	return &BackupService{
		base:         newBase(db, opts),
		memberRepo:   memberRepo,
		clanRepo:     clanRepo,
		marriageRepo: marriageRepo,
	}
}

// Snapshot reads every genealogy row into an archive
func (s *BackupService) Snapshot() (*Archive, error) {
	archive := &Archive{
		Version:      ArchiveVersion,
		ID:           uuid.New(),
		ExportedAt:   s.now(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	clans, err := s.clanRepo.GetAllWithDetails()
	if err != nil {
		return nil, fmt.Errorf("failed to export clans: %w", err)
	}
	archive.Clans = make([]models.Clan, 0, len(clans))
	for _, c := range clans {
		archive.Clans = append(archive.Clans, c.Clan)
	}

	if archive.Locations, err = s.clanRepo.AllLocations(); err != nil {
		return nil, fmt.Errorf("failed to export clan locations: %w", err)
	}
	if archive.Surnames, err = s.clanRepo.AllSurnames(); err != nil {
		return nil, fmt.Errorf("failed to export clan surnames: %w", err)
	}
	if archive.Members, err = s.memberRepo.All(); err != nil {
		return nil, fmt.Errorf("failed to export members: %w", err)
	}

	marriages, err := s.marriageRepo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to export marriages: %w", err)
	}
	archive.Marriages = make([]models.Marriage, 0, len(marriages))
	for _, m := range marriages {
		archive.Marriages = append(archive.Marriages, m.Marriage)
	}

	return archive, nil
}

// Export writes the archive as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*Archive, error) {
	archive, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(archive); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info(ctx, "database exported",
		"archive_id", archive.ID,
		"clans", len(archive.Clans),
		"members", len(archive.Members),
		"marriages", len(archive.Marriages))
	return archive, nil
}

// Import restores an archive in one transaction, keeping every id. With clear
// set, existing genealogy rows are removed first.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*Archive, error) {
	var archive Archive
	if err := json.NewDecoder(r).Decode(&archive); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if archive.Version != ArchiveVersion {
		return nil, fmt.Errorf("%w: %q", ErrArchiveVersion, archive.Version)
	}

	s.logger.Info(ctx, "importing archive",
		"archive_id", archive.ID, "exported_at", archive.ExportedAt, "clear", clear)

	err := s.db.WithTx(func(tx *database.Tx) error {
		if clear {
			if err := clearTables(tx); err != nil {
				return err
			}
		}
		if err := s.clanRepo.WithTx(tx).Restore(archive.Clans, archive.Locations, archive.Surnames); err != nil {
			return err
		}
		if err := s.memberRepo.WithTx(tx).Restore(archive.Members); err != nil {
			return err
		}
		if err := s.marriageRepo.WithTx(tx).Restore(archive.Marriages); err != nil {
			return err
		}
		for _, table := range archiveTables {
			if err := database.ResetSequence(tx, table); err != nil {
				return err
			}
		}
		return nil
	})
	if database.IsUniqueViolation(err) {
		return nil, ErrArchiveConflict
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "database imported",
		"archive_id", archive.ID,
		"clans", len(archive.Clans),
		"members", len(archive.Members),
		"marriages", len(archive.Marriages))
	return &archive, nil
}

func clearTables(q database.DBTX) error {
	statements := []string{
		"DELETE FROM marriages",
		"UPDATE members SET parent1_id = NULL, parent2_id = NULL",
		"DELETE FROM members",
		"DELETE FROM clan_surnames",
		"DELETE FROM clan_locations",
		"DELETE FROM clans",
	}
	for _, stmt := range statements {
		if _, err := q.Exec(stmt); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
	}
	return nil
}
