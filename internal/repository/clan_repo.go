package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"genealogy/internal/database"
	"genealogy/internal/models"
)

const clanColumns = `id, clan_name, COALESCE(description, ''), origin_year,
	created_by, created_at, updated_by, updated_at`

func scanClan(s rowScanner) (*models.Clan, error) {
	c := &models.Clan{}
	err := s.Scan(&c.ID, &c.ClanName, &c.Description, &c.OriginYear,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedBy, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ClanRepository handles database operations for clans and their locations and surnames
type ClanRepository struct {
	db *database.DB
	q  database.DBTX
}

// NewClanRepository creates a new clan repository
func NewClanRepository(db *database.DB) *ClanRepository {
	return &ClanRepository{db: db, q: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ClanRepository) WithTx(tx *database.Tx) *ClanRepository {
	return &ClanRepository{db: r.db, q: tx}
}

// Add creates a clan with its locations and surnames and returns the clan ID
func (r *ClanRepository) Add(in *models.ClanInput, stamp models.Stamp) (int64, error) {
	var clanID int64
	err := runInTx(r.db, r.q, func(q database.DBTX) error {
		id, err := q.ExecReturningID(`
			INSERT INTO clans (clan_name, description, origin_year, created_by, created_at, updated_by, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, strings.TrimSpace(in.ClanName), nullString(in.Description), nullInt(in.OriginYear),
			stamp.ActorID, stamp.At, stamp.ActorID, stamp.At)
		if err != nil {
			return fmt.Errorf("failed to create clan: %w", err)
		}
		clanID = id
		return insertClanTags(q, clanID, in)
	})
	if err != nil {
		return 0, err
	}
	return clanID, nil
}

// Update overwrites a clan and replaces its locations and surnames. Members
// pointing at a replaced location or surname lose that link.
func (r *ClanRepository) Update(id int64, in *models.ClanInput, stamp models.Stamp) (bool, error) {
	found := false
	err := runInTx(r.db, r.q, func(q database.DBTX) error {
		result, err := q.Exec(`
			UPDATE clans SET clan_name = ?, description = ?, origin_year = ?, updated_by = ?, updated_at = ?
			WHERE id = ?
		`, strings.TrimSpace(in.ClanName), nullString(in.Description), nullInt(in.OriginYear),
			stamp.ActorID, stamp.At, id)
		if err != nil {
			return fmt.Errorf("failed to update clan: %w", err)
		}
		if found, err = rowsAffected(result.RowsAffected()); err != nil || !found {
			return err
		}

		if err := deleteClanTags(q, id); err != nil {
			return err
		}
		return insertClanTags(q, id, in)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes a clan with its locations and surnames. Members of the clan
// keep their rows with the clan links cleared.
func (r *ClanRepository) Delete(id int64) (bool, error) {
	found := false
	err := runInTx(r.db, r.q, func(q database.DBTX) error {
		// Cleared explicitly so dialects without cascading FKs behave the same
		if _, err := q.Exec(
			"UPDATE members SET clan_id = NULL, clan_location_id = NULL, clan_surname_id = NULL WHERE clan_id = ?", id,
		); err != nil {
			return fmt.Errorf("failed to detach clan members: %w", err)
		}
		if err := deleteClanTags(q, id); err != nil {
			return err
		}
		result, err := q.Exec("DELETE FROM clans WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete clan: %w", err)
		}
		found, err = rowsAffected(result.RowsAffected())
		return err
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func insertClanTags(q database.DBTX, clanID int64, in *models.ClanInput) error {
	for i, name := range models.CleanTags(in.Locations) {
		if _, err := q.Exec(
			"INSERT INTO clan_locations (clan_id, location_name, is_primary) VALUES (?, ?, ?)",
			clanID, name, i == 0,
		); err != nil {
			return fmt.Errorf("failed to add clan location: %w", err)
		}
	}
	for i, name := range models.CleanTags(in.Surnames) {
		if _, err := q.Exec(
			"INSERT INTO clan_surnames (clan_id, last_name, is_primary) VALUES (?, ?, ?)",
			clanID, name, i == 0,
		); err != nil {
			return fmt.Errorf("failed to add clan surname: %w", err)
		}
	}
	return nil
}

func deleteClanTags(q database.DBTX, clanID int64) error {
	if _, err := q.Exec(
		"UPDATE members SET clan_location_id = NULL WHERE clan_location_id IN (SELECT id FROM clan_locations WHERE clan_id = ?)", clanID,
	); err != nil {
		return fmt.Errorf("failed to detach member locations: %w", err)
	}
	if _, err := q.Exec(
		"UPDATE members SET clan_surname_id = NULL WHERE clan_surname_id IN (SELECT id FROM clan_surnames WHERE clan_id = ?)", clanID,
	); err != nil {
		return fmt.Errorf("failed to detach member surnames: %w", err)
	}
	if _, err := q.Exec("DELETE FROM clan_locations WHERE clan_id = ?", clanID); err != nil {
		return fmt.Errorf("failed to delete clan locations: %w", err)
	}
	if _, err := q.Exec("DELETE FROM clan_surnames WHERE clan_id = ?", clanID); err != nil {
		return fmt.Errorf("failed to delete clan surnames: %w", err)
	}
	return nil
}

// Find retrieves a clan without its details. It returns nil when absent.
func (r *ClanRepository) Find(id int64) (*models.Clan, error) {
	c, err := scanClan(r.q.QueryRow("SELECT "+clanColumns+" FROM clans WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clan: %w", err)
	}
	return c, nil
}

// GetWithDetails retrieves a clan with its locations and surnames
func (r *ClanRepository) GetWithDetails(id int64) (*models.ClanWithDetails, error) {
	clan, err := r.Find(id)
	if err != nil || clan == nil {
		return nil, err
	}

	locations, err := r.Locations(id)
	if err != nil {
		return nil, err
	}
	surnames, err := r.Surnames(id)
	if err != nil {
		return nil, err
	}
	return models.NewClanWithDetails(*clan, locations, surnames), nil
}

// GetAllSimple returns the id and name of every clan ordered by name
func (r *ClanRepository) GetAllSimple() ([]models.ClanSummary, error) {
	rows, err := r.q.Query("SELECT id, clan_name FROM clans ORDER BY clan_name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query clans: %w", err)
	}
	defer rows.Close()

	clans := []models.ClanSummary{}
	for rows.Next() {
		var c models.ClanSummary
		if err := rows.Scan(&c.ID, &c.ClanName); err != nil {
			return nil, fmt.Errorf("failed to scan clan: %w", err)
		}
		clans = append(clans, c)
	}
	return clans, rows.Err()
}

// GetAllWithDetails returns every clan with its locations and surnames, ordered by name
func (r *ClanRepository) GetAllWithDetails() ([]models.ClanWithDetails, error) {
	rows, err := r.q.Query("SELECT " + clanColumns + " FROM clans ORDER BY clan_name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query clans: %w", err)
	}

	var clans []models.Clan
	for rows.Next() {
		c, err := scanClan(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan clan: %w", err)
		}
		clans = append(clans, *c)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate clans: %w", err)
	}

	// Child rows are loaded in two passes so no query runs while another
	// result set is open
	locations, err := r.AllLocations()
	if err != nil {
		return nil, err
	}
	surnames, err := r.AllSurnames()
	if err != nil {
		return nil, err
	}

	locByClan := make(map[int64][]models.ClanLocation)
	for _, l := range locations {
		locByClan[l.ClanID] = append(locByClan[l.ClanID], l)
	}
	surByClan := make(map[int64][]models.ClanSurname)
	for _, s := range surnames {
		surByClan[s.ClanID] = append(surByClan[s.ClanID], s)
	}

	out := make([]models.ClanWithDetails, 0, len(clans))
	for _, c := range clans {
		out = append(out, *models.NewClanWithDetails(c, locByClan[c.ID], surByClan[c.ID]))
	}
	return out, nil
}

// Locations returns a clan's locations, primary first
func (r *ClanRepository) Locations(clanID int64) ([]models.ClanLocation, error) {
	return r.queryLocations(
		"SELECT id, clan_id, location_name, is_primary FROM clan_locations WHERE clan_id = ? ORDER BY id", clanID)
}

// AllLocations returns every clan location ordered by ID
func (r *ClanRepository) AllLocations() ([]models.ClanLocation, error) {
	return r.queryLocations("SELECT id, clan_id, location_name, is_primary FROM clan_locations ORDER BY id")
}

func (r *ClanRepository) queryLocations(query string, args ...interface{}) ([]models.ClanLocation, error) {
	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clan locations: %w", err)
	}
	defer rows.Close()

	locations := []models.ClanLocation{}
	for rows.Next() {
		var l models.ClanLocation
		if err := rows.Scan(&l.ID, &l.ClanID, &l.LocationName, &l.IsPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan clan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Surnames returns a clan's surnames, primary first
func (r *ClanRepository) Surnames(clanID int64) ([]models.ClanSurname, error) {
	return r.querySurnames(
		"SELECT id, clan_id, last_name, is_primary FROM clan_surnames WHERE clan_id = ? ORDER BY id", clanID)
}

// AllSurnames returns every clan surname ordered by ID
func (r *ClanRepository) AllSurnames() ([]models.ClanSurname, error) {
	return r.querySurnames("SELECT id, clan_id, last_name, is_primary FROM clan_surnames ORDER BY id")
}

func (r *ClanRepository) querySurnames(query string, args ...interface{}) ([]models.ClanSurname, error) {
	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clan surnames: %w", err)
	}
	defer rows.Close()

	surnames := []models.ClanSurname{}
	for rows.Next() {
		var s models.ClanSurname
		if err := rows.Scan(&s.ID, &s.ClanID, &s.LastName, &s.IsPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan clan surname: %w", err)
		}
		surnames = append(surnames, s)
	}
	return surnames, rows.Err()
}

// LocationBelongsTo reports whether locationID is one of clanID's locations
func (r *ClanRepository) LocationBelongsTo(clanID, locationID int64) (bool, error) {
	return r.exists("SELECT COUNT(*) FROM clan_locations WHERE id = ? AND clan_id = ?", locationID, clanID)
}

// SurnameBelongsTo reports whether surnameID is one of clanID's surnames
func (r *ClanRepository) SurnameBelongsTo(clanID, surnameID int64) (bool, error) {
	return r.exists("SELECT COUNT(*) FROM clan_surnames WHERE id = ? AND clan_id = ?", surnameID, clanID)
}

func (r *ClanRepository) exists(query string, args ...interface{}) (bool, error) {
	var count int
	if err := r.q.QueryRow(query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check clan membership: %w", err)
	}
	return count > 0, nil
}

// CountMembers counts non-deleted members of a clan
func (r *ClanRepository) CountMembers(clanID int64) (int, error) {
	var count int
	err := r.q.QueryRow("SELECT COUNT(*) FROM members WHERE clan_id = ? AND is_deleted = ?", clanID, false).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clan members: %w", err)
	}
	return count, nil
}
