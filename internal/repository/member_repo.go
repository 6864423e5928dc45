package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"genealogy/internal/database"
	"genealogy/internal/models"
)

const memberColumns = `
	m.id, m.user_id, m.clan_id, m.clan_location_id, m.clan_surname_id,
	m.first_name, COALESCE(m.middle_name, ''), m.last_name, COALESCE(m.maiden_name, ''),
	COALESCE(m.nickname, ''), COALESCE(m.gender, ''), COALESCE(m.birth_date, ''),
	COALESCE(m.death_date, ''), COALESCE(m.photo_url, ''), COALESCE(m.biography, ''),
	m.parent1_id, m.parent2_id, COALESCE(m.parent2_name, ''),
	COALESCE(m.address, ''), COALESCE(m.city, ''), COALESCE(m.state, ''),
	COALESCE(m.country, ''), COALESCE(m.postal_code, ''),
	m.is_deleted, m.created_by, m.created_at, m.updated_by, m.updated_at`

// Orders by birth date with undated members last
const memberBirthOrder = `CASE WHEN m.birth_date IS NULL THEN 1 ELSE 0 END, m.birth_date, m.id`

func scanMember(s rowScanner) (*models.Member, error) {
	m := &models.Member{}
	err := s.Scan(
		&m.ID, &m.UserID, &m.ClanID, &m.ClanLocationID, &m.ClanSurnameID,
		&m.FirstName, &m.MiddleName, &m.LastName, &m.MaidenName,
		&m.Nickname, &m.Gender, &m.BirthDate,
		&m.DeathDate, &m.PhotoURL, &m.Biography,
		&m.Parent1ID, &m.Parent2ID, &m.Parent2Name,
		&m.Address, &m.City, &m.State,
		&m.Country, &m.PostalCode,
		&m.IsDeleted, &m.CreatedBy, &m.CreatedAt, &m.UpdatedBy, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func collectMembers(rows *sql.Rows) ([]models.Member, error) {
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// MemberRepository handles database operations for members
type MemberRepository struct {
	db *database.DB
	q  database.DBTX
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db, q: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *MemberRepository) WithTx(tx *database.Tx) *MemberRepository {
	return &MemberRepository{db: r.db, q: tx}
}

// Add inserts a new member and returns its ID
func (r *MemberRepository) Add(in *models.MemberInput, stamp models.Stamp) (int64, error) {
	query := `
		INSERT INTO members (
			user_id, clan_id, clan_location_id, clan_surname_id,
			first_name, middle_name, last_name, maiden_name, nickname, gender,
			birth_date, death_date, photo_url, biography,
			parent1_id, parent2_id, parent2_name,
			address, city, state, country, postal_code,
			is_deleted, created_by, created_at, updated_by, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := append(memberWriteArgs(in), false, stamp.ActorID, stamp.At, stamp.ActorID, stamp.At)

	id, err := r.q.ExecReturningID(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create member: %w", err)
	}
	return id, nil
}

// Update overwrites a member's data. It reports false when no member has that ID.
func (r *MemberRepository) Update(id int64, in *models.MemberInput, stamp models.Stamp) (bool, error) {
	query := `
		UPDATE members SET
			user_id = ?, clan_id = ?, clan_location_id = ?, clan_surname_id = ?,
			first_name = ?, middle_name = ?, last_name = ?, maiden_name = ?, nickname = ?, gender = ?,
			birth_date = ?, death_date = ?, photo_url = ?, biography = ?,
			parent1_id = ?, parent2_id = ?, parent2_name = ?,
			address = ?, city = ?, state = ?, country = ?, postal_code = ?,
			updated_by = ?, updated_at = ?
		WHERE id = ?
	`
	args := append(memberWriteArgs(in), stamp.ActorID, stamp.At, id)

	result, err := r.q.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update member: %w", err)
	}
	return rowsAffected(result.RowsAffected())
}

func memberWriteArgs(in *models.MemberInput) []interface{} {
	return []interface{}{
		nullInt64(in.UserID), nullInt64(in.ClanID), nullInt64(in.ClanLocationID), nullInt64(in.ClanSurnameID),
		strings.TrimSpace(in.FirstName), nullString(in.MiddleName), strings.TrimSpace(in.LastName),
		nullString(in.MaidenName), nullString(in.Nickname), nullString(string(models.ParseGender(in.Gender))),
		nullString(in.BirthDate), nullString(in.DeathDate), nullString(in.PhotoURL), nullString(in.Biography),
		nullInt64(in.Parent1ID), nullInt64(in.Parent2ID), nullString(in.Parent2Name),
		nullString(in.Address), nullString(in.City), nullString(in.State), nullString(in.Country), nullString(in.PostalCode),
	}
}

// SoftDelete marks a member deleted. Calling it on a deleted member is a no-op
// apart from the audit stamp.
func (r *MemberRepository) SoftDelete(id int64, stamp models.Stamp) (bool, error) {
	return r.setDeleted(id, true, stamp)
}

// Restore clears the deleted flag
func (r *MemberRepository) Restore(id int64, stamp models.Stamp) (bool, error) {
	return r.setDeleted(id, false, stamp)
}

func (r *MemberRepository) setDeleted(id int64, deleted bool, stamp models.Stamp) (bool, error) {
	query := "UPDATE members SET is_deleted = ?, updated_by = ?, updated_at = ? WHERE id = ?"
	result, err := r.q.Exec(query, deleted, stamp.ActorID, stamp.At, id)
	if err != nil {
		return false, fmt.Errorf("failed to set member deleted flag: %w", err)
	}
	return rowsAffected(result.RowsAffected())
}

// HardDelete removes a member row for good. It refuses with a
// *ReferentialIntegrityError while non-deleted children point at the member.
// Marriages keep the member's name as free text; marriages left without any
// linked member are removed.
func (r *MemberRepository) HardDelete(id int64) (bool, error) {
	found := false
	err := runInTx(r.db, r.q, func(q database.DBTX) error {
		count, err := countChildren(q, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return &ReferentialIntegrityError{Entity: "member", ID: id, Count: count}
		}

		var first, middle, last string
		err = q.QueryRow(
			"SELECT first_name, COALESCE(middle_name, ''), last_name FROM members WHERE id = ?", id,
		).Scan(&first, &middle, &last)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get member: %w", err)
		}
		found = true
		name := models.JoinName(first, middle, last)

		if _, err := q.Exec("UPDATE marriages SET husband_name = ? WHERE husband_id = ?", name, id); err != nil {
			return fmt.Errorf("failed to preserve husband name: %w", err)
		}
		if _, err := q.Exec("UPDATE marriages SET wife_name = ? WHERE wife_id = ?", name, id); err != nil {
			return fmt.Errorf("failed to preserve wife name: %w", err)
		}
		if _, err := q.Exec("DELETE FROM members WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		if _, err := q.Exec("DELETE FROM marriages WHERE husband_id IS NULL AND wife_id IS NULL"); err != nil {
			return fmt.Errorf("failed to remove unlinked marriages: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Find retrieves a member by ID, deleted or not. It returns nil when absent.
func (r *MemberRepository) Find(id int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members m WHERE m.id = ?"
	m, err := scanMember(r.q.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// List returns a page of members ordered by name
func (r *MemberRepository) List(limit, offset int, includeDeleted bool) ([]models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members m"
	var args []interface{}
	if !includeDeleted {
		query += " WHERE m.is_deleted = ?"
		args = append(args, false)
	}
	query += " ORDER BY m.last_name, m.first_name, m.id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return collectMembers(rows)
}

// All returns every member, deleted ones included, ordered by ID
func (r *MemberRepository) All() ([]models.Member, error) {
	rows, err := r.q.Query("SELECT " + memberColumns + " FROM members m ORDER BY m.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return collectMembers(rows)
}

// Search finds non-deleted members whose names contain every whitespace
// separated term of query, case-insensitively
func (r *MemberRepository) Search(query string, limit int) ([]models.Member, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return []models.Member{}, nil
	}

	sqlQuery := "SELECT " + memberColumns + " FROM members m WHERE m.is_deleted = ?"
	args := []interface{}{false}
	for _, term := range terms {
		sqlQuery += ` AND (
			LOWER(m.first_name) LIKE ? ESCAPE '!'
			OR LOWER(m.last_name) LIKE ? ESCAPE '!'
			OR LOWER(COALESCE(m.middle_name, '')) LIKE ? ESCAPE '!'
			OR LOWER(COALESCE(m.nickname, '')) LIKE ? ESCAPE '!'
			OR LOWER(COALESCE(m.maiden_name, '')) LIKE ? ESCAPE '!'
		)`
		p := likePattern(term)
		args = append(args, p, p, p, p, p)
	}
	sqlQuery += " ORDER BY m.last_name, m.first_name, m.id LIMIT ?"
	args = append(args, limit)

	rows, err := r.q.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search members: %w", err)
	}
	return collectMembers(rows)
}

// CountChildren counts non-deleted members naming id as either parent
func (r *MemberRepository) CountChildren(id int64) (int, error) {
	return countChildren(r.q, id)
}

func countChildren(q database.DBTX, id int64) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM members WHERE (parent1_id = ? OR parent2_id = ?) AND is_deleted = ?"
	if err := q.QueryRow(query, id, id, false).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return count, nil
}

// Children returns the non-deleted children of a member, oldest first
func (r *MemberRepository) Children(id int64) ([]models.Member, error) {
	query := "SELECT " + memberColumns + ` FROM members m
		WHERE (m.parent1_id = ? OR m.parent2_id = ?) AND m.is_deleted = ?
		ORDER BY ` + memberBirthOrder
	rows, err := r.q.Query(query, id, id, false)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	return collectMembers(rows)
}

// TreeData projects every non-deleted member into the flat rows the tree is built from
func (r *MemberRepository) TreeData() ([]models.TreeMember, error) {
	query := `
		SELECT m.id, m.first_name, COALESCE(m.middle_name, ''), m.last_name, COALESCE(m.gender, ''),
		       COALESCE(m.birth_date, ''), COALESCE(m.death_date, ''),
		       m.parent1_id, m.parent2_id, m.clan_id, COALESCE(c.clan_name, '')
		FROM members m
		LEFT JOIN clans c ON c.id = m.clan_id
		WHERE m.is_deleted = ?
		ORDER BY m.id
	`
	rows, err := r.q.Query(query, false)
	if err != nil {
		return nil, fmt.Errorf("failed to query tree data: %w", err)
	}
	defer rows.Close()

	nodes := []models.TreeMember{}
	for rows.Next() {
		var n models.TreeMember
		if err := rows.Scan(
			&n.ID, &n.FirstName, &n.MiddleName, &n.LastName, &n.Gender,
			&n.BirthDate, &n.DeathDate,
			&n.Parent1ID, &n.Parent2ID, &n.ClanID, &n.ClanName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tree row: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tree rows: %w", err)
	}
	return nodes, nil
}
