package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"genealogy/internal/database"
	"genealogy/internal/models"
)

const marriageSelect = `
	SELECT mr.id, mr.husband_id, COALESCE(mr.husband_name, ''), mr.wife_id, COALESCE(mr.wife_name, ''),
	       COALESCE(mr.marriage_date, ''), COALESCE(mr.marriage_location, ''), mr.marriage_order,
	       mr.marriage_status, COALESCE(mr.divorce_date, ''), COALESCE(mr.end_date, ''),
	       COALESCE(mr.end_reason, ''), COALESCE(mr.notes, ''),
	       mr.created_by, mr.created_at, mr.updated_by, mr.updated_at,
	       COALESCE(h.first_name, ''), COALESCE(h.middle_name, ''), COALESCE(h.last_name, ''),
	       COALESCE(w.first_name, ''), COALESCE(w.middle_name, ''), COALESCE(w.last_name, '')
	FROM marriages mr
	LEFT JOIN members h ON h.id = mr.husband_id
	LEFT JOIN members w ON w.id = mr.wife_id`

const marriageDateOrder = `CASE WHEN mr.marriage_date IS NULL THEN 1 ELSE 0 END, mr.marriage_date, mr.marriage_order, mr.id`

func scanMarriage(s rowScanner) (*models.MarriageWithNames, error) {
	m := &models.MarriageWithNames{}
	err := s.Scan(
		&m.ID, &m.HusbandID, &m.HusbandName, &m.WifeID, &m.WifeName,
		&m.MarriageDate, &m.MarriageLocation, &m.MarriageOrder,
		&m.MarriageStatus, &m.DivorceDate, &m.EndDate,
		&m.EndReason, &m.Notes,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedBy, &m.UpdatedAt,
		&m.HusbandFirstName, &m.HusbandMiddleName, &m.HusbandLastName,
		&m.WifeFirstName, &m.WifeMiddleName, &m.WifeLastName,
	)
	if err != nil {
		return nil, err
	}
	m.ResolveNames()
	return m, nil
}

func collectMarriages(rows *sql.Rows) ([]models.MarriageWithNames, error) {
	defer rows.Close()

	marriages := []models.MarriageWithNames{}
	for rows.Next() {
		m, err := scanMarriage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan marriage: %w", err)
		}
		marriages = append(marriages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate marriages: %w", err)
	}
	return marriages, nil
}

// MarriageRepository handles database operations for marriages
type MarriageRepository struct {
	db *database.DB
	q  database.DBTX
}

// NewMarriageRepository creates a new marriage repository
func NewMarriageRepository(db *database.DB) *MarriageRepository {
	return &MarriageRepository{db: db, q: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *MarriageRepository) WithTx(tx *database.Tx) *MarriageRepository {
	return &MarriageRepository{db: r.db, q: tx}
}

// Add inserts a marriage. A nil MarriageOrder is replaced with the next order
// for the husband, or the wife when there is no linked husband.
func (r *MarriageRepository) Add(in *models.MarriageInput, stamp models.Stamp) (int64, error) {
	order := 1
	if in.MarriageOrder != nil {
		order = *in.MarriageOrder
	} else if owner := orderOwner(in); owner != nil {
		next, err := r.NextOrder(*owner)
		if err != nil {
			return 0, err
		}
		order = next
	}

	query := `
		INSERT INTO marriages (
			husband_id, husband_name, wife_id, wife_name, marriage_date, marriage_location,
			marriage_order, marriage_status, divorce_date, end_date, end_reason, notes,
			created_by, created_at, updated_by, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.q.ExecReturningID(query,
		nullInt64(in.HusbandID), nullString(in.HusbandName), nullInt64(in.WifeID), nullString(in.WifeName),
		nullString(in.MarriageDate), nullString(in.MarriageLocation),
		order, string(models.ParseMarriageStatus(in.MarriageStatus)),
		nullString(in.DivorceDate), nullString(in.EndDate), nullString(in.EndReason), nullString(in.Notes),
		stamp.ActorID, stamp.At, stamp.ActorID, stamp.At,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create marriage: %w", err)
	}
	return id, nil
}

func orderOwner(in *models.MarriageInput) *int64 {
	if in.HusbandID != nil {
		return in.HusbandID
	}
	return in.WifeID
}

// Update overwrites a marriage. A nil MarriageOrder keeps the stored order.
func (r *MarriageRepository) Update(id int64, in *models.MarriageInput, stamp models.Stamp) (bool, error) {
	query := `
		UPDATE marriages SET
			husband_id = ?, husband_name = ?, wife_id = ?, wife_name = ?,
			marriage_date = ?, marriage_location = ?,
			marriage_order = COALESCE(?, marriage_order), marriage_status = ?,
			divorce_date = ?, end_date = ?, end_reason = ?, notes = ?,
			updated_by = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.q.Exec(query,
		nullInt64(in.HusbandID), nullString(in.HusbandName), nullInt64(in.WifeID), nullString(in.WifeName),
		nullString(in.MarriageDate), nullString(in.MarriageLocation),
		nullInt(in.MarriageOrder), string(models.ParseMarriageStatus(in.MarriageStatus)),
		nullString(in.DivorceDate), nullString(in.EndDate), nullString(in.EndReason), nullString(in.Notes),
		stamp.ActorID, stamp.At, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update marriage: %w", err)
	}
	return rowsAffected(result.RowsAffected())
}

// Delete removes a marriage row
func (r *MarriageRepository) Delete(id int64) (bool, error) {
	result, err := r.q.Exec("DELETE FROM marriages WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete marriage: %w", err)
	}
	return rowsAffected(result.RowsAffected())
}

// FindByID retrieves a marriage with both spouses' names. It returns nil when absent.
func (r *MarriageRepository) FindByID(id int64) (*models.MarriageWithNames, error) {
	m, err := scanMarriage(r.q.QueryRow(marriageSelect+" WHERE mr.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get marriage: %w", err)
	}
	return m, nil
}

// GetForMember returns the marriages a member is linked to, by date then order
func (r *MarriageRepository) GetForMember(memberID int64) ([]models.MarriageWithNames, error) {
	query := marriageSelect + " WHERE mr.husband_id = ? OR mr.wife_id = ? ORDER BY " + marriageDateOrder
	rows, err := r.q.Query(query, memberID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query marriages: %w", err)
	}
	return collectMarriages(rows)
}

// All returns every marriage ordered by ID
func (r *MarriageRepository) All() ([]models.MarriageWithNames, error) {
	rows, err := r.q.Query(marriageSelect + " ORDER BY mr.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query marriages: %w", err)
	}
	return collectMarriages(rows)
}

// GetChildrenOf returns the non-deleted children of a marriage's couple,
// oldest first. A missing marriage yields an empty list.
func (r *MarriageRepository) GetChildrenOf(marriageID int64) ([]models.Member, error) {
	m, err := r.FindByID(marriageID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return []models.Member{}, nil
	}
	return r.childrenOfCouple(&m.Marriage)
}

// CountChildrenOf counts the non-deleted children of a marriage's couple
func (r *MarriageRepository) CountChildrenOf(marriageID int64) (int, error) {
	children, err := r.GetChildrenOf(marriageID)
	if err != nil {
		return 0, err
	}
	return len(children), nil
}

func (r *MarriageRepository) childrenOfCouple(m *models.Marriage) ([]models.Member, error) {
	var where string
	var args []interface{}

	switch {
	case m.HusbandID != nil && m.WifeID != nil:
		where = "((m.parent1_id = ? AND m.parent2_id = ?) OR (m.parent1_id = ? AND m.parent2_id = ?))"
		args = []interface{}{*m.HusbandID, *m.WifeID, *m.WifeID, *m.HusbandID}
	case m.HusbandID != nil:
		where = "m.parent1_id = ? AND m.parent2_id IS NULL AND LOWER(TRIM(COALESCE(m.parent2_name, ''))) = ?"
		args = []interface{}{*m.HusbandID, strings.ToLower(strings.TrimSpace(m.WifeName))}
	case m.WifeID != nil:
		where = "m.parent2_id = ? AND m.parent1_id IS NULL"
		args = []interface{}{*m.WifeID}
	default:
		return []models.Member{}, nil
	}

	query := "SELECT " + memberColumns + " FROM members m WHERE " + where +
		" AND m.is_deleted = ? ORDER BY " + memberBirthOrder
	args = append(args, false)

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query marriage children: %w", err)
	}
	return collectMembers(rows)
}

// CountForMember counts the marriages a member is linked to
func (r *MarriageRepository) CountForMember(memberID int64) (int, error) {
	var count int
	err := r.q.QueryRow(
		"SELECT COUNT(*) FROM marriages WHERE husband_id = ? OR wife_id = ?", memberID, memberID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count marriages: %w", err)
	}
	return count, nil
}

// NextOrder is the order a new marriage for memberID gets. Concurrent writers
// may be handed the same value.
func (r *MarriageRepository) NextOrder(memberID int64) (int, error) {
	count, err := r.CountForMember(memberID)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

// FindBetween finds the marriage of memberID to a spouse, matched by the
// spouse's member ID when given and by case-insensitive free-text name otherwise.
// It returns nil when there is none.
func (r *MarriageRepository) FindBetween(memberID int64, spouseID *int64, spouseName string) (*models.MarriageWithNames, error) {
	var where string
	var args []interface{}

	if spouseID != nil {
		where = "(mr.husband_id = ? AND mr.wife_id = ?) OR (mr.wife_id = ? AND mr.husband_id = ?)"
		args = []interface{}{memberID, *spouseID, memberID, *spouseID}
	} else {
		name := strings.ToLower(strings.TrimSpace(spouseName))
		if name == "" {
			return nil, nil
		}
		where = `(mr.husband_id = ? AND mr.wife_id IS NULL AND LOWER(TRIM(COALESCE(mr.wife_name, ''))) = ?)
			OR (mr.wife_id = ? AND mr.husband_id IS NULL AND LOWER(TRIM(COALESCE(mr.husband_name, ''))) = ?)`
		args = []interface{}{memberID, name, memberID, name}
	}

	query := marriageSelect + " WHERE " + where + " ORDER BY mr.id LIMIT 1"
	m, err := scanMarriage(r.q.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find marriage: %w", err)
	}
	return m, nil
}
