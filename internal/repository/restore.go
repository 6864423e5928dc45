package repository

import (
	"fmt"

	"genealogy/internal/models"
)

// Restore inserts archived clans with their locations and surnames, keeping
// every id
func (r *ClanRepository) Restore(clans []models.Clan, locations []models.ClanLocation, surnames []models.ClanSurname) error {
	for _, c := range clans {
		_, err := r.q.Exec(`
			INSERT INTO clans (id, clan_name, description, origin_year, created_by, created_at, updated_by, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.ClanName, nullString(c.Description), nullInt(c.OriginYear),
			nullInt64(c.CreatedBy), c.CreatedAt, nullInt64(c.UpdatedBy), c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import clan %d: %w", c.ID, err)
		}
	}
	for _, l := range locations {
		_, err := r.q.Exec(
			"INSERT INTO clan_locations (id, clan_id, location_name, is_primary) VALUES (?, ?, ?, ?)",
			l.ID, l.ClanID, l.LocationName, l.IsPrimary)
		if err != nil {
			return fmt.Errorf("failed to import clan location %d: %w", l.ID, err)
		}
	}
	for _, sn := range surnames {
		_, err := r.q.Exec(
			"INSERT INTO clan_surnames (id, clan_id, last_name, is_primary) VALUES (?, ?, ?, ?)",
			sn.ID, sn.ClanID, sn.LastName, sn.IsPrimary)
		if err != nil {
			return fmt.Errorf("failed to import clan surname %d: %w", sn.ID, err)
		}
	}
	return nil
}

// Restore inserts archived members without parents, then links parents once
// every member exists
func (r *MemberRepository) Restore(members []models.Member) error {
	for _, m := range members {
		_, err := r.q.Exec(`
			INSERT INTO members (
				id, user_id, clan_id, clan_location_id, clan_surname_id,
				first_name, middle_name, last_name, maiden_name, nickname, gender,
				birth_date, death_date, photo_url, biography, parent2_name,
				address, city, state, country, postal_code,
				is_deleted, created_by, created_at, updated_by, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, m.ID, nullInt64(m.UserID), nullInt64(m.ClanID), nullInt64(m.ClanLocationID), nullInt64(m.ClanSurnameID),
			m.FirstName, nullString(m.MiddleName), m.LastName, nullString(m.MaidenName),
			nullString(m.Nickname), nullString(string(m.Gender)),
			nullString(m.BirthDate), nullString(m.DeathDate), nullString(m.PhotoURL),
			nullString(m.Biography), nullString(m.Parent2Name),
			nullString(m.Address), nullString(m.City), nullString(m.State),
			nullString(m.Country), nullString(m.PostalCode),
			m.IsDeleted, nullInt64(m.CreatedBy), m.CreatedAt, nullInt64(m.UpdatedBy), m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import member %d: %w", m.ID, err)
		}
	}

	for _, m := range members {
		if m.Parent1ID == nil && m.Parent2ID == nil {
			continue
		}
		_, err := r.q.Exec("UPDATE members SET parent1_id = ?, parent2_id = ? WHERE id = ?",
			nullInt64(m.Parent1ID), nullInt64(m.Parent2ID), m.ID)
		if err != nil {
			return fmt.Errorf("failed to link parents of member %d: %w", m.ID, err)
		}
	}
	return nil
}

// Restore inserts archived marriages, keeping every id and order
func (r *MarriageRepository) Restore(marriages []models.Marriage) error {
	for _, m := range marriages {
		_, err := r.q.Exec(`
			INSERT INTO marriages (
				id, husband_id, husband_name, wife_id, wife_name, marriage_date, marriage_location,
				marriage_order, marriage_status, divorce_date, end_date, end_reason, notes,
				created_by, created_at, updated_by, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, m.ID, nullInt64(m.HusbandID), nullString(m.HusbandName), nullInt64(m.WifeID), nullString(m.WifeName),
			nullString(m.MarriageDate), nullString(m.MarriageLocation),
			m.MarriageOrder, string(m.MarriageStatus), nullString(m.DivorceDate),
			nullString(m.EndDate), nullString(m.EndReason), nullString(m.Notes),
			nullInt64(m.CreatedBy), m.CreatedAt, nullInt64(m.UpdatedBy), m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import marriage %d: %w", m.ID, err)
		}
	}
	return nil
}
