package models

import (
	"strings"
	"time"
)

// Clan is a named kinship grouping
type Clan struct {
	ID          int64     `json:"id"`
	ClanName    string    `json:"clan_name"`
	Description string    `json:"description,omitempty"`
	OriginYear  *int      `json:"origin_year,omitempty"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedBy   *int64    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClanLocation is an ancestral location of a clan
type ClanLocation struct {
	ID           int64  `json:"id"`
	ClanID       int64  `json:"clan_id"`
	LocationName string `json:"location_name"`
	IsPrimary    bool   `json:"is_primary"`
}

// ClanSurname is a surname carried by a clan
type ClanSurname struct {
	ID        int64  `json:"id"`
	ClanID    int64  `json:"clan_id"`
	LastName  string `json:"last_name"`
	IsPrimary bool   `json:"is_primary"`
}

// ClanWithDetails is a clan with its locations and surnames nested
type ClanWithDetails struct {
	Clan
	Locations []ClanLocation `json:"locations"`
	Surnames  []ClanSurname  `json:"surnames"`
}

// NewClanWithDetails builds the nested view; nil slices become empty so the
// JSON always carries arrays
func NewClanWithDetails(clan Clan, locations []ClanLocation, surnames []ClanSurname) *ClanWithDetails {
	if locations == nil {
		locations = []ClanLocation{}
	}
	if surnames == nil {
		surnames = []ClanSurname{}
	}
	return &ClanWithDetails{Clan: clan, Locations: locations, Surnames: surnames}
}

// ClanSummary is the id/name pair used by dropdowns
type ClanSummary struct {
	ID       int64  `json:"id"`
	ClanName string `json:"clan_name"`
}

// ClanInput is the create/update payload for a clan
type ClanInput struct {
	ClanName    string   `json:"clan_name"`
	Description string   `json:"description"`
	OriginYear  *int     `json:"origin_year"`
	Locations   []string `json:"locations"`
	Surnames    []string `json:"surnames"`
}

// CleanTags trims every tag and drops blanks. Duplicates are kept.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
