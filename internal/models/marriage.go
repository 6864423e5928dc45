package models

import (
	"strings"
	"time"
)

// MarriageStatus is the state of a marriage
type MarriageStatus string

const (
	StatusMarried  MarriageStatus = "married"
	StatusDivorced MarriageStatus = "divorced"
	StatusWidowed  MarriageStatus = "widowed"
)

// ParseMarriageStatus lower-cases and trims s; empty input means married
func ParseMarriageStatus(s string) MarriageStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusMarried
	}
	return MarriageStatus(s)
}

// Valid reports whether s is a known status
func (s MarriageStatus) Valid() bool {
	switch s {
	case StatusMarried, StatusDivorced, StatusWidowed:
		return true
	}
	return false
}

// Marriage is a union between two parties, each either a linked member or a name
type Marriage struct {
	ID               int64          `json:"id"`
	HusbandID        *int64         `json:"husband_id"`
	HusbandName      string         `json:"husband_name,omitempty"`
	WifeID           *int64         `json:"wife_id"`
	WifeName         string         `json:"wife_name,omitempty"`
	MarriageDate     string         `json:"marriage_date,omitempty"`
	MarriageLocation string         `json:"marriage_location,omitempty"`
	MarriageOrder    int            `json:"marriage_order"`
	MarriageStatus   MarriageStatus `json:"marriage_status"`
	DivorceDate      string         `json:"divorce_date,omitempty"`
	EndDate          string         `json:"end_date,omitempty"`
	EndReason        string         `json:"end_reason,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	CreatedBy        *int64         `json:"created_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedBy        *int64         `json:"updated_by,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// MarriageWithNames is a marriage with both spouses' member names joined in
type MarriageWithNames struct {
	Marriage
	HusbandFirstName  string `json:"husband_first_name,omitempty"`
	HusbandMiddleName string `json:"husband_middle_name,omitempty"`
	HusbandLastName   string `json:"husband_last_name,omitempty"`
	WifeFirstName     string `json:"wife_first_name,omitempty"`
	WifeMiddleName    string `json:"wife_middle_name,omitempty"`
	WifeLastName      string `json:"wife_last_name,omitempty"`

	// Resolved names: the linked member's full name, else the free text
	HusbandDisplayName string `json:"husband_display_name"`
	WifeDisplayName    string `json:"wife_display_name"`
}

// ResolveNames fills the display names from the joined columns or the free text
func (m *MarriageWithNames) ResolveNames() {
	m.HusbandDisplayName = resolveSpouseName(m.HusbandID,
		JoinName(m.HusbandFirstName, m.HusbandMiddleName, m.HusbandLastName), m.HusbandName)
	m.WifeDisplayName = resolveSpouseName(m.WifeID,
		JoinName(m.WifeFirstName, m.WifeMiddleName, m.WifeLastName), m.WifeName)
}

func resolveSpouseName(id *int64, joined, freeText string) string {
	if id != nil && joined != "" {
		return joined
	}
	return strings.TrimSpace(freeText)
}
