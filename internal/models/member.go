package models

import (
	"strings"
	"time"
)

// Gender of a member. The empty value means unset.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
	GenderUnset  Gender = ""
)

// ParseGender normalizes free-form input ("m", "female", "OTHER") to a Gender.
// Unknown values are returned trimmed so the validator can report them.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return GenderUnset
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	case "o", "other":
		return GenderOther
	default:
		return Gender(strings.TrimSpace(s))
	}
}

// Valid reports whether g is one of the known genders or unset
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnset:
		return true
	}
	return false
}

// Member represents a person in the genealogy
type Member struct {
	ID             int64  `json:"id"`
	UserID         *int64 `json:"user_id,omitempty"`
	ClanID         *int64 `json:"clan_id"`
	ClanLocationID *int64 `json:"clan_location_id"`
	ClanSurnameID  *int64 `json:"clan_surname_id"`

	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`
	MaidenName string `json:"maiden_name,omitempty"`
	Nickname   string `json:"nickname,omitempty"`
	Gender     Gender `json:"gender"`
	BirthDate  string `json:"birth_date,omitempty"`
	DeathDate  string `json:"death_date,omitempty"`
	PhotoURL   string `json:"photo_url,omitempty"`
	Biography  string `json:"biography,omitempty"`

	// Parent1 is the father by convention, Parent2 the mother. Parent2Name holds
	// the mother's name when she has no member record.
	Parent1ID   *int64 `json:"parent1_id"`
	Parent2ID   *int64 `json:"parent2_id"`
	Parent2Name string `json:"parent2_name,omitempty"`

	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`

	IsDeleted bool      `json:"is_deleted"`
	CreatedBy *int64    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedBy *int64    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first, middle and last name, skipping blanks
func (m *Member) FullName() string {
	return JoinName(m.FirstName, m.MiddleName, m.LastName)
}

// JoinName joins name parts with single spaces, skipping blank parts
func JoinName(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Marital statuses accepted on a member payload. Anything other than single or
// empty implies a spouse and drives the marriage side effect.
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalDivorced = "divorced"
	MaritalWidowed  = "widowed"
)

// MemberInput is the create/update payload for a member
type MemberInput struct {
	ClanID         *int64 `json:"clan_id"`
	ClanLocationID *int64 `json:"clan_location_id"`
	ClanSurnameID  *int64 `json:"clan_surname_id"`
	UserID         *int64 `json:"user_id"`

	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	MaidenName string `json:"maiden_name"`
	Nickname   string `json:"nickname"`
	Gender     string `json:"gender"`
	BirthDate  string `json:"birth_date"`
	DeathDate  string `json:"death_date"`
	PhotoURL   string `json:"photo_url"`
	Biography  string `json:"biography"`

	Parent1ID   *int64 `json:"parent1_id"`
	Parent2ID   *int64 `json:"parent2_id"`
	Parent2Name string `json:"parent2_name"`

	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`

	MaritalStatus    string `json:"marital_status"`
	SpouseID         *int64 `json:"spouse_id"`
	SpouseName       string `json:"spouse_name"`
	MarriageDate     string `json:"marriage_date"`
	MarriageLocation string `json:"marriage_location"`
}

// HasSpouse reports whether the payload asks for a marriage to be recorded
func (in *MemberInput) HasSpouse() bool {
	status := strings.ToLower(strings.TrimSpace(in.MaritalStatus))
	if status == "" || status == MaritalSingle {
		return false
	}
	return in.SpouseID != nil || strings.TrimSpace(in.SpouseName) != ""
}

// TreeMember is the flat row the tree projection is built from
type TreeMember struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`
	Gender     Gender `json:"gender"`
	BirthDate  string `json:"birth_date,omitempty"`
	DeathDate  string `json:"death_date,omitempty"`
	Parent1ID  *int64 `json:"parent1_id"`
	Parent2ID  *int64 `json:"parent2_id"`
	ClanID     *int64 `json:"clan_id"`
	ClanName   string `json:"clan_name,omitempty"`
}

// MemberProfile is the resolved view of one member with its immediate family
type MemberProfile struct {
	Member    Member                 `json:"member"`
	Parent1   *Member                `json:"parent1,omitempty"`
	Parent2   *Member                `json:"parent2,omitempty"`
	Children  []Member               `json:"children"`
	Marriages []MarriageWithChildren `json:"marriages"`
}

// Stamp carries the actor and time recorded in audit columns
type Stamp struct {
	ActorID int64
	At      time.Time
}
