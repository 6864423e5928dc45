// Package validation checks member, clan and marriage payloads. Every
// validator runs all of its rules and returns the full list of messages.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"genealogy/internal/models"
)

// Bounds on member dates
const (
	MinBirthYear = 1800
	MaxAgeYears  = 150
)

// DateLayout is the storage form of every date
const DateLayout = "2006-01-02"

// Now is the clock used for year bounds
var Now = time.Now

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "bmp": true, "svg": true,
}

// check runs rules against value and appends the first failure's message
func check(msgs []string, value interface{}, rules ...validation.Rule) []string {
	if err := validation.Validate(value, rules...); err != nil {
		return append(msgs, err.Error())
	}
	return msgs
}

func maxLen(n int, label string) validation.Rule {
	return validation.RuneLength(0, n).Error(fmt.Sprintf("%s must be at most %d characters", label, n))
}

// ParseDate accepts common date spellings and returns the day in UTC
func ParseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// partialDate matches a year or a year and month, e.g. 1999 or 1999-05
var partialDate = regexp.MustCompile(`^\d{4}(-(0[1-9]|1[0-2]))?$`)

// NormalizeDate rewrites a parseable date as YYYY-MM-DD. Year and year-month
// dates are kept as entered. Blank input stays blank and unparseable input is
// returned unchanged for the validator to report.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || partialDate.MatchString(s) {
		return s
	}
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}

// parseOptionalDate parses s when present. ok is false when s is blank or
// invalid; invalid input also adds a message.
func parseOptionalDate(msgs []string, s, label string) (time.Time, bool, []string) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, false, msgs
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false, append(msgs, fmt.Sprintf("%s is not a valid date", label))
	}
	return t, true, msgs
}

func photoURLRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Photo URL must be a valid http or https URL")
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if ext != "" && !imageExtensions[ext] {
		return errors.New("Photo URL must point to a jpg, jpeg, png, gif, webp, bmp or svg image")
	}
	return nil
}

// ValidateMember checks a member payload. memberID is the member being
// updated and nil on create.
func ValidateMember(in *models.MemberInput, memberID *int64) []string {
	msgs := []string{}

	msgs = check(msgs, in.FirstName, maxLen(100, "First name"))
	msgs = check(msgs, in.MiddleName, maxLen(100, "Middle name"))
	msgs = check(msgs, in.LastName, maxLen(100, "Last name"))
	msgs = check(msgs, in.MaidenName, maxLen(100, "Maiden name"))
	msgs = check(msgs, in.Nickname, maxLen(100, "Nickname"))
	msgs = check(msgs, in.Gender, maxLen(20, "Gender"))
	msgs = check(msgs, in.PhotoURL, maxLen(255, "Photo URL"))
	msgs = check(msgs, in.Biography, maxLen(10000, "Biography"))
	msgs = check(msgs, in.Address, maxLen(500, "Address"))
	msgs = check(msgs, in.City, maxLen(100, "City"))
	msgs = check(msgs, in.State, maxLen(100, "State"))
	msgs = check(msgs, in.Country, maxLen(100, "Country"))
	msgs = check(msgs, in.PostalCode, maxLen(20, "Postal code"))

	if g := models.ParseGender(in.Gender); !g.Valid() && len(in.Gender) <= 20 {
		msgs = append(msgs, "Gender must be Male, Female or Other")
	}

	msgs = check(msgs, strings.TrimSpace(in.PhotoURL),
		is.URL.Error("Photo URL must be a valid http or https URL"),
		validation.By(photoURLRule),
	)

	if memberID != nil {
		if (in.Parent1ID != nil && *in.Parent1ID == *memberID) ||
			(in.Parent2ID != nil && *in.Parent2ID == *memberID) {
			msgs = append(msgs, "A member cannot be their own parent")
		}
	}
	if in.Parent1ID != nil && in.Parent2ID != nil && *in.Parent1ID == *in.Parent2ID {
		msgs = append(msgs, "Parent 1 and Parent 2 cannot be the same person")
	}

	msgs = append(msgs, validateLifespan(in.BirthDate, in.DeathDate)...)
	if in.HasSpouse() {
		msgs = append(msgs, validateSpouse(in)...)
	}
	return msgs
}

// validateSpouse checks the marriage a member payload asks for. The limits
// match the columns ValidateMarriage guards.
func validateSpouse(in *models.MemberInput) []string {
	msgs := []string{}
	if !models.ParseMarriageStatus(in.MaritalStatus).Valid() {
		msgs = append(msgs, "Marital status must be single, married, divorced or widowed")
	}
	msgs = check(msgs, strings.TrimSpace(in.SpouseName), maxLen(200, "Spouse name"))
	msgs = check(msgs, strings.TrimSpace(in.MarriageLocation), maxLen(200, "Marriage location"))
	_, _, msgs = parseOptionalDate(msgs, in.MarriageDate, "Marriage date")
	return msgs
}

func validateLifespan(birthDate, deathDate string) []string {
	msgs := []string{}
	birth, hasBirth, msgs := parseOptionalDate(msgs, birthDate, "Birth date")
	death, hasDeath, msgs := parseOptionalDate(msgs, deathDate, "Death date")

	now := Now()
	if hasBirth && (birth.Year() < MinBirthYear || birth.Year() > now.Year()) {
		msgs = append(msgs, fmt.Sprintf("Birth year must be between %d and %d", MinBirthYear, now.Year()))
	}
	if hasBirth && hasDeath && death.Before(birth) {
		msgs = append(msgs, "Death date cannot be before birth date")
	}
	if hasBirth {
		end := now
		if hasDeath {
			end = death
		}
		if end.After(birth.AddDate(MaxAgeYears, 0, 0)) {
			msgs = append(msgs, fmt.Sprintf("Age cannot exceed %d years", MaxAgeYears))
		}
	}
	return msgs
}

// RequireMemberFields checks the fields a new member record cannot do without
func RequireMemberFields(in *models.MemberInput) []string {
	msgs := []string{}
	if strings.TrimSpace(in.FirstName) == "" {
		msgs = append(msgs, "First name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		msgs = append(msgs, "Last name is required")
	}
	if in.ClanID == nil {
		msgs = append(msgs, "Clan is required")
	}
	return msgs
}

// ValidateClan checks a clan payload
func ValidateClan(in *models.ClanInput) []string {
	msgs := []string{}

	msgs = check(msgs, strings.TrimSpace(in.ClanName),
		validation.Required.Error("Clan name is required"),
		maxLen(100, "Clan name"),
	)
	msgs = check(msgs, in.Description, maxLen(5000, "Description"))

	if in.OriginYear != nil {
		// Zero counts as empty to ozzo's threshold rules, so the range is checked by hand
		if year := Now().Year(); *in.OriginYear < 1 || *in.OriginYear > year {
			msgs = append(msgs, fmt.Sprintf("Origin year must be between 1 and %d", year))
		}
	}

	if len(models.CleanTags(in.Locations)) == 0 {
		msgs = append(msgs, "At least one location is required")
	}
	if len(models.CleanTags(in.Surnames)) == 0 {
		msgs = append(msgs, "At least one surname is required")
	}
	for _, l := range in.Locations {
		msgs = check(msgs, strings.TrimSpace(l), maxLen(255, "Location name"))
	}
	for _, s := range in.Surnames {
		msgs = check(msgs, strings.TrimSpace(s), maxLen(100, "Surname"))
	}
	return msgs
}

// ValidateMarriage checks a marriage payload
func ValidateMarriage(in *models.MarriageInput) []string {
	msgs := []string{}

	if in.HusbandID == nil && in.WifeID == nil {
		msgs = append(msgs, "At least one spouse must be an existing member")
	}
	if in.HusbandID != nil && in.WifeID != nil && *in.HusbandID == *in.WifeID {
		msgs = append(msgs, "A member cannot marry themselves")
	}
	if in.HusbandID == nil && strings.TrimSpace(in.HusbandName) == "" {
		msgs = append(msgs, "Husband is required")
	}
	if in.WifeID == nil && strings.TrimSpace(in.WifeName) == "" {
		msgs = append(msgs, "Wife is required")
	}

	if !models.ParseMarriageStatus(in.MarriageStatus).Valid() {
		msgs = append(msgs, "Marriage status must be married, divorced or widowed")
	}
	if in.MarriageOrder != nil && *in.MarriageOrder < 1 {
		msgs = append(msgs, "Marriage order must be at least 1")
	}

	msgs = check(msgs, in.HusbandName, maxLen(200, "Husband name"))
	msgs = check(msgs, in.WifeName, maxLen(200, "Wife name"))
	msgs = check(msgs, in.MarriageLocation, maxLen(200, "Marriage location"))
	msgs = check(msgs, in.EndReason, maxLen(255, "End reason"))
	msgs = check(msgs, in.Notes, maxLen(10000, "Notes"))

	married, hasMarried, msgs := parseOptionalDate(msgs, in.MarriageDate, "Marriage date")
	divorced, hasDivorced, msgs := parseOptionalDate(msgs, in.DivorceDate, "Divorce date")
	ended, hasEnded, msgs := parseOptionalDate(msgs, in.EndDate, "End date")

	if hasMarried && hasDivorced && divorced.Before(married) {
		msgs = append(msgs, "Divorce date cannot be before marriage date")
	}
	if hasMarried && hasEnded && ended.Before(married) {
		msgs = append(msgs, "End date cannot be before marriage date")
	}
	return msgs
}

// NormalizeMarriage makes each side carry exactly one representation and
// drops a divorce date from a marriage that is not divorced
func NormalizeMarriage(in *models.MarriageInput) {
	if in.HusbandID != nil {
		in.HusbandName = ""
	}
	if in.WifeID != nil {
		in.WifeName = ""
	}
	in.HusbandName = strings.TrimSpace(in.HusbandName)
	in.WifeName = strings.TrimSpace(in.WifeName)
	in.MarriageStatus = string(models.ParseMarriageStatus(in.MarriageStatus))
	if in.MarriageStatus != string(models.StatusDivorced) {
		in.DivorceDate = ""
	}
	in.MarriageDate = NormalizeDate(in.MarriageDate)
	in.DivorceDate = NormalizeDate(in.DivorceDate)
	in.EndDate = NormalizeDate(in.EndDate)
}

// NormalizeMember trims names and rewrites dates in storage form
func NormalizeMember(in *models.MemberInput) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Gender = string(models.ParseGender(in.Gender))
	in.BirthDate = NormalizeDate(in.BirthDate)
	in.DeathDate = NormalizeDate(in.DeathDate)
	in.MarriageDate = NormalizeDate(in.MarriageDate)
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
}
