package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genealogy/internal/database"
	"genealogy/internal/models"
)

type fixture struct {
	db        *database.DB
	members   *MemberRepository
	clans     *ClanRepository
	marriages *MarriageRepository
	stamp     models.Stamp
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "family.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fixture{
		db:        db,
		members:   NewMemberRepository(db),
		clans:     NewClanRepository(db),
		marriages: NewMarriageRepository(db),
		stamp:     models.Stamp{ActorID: 1, At: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

func (f *fixture) addClan(t *testing.T, name string) int64 {
	t.Helper()
	id, err := f.clans.Add(&models.ClanInput{
		ClanName:  name,
		Locations: []string{name + " Valley"},
		Surnames:  []string{name},
	}, f.stamp)
	require.NoError(t, err)
	return id
}

func (f *fixture) addMember(t *testing.T, in models.MemberInput) int64 {
	t.Helper()
	id, err := f.members.Add(&in, f.stamp)
	require.NoError(t, err)
	return id
}

func TestMemberAddFind(t *testing.T) {
	f := newFixture(t)
	clanID := f.addClan(t, "Smith")

	id := f.addMember(t, models.MemberInput{
		ClanID:     &clanID,
		FirstName:  " John ",
		MiddleName: "Q",
		LastName:   "Smith",
		Gender:     "m",
		BirthDate:  "1950-02-03",
	})

	m, err := f.members.Find(id)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "John", m.FirstName)
	assert.Equal(t, "Q", m.MiddleName)
	assert.Equal(t, models.GenderMale, m.Gender)
	assert.Equal(t, "1950-02-03", m.BirthDate)
	assert.Equal(t, clanID, *m.ClanID)
	assert.Nil(t, m.Parent1ID)
	assert.Equal(t, "", m.DeathDate)
	assert.False(t, m.IsDeleted)
	require.NotNil(t, m.CreatedBy)
	assert.Equal(t, int64(1), *m.CreatedBy)

	missing, err := f.members.Find(id + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemberUpdate(t *testing.T) {
	f := newFixture(t)
	id := f.addMember(t, models.MemberInput{FirstName: "Jane", LastName: "Doe"})

	later := models.Stamp{ActorID: 2, At: f.stamp.At.Add(time.Hour)}
	ok, err := f.members.Update(id, &models.MemberInput{FirstName: "Jane", LastName: "Roe", City: "Leeds"}, later)
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := f.members.Find(id)
	require.NoError(t, err)
	assert.Equal(t, "Roe", m.LastName)
	assert.Equal(t, "Leeds", m.City)
	assert.Equal(t, int64(2), *m.UpdatedBy)
	assert.Equal(t, int64(1), *m.CreatedBy)

	ok, err = f.members.Update(id+100, &models.MemberInput{FirstName: "X", LastName: "Y"}, later)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberSoftDeleteRoundTrip(t *testing.T) {
	f := newFixture(t)
	id := f.addMember(t, models.MemberInput{FirstName: "Ann", LastName: "Lee"})
	f.addMember(t, models.MemberInput{FirstName: "Bob", LastName: "Lee"})

	for i := 0; i < 2; i++ {
		ok, err := f.members.SoftDelete(id, f.stamp)
		require.NoError(t, err)
		assert.True(t, ok)

		m, err := f.members.Find(id)
		require.NoError(t, err)
		assert.True(t, m.IsDeleted, "soft delete %d should leave the member deleted", i+1)
	}

	list, err := f.members.List(50, 0, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].FirstName)

	withDeleted, err := f.members.List(50, 0, true)
	require.NoError(t, err)
	assert.Len(t, withDeleted, 2)

	for i := 0; i < 2; i++ {
		ok, err := f.members.Restore(id, f.stamp)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	list, err = f.members.List(50, 0, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemberHardDeleteBlockedByChildren(t *testing.T) {
	f := newFixture(t)
	parent := f.addMember(t, models.MemberInput{FirstName: "Pat", LastName: "Old"})
	child := f.addMember(t, models.MemberInput{FirstName: "Kim", LastName: "Old", Parent2ID: &parent})

	_, err := f.members.HardDelete(parent)
	var refErr *ReferentialIntegrityError
	require.True(t, errors.As(err, &refErr), "expected ReferentialIntegrityError, got %v", err)
	assert.Equal(t, 1, refErr.Count)
	assert.Equal(t, "member", refErr.Entity)

	// A soft-deleted child no longer blocks
	_, err = f.members.SoftDelete(child, f.stamp)
	require.NoError(t, err)

	ok, err := f.members.HardDelete(parent)
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := f.members.Find(parent)
	require.NoError(t, err)
	assert.Nil(t, m)

	// The FK nulls the dangling link on the deleted child
	c, err := f.members.Find(child)
	require.NoError(t, err)
	assert.Nil(t, c.Parent2ID)

	ok, err = f.members.HardDelete(parent)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberHardDeletePreservesMarriageNames(t *testing.T) {
	f := newFixture(t)
	h := f.addMember(t, models.MemberInput{FirstName: "John", MiddleName: "Paul", LastName: "Doe"})
	w := f.addMember(t, models.MemberInput{FirstName: "Mary", LastName: "Doe"})
	lone := f.addMember(t, models.MemberInput{FirstName: "Solo", LastName: "Doe"})

	couple, err := f.marriages.Add(&models.MarriageInput{HusbandID: &h, WifeID: &w}, f.stamp)
	require.NoError(t, err)
	single, err := f.marriages.Add(&models.MarriageInput{HusbandID: &lone, WifeName: "Someone"}, f.stamp)
	require.NoError(t, err)

	_, err = f.members.HardDelete(h)
	require.NoError(t, err)
	_, err = f.members.HardDelete(lone)
	require.NoError(t, err)

	m, err := f.marriages.FindByID(couple)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Nil(t, m.HusbandID)
	assert.Equal(t, "John Paul Doe", m.HusbandName)
	assert.Equal(t, "John Paul Doe", m.HusbandDisplayName)
	assert.Equal(t, "Mary Doe", m.WifeDisplayName)

	gone, err := f.marriages.FindByID(single)
	require.NoError(t, err)
	assert.Nil(t, gone, "a marriage without any linked member should be removed")
}

func TestMemberSearch(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, models.MemberInput{FirstName: "Alice", LastName: "Walker"})
	f.addMember(t, models.MemberInput{FirstName: "Bob", LastName: "Walker", Nickname: "Bobby"})
	deleted := f.addMember(t, models.MemberInput{FirstName: "Alicia", LastName: "Keys"})
	f.addMember(t, models.MemberInput{FirstName: "Per%cent", LastName: "Sign"})
	_, err := f.members.SoftDelete(deleted, f.stamp)
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"ali", []string{"Alice"}},
		{"WALKER", []string{"Alice", "Bob"}},
		{"bob walk", []string{"Bob"}},
		{"%", []string{"Per%cent"}},
		{"   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := f.members.Search(tt.query, 20)
			require.NoError(t, err)

			var names []string
			for _, m := range got {
				names = append(names, m.FirstName)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestMemberChildrenAndTreeData(t *testing.T) {
	f := newFixture(t)
	clanID := f.addClan(t, "Oak")
	a := f.addMember(t, models.MemberInput{FirstName: "A", LastName: "Oak", ClanID: &clanID})
	f.addMember(t, models.MemberInput{FirstName: "Young", LastName: "Oak", Parent1ID: &a, BirthDate: "1990-01-01"})
	f.addMember(t, models.MemberInput{FirstName: "Undated", LastName: "Oak", Parent1ID: &a})
	f.addMember(t, models.MemberInput{FirstName: "Old", LastName: "Oak", Parent1ID: &a, BirthDate: "1980-01-01"})

	children, err := f.members.Children(a)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "Old", children[0].FirstName)
	assert.Equal(t, "Young", children[1].FirstName)
	assert.Equal(t, "Undated", children[2].FirstName)

	count, err := f.members.CountChildren(a)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	rows, err := f.members.TreeData()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Oak", rows[0].ClanName)
	assert.Equal(t, a, *rows[1].Parent1ID)
}

func TestClanAddWithDetails(t *testing.T) {
	f := newFixture(t)

	id, err := f.clans.Add(&models.ClanInput{
		ClanName:    "MacLeod",
		Description: "Highland clan",
		OriginYear:  intPtr(1200),
		Locations:   []string{" Skye ", "", "Lewis"},
		Surnames:    []string{"MacLeod", "MacLeod"},
	}, f.stamp)
	require.NoError(t, err)

	c, err := f.clans.GetWithDetails(id)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "MacLeod", c.ClanName)
	assert.Equal(t, 1200, *c.OriginYear)
	require.Len(t, c.Locations, 2)
	assert.Equal(t, "Skye", c.Locations[0].LocationName)
	assert.True(t, c.Locations[0].IsPrimary)
	assert.False(t, c.Locations[1].IsPrimary)
	assert.Len(t, c.Surnames, 2, "duplicate surnames are kept")

	missing, err := f.clans.GetWithDetails(id + 10)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClanUpdateReplacesTags(t *testing.T) {
	f := newFixture(t)
	id := f.addClan(t, "Ash")

	before, err := f.clans.Locations(id)
	require.NoError(t, err)
	locID := before[0].ID
	member := f.addMember(t, models.MemberInput{FirstName: "M", LastName: "Ash", ClanID: &id, ClanLocationID: &locID})

	ok, err := f.clans.Update(id, &models.ClanInput{
		ClanName:  "Ash Tree",
		Locations: []string{"North", "South"},
		Surnames:  []string{"Ashe"},
	}, f.stamp)
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := f.clans.GetWithDetails(id)
	require.NoError(t, err)
	assert.Equal(t, "Ash Tree", c.ClanName)
	require.Len(t, c.Locations, 2)
	assert.Equal(t, "North", c.Locations[0].LocationName)
	require.Len(t, c.Surnames, 1)
	assert.Equal(t, "Ashe", c.Surnames[0].LastName)

	m, err := f.members.Find(member)
	require.NoError(t, err)
	assert.Nil(t, m.ClanLocationID)
	assert.Equal(t, id, *m.ClanID)

	ok, err = f.clans.Update(id+10, &models.ClanInput{ClanName: "None"}, f.stamp)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClanDelete(t *testing.T) {
	f := newFixture(t)
	id := f.addClan(t, "Birch")
	other := f.addClan(t, "Alder")
	member := f.addMember(t, models.MemberInput{FirstName: "B", LastName: "Birch", ClanID: &id})

	ok, err := f.clans.Delete(id)
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := f.clans.GetWithDetails(id)
	require.NoError(t, err)
	assert.Nil(t, c)

	locations, err := f.clans.AllLocations()
	require.NoError(t, err)
	for _, l := range locations {
		assert.Equal(t, other, l.ClanID)
	}

	m, err := f.members.Find(member)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Nil(t, m.ClanID)

	all, err := f.clans.GetAllWithDetails()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alder", all[0].ClanName)
	assert.Len(t, all[0].Locations, 1)

	simple, err := f.clans.GetAllSimple()
	require.NoError(t, err)
	assert.Equal(t, []models.ClanSummary{{ID: other, ClanName: "Alder"}}, simple)
}

func TestClanMembershipChecks(t *testing.T) {
	f := newFixture(t)
	a := f.addClan(t, "Elm")
	b := f.addClan(t, "Fir")

	aLocs, err := f.clans.Locations(a)
	require.NoError(t, err)
	bSurs, err := f.clans.Surnames(b)
	require.NoError(t, err)

	ok, err := f.clans.LocationBelongsTo(a, aLocs[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.clans.LocationBelongsTo(b, aLocs[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.clans.SurnameBelongsTo(a, bSurs[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarriageOrderAutoAssignment(t *testing.T) {
	f := newFixture(t)
	h := f.addMember(t, models.MemberInput{FirstName: "Henry", LastName: "Tudor", Gender: "Male"})

	for _, wife := range []string{"Catherine", "Anne"} {
		_, err := f.marriages.Add(&models.MarriageInput{HusbandID: &h, WifeName: wife}, f.stamp)
		require.NoError(t, err)
	}

	id, err := f.marriages.Add(&models.MarriageInput{HusbandID: &h, WifeName: "X"}, f.stamp)
	require.NoError(t, err)

	m, err := f.marriages.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, 3, m.MarriageOrder)
	assert.Equal(t, models.StatusMarried, m.MarriageStatus)

	explicit, err := f.marriages.Add(&models.MarriageInput{HusbandID: &h, WifeName: "Y", MarriageOrder: intPtr(9)}, f.stamp)
	require.NoError(t, err)
	m, err = f.marriages.FindByID(explicit)
	require.NoError(t, err)
	assert.Equal(t, 9, m.MarriageOrder)

	next, err := f.marriages.NextOrder(h)
	require.NoError(t, err)
	assert.Equal(t, 5, next)
}

func TestMarriageUpdateKeepsOrder(t *testing.T) {
	f := newFixture(t)
	h := f.addMember(t, models.MemberInput{FirstName: "H", LastName: "K"})
	id, err := f.marriages.Add(&models.MarriageInput{HusbandID: &h, WifeName: "W", MarriageOrder: intPtr(4)}, f.stamp)
	require.NoError(t, err)

	ok, err := f.marriages.Update(id, &models.MarriageInput{
		HusbandID:      &h,
		WifeName:       "W",
		MarriageStatus: "divorced",
		DivorceDate:    "2001-01-01",
	}, f.stamp)
	require.NoError(t, err)
	assert.True(t, ok)

	m, err := f.marriages.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, 4, m.MarriageOrder)
	assert.Equal(t, models.StatusDivorced, m.MarriageStatus)
	assert.Equal(t, "2001-01-01", m.DivorceDate)

	ok, err = f.marriages.Delete(id)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.marriages.Delete(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarriageGetForMemberOrdering(t *testing.T) {
	f := newFixture(t)
	h := f.addMember(t, models.MemberInput{FirstName: "Ed", LastName: "Gray"})

	add := func(wife, date string, order int) {
		_, err := f.marriages.Add(&models.MarriageInput{
			HusbandID: &h, WifeName: wife, MarriageDate: date, MarriageOrder: intPtr(order),
		}, f.stamp)
		require.NoError(t, err)
	}
	add("Undated", "", 1)
	add("Later", "1990-06-01", 3)
	add("Earlier", "1980-06-01", 2)

	got, err := f.marriages.GetForMember(h)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Earlier", got[0].WifeDisplayName)
	assert.Equal(t, "Later", got[1].WifeDisplayName)
	assert.Equal(t, "Undated", got[2].WifeDisplayName)
	assert.Equal(t, "Ed Gray", got[0].HusbandDisplayName)

	count, err := f.marriages.CountForMember(h)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMarriageChildrenOfCouple(t *testing.T) {
	f := newFixture(t)
	h := f.addMember(t, models.MemberInput{FirstName: "Tom", LastName: "Fox"})
	w := f.addMember(t, models.MemberInput{FirstName: "Sue", LastName: "Fox"})
	other := f.addMember(t, models.MemberInput{FirstName: "Ivy", LastName: "Fox"})

	both, err := f.marriages.Add(&models.MarriageInput{HusbandID: &h, WifeID: &w}, f.stamp)
	require.NoError(t, err)
	named, err := f.marriages.Add(&models.MarriageInput{HusbandID: &h, WifeName: "Rose Red"}, f.stamp)
	require.NoError(t, err)
	wifeOnly, err := f.marriages.Add(&models.MarriageInput{WifeID: &other, HusbandName: "Unknown"}, f.stamp)
	require.NoError(t, err)

	f.addMember(t, models.MemberInput{FirstName: "C1", LastName: "Fox", Parent1ID: &h, Parent2ID: &w, BirthDate: "2001-01-01"})
	f.addMember(t, models.MemberInput{FirstName: "C2", LastName: "Fox", Parent1ID: &w, Parent2ID: &h, BirthDate: "2000-01-01"})
	f.addMember(t, models.MemberInput{FirstName: "C3", LastName: "Fox", Parent1ID: &h, Parent2Name: " rose red "})
	f.addMember(t, models.MemberInput{FirstName: "C4", LastName: "Fox", Parent1ID: &h, Parent2Name: "Someone Else"})
	f.addMember(t, models.MemberInput{FirstName: "C5", LastName: "Fox", Parent2ID: &other})

	names := func(ms []models.Member) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.FirstName)
		}
		return out
	}

	got, err := f.marriages.GetChildrenOf(both)
	require.NoError(t, err)
	assert.Equal(t, []string{"C2", "C1"}, names(got))

	got, err = f.marriages.GetChildrenOf(named)
	require.NoError(t, err)
	assert.Equal(t, []string{"C3"}, names(got))

	got, err = f.marriages.GetChildrenOf(wifeOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"C5"}, names(got))

	got, err = f.marriages.GetChildrenOf(9999)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMarriageFindBetween(t *testing.T) {
	f := newFixture(t)
	h := f.addMember(t, models.MemberInput{FirstName: "Al", LastName: "Bee"})
	w := f.addMember(t, models.MemberInput{FirstName: "Cy", LastName: "Dee"})

	linked, err := f.marriages.Add(&models.MarriageInput{HusbandID: &h, WifeID: &w}, f.stamp)
	require.NoError(t, err)
	named, err := f.marriages.Add(&models.MarriageInput{WifeID: &w, HusbandName: "Old Flame"}, f.stamp)
	require.NoError(t, err)

	m, err := f.marriages.FindBetween(w, &h, "")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, linked, m.ID)

	m, err = f.marriages.FindBetween(w, nil, "  old FLAME ")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, named, m.ID)

	m, err = f.marriages.FindBetween(h, nil, "Old Flame")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = f.marriages.FindBetween(h, nil, "")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRunInTxRollsBackRepositoryWrites(t *testing.T) {
	f := newFixture(t)
	sentinel := errors.New("stop")

	err := f.db.WithTx(func(tx *database.Tx) error {
		if _, err := f.members.WithTx(tx).Add(&models.MemberInput{FirstName: "Tx", LastName: "Member"}, f.stamp); err != nil {
			return err
		}
		// Nested multi-statement operations join the outer transaction
		if _, err := f.clans.WithTx(tx).Add(&models.ClanInput{ClanName: "Tx", Locations: []string{"L"}, Surnames: []string{"S"}}, f.stamp); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	all, err := f.members.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	clans, err := f.clans.GetAllSimple()
	require.NoError(t, err)
	assert.Empty(t, clans)
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, "%a!%b!_c!!%", likePattern("A%b_c!"))
}
