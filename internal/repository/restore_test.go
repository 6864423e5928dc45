package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genealogy/internal/models"
)

func TestRestoreKeepsIDsAndLinksParents(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, f.clans.Restore(
		[]models.Clan{{ID: 7, ClanName: "Tudor", OriginYear: intPtr(1485), CreatedAt: at, UpdatedAt: at}},
		[]models.ClanLocation{{ID: 3, ClanID: 7, LocationName: "Pembroke", IsPrimary: true}},
		[]models.ClanSurname{{ID: 4, ClanID: 7, LastName: "Tudor", IsPrimary: true}},
	))

	clanID := int64(7)
	// The child precedes its parent so parents must be linked after every insert
	require.NoError(t, f.members.Restore([]models.Member{
		{ID: 11, ClanID: &clanID, FirstName: "Henry", MiddleName: "  ", LastName: "Tudor",
			Gender: models.GenderMale, Parent1ID: ptr(10), CreatedAt: at, UpdatedAt: at},
		{ID: 10, ClanID: &clanID, FirstName: "Edmund", LastName: "Tudor",
			Gender: models.GenderMale, CreatedAt: at, UpdatedAt: at},
	}))

	require.NoError(t, f.marriages.Restore([]models.Marriage{
		{ID: 5, HusbandID: ptr(10), WifeName: "Margaret Beaufort", MarriageOrder: 2,
			MarriageStatus: models.StatusMarried, CreatedAt: at, UpdatedAt: at},
	}))

	clan, err := f.clans.GetWithDetails(7)
	require.NoError(t, err)
	require.NotNil(t, clan)
	assert.Equal(t, 1485, *clan.OriginYear)
	require.Len(t, clan.Locations, 1)
	assert.Equal(t, int64(3), clan.Locations[0].ID)

	child, err := f.members.Find(11)
	require.NoError(t, err)
	require.NotNil(t, child)
	require.NotNil(t, child.Parent1ID)
	assert.Equal(t, int64(10), *child.Parent1ID)
	assert.Empty(t, child.MiddleName)

	count, err := f.clans.CountMembers(7)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	m, err := f.marriages.FindByID(5)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.MarriageOrder)
	assert.Equal(t, "Margaret Beaufort", m.WifeName)
}

func TestRestoreReportsCollisions(t *testing.T) {
	f := newFixture(t)
	id := f.addClan(t, "Birch")

	err := f.clans.Restore([]models.Clan{{ID: id, ClanName: "Again"}}, nil, nil)
	assert.Error(t, err)
}
