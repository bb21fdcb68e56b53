package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/geo"
	"github.com/oggyb/campus-match/internal/interest"
	"github.com/oggyb/campus-match/internal/testutil"
)

func TestSeedTestData(t *testing.T) {
	gdb := testutil.NewDB(t)
	tax := interest.Default()

	// stale rows are wiped
	require.NoError(t, gdb.Create(&db.Like{LikerID: 900, TargetID: 901}).Error)

	require.NoError(t, db.SeedTestData(gdb, tax, "http://127.0.0.1:9/hook"))

	var users []db.User
	require.NoError(t, gdb.Find(&users).Error)
	require.Len(t, users, 20)
	for _, u := range users {
		assert.NotEmpty(t, u.Region)
		for _, tok := range interest.ParseList(u.Interests) {
			assert.True(t, tax.IsValid(tok), tok)
		}
	}

	var locations []db.Location
	require.NoError(t, gdb.Find(&locations).Error)
	assert.Len(t, locations, 3*len(tax.Categories()))
	for _, l := range locations {
		_, err := geo.ParseCoordinates(l.Coordinates)
		assert.NoError(t, err, l.Coordinates)
	}

	var stale int64
	require.NoError(t, gdb.Model(&db.Like{}).Where("liker_id = ?", 900).Count(&stale).Error)
	assert.Zero(t, stale)

	// every match is canonical and backed by both like edges
	var matches []db.Match
	require.NoError(t, gdb.Find(&matches).Error)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.Less(t, m.UserAID, m.UserBID)
		var edges int64
		require.NoError(t, gdb.Model(&db.Like{}).
			Where("(liker_id = ? AND target_id = ?) OR (liker_id = ? AND target_id = ?)", m.UserAID, m.UserBID, m.UserBID, m.UserAID).
			Count(&edges).Error)
		assert.Equal(t, int64(2), edges)
	}

	var hooks int64
	require.NoError(t, gdb.Model(&db.WebhookConfig{}).Count(&hooks).Error)
	assert.Equal(t, int64(3), hooks)
}

func TestSeedTestDataWithoutWebhooks(t *testing.T) {
	gdb := testutil.NewDB(t)
	require.NoError(t, db.SeedTestData(gdb, interest.Default(), ""))

	var hooks int64
	require.NoError(t, gdb.Model(&db.WebhookConfig{}).Count(&hooks).Error)
	assert.Zero(t, hooks)
}
