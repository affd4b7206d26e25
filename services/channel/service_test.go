package channel

import (
	"context"
	"testing"

	"memealerts-eventplane/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestResolve(t *testing.T) {
	db := testutil.NewTestDB(t, &Channel{})
	svc := NewService(ServiceParams{DB: db})

	require.NoError(t, db.Create(&Channel{
		ID:                "chan-1",
		Provider:          "twitch",
		ProviderChannelID: "12345",
		IsLive:            true,
		ChatDestination:   "#streamer",
	}).Error)

	ch, err := svc.Resolve(context.Background(), "twitch", "12345")
	require.NoError(t, err)
	require.NotNil(t, ch)
	require.Equal(t, "chan-1", ch.ID)

	// Same platform id on another provider is a different channel.
	ch, err = svc.Resolve(context.Background(), "kick", "12345")
	require.NoError(t, err)
	require.Nil(t, ch)
}

func TestGetUnknownChannel(t *testing.T) {
	db := testutil.NewTestDB(t, &Channel{})
	svc := NewService(ServiceParams{DB: db})

	ch, err := svc.Get(context.Background(), "ghost")
	require.NoError(t, err)
	require.Nil(t, ch)
}

func TestIsLive(t *testing.T) {
	db := testutil.NewTestDB(t, &Channel{})
	svc := NewService(ServiceParams{DB: db})

	require.NoError(t, db.Create(&Channel{
		ID:                "chan-1",
		Provider:          "twitch",
		ProviderChannelID: "12345",
		IsLive:            false,
	}).Error)

	live, err := svc.IsLive(context.Background(), "chan-1")
	require.NoError(t, err)
	require.False(t, live)

	live, err = svc.IsLive(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, live)
}
