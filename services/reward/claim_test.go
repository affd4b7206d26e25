package reward

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimCreditsPendingGrants(t *testing.T) {
	svc, wallets, db := newTestService(t)

	for _, in := range []RecordInput{
		{Provider: "twitch", ProviderEventID: "evt-1", ChannelID: "chan-1", ProviderAccountID: "acct-1", EventType: "subscribe", Decision: Decision{Eligible: true, Coins: 100}},
		{Provider: "twitch", ProviderEventID: "evt-2", ChannelID: "chan-1", ProviderAccountID: "acct-1", EventType: "cheer", Decision: Decision{Eligible: true, Coins: 10}},
		{Provider: "twitch", ProviderEventID: "evt-3", ChannelID: "chan-1", ProviderAccountID: "acct-1", EventType: "raid", Decision: Decision{Reason: ReasonRaidTooSmall}},
		{Provider: "twitch", ProviderEventID: "evt-4", ChannelID: "chan-1", ProviderAccountID: "other", EventType: "follow", Decision: Decision{Eligible: true, Coins: 5}},
	} {
		record(t, svc, db, in)
	}

	claimed, err := svc.Claim(context.Background(), "user-1", "twitch", "acct-1")
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	balance, err := wallets.Balance(context.Background(), "user-1", "chan-1")
	require.NoError(t, err)
	require.Equal(t, int64(110), balance)

	// Ignored rows and other identities stay untouched.
	var unclaimed int64
	require.NoError(t, db.Model(&RewardEvent{}).Where("claimed_at IS NULL").Count(&unclaimed).Error)
	require.Equal(t, int64(2), unclaimed)
}

func TestClaimIsIdempotent(t *testing.T) {
	svc, wallets, db := newTestService(t)

	record(t, svc, db, RecordInput{
		Provider: "twitch", ProviderEventID: "evt-1", ChannelID: "chan-1",
		ProviderAccountID: "acct-1", EventType: "subscribe",
		Decision: Decision{Eligible: true, Coins: 100},
	})

	first, err := svc.Claim(context.Background(), "user-1", "twitch", "acct-1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Claim(context.Background(), "user-1", "twitch", "acct-1")
	require.NoError(t, err)
	require.Empty(t, second)

	balance, err := wallets.Balance(context.Background(), "user-1", "chan-1")
	require.NoError(t, err)
	require.Equal(t, int64(100), balance)
}

func TestClaimNothingPending(t *testing.T) {
	svc, _, _ := newTestService(t)

	claimed, err := svc.Claim(context.Background(), "user-1", "twitch", "acct-1")
	require.NoError(t, err)
	require.Empty(t, claimed)
}
