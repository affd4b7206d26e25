package rediskey

import "fmt"

// Channel and wallet keys (global convention across services)
const (
	ChannelLeasePrefix = "outbox:lease"
	WalletTopicPrefix  = "wallet:updates"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildChannelLeaseKey returns "outbox:lease:{provider}:{channelID}"
func BuildChannelLeaseKey(provider, channelID string) string {
	return NamespaceKey(ChannelLeasePrefix, fmt.Sprintf("%s:%s", provider, channelID))
}

// BuildWalletTopicKey returns "wallet:updates:{channelID}"
func BuildWalletTopicKey(channelID string) string {
	return NamespaceKey(WalletTopicPrefix, channelID)
}
