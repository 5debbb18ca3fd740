package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnershipRegistry(t *testing.T) {
	r := NewOwnershipRegistry()

	r.SetOwner(100, 1, 12345)
	assert.True(t, r.IsOwner(100, 1, 12345))
	assert.False(t, r.IsOwner(100, 1, 999), "someone else's menu")

	// Same message id in a different chat is a different message.
	assert.True(t, r.IsOwner(200, 1, 999))
}

func TestOwnershipRegistry_UnknownMessageClaimedByFirstTap(t *testing.T) {
	r := NewOwnershipRegistry()

	assert.True(t, r.IsOwner(100, 7, 12345))
	assert.False(t, r.IsOwner(100, 7, 999), "first tap claimed the message")
}

func TestOwnershipRegistry_Forget(t *testing.T) {
	r := NewOwnershipRegistry()

	r.SetOwner(100, 1, 12345)
	r.Forget(100, 1)

	assert.True(t, r.IsOwner(100, 1, 999), "forgotten messages are claimable again")
}
