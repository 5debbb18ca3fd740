package telegram

import "sync"

type messageKey struct {
	chatID    int64
	messageID int
}

// OwnershipRegistry remembers which user an interactive menu message belongs
// to. Every deposit-flow transition checks it before rendering, so a second
// user tapping someone else's menu cannot drive their flow.
type OwnershipRegistry struct {
	mu     sync.RWMutex
	owners map[messageKey]int64
}

// NewOwnershipRegistry creates an empty registry.
func NewOwnershipRegistry() *OwnershipRegistry {
	return &OwnershipRegistry{
		owners: make(map[messageKey]int64),
	}
}

// SetOwner records the owner of a menu message.
func (r *OwnershipRegistry) SetOwner(chatID int64, messageID int, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[messageKey{chatID, messageID}] = userID
}

// IsOwner reports whether the user may interact with a menu message.
// Messages never registered (sent before a restart, or outside the deposit
// flow) are treated as owned by whoever taps them first.
func (r *OwnershipRegistry) IsOwner(chatID int64, messageID int, userID int64) bool {
	r.mu.RLock()
	owner, ok := r.owners[messageKey{chatID, messageID}]
	r.mu.RUnlock()

	if !ok {
		r.SetOwner(chatID, messageID, userID)
		return true
	}
	return owner == userID
}

// Forget drops a message from the registry once its flow ends.
func (r *OwnershipRegistry) Forget(chatID int64, messageID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, messageKey{chatID, messageID})
}
