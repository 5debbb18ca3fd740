package deposit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MakeOrderRef builds the order reference sent to the processor at invoice
// creation. It embeds the Telegram user id (so the webhook can resolve the
// payer) followed by a random UUID, which keeps references unique even when
// the same user creates several invoices in the same second.
func MakeOrderRef(userID int64) string {
	return fmt.Sprintf("%d_%s", userID, uuid.NewString())
}

// ParseOrderRef resolves the Telegram user id an order reference was created
// for. The id is everything before the first underscore.
func ParseOrderRef(ref string) (int64, error) {
	idStr, _, found := strings.Cut(ref, "_")
	if !found {
		return 0, fmt.Errorf("order reference %q has no user id prefix", ref)
	}

	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("order reference %q has invalid user id prefix", ref)
	}

	return userID, nil
}
