package tuple

import "github.com/google/uuid"

// TransactionId identifies one transaction across the lock manager and
// buffer pool. Backed by uuid.UUID instead of a hand-rolled counter so IDs
// stay unique across process restarts and concurrent Database instances.
type TransactionId uuid.UUID

// NewTransactionId mints a fresh, globally unique transaction id.
func NewTransactionId() TransactionId {
	return TransactionId(uuid.New())
}

func (t TransactionId) String() string {
	return uuid.UUID(t).String()
}
