package application

import (
	"hash/fnv"
	"sync"
)

// ownerLockStripes is the number of mutex stripes owners hash onto. Two
// owners sharing a stripe serialize against each other, which is harmless;
// what matters is that one owner always maps to the same stripe.
const ownerLockStripes = 128

// OwnerLocks serializes mutating vault operations per owner so concurrent
// requests for the same owner cannot interleave. Read-only operations never
// take a stripe.
type OwnerLocks struct {
	stripes [ownerLockStripes]sync.Mutex
}

// NewOwnerLocks creates an OwnerLocks with every stripe unlocked
func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{}
}

// Lock acquires the owner's stripe and returns the matching unlock
func (l *OwnerLocks) Lock(owner string) func() {
	stripe := &l.stripes[stripeIndex(owner)]
	stripe.Lock()
	return stripe.Unlock
}

func stripeIndex(owner string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(owner))
	return h.Sum32() % ownerLockStripes
}
