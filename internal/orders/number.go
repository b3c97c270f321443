package orders

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const (
	numberPrefix       = "ORD"
	numberDateFormat   = "20060102"
	maxRandomAttempts  = 5
	randomSuffixDigits = 10000
)

// NumberAllocator hands out human-readable order numbers of the form
// ORD-YYYYMMDD-NNNN. The random suffix keeps numbers unguessable; the storage
// unique index on order_number is the real uniqueness guarantee, this
// allocator only keeps collisions rare.
type NumberAllocator struct {
	exists  func(ctx context.Context, number string) (bool, error)
	now     func() time.Time
	randInt func(n int) int
}

// NewNumberAllocator builds an allocator that consults exists before handing
// out a candidate number.
func NewNumberAllocator(exists func(ctx context.Context, number string) (bool, error)) *NumberAllocator {
	return &NumberAllocator{
		exists:  exists,
		now:     time.Now,
		randInt: rand.Intn,
	}
}

// Next returns an order number unused at the time of the check. After a few
// colliding random attempts it degrades to a millisecond-timestamp form that
// cannot realistically collide, so Next itself never fails the checkout.
func (a *NumberAllocator) Next(ctx context.Context) string {
	now := a.now()
	prefix := fmt.Sprintf("%s-%s-", numberPrefix, now.Format(numberDateFormat))

	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%04d", prefix, a.randInt(randomSuffixDigits))
		if a.exists == nil {
			return candidate
		}
		taken, err := a.exists(ctx, candidate)
		if err != nil {
			// existence check is best effort, fall through to the
			// timestamped form instead of failing the order
			break
		}
		if !taken {
			return candidate
		}
	}

	return fmt.Sprintf("%s%d-%04d", prefix, now.UnixMilli(), a.randInt(randomSuffixDigits))
}
