package polka

import (
	"fmt"
	"math/big"
)

// Interval is a range of integers. A nil bound is infinite.
type Interval struct {
	Lo, Hi *big.Int
	Empty  bool
}

// Bounded reports whether both ends are finite
func (i Interval) Bounded() bool {
	return !i.Empty && i.Lo != nil && i.Hi != nil
}

// Contains reports whether v lies within the interval
func (i Interval) Contains(v *big.Int) bool {
	if i.Empty {
		return false
	}
	return (i.Lo == nil || i.Lo.Cmp(v) <= 0) && (i.Hi == nil || v.Cmp(i.Hi) <= 0)
}

func (i Interval) String() string {
	if i.Empty {
		return "[]"
	}
	lo, hi := "-oo", "+oo"
	if i.Lo != nil {
		lo = i.Lo.String()
	}
	if i.Hi != nil {
		hi = i.Hi.String()
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}
