package observed

import (
	"math"
	"strconv"
)

// Demand is the number of values a subscriber is still willing to receive.
type Demand int64

const (
	None      Demand = 0
	Unlimited Demand = math.MaxInt64
)

// Max returns a bounded demand of n values. Negative n is treated as None.
func Max(n int) Demand {
	if n < 0 {
		return None
	}
	return Demand(n)
}

func (d Demand) IsUnlimited() bool {
	return d == Unlimited
}

// add saturates at Unlimited.
func (d Demand) add(n Demand) Demand {
	if d == Unlimited || n == Unlimited || d > Unlimited-n {
		return Unlimited
	}
	return d + n
}

func (d Demand) String() string {
	if d == Unlimited {
		return "unlimited"
	}
	return "max(" + strconv.FormatInt(int64(d), 10) + ")"
}
