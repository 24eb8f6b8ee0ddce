package stock

// Decision is the outcome of a stock check.
type Decision int

const (
	// Allowed means the requested quantity fits under the stock ceiling.
	Allowed Decision = iota
	// LimitExceeded means the resulting quantity would exceed the stock ceiling.
	LimitExceeded
	// Unavailable means the product cannot be added at all.
	Unavailable
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case LimitExceeded:
		return "limit_exceeded"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// CanIncrease reports whether current+delta units of a product may be held given
// the last known stock ceiling. Out-of-stock products are unavailable whatever
// the delta. Decreases never need to be checked. The sum is never formed, so
// huge deltas cannot wrap around.
func CanIncrease(current, delta, ceiling int, outOfStock bool) Decision {
	if outOfStock || ceiling <= 0 {
		return Unavailable
	}
	if current < 0 {
		return LimitExceeded
	}
	if delta <= 0 {
		if current+delta > ceiling {
			return LimitExceeded
		}
		return Allowed
	}
	if delta > ceiling || current > ceiling-delta {
		return LimitExceeded
	}
	return Allowed
}
