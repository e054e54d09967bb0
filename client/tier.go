package client

import "time"

// Tier classifies an operation by how hard the client fights for it.
// Critical writes get the longest timeout and the most retries; background
// reports are fire-and-forget.
type Tier int

const (
	TierCritical Tier = iota
	TierImportant
	TierAuxiliary
	TierBackground
)

func (t Tier) Timeout() time.Duration {
	if t == TierCritical {
		return 10 * time.Second
	}
	return 5 * time.Second
}

func (t Tier) MaxRetries() int {
	switch t {
	case TierCritical:
		return 3
	case TierImportant, TierAuxiliary:
		return 2
	default:
		return 0
	}
}

func (t Tier) String() string {
	switch t {
	case TierCritical:
		return "critical"
	case TierImportant:
		return "important"
	case TierAuxiliary:
		return "auxiliary"
	case TierBackground:
		return "background"
	default:
		return "unknown"
	}
}
