package service

import (
	"fmt"

	"github.com/ayo6706/hufflepay/internal/domain"
)

// swapTransitions is the allowed status graph. Completed and failed are
// terminal; initiated may fail directly when invoice creation breaks
// before execution starts.
var swapTransitions = map[domain.SwapStatus]map[domain.SwapStatus]struct{}{
	domain.SwapStatusInitiated: {
		domain.SwapStatusExecuting: {},
		domain.SwapStatusFailed:    {},
	},
	domain.SwapStatusExecuting: {
		domain.SwapStatusCompleted: {},
		domain.SwapStatusFailed:    {},
	},
	domain.SwapStatusCompleted: {},
	domain.SwapStatusFailed:    {},
}

func canTransition(current, next domain.SwapStatus) bool {
	nextStates, ok := swapTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

// transitionSwap validates and applies a status change in place.
func transitionSwap(swap *domain.Swap, next domain.SwapStatus) error {
	if swap.Status == next {
		return nil
	}
	if !canTransition(swap.Status, next) {
		return fmt.Errorf("invalid swap state transition: %s -> %s", swap.Status, next)
	}
	swap.Status = next
	return nil
}
