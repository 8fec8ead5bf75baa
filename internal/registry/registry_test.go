package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayo6706/hufflepay/internal/domain"
)

func TestRegistryPutGet(t *testing.T) {
	r := New()

	swap := &domain.Swap{ID: "swap_1", Status: domain.SwapStatusInitiated}
	r.Put(swap)

	got, err := r.Get("swap_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusInitiated, got.Status)

	// Mutating either side does not leak into the stored record.
	got.Status = domain.SwapStatusFailed
	swap.Status = domain.SwapStatusExecuting

	again, err := r.Get("swap_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusInitiated, again.Status)
}

func TestRegistryGetMissing(t *testing.T) {
	r := New()
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, domain.ErrSwapNotFound)
}

func TestRegistryOverwrite(t *testing.T) {
	r := New()
	r.Put(&domain.Swap{ID: "swap_1", Status: domain.SwapStatusInitiated})
	r.Put(&domain.Swap{ID: "swap_1", Status: domain.SwapStatusCompleted})

	got, err := r.Get("swap_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusCompleted, got.Status)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryList(t *testing.T) {
	r := New()
	r.Put(&domain.Swap{ID: "swap_1"})
	r.Put(&domain.Swap{ID: "swap_2"})
	r.Put(&domain.Swap{ID: "swap_3"})

	swaps := r.List()
	assert.Len(t, swaps, 3)
	assert.Equal(t, 3, r.Len())
}
