package neighbor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"meshnet/wire"
)

func TestNewSetSeedsPulses(t *testing.T) {
	s := NewSet([]wire.NodeID{1, 2})
	assert.True(t, s.IsNeighbor(1))
	assert.True(t, s.IsNeighbor(2))
	assert.False(t, s.IsNeighbor(3))
	assert.Equal(t, []wire.NodeID{1, 2}, s.List())
}

func TestTickAndPruneRemovesAtZero(t *testing.T) {
	s := NewSet([]wire.NodeID{5})
	for i := 0; i < InitialPulse-1; i++ {
		dead := s.TickAndPrune()
		assert.Empty(t, dead)
		assert.True(t, s.IsNeighbor(5))
	}
	dead := s.TickAndPrune()
	assert.Equal(t, []wire.NodeID{5}, dead)
	assert.False(t, s.IsNeighbor(5))
}

func TestRefreshPulseAddsAndRearms(t *testing.T) {
	s := NewSet(nil)
	assert.False(t, s.IsNeighbor(3))
	s.RefreshPulse(3)
	assert.True(t, s.IsNeighbor(3))
	for i := 0; i < InitialPulse-1; i++ {
		s.TickAndPrune()
	}
	assert.True(t, s.IsNeighbor(3))
	s.RefreshPulse(3)
	for i := 0; i < InitialPulse-1; i++ {
		dead := s.TickAndPrune()
		assert.Empty(t, dead)
	}
	assert.True(t, s.IsNeighbor(3))
}
