package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePortStaysInRange(t *testing.T) {
	r := PortRange{Min: 20000, Max: 20050}
	for i := 0; i < 50; i++ {
		lease, err := AllocatePort(r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, lease.Port, r.Min)
		assert.LessOrEqual(t, lease.Port, r.Max)
		assert.Equal(t, r, lease.Range)
	}
}

func TestAllocatedPortCanBeBound(t *testing.T) {
	lease, err := AllocatePort(DefaultConfig().Ports)
	require.NoError(t, err)
	assert.True(t, portIsFree(lease.Port))
}

func TestAllocatePortFailsWhenEveryCandidateIsBusy(t *testing.T) {
	port := holdPort(t)
	_, err := AllocatePort(PortRange{Min: port, Max: port})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFreePort)

	var se *SetupError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, PhaseAllocate, se.Phase)
}

func TestAllocatePortRejectsInvalidRange(t *testing.T) {
	for _, r := range []PortRange{{Min: 0, Max: 10}, {Min: 10, Max: 9}, {Min: 1000, Max: 70000}} {
		_, err := AllocatePort(r)
		assert.True(t, IsSetupError(err), "range %s", r)
	}
}
