package idgen

import (
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake(t *testing.T) {
	gen, err := New(1)
	require.NoError(t, err)

	seen := make(map[string]bool)
	var prev int64
	for i := 0; i < 1000; i++ {
		id := gen.JobID()
		n, err := strconv.ParseInt(id, 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev, "job ids are increasing")
		assert.False(t, seen[id])
		seen[id] = true
		prev = n
	}

	_, err = uuid.Parse(gen.BatchID())
	assert.NoError(t, err)
}

func TestNew_InvalidNode(t *testing.T) {
	_, err := New(4096)
	assert.Error(t, err)
}
