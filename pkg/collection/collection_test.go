package collection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status string

func TestMapAndStrings(t *testing.T) {
	assert.Equal(t, []int{2, 4}, Map([]int{1, 2}, func(n int) int { return n * 2 }))
	assert.Equal(t, []string{"ready", "cancelled"}, Strings([]status{"ready", "cancelled"}))
	assert.Equal(t, []string{}, Strings([]status{}))
}

func TestFilterNeverNil(t *testing.T) {
	out := Filter([]int{1, 7, 3}, func(n int) bool { return n > 5 })
	assert.Equal(t, []int{7}, out)

	none := Filter([]int{1}, func(int) bool { return false })
	raw, err := json.Marshal(none)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
