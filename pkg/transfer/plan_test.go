package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangedDownloadPlanPartition(t *testing.T) {
	tests := []struct {
		name      string
		totalSize int64
		partSize  int64
		wantParts int
	}{
		{"exact multiple", 30, 10, 3},
		{"remainder", 25, 10, 3},
		{"single part", 5, 10, 1},
		{"one byte", 1, 10, 1},
		{"part size one", 7, 1, 7},
		{"large", 26214400, 10485760, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewRangedDownloadPlan(tt.totalSize, tt.partSize, "/tmp/out")
			require.NoError(t, err)
			assert.Equal(t, tt.wantParts, plan.PartCount)

			// Parts must partition [0, totalSize) exactly: contiguous,
			// disjoint, and summing to the total.
			var sum int64
			var cursor int64
			for _, part := range plan.Parts() {
				assert.Equal(t, cursor, part.Start)
				assert.GreaterOrEqual(t, part.End, part.Start)
				sum += part.Length()
				cursor = part.End + 1
			}
			assert.Equal(t, tt.totalSize, sum)
			assert.Equal(t, tt.totalSize, cursor)
		})
	}
}

func TestRangedDownloadPlanRejectsBadInput(t *testing.T) {
	_, err := NewRangedDownloadPlan(0, 10, "/tmp/out")
	assert.Error(t, err)

	_, err = NewRangedDownloadPlan(-5, 10, "/tmp/out")
	assert.Error(t, err)

	_, err = NewRangedDownloadPlan(10, 0, "/tmp/out")
	assert.Error(t, err)
}

func TestRangedDownloadPlanLastPartShortened(t *testing.T) {
	plan, err := NewRangedDownloadPlan(25, 10, "/tmp/out")
	require.NoError(t, err)

	last := plan.Part(2)
	assert.Equal(t, int64(20), last.Start)
	assert.Equal(t, int64(24), last.End)
	assert.Equal(t, int64(5), last.Length())
}
