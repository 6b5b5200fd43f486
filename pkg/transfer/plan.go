package transfer

import (
	"fmt"
)

// Part is one byte range of a ranged download. Start and End are inclusive
// offsets, matching the HTTP Range header convention.
type Part struct {
	Index int
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the part.
func (p Part) Length() int64 {
	return p.End - p.Start + 1
}

// RangedDownloadPlan partitions [0, TotalSize) into disjoint contiguous
// parts of PartSize bytes (the last part may be shorter). The sum of all
// part lengths equals TotalSize exactly.
type RangedDownloadPlan struct {
	TotalSize int64
	PartSize  int64
	PartCount int
	DestPath  string
}

// NewRangedDownloadPlan builds a plan for the given object size.
func NewRangedDownloadPlan(totalSize, partSize int64, destPath string) (*RangedDownloadPlan, error) {
	if totalSize <= 0 {
		return nil, fmt.Errorf("total size must be positive, got %d", totalSize)
	}
	if partSize <= 0 {
		return nil, fmt.Errorf("part size must be positive, got %d", partSize)
	}

	count := totalSize / partSize
	if totalSize%partSize != 0 {
		count++
	}

	return &RangedDownloadPlan{
		TotalSize: totalSize,
		PartSize:  partSize,
		PartCount: int(count),
		DestPath:  destPath,
	}, nil
}

// Part returns the byte range for a part index.
func (p *RangedDownloadPlan) Part(index int) Part {
	start := int64(index) * p.PartSize
	end := start + p.PartSize - 1
	if end > p.TotalSize-1 {
		end = p.TotalSize - 1
	}
	return Part{Index: index, Start: start, End: end}
}

// Parts returns the full ordered part list.
func (p *RangedDownloadPlan) Parts() []Part {
	parts := make([]Part, p.PartCount)
	for i := 0; i < p.PartCount; i++ {
		parts[i] = p.Part(i)
	}
	return parts
}
