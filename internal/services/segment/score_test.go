package segment

import (
	"testing"
	"time"

	"loyalty/internal/models"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// history returns n entries, the newest age ago, each crediting delta.
func history(n int, age time.Duration, delta int64) []models.LedgerEntry {
	entries := make([]models.LedgerEntry, n)
	for i := range entries {
		entries[i] = models.LedgerEntry{
			PointsDelta: delta,
			CreatedAt:   now.Add(-age - time.Duration(i)*time.Minute),
		}
	}
	return entries
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.LedgerEntry
		want    Score
	}{
		{
			name:    "no history",
			entries: nil,
			want:    Score{Segment: models.SegmentNew},
		},
		{
			name:    "top scores",
			entries: history(50, days(1), 100),
			want:    Score{Recency: 5, Frequency: 5, Monetary: 5, RFMScore: 555, CLV: 5000, Segment: models.SegmentVIP},
		},
		{
			name:    "exactly 444 is VIP",
			entries: history(20, days(20), 100),
			want:    Score{Recency: 4, Frequency: 4, Monetary: 4, RFMScore: 444, CLV: 2000, Segment: models.SegmentVIP},
		},
		{
			name:    "frequent but lapsing",
			entries: history(20, days(70), 5),
			want:    Score{Recency: 2, Frequency: 4, Monetary: 1, RFMScore: 241, CLV: 100, Segment: models.SegmentAtRisk},
		},
		{
			name:    "recent newcomer",
			entries: history(1, days(2), 100),
			want:    Score{Recency: 5, Frequency: 1, Monetary: 1, RFMScore: 511, CLV: 100, Segment: models.SegmentNewPotential},
		},
		{
			name:    "long gone",
			entries: history(1, days(200), 100),
			want:    Score{Recency: 1, Frequency: 1, Monetary: 1, RFMScore: 111, CLV: 100, Segment: models.SegmentChurned},
		},
		{
			name:    "middle of the road",
			entries: history(10, days(45), 100),
			want:    Score{Recency: 3, Frequency: 3, Monetary: 3, RFMScore: 333, CLV: 1000, Segment: models.SegmentStandard},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.entries, now))
		})
	}
}

func TestComputeIgnoresDebitsInMonetary(t *testing.T) {
	entries := []models.LedgerEntry{
		{PointsDelta: -500, CreatedAt: now.Add(-time.Hour)},
		{PointsDelta: 600, CreatedAt: now.Add(-2 * time.Hour)},
	}
	got := Compute(entries, now)
	assert.Equal(t, int64(600), got.CLV)
	assert.Equal(t, 2, got.Monetary)
}

func TestComputeUsesLatestEntryRegardlessOfOrder(t *testing.T) {
	entries := []models.LedgerEntry{
		{PointsDelta: 10, CreatedAt: now.Add(-days(100))},
		{PointsDelta: 10, CreatedAt: now.Add(-days(3))},
	}
	assert.Equal(t, 5, Compute(entries, now).Recency)
}

func TestScoreBoundaries(t *testing.T) {
	assert.Equal(t, 5, recencyScore(7))
	assert.Equal(t, 4, recencyScore(8))
	assert.Equal(t, 2, recencyScore(90))
	assert.Equal(t, 1, recencyScore(91))

	assert.Equal(t, 1, frequencyScore(4))
	assert.Equal(t, 2, frequencyScore(5))
	assert.Equal(t, 5, frequencyScore(50))

	assert.Equal(t, 1, monetaryScore(499))
	assert.Equal(t, 2, monetaryScore(500))
	assert.Equal(t, 5, monetaryScore(5000))
}
