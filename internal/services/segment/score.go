package segment

import (
	"time"

	"loyalty/internal/models"
)

// Score is the RFM evaluation of one wallet's ledger.
type Score struct {
	Recency   int            `json:"recency"`
	Frequency int            `json:"frequency"`
	Monetary  int            `json:"monetary"`
	RFMScore  int            `json:"rfm_score"`
	CLV       int64          `json:"clv_value"`
	Segment   models.Segment `json:"segment"`
}

// Compute scores entries as of now. An empty history scores zero and is
// labelled NEW.
func Compute(entries []models.LedgerEntry, now time.Time) Score {
	if len(entries) == 0 {
		return Score{Segment: models.SegmentNew}
	}

	latest := entries[0].CreatedAt
	var monetary int64
	for _, e := range entries {
		if e.CreatedAt.After(latest) {
			latest = e.CreatedAt
		}
		if e.PointsDelta > 0 {
			monetary += e.PointsDelta
		}
	}

	days := int(now.Sub(latest).Hours() / 24)
	s := Score{
		Recency:   recencyScore(days),
		Frequency: frequencyScore(len(entries)),
		Monetary:  monetaryScore(monetary),
		CLV:       monetary,
	}
	s.RFMScore = s.Recency*100 + s.Frequency*10 + s.Monetary
	s.Segment = classify(s)
	return s
}

func recencyScore(days int) int {
	switch {
	case days <= 7:
		return 5
	case days <= 30:
		return 4
	case days <= 60:
		return 3
	case days <= 90:
		return 2
	default:
		return 1
	}
}

func frequencyScore(count int) int {
	switch {
	case count >= 50:
		return 5
	case count >= 20:
		return 4
	case count >= 10:
		return 3
	case count >= 5:
		return 2
	default:
		return 1
	}
}

func monetaryScore(sum int64) int {
	switch {
	case sum >= 5000:
		return 5
	case sum >= 2000:
		return 4
	case sum >= 1000:
		return 3
	case sum >= 500:
		return 2
	default:
		return 1
	}
}

// classify applies the segment rules in order; the first match wins.
func classify(s Score) models.Segment {
	switch {
	case s.RFMScore >= 444:
		return models.SegmentVIP
	case s.Recency <= 2 && s.Frequency >= 4:
		return models.SegmentAtRisk
	case s.Recency >= 4 && s.Frequency <= 2:
		return models.SegmentNewPotential
	case s.Recency <= 1:
		return models.SegmentChurned
	default:
		return models.SegmentStandard
	}
}
