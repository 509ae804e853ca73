package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/wordtrail/pkg/models"
)

// ProficiencyStep is the amount a single review moves proficiency.
const ProficiencyStep = 0.1

// Proficiency thresholds used for display bands and stats.
const (
	FuzzyThreshold    = 0.5
	FamiliarThreshold = 0.8
	MasteredThreshold = 0.9
)

// Band is a display bucket for a proficiency value
type Band string

const (
	BandUnlearned    Band = "unlearned"
	BandNewlyLearned Band = "newly_learned"
	BandFuzzy        Band = "fuzzy"
	BandFamiliar     Band = "familiar"
)

// BandOf classifies a stored proficiency value.
func BandOf(proficiency float64) Band {
	switch {
	case proficiency < FuzzyThreshold:
		return BandNewlyLearned
	case proficiency < FamiliarThreshold:
		return BandFuzzy
	default:
		return BandFamiliar
	}
}

// NewProgress returns the initial record for an item first learned at now.
// The item is reviewable immediately.
func NewProgress(userID, itemID string, now time.Time) *models.Progress {
	return &models.Progress{
		UserID:         userID,
		ItemID:         itemID,
		Proficiency:    0,
		ReviewStage:    0,
		FirstLearnTime: now,
		LastReviewTime: now,
		NextReviewTime: now,
		ReviewHistory:  []models.ReviewEntry{},
		FromDatabase:   true,
	}
}

// ApplyReview records one review outcome on p and returns the appended history entry.
//
// A remembered review moves the stage up and proficiency up by one step; a
// forgotten one moves both down. Both stay within their bounds.
func ApplyReview(p *models.Progress, remembered bool, now time.Time, table IntervalTable) models.ReviewEntry {
	entry := models.ReviewEntry{
		UserID:     p.UserID,
		ItemID:     p.ItemID,
		Seq:        len(p.ReviewHistory),
		ReviewedAt: now,
		Remembered: remembered,
	}
	p.ReviewHistory = append(p.ReviewHistory, entry)

	if remembered {
		p.ReviewStage = table.Clamp(p.ReviewStage + 1)
		p.Proficiency = adjustProficiency(p.Proficiency, ProficiencyStep)
	} else {
		p.ReviewStage = table.Clamp(p.ReviewStage - 1)
		p.Proficiency = adjustProficiency(p.Proficiency, -ProficiencyStep)
	}

	p.LastReviewTime = now
	p.NextReviewTime = table.NextReview(now, p.ReviewStage)
	return entry
}

// adjustProficiency adds delta, clamps to [0, 1] and rounds to one decimal so
// repeated steps land exactly on the band thresholds.
func adjustProficiency(current, delta float64) float64 {
	v := math.Round((current+delta)*10) / 10
	return math.Max(0, math.Min(1, v))
}
