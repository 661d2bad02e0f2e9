package engine

import (
	"context"
	"log"
	"time"
)

const (
	resetEnergyBoost   = 30
	resetPatienceBoost = 20
	staleImportance    = 5
	staleAge           = 3 * 24 * time.Hour

	interactionCountPrefix = "interactions:"
)

// moods remapped to neutral by the daily reset.
var exhaustedMoods = map[string]bool{
	"exhausted": true, "drained": true, "angry": true,
	"irritable": true, "sad": true, "miserable": true,
}

// ResetResult summarizes one daily reset.
type ResetResult struct {
	OwnersReset     int `json:"owners_reset"`
	MoodsReset      int `json:"moods_reset"`
	CountersCleared int `json:"counters_cleared"`
	MemoriesDeleted int `json:"memories_deleted"`
}

// DailyReset restores vitals across the cast and sweeps low-value old
// memories. The cleanup here is coarse and importance-based, independent of
// the tiered review path.
func (e *Engine) DailyReset(ctx context.Context) ResetResult {
	var result ResetResult

	all, err := e.DB.AllVitals()
	if err != nil {
		log.Printf("reset: list vitals: %v", err)
		return result
	}

	for _, v := range all {
		if err := e.DB.AdjustVitals(v.OwnerID, resetEnergyBoost, resetPatienceBoost); err != nil {
			log.Printf("reset: vitals for %s: %v", v.OwnerID, err)
			continue
		}
		result.OwnersReset++

		if exhaustedMoods[v.Mood] {
			if err := e.DB.SetMood(v.OwnerID, "neutral"); err != nil {
				log.Printf("reset: mood for %s: %v", v.OwnerID, err)
				continue
			}
			result.MoodsReset++
		}
	}

	cleared, err := e.DB.DeleteSettingsPrefix(interactionCountPrefix)
	if err != nil {
		log.Printf("reset: clear interaction counters: %v", err)
	} else {
		result.CountersCleared = cleared
	}

	cutoff := time.Now().Add(-staleAge).UnixMilli()
	deleted, err := e.DB.DeleteStaleMemories(staleImportance, cutoff)
	if err != nil {
		log.Printf("reset: stale memory cleanup: %v", err)
	} else {
		result.MemoriesDeleted = deleted
	}

	log.Printf("reset: %d owners restored, %d moods reset, %d stale memories deleted",
		result.OwnersReset, result.MoodsReset, result.MemoriesDeleted)
	return result
}
