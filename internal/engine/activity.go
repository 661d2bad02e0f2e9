package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/troupekit/troupe/internal/store"
)

// activityCooldown is the single global per-owner window gating all recovery
// activities.
const activityCooldown = 5 * time.Minute

// CooldownError rejects an activity request inside the cooldown window,
// carrying the time remaining until the boundary.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("activity on cooldown: %s remaining", e.Remaining.Round(time.Second))
}

// ActivityEffect is the fixed vitals delta for one recovery activity.
// Buddy deltas apply to a second, named owner when one is given.
type ActivityEffect struct {
	Energy        int
	Patience      int
	Mood          string // "" leaves mood untouched
	BuddyEnergy   int
	BuddyPatience int
}

var activityEffects = map[string]ActivityEffect{
	"nap":      {Energy: 25, Patience: 10, Mood: "rested"},
	"walk":     {Energy: 10, Patience: 15, Mood: "calm"},
	"snack":    {Energy: 15, Patience: 5},
	"vent":     {Energy: -5, Patience: 25, Mood: "relieved"},
	"hobby":    {Energy: 5, Patience: 20, Mood: "content"},
	"check_in": {Energy: 5, Patience: 10, Mood: "warm", BuddyEnergy: 10, BuddyPatience: 10},
}

// ActivityResult reports a performed activity and the owner's vitals after it.
type ActivityResult struct {
	Activity string        `json:"activity"`
	Vitals   *store.Vitals `json:"vitals"`
}

// PerformActivity runs one recovery activity for an owner. Requests strictly
// inside the cooldown window fail with *CooldownError; at or after the
// boundary they proceed. Deltas clamp to [0,100]. Non-human owners return to
// the default location afterwards; humans keep theirs.
func (e *Engine) PerformActivity(ownerID, activity, buddyID string) (*ActivityResult, error) {
	effect, ok := activityEffects[activity]
	if !ok {
		return nil, fmt.Errorf("unknown activity %q", activity)
	}

	v, err := e.DB.EnsureVitals(ownerID, false)
	if err != nil {
		return nil, fmt.Errorf("load vitals: %w", err)
	}

	now := time.Now()
	if v.LastActivityAt != nil {
		elapsed := time.Duration(now.UnixMilli()-*v.LastActivityAt) * time.Millisecond
		if elapsed < activityCooldown {
			return nil, &CooldownError{Remaining: activityCooldown - elapsed}
		}
	}

	if err := e.DB.AdjustVitals(ownerID, effect.Energy, effect.Patience); err != nil {
		return nil, fmt.Errorf("adjust vitals: %w", err)
	}
	if effect.Mood != "" {
		if err := e.DB.SetMood(ownerID, effect.Mood); err != nil {
			return nil, fmt.Errorf("set mood: %w", err)
		}
	}

	if buddyID != "" && (effect.BuddyEnergy != 0 || effect.BuddyPatience != 0) {
		if _, err := e.DB.EnsureVitals(buddyID, false); err != nil {
			log.Printf("activity: ensure buddy %s: %v", buddyID, err)
		} else if err := e.DB.AdjustVitals(buddyID, effect.BuddyEnergy, effect.BuddyPatience); err != nil {
			log.Printf("activity: buddy bonus for %s: %v", buddyID, err)
		}
	}

	if err := e.DB.TouchActivity(ownerID, activity, now.UnixMilli()); err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}

	if !v.IsHuman {
		if err := e.DB.SetFocus(ownerID, store.DefaultFocus); err != nil {
			log.Printf("activity: reset focus for %s: %v", ownerID, err)
		}
	}

	updated, err := e.DB.GetVitals(ownerID)
	if err != nil {
		return nil, fmt.Errorf("reload vitals: %w", err)
	}
	return &ActivityResult{Activity: activity, Vitals: updated}, nil
}
