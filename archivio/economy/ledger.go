// Package economy computes the monthly action budget and the RISORSE
// balance, and performs resource purchases.
//
// The budget is max_actions plus the player's SEGUACI, minus the followers
// already committed this month. RISORSE are never spent outright: a purchase
// locks part of the pool until the lock expires.
package economy

import (
	"time"

	"github.com/archivio-maledetto/archivio/archivio/timewindow"
)

const monthKeyLayout = "2006-01"

// MonthKey identifies the UTC calendar month of t, e.g. "2025-03".
func MonthKey(t time.Time) string {
	return t.UTC().Format(monthKeyLayout)
}

// MonthStart returns the first instant of t's UTC month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonthStart returns the first instant of the UTC month after t.
func NextMonthStart(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0)
}

// EffectiveMaxActions is the action budget for the month.
func EffectiveMaxActions(maxActions, seguaci, spentThisMonth int) int {
	return max(0, maxActions+seguaci-spentThisMonth)
}

// AvailableResources is the RISORSE pool not held by active locks.
func AvailableResources(risorse, activeLocked int) int {
	return max(0, risorse-activeLocked)
}

// UnlockAt returns when a lock taken at now for an item releases: the item's
// block_until when it lies in the future, otherwise the next UTC month.
func UnlockAt(blockUntil *time.Time, now time.Time) time.Time {
	if timewindow.Blocked(blockUntil, now) {
		return blockUntil.UTC()
	}
	return NextMonthStart(now)
}
