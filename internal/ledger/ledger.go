// Package ledger coordinates the propagation of lifecycle events into the
// denormalized section and user statistics.
//
// Propagation is best effort by design: the primary mutation has already
// committed when it runs, so a failed step is logged and counted, never
// surfaced and never rolled back. Section stats self-heal because they are
// always rebuilt by full recompute; user stats are repaired by an explicit
// recompute.
package ledger

import (
	"sync"

	"github.com/billfold/backend/internal/metrics"
	"github.com/billfold/backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var pending sync.WaitGroup

// Wait blocks until all asynchronous propagation has finished. It is used
// for graceful shutdown and by tests.
func Wait() {
	pending.Wait()
}

// dispatch runs a propagation step without blocking the caller.
func dispatch(fn func()) {
	pending.Add(1)
	go func() {
		defer pending.Done()
		fn()
	}()
}

// BillCreated propagates a committed bill creation: the owning section is
// recomputed synchronously, the user counters and the recent-tags cache are
// updated without blocking the caller.
func BillCreated(db *gorm.DB, bill models.Bill) {
	metrics.BillMutations.WithLabelValues("create").Inc()

	recomputeSections(db, bill.UserID, bill.SectionID)

	dispatch(func() {
		applyUserDelta(db, bill.UserID, 1, models.SpentContribution(bill.Amount))
		touchRecentTag(db, bill.UserID, bill.Tag)
	})
}

// BillUpdated propagates a committed bill update. On section reassignment
// both the old and the new section are recomputed.
func BillUpdated(db *gorm.DB, before, after models.Bill) {
	metrics.BillMutations.WithLabelValues("update").Inc()

	sections := []uuid.UUID{after.SectionID}
	if before.SectionID != after.SectionID {
		sections = append(sections, before.SectionID)
	}
	recomputeSections(db, after.UserID, sections...)

	// Status changes move the bill in and out of the active set, amount
	// changes shift its contribution.
	spent := spentContributionOf(after).Sub(spentContributionOf(before))
	bills := 0
	if before.Status == models.BillStatusActive && after.Status != models.BillStatusActive {
		bills = -1
	} else if before.Status != models.BillStatusActive && after.Status == models.BillStatusActive {
		bills = 1
	}

	if bills != 0 || !spent.IsZero() {
		dispatch(func() {
			applyUserDelta(db, after.UserID, bills, spent)
		})
	}
}

// BillRemoved propagates a committed bill removal. Every deletion code path
// must call it: single delete, bulk delete, and any future cascade.
func BillRemoved(db *gorm.DB, bill models.Bill) {
	metrics.BillMutations.WithLabelValues("delete").Inc()

	recomputeSections(db, bill.UserID, bill.SectionID)

	if bill.Status == models.BillStatusActive {
		dispatch(func() {
			applyUserDelta(db, bill.UserID, -1, models.SpentContribution(bill.Amount).Neg())
		})
	}
}

// SectionCreated propagates a committed section creation.
func SectionCreated(db *gorm.DB, section models.Section) {
	dispatch(func() {
		err := models.ApplySectionDelta(db, section.UserID, 1)
		warnOnError(err, "user-section-delta", section.UserID)
	})
}

// SectionRemoved propagates a committed section deletion.
func SectionRemoved(db *gorm.DB, section models.Section) {
	dispatch(func() {
		err := models.ApplySectionDelta(db, section.UserID, -1)
		warnOnError(err, "user-section-delta", section.UserID)
	})
}

// recomputeSections rebuilds the stats of the given sections, concurrently
// when there is more than one.
func recomputeSections(db *gorm.DB, userID uuid.UUID, sectionIDs ...uuid.UUID) {
	g := new(errgroup.Group)

	for _, id := range sectionIDs {
		id := id
		g.Go(func() error {
			section := models.Section{DefaultModel: models.DefaultModel{ID: id}}
			err := section.RecomputeStats(db)
			warnOnError(err, "section-recompute", userID)
			return nil
		})
	}

	// The group never returns an error, failures are only warnings.
	_ = g.Wait()
}

func applyUserDelta(db *gorm.DB, userID uuid.UUID, bills int, spent decimal.Decimal) {
	err := models.ApplyBillDelta(db, userID, bills, spent)
	warnOnError(err, "user-bill-delta", userID)
}

// spentContributionOf returns what a bill currently contributes to the
// TotalSpent counter. Bills outside the active set contribute nothing.
func spentContributionOf(bill models.Bill) decimal.Decimal {
	if bill.Status != models.BillStatusActive {
		return decimal.Zero
	}
	return models.SpentContribution(bill.Amount)
}

func touchRecentTag(db *gorm.DB, userID uuid.UUID, tag string) {
	var user models.User
	err := db.First(&user, "id = ?", userID).Error
	if err == nil {
		err = user.TouchRecentTag(db, tag)
	}
	warnOnError(err, "user-recent-tags", userID)
}

// warnOnError logs and counts a failed propagation step.
func warnOnError(err error, step string, userID uuid.UUID) {
	if err == nil {
		return
	}

	metrics.ConsistencyWarnings.WithLabelValues(step).Inc()
	log.Warn().
		Err(err).
		Str("step", step).
		Str("user", userID.String()).
		Msg("stats propagation failed after committed mutation")
}
