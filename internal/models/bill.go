package models

import (
	"strings"
	"time"

	"github.com/billfold/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillStatus is the logical deletion state of a bill.
type BillStatus string

const (
	BillStatusActive   BillStatus = "active"
	BillStatusArchived BillStatus = "archived"
	BillStatusDeleted  BillStatus = "deleted"
)

// TimeFrame classifies how recent a bill's effective date is relative to the
// time it was recorded. It is not a recurrence schedule.
type TimeFrame string

const (
	TimeFrameDaily   TimeFrame = "daily"
	TimeFrameWeekly  TimeFrame = "weekly"
	TimeFrameMonthly TimeFrame = "monthly"
	TimeFrameOneTime TimeFrame = "one-time"
)

// DefaultTag is the tag bills are recorded with when none is given.
const DefaultTag = "note"

// Bill represents a single dated, signed monetary transaction in a section.
// Negative amounts are expenses, positive amounts are income; the sign is
// fixed at creation and participates in aggregate sums as-is.
type Bill struct {
	DefaultModel
	UserID      uuid.UUID
	User        User `json:"-"`
	SectionID   uuid.UUID
	Section     Section `json:"-"`
	Name        string
	Description string
	Amount      decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Tag         string
	Date        time.Time // Effective date of the transaction. Time of day is only used for sorting.
	TimeFrame   TimeFrame
	Status      BillStatus
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000. Yes, this is different.
//
// We already store them in UTC, but somehow reading
// them from the database returns them as +0000.
func (b *Bill) AfterFind(tx *gorm.DB) (err error) {
	err = b.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	b.Date = b.Date.In(time.UTC)
	return
}

// BeforeSave
//   - trims whitespace from string fields
//   - defaults the tag, date, status and time frame
//   - sets the timezone for the date to UTC
func (b *Bill) BeforeSave(_ *gorm.DB) (err error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Description = strings.TrimSpace(b.Description)
	b.Tag = strings.TrimSpace(b.Tag)

	if b.Tag == "" {
		b.Tag = DefaultTag
	}

	if b.Date.IsZero() {
		b.Date = time.Now().In(time.UTC)
	} else {
		b.Date = b.Date.In(time.UTC)
	}

	if b.Status == "" {
		b.Status = BillStatusActive
	}

	if b.TimeFrame == "" {
		b.TimeFrame = TimeFrameFor(b.Date, time.Now().In(time.UTC))
	}

	return
}

// BeforeCreate validates the bill against its owning section: the section
// must exist and belong to the same user, and negative amounts are only
// permitted when the section allows them.
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	_ = b.DefaultModel.BeforeCreate(tx)

	if err := checkName(b.Name); err != nil {
		return err
	}

	section, err := checkSection(tx, b.SectionID, b.UserID)
	if err != nil {
		return err
	}

	if b.Amount.IsNegative() && !section.AllowNegative {
		return ErrNegativeAmountNotAllowed
	}

	return nil
}

// BeforeUpdate verifies the state of the bill before committing an update.
// When the section changes, the sign policy is re-checked against the new
// section.
func (b *Bill) BeforeUpdate(tx *gorm.DB) error {
	toSave, ok := tx.Statement.Dest.(Bill)
	if !ok {
		return nil
	}

	if tx.Statement.Changed("Name") {
		if err := checkName(strings.TrimSpace(toSave.Name)); err != nil {
			return err
		}
	}

	if tx.Statement.Changed("Status") && toSave.Status != BillStatusActive && toSave.Status != BillStatusArchived {
		return ErrBillStatusInvalid
	}

	if tx.Statement.Changed("SectionID") || tx.Statement.Changed("Amount") {
		sectionID := b.SectionID
		if tx.Statement.Changed("SectionID") {
			sectionID = toSave.SectionID
		}

		amount := b.Amount
		if tx.Statement.Changed("Amount") {
			amount = toSave.Amount
		}

		section, err := checkSection(tx, sectionID, b.UserID)
		if err != nil {
			return err
		}

		if amount.IsNegative() && !section.AllowNegative {
			return ErrNegativeAmountNotAllowed
		}
	}

	return nil
}

// MarkDeleted performs the logical deletion of the bill: the status is set
// to deleted and the record is soft deleted in the same operation. Physical
// removal is left to the purge.
func (b *Bill) MarkDeleted(db *gorm.DB) error {
	err := db.Model(b).UpdateColumn("status", BillStatusDeleted).Error
	if err != nil {
		return err
	}

	return db.Delete(b).Error
}

// PurgeDeletedBills physically removes logically deleted bills that were
// deleted before the given time. Deleted bills are already excluded from
// every aggregate, so no stats propagation is needed.
func PurgeDeletedBills(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", before).
		Delete(&Bill{})

	return result.RowsAffected, result.Error
}

// TimeFrameFor classifies the gap between a bill's effective date and the
// current time: same day is daily, up to a week is weekly, up to 30 days is
// monthly, everything further away is one-time.
func TimeFrameFor(date, now time.Time) TimeFrame {
	if types.DayOf(date).Equal(types.DayOf(now)) {
		return TimeFrameDaily
	}

	gap := now.Sub(date)
	if gap < 0 {
		gap = -gap
	}

	switch {
	case gap <= 7*24*time.Hour:
		return TimeFrameWeekly
	case gap <= 30*24*time.Hour:
		return TimeFrameMonthly
	default:
		return TimeFrameOneTime
	}
}

// checkSection returns the section when it exists and is owned by the user.
// A section belonging to somebody else is indistinguishable from a missing
// one.
func checkSection(tx *gorm.DB, sectionID, userID uuid.UUID) (Section, error) {
	var section Section
	err := tx.First(&section, "id = ? AND user_id = ?", sectionID, userID).Error
	return section, err
}
