package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecentTagsLimit is the maximum number of tags kept in the recent-tags
// cache of a user.
const RecentTagsLimit = 5

// User owns sections and bills. Identity and credentials are handled by the
// fronting auth layer; the backend only ever sees the user ID.
type User struct {
	DefaultModel
	Name       string
	RecentTags []string  `gorm:"serializer:json"` // Most recently used tags, newest first
	Stats      UserStats `gorm:"embedded;embeddedPrefix:stats_"`
}

// UserStats are lifetime counters for display purposes.
//
// Unlike section stats they are maintained incrementally, as a cheap
// best-effort rollup. They must never be treated as authoritative for budget
// math; RecomputeStats rebuilds them from scratch on demand.
type UserStats struct {
	TotalSections int             `json:"totalSections"`
	TotalBills    int             `json:"totalBills"`
	TotalSpent    decimal.Decimal `json:"totalSpent" gorm:"type:DECIMAL(20,8)"`
}

// BeforeSave trims whitespace from all string fields.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Name = strings.TrimSpace(u.Name)
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	_ = u.DefaultModel.BeforeCreate(tx)

	return checkName(u.Name)
}

// ApplyBillDelta adjusts the lifetime counters of a user in a single write:
// bills is added to TotalBills, spent to TotalSpent. Callers compute spent
// with SpentContribution so that the delta path and RecomputeStats agree.
//
// This is an increment, not a recompute: it cannot detect or correct drift
// from missed or double-applied events. RecomputeStats is the repair path.
func ApplyBillDelta(db *gorm.DB, userID uuid.UUID, bills int, spent decimal.Decimal) error {
	updates := map[string]any{
		"stats_total_bills": gorm.Expr("stats_total_bills + ?", bills),
	}

	if !spent.IsZero() {
		updates["stats_total_spent"] = gorm.Expr("stats_total_spent + ?", spent)
	}

	return db.Model(&User{}).Where("id = ?", userID).UpdateColumns(updates).Error
}

// SpentContribution returns what a bill amount contributes to the TotalSpent
// lifetime counter. Only positive amounts count.
func SpentContribution(amount decimal.Decimal) decimal.Decimal {
	if amount.IsPositive() {
		return amount
	}
	return decimal.Zero
}

// ApplySectionDelta adjusts the lifetime section counter of a user.
func ApplySectionDelta(db *gorm.DB, userID uuid.UUID, sections int) error {
	return db.Model(&User{}).Where("id = ?", userID).
		UpdateColumn("stats_total_sections", gorm.Expr("stats_total_sections + ?", sections)).Error
}

// RecomputeStats rebuilds the lifetime counters of the user from scratch:
// section count, active bill count and the sum of positive active amounts.
// It is the on-demand repair for drift the incremental deltas cannot heal.
func (u *User) RecomputeStats(db *gorm.DB) error {
	var sections int64
	err := db.Model(&Section{}).Where("user_id = ?", u.ID).Count(&sections).Error
	if err != nil {
		return err
	}

	var bills []Bill
	err = db.Where("user_id = ? AND status = ?", u.ID, BillStatusActive).Find(&bills).Error
	if err != nil {
		return err
	}

	spent := decimal.Zero
	for _, bill := range bills {
		if bill.Amount.IsPositive() {
			spent = spent.Add(bill.Amount)
		}
	}

	stats := UserStats{
		TotalSections: int(sections),
		TotalBills:    len(bills),
		TotalSpent:    spent,
	}

	err = db.Model(&User{}).Where("id = ?", u.ID).UpdateColumns(map[string]any{
		"stats_total_sections": stats.TotalSections,
		"stats_total_bills":    stats.TotalBills,
		"stats_total_spent":    stats.TotalSpent,
	}).Error
	if err != nil {
		return err
	}

	u.Stats = stats
	return nil
}

// TouchRecentTag moves the tag to the front of the user's recent-tags cache,
// de-duplicating and trimming to the cap.
func (u *User) TouchRecentTag(db *gorm.DB, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}

	tags := []string{tag}
	for _, t := range u.RecentTags {
		if t != tag {
			tags = append(tags, t)
		}
	}

	if len(tags) > RecentTagsLimit {
		tags = tags[:RecentTagsLimit]
	}

	u.RecentTags = tags
	return db.Model(u).Select("RecentTags").Updates(*u).Error
}

// RefreshRecentTags fills an empty recent-tags cache from the tag stats of
// the user. A cache with entries is left alone.
func (u *User) RefreshRecentTags(db *gorm.DB) error {
	if len(u.RecentTags) > 0 {
		return nil
	}

	stats, err := TagStats(db, u.ID, AnalyticsFilter{}, RecentTagsLimit)
	if err != nil {
		return err
	}

	if len(stats) == 0 {
		return nil
	}

	tags := make([]string, 0, len(stats))
	for _, stat := range stats {
		tags = append(tags, stat.Tag)
	}

	u.RecentTags = tags
	return db.Model(u).Select("RecentTags").Updates(*u).Error
}
