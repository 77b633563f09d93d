package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Section represents a budget bucket that bills are recorded in.
type Section struct {
	DefaultModel
	UserID        uuid.UUID `gorm:"uniqueIndex:section_user_name"`
	User          User      `json:"-"`
	Name          string    `gorm:"uniqueIndex:section_user_name"`
	Note          string
	Budget        decimal.Decimal `gorm:"type:DECIMAL(20,8)"` // Non-negative budget target
	Theme         Theme           `gorm:"embedded;embeddedPrefix:theme_"`
	AllowNegative bool            // Whether bills with negative amounts may be recorded
	Archived      bool
	Stats         SectionStats `gorm:"embedded;embeddedPrefix:stats_"`
}

// Theme is the display-only appearance of a section.
type Theme struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// SectionStats are the denormalized aggregates for a section.
//
// They are derived values: the only way to write them is RecomputeStats,
// which rebuilds them from the active bills of the section. Everything else
// must treat them as read-only.
type SectionStats struct {
	TotalBills      int             `json:"totalBills"`
	TotalAmount     decimal.Decimal `json:"totalAmount" gorm:"type:DECIMAL(20,8)"`
	RemainingBudget decimal.Decimal `json:"remainingBudget" gorm:"type:DECIMAL(20,8)"`
	LastUpdated     *time.Time      `json:"lastUpdated"`
}

// BeforeSave trims whitespace from all string fields.
func (s *Section) BeforeSave(_ *gorm.DB) error {
	s.Name = strings.TrimSpace(s.Name)
	s.Note = strings.TrimSpace(s.Note)
	s.Theme.Color = strings.TrimSpace(s.Theme.Color)
	s.Theme.Icon = strings.TrimSpace(s.Theme.Icon)
	s.Theme.Label = strings.TrimSpace(s.Theme.Label)

	return nil
}

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	_ = s.DefaultModel.BeforeCreate(tx)

	if err := checkName(s.Name); err != nil {
		return err
	}

	if s.Budget.IsNegative() {
		return ErrBudgetNegative
	}

	return nil
}

// BeforeUpdate verifies the state of the section before
// committing an update to the database.
func (s *Section) BeforeUpdate(tx *gorm.DB) error {
	toSave, ok := tx.Statement.Dest.(Section)
	if !ok {
		return nil
	}

	if tx.Statement.Changed("Name") {
		if err := checkName(strings.TrimSpace(toSave.Name)); err != nil {
			return err
		}
	}

	if tx.Statement.Changed("Budget") && toSave.Budget.IsNegative() {
		return ErrBudgetNegative
	}

	return nil
}

// BeforeDelete blocks the deletion of a section that still has active or
// archived bills. Sections are only deletable once emptied so that no bill
// the user can see references a section that recomputes cannot find anymore.
//
// Logically deleted bills do not block: they are outside every aggregate and
// only linger until the purge, so they are removed together with the section.
// Leaving them would trip the foreign key on the hard delete.
func (s *Section) BeforeDelete(tx *gorm.DB) error {
	var count int64
	err := tx.Model(&Bill{}).Where("section_id = ?", s.ID).Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrSectionNotEmpty
	}

	return tx.Unscoped().
		Where("section_id = ? AND deleted_at IS NOT NULL", s.ID).
		Delete(&Bill{}).Error
}

// RecomputeStats rebuilds the section statistics from scratch over all
// active bills of the section and writes them back as a single document
// write. It is idempotent and safe to call redundantly; it is the system's
// self-healing mechanism against drift.
func (s *Section) RecomputeStats(db *gorm.DB) error {
	var bills []Bill
	err := db.Where("section_id = ? AND status = ?", s.ID, BillStatusActive).Find(&bills).Error
	if err != nil {
		return err
	}

	total := decimal.Zero
	var lastUpdated *time.Time
	for _, bill := range bills {
		total = total.Add(bill.Amount)

		if lastUpdated == nil || bill.Date.After(*lastUpdated) {
			date := bill.Date
			lastUpdated = &date
		}
	}

	// Read the budget fresh instead of trusting the receiver so that a
	// concurrent budget edit cannot be folded into stale stats.
	var current Section
	err = db.First(&current, "id = ?", s.ID).Error
	if err != nil {
		return err
	}

	stats := SectionStats{
		TotalBills:      len(bills),
		TotalAmount:     total,
		RemainingBudget: current.Budget.Sub(total),
		LastUpdated:     lastUpdated,
	}

	err = db.Model(&Section{}).Where("id = ?", s.ID).UpdateColumns(map[string]any{
		"stats_total_bills":      stats.TotalBills,
		"stats_total_amount":     stats.TotalAmount,
		"stats_remaining_budget": stats.RemainingBudget,
		"stats_last_updated":     stats.LastUpdated,
	}).Error
	if err != nil {
		return err
	}

	s.Budget = current.Budget
	s.Stats = stats
	return nil
}

// IsOverspent reports whether the active bills of the section exceed its
// budget.
func (s Section) IsOverspent() bool {
	return s.Stats.RemainingBudget.IsNegative()
}

// BudgetPercentage returns how much of the budget is used, capped at 100.
func (s Section) BudgetPercentage() decimal.Decimal {
	if !s.Budget.IsPositive() {
		return decimal.Zero
	}

	percentage := s.Stats.TotalAmount.Div(s.Budget).Mul(decimal.NewFromInt(100))
	if percentage.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}

	return percentage
}

// Duplicate creates a copy of the section with the display fields of the
// original and fresh, zeroed stats. Bills and statistics are never copied.
func (s Section) Duplicate(db *gorm.DB) (Section, error) {
	duplicate := Section{
		UserID:        s.UserID,
		Name:          s.Name + " (copy)",
		Note:          s.Note,
		Budget:        s.Budget,
		Theme:         s.Theme,
		AllowNegative: s.AllowNegative,
	}

	err := db.Create(&duplicate).Error
	return duplicate, err
}

// checkName validates the name constraints shared by all named resources.
func checkName(name string) error {
	if name == "" {
		return ErrNameRequired
	}

	if len([]rune(name)) > 100 {
		return ErrNameTooLong
	}

	return nil
}
