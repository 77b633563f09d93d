package models

import (
	"sort"
	"time"

	"github.com/billfold/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TagStatsDefaultLimit caps the number of tags a tag-stats query returns
// when the caller does not set a limit.
const TagStatsDefaultLimit = 20

// DailySummaryDefaultDays is the lookback window for daily summaries when
// the caller does not set one.
const DailySummaryDefaultDays = 30

// AnalyticsFilter scopes an analytics query. All fields are optional.
type AnalyticsFilter struct {
	SectionID uuid.UUID // Only bills of this section
	Since     time.Time // Only bills at or after this time
}

// TagStat is the per-tag aggregate over the active bills of a user.
type TagStat struct {
	Tag      string          `json:"tag"`
	Count    int             `json:"count"`
	Sum      decimal.Decimal `json:"sum"`
	Average  decimal.Decimal `json:"average"`
	LastUsed time.Time       `json:"lastUsed"`
}

// DailySummary is the per-calendar-day aggregate over the active bills of a
// user.
type DailySummary struct {
	Day   types.Day       `json:"day"`
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
	Tags  []string        `json:"tags"` // Distinct tags used on the day
}

// TagStats groups the active bills of a user by tag and reports count, sum,
// average and the most recent use per tag, sorted by count descending.
//
// The result is computed on demand and never persisted.
func TagStats(db *gorm.DB, userID uuid.UUID, filter AnalyticsFilter, limit int) ([]TagStat, error) {
	bills, err := activeBills(db, userID, filter)
	if err != nil {
		return nil, err
	}

	byTag := make(map[string]*TagStat)
	for _, bill := range bills {
		stat, ok := byTag[bill.Tag]
		if !ok {
			stat = &TagStat{Tag: bill.Tag, Sum: decimal.Zero}
			byTag[bill.Tag] = stat
		}

		stat.Count++
		stat.Sum = stat.Sum.Add(bill.Amount)

		if bill.Date.After(stat.LastUsed) {
			stat.LastUsed = bill.Date
		}
	}

	stats := make([]TagStat, 0, len(byTag))
	for _, stat := range byTag {
		stat.Average = stat.Sum.Div(decimal.NewFromInt(int64(stat.Count)))
		stats = append(stats, *stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Tag < stats[j].Tag
	})

	if limit <= 0 {
		limit = TagStatsDefaultLimit
	}
	if len(stats) > limit {
		stats = stats[:limit]
	}

	return stats, nil
}

// DailySummaries groups the active bills of a user by calendar day and
// reports sum, count and the distinct tags used per day, most recent day
// first.
//
// The result is computed on demand and never persisted.
func DailySummaries(db *gorm.DB, userID uuid.UUID, filter AnalyticsFilter) ([]DailySummary, error) {
	bills, err := activeBills(db, userID, filter)
	if err != nil {
		return nil, err
	}

	byDay := make(map[types.Day]*DailySummary)
	tagsSeen := make(map[types.Day]map[string]bool)

	for _, bill := range bills {
		day := types.DayOf(bill.Date)

		summary, ok := byDay[day]
		if !ok {
			summary = &DailySummary{Day: day, Sum: decimal.Zero}
			byDay[day] = summary
			tagsSeen[day] = make(map[string]bool)
		}

		summary.Count++
		summary.Sum = summary.Sum.Add(bill.Amount)

		if !tagsSeen[day][bill.Tag] {
			tagsSeen[day][bill.Tag] = true
			summary.Tags = append(summary.Tags, bill.Tag)
		}
	}

	summaries := make([]DailySummary, 0, len(byDay))
	for _, summary := range byDay {
		sort.Strings(summary.Tags)
		summaries = append(summaries, *summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Day.After(summaries[j].Day)
	})

	return summaries, nil
}

// activeBills loads the active bills of a user with the filter applied.
func activeBills(db *gorm.DB, userID uuid.UUID, filter AnalyticsFilter) ([]Bill, error) {
	q := db.Where("user_id = ? AND status = ?", userID, BillStatusActive)

	if filter.SectionID != uuid.Nil {
		q = q.Where("section_id = ?", filter.SectionID)
	}

	if !filter.Since.IsZero() {
		q = q.Where("date >= ?", filter.Since.In(time.UTC))
	}

	var bills []Bill
	err := q.Find(&bills).Error
	return bills, err
}
