package models_test

import (
	"time"

	"github.com/billfold/backend/internal/models"
	"github.com/billfold/backend/internal/types"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestTagStats() {
	user := suite.createTestUser(models.User{})
	section := suite.createTestSection(models.Section{UserID: user.ID, AllowNegative: true})

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_ = suite.createTestBill(models.Bill{
			UserID:    user.ID,
			SectionID: section.ID,
			Amount:    decimal.NewFromInt(10),
			Tag:       "food",
			Date:      date.AddDate(0, 0, i),
		})
	}

	_ = suite.createTestBill(models.Bill{
		UserID:    user.ID,
		SectionID: section.ID,
		Amount:    decimal.NewFromInt(-7),
		Tag:       "transport",
		Date:      date,
	})

	// Deleted bills do not count
	noise := suite.createTestBill(models.Bill{UserID: user.ID, SectionID: section.ID, Amount: decimal.NewFromInt(100), Tag: "food"})
	suite.Require().NoError(noise.MarkDeleted(models.DB))

	stats, err := models.TagStats(models.DB, user.ID, models.AnalyticsFilter{}, 0)
	suite.Require().NoError(err)
	suite.Require().Len(stats, 2)

	// Most used tag first
	suite.Assert().Equal("food", stats[0].Tag)
	suite.Assert().Equal(3, stats[0].Count)
	suite.Assert().True(stats[0].Sum.Equal(decimal.NewFromInt(30)))
	suite.Assert().True(stats[0].Average.Equal(decimal.NewFromInt(10)))
	suite.Assert().True(stats[0].LastUsed.Equal(date.AddDate(0, 0, 2)))

	suite.Assert().Equal("transport", stats[1].Tag)
	suite.Assert().True(stats[1].Sum.Equal(decimal.NewFromInt(-7)))
}

func (suite *TestSuiteStandard) TestTagStatsTieBreak() {
	user := suite.createTestUser(models.User{})
	section := suite.createTestSection(models.Section{UserID: user.ID})

	for _, tag := range []string{"zeta", "alpha"} {
		_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: section.ID, Amount: decimal.NewFromInt(1), Tag: tag})
	}

	stats, err := models.TagStats(models.DB, user.ID, models.AnalyticsFilter{}, 0)
	suite.Require().NoError(err)
	suite.Require().Len(stats, 2)

	// Equal counts are ordered by tag name
	suite.Assert().Equal("alpha", stats[0].Tag)
	suite.Assert().Equal("zeta", stats[1].Tag)
}

func (suite *TestSuiteStandard) TestTagStatsLimitAndFilter() {
	user := suite.createTestUser(models.User{})
	first := suite.createTestSection(models.Section{UserID: user.ID})
	second := suite.createTestSection(models.Section{UserID: user.ID})

	_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: first.ID, Amount: decimal.NewFromInt(1), Tag: "food"})
	_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: second.ID, Amount: decimal.NewFromInt(1), Tag: "rent"})

	stats, err := models.TagStats(models.DB, user.ID, models.AnalyticsFilter{SectionID: first.ID}, 0)
	suite.Require().NoError(err)
	suite.Require().Len(stats, 1)
	suite.Assert().Equal("food", stats[0].Tag)

	stats, err = models.TagStats(models.DB, user.ID, models.AnalyticsFilter{}, 1)
	suite.Require().NoError(err)
	suite.Assert().Len(stats, 1)
}

func (suite *TestSuiteStandard) TestTagStatsSince() {
	user := suite.createTestUser(models.User{})
	section := suite.createTestSection(models.Section{UserID: user.ID})

	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: section.ID, Amount: decimal.NewFromInt(1), Tag: "old", Date: old})
	_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: section.ID, Amount: decimal.NewFromInt(1), Tag: "recent", Date: recent})

	stats, err := models.TagStats(models.DB, user.ID, models.AnalyticsFilter{Since: recent.AddDate(0, -1, 0)}, 0)
	suite.Require().NoError(err)
	suite.Require().Len(stats, 1)
	suite.Assert().Equal("recent", stats[0].Tag)
}

func (suite *TestSuiteStandard) TestDailySummaries() {
	user := suite.createTestUser(models.User{})
	section := suite.createTestSection(models.Section{UserID: user.ID, AllowNegative: true})

	monday := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: section.ID, Amount: decimal.NewFromInt(10), Tag: "food", Date: monday})
	_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: section.ID, Amount: decimal.NewFromInt(-4), Tag: "food", Date: monday.Add(5 * time.Hour)})
	_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: section.ID, Amount: decimal.NewFromInt(3), Tag: "transport", Date: tuesday})

	summaries, err := models.DailySummaries(models.DB, user.ID, models.AnalyticsFilter{})
	suite.Require().NoError(err)
	suite.Require().Len(summaries, 2)

	// Most recent day first
	suite.Assert().True(summaries[0].Day.Equal(types.DayOf(tuesday)))
	suite.Assert().Equal(1, summaries[0].Count)
	suite.Assert().Equal([]string{"transport"}, summaries[0].Tags)

	suite.Assert().True(summaries[1].Day.Equal(types.DayOf(monday)))
	suite.Assert().Equal(2, summaries[1].Count)
	suite.Assert().True(summaries[1].Sum.Equal(decimal.NewFromInt(6)), "sum is %s", summaries[1].Sum)
	suite.Assert().Equal([]string{"food"}, summaries[1].Tags)
}

func (suite *TestSuiteStandard) TestAnalyticsScopedToUser() {
	user := suite.createTestUser(models.User{})
	other := suite.createTestUser(models.User{})
	mine := suite.createTestSection(models.Section{UserID: user.ID})
	theirs := suite.createTestSection(models.Section{UserID: other.ID})

	_ = suite.createTestBill(models.Bill{UserID: user.ID, SectionID: mine.ID, Amount: decimal.NewFromInt(1), Tag: "mine"})
	_ = suite.createTestBill(models.Bill{UserID: other.ID, SectionID: theirs.ID, Amount: decimal.NewFromInt(1), Tag: "theirs"})

	stats, err := models.TagStats(models.DB, user.ID, models.AnalyticsFilter{}, 0)
	suite.Require().NoError(err)
	suite.Require().Len(stats, 1)
	suite.Assert().Equal("mine", stats[0].Tag)
}
