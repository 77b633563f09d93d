package v1_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	v1 "github.com/billfold/backend/internal/controllers/v1"
	"github.com/billfold/backend/internal/ledger"
	"github.com/billfold/backend/internal/models"
	"github.com/billfold/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestBillsOptions() {
	user := suite.createTestUser()

	recorder := test.Request(suite.T(), http.MethodOptions, "http://example.com/v1/bills", nil, asUser(user))
	assert.Equal(suite.T(), http.StatusNoContent, recorder.Code)
	assert.Equal(suite.T(), "OPTIONS, GET, POST", recorder.Header().Get("allow"))
}

func (suite *TestSuiteStandard) TestBillsUnauthorized() {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no header", nil},
		{"invalid UUID", map[string]string{"X-User-ID": "not-a-uuid"}},
		{"unknown user", map[string]string{"X-User-ID": uuid.New().String()}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, http.MethodGet, "http://example.com/v1/bills", nil, tt.headers)
			test.AssertHTTPStatus(t, &recorder, http.StatusUnauthorized)
		})
	}
}

func (suite *TestSuiteStandard) TestCreateBill() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{Budget: "100", AllowNegative: true})

	bill := suite.createTestBill(user, v1.BillEditable{
		Name:      "Groceries",
		Amount:    "-14.03",
		Tag:       "food",
		SectionID: section.ID,
	})

	assert.Equal(suite.T(), "Groceries", bill.Name)
	assert.True(suite.T(), bill.Amount.Equal(decimal.RequireFromString("-14.03")), bill.Amount)
	assert.Equal(suite.T(), "food", bill.Tag)
	assert.Equal(suite.T(), models.BillStatusActive, bill.Status)
	assert.Equal(suite.T(), models.TimeFrameDaily, bill.TimeFrame)
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/bills/%s", bill.ID), bill.Links.Self)
	assert.Equal(suite.T(), fmt.Sprintf("http://example.com/v1/sections/%s", section.ID), bill.Links.Section)

	// The owning section is recomputed synchronously
	var dbSection models.Section
	suite.Require().NoError(models.DB.First(&dbSection, "id = ?", section.ID).Error)
	assert.Equal(suite.T(), 1, dbSection.Stats.TotalBills)
	assert.True(suite.T(), dbSection.Stats.TotalAmount.Equal(decimal.RequireFromString("-14.03")))
}

func (suite *TestSuiteStandard) TestCreateBillAmountInputs() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{AllowNegative: true})

	tests := []struct {
		amount   string
		expected string
	}{
		{`12.5`, "12.5"},           // JSON number
		{`"12.50"`, "12.5"},        // plain string
		{`"1,250.75"`, "1250.75"},  // grouping separators
		{`"$20"`, "20"},            // currency symbol
		{`"3 * 4 + 2"`, "14"},      // arithmetic
		{`"-(10 + 5)"`, "-15"},     // signed expression
	}

	for _, tt := range tests {
		suite.T().Run(tt.amount, func(t *testing.T) {
			body := fmt.Sprintf(`[{"name": "%s", "amount": %s, "sectionId": "%s"}]`, uuid.New().String(), tt.amount, section.ID)
			recorder := test.Request(t, http.MethodPost, "http://example.com/v1/bills", body, asUser(user))
			test.AssertHTTPStatus(t, &recorder, http.StatusCreated)

			var response v1.BillCreateResponse
			test.DecodeResponse(t, &recorder, &response)
			assert.True(t, response.Data[0].Data.Amount.Equal(decimal.RequireFromString(tt.expected)), response.Data[0].Data.Amount)
		})
	}
}

func (suite *TestSuiteStandard) TestCreateBillInvalidAmount() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})

	body := fmt.Sprintf(`[{"name": "Test", "amount": "not a number", "sectionId": "%s"}]`, section.ID)
	recorder := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/bills", body, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)

	var response v1.BillCreateResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotNil(response.Data[0].Error)
	assert.Contains(suite.T(), response.Data[0].Error.Fields, "amount")
}

func (suite *TestSuiteStandard) TestCreateBillNoSection() {
	user := suite.createTestUser()

	recorder := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/bills", []v1.BillEditable{{
		Name:      "Orphan",
		Amount:    "10",
		SectionID: uuid.New(),
	}}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestCreateBillNegativeAmountPolicy() {
	user := suite.createTestUser()
	strict := suite.createTestSection(user, v1.SectionEditable{AllowNegative: false})

	recorder := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/bills", []v1.BillEditable{{
		Name:      "Refund",
		Amount:    "-5",
		SectionID: strict.ID,
	}}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)

	var response v1.BillCreateResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotNil(response.Data[0].Error)
	assert.Equal(suite.T(), string(models.KindPolicy), response.Data[0].Error.Kind)
}

func (suite *TestSuiteStandard) TestCreateBillsPartialFailure() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})

	recorder := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/bills", []v1.BillEditable{
		{Name: "Works", Amount: "10", SectionID: section.ID},
		{Name: "", Amount: "10", SectionID: section.ID},
	}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)

	var response v1.BillCreateResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().Len(response.Data, 2)
	assert.NotNil(suite.T(), response.Data[0].Data)
	assert.NotNil(suite.T(), response.Data[1].Error)
}

func (suite *TestSuiteStandard) TestGetBill() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})
	bill := suite.createTestBill(user, v1.BillEditable{Amount: "10", SectionID: section.ID})

	recorder := test.Request(suite.T(), http.MethodGet, bill.Links.Self, nil, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.BillResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), bill.ID, response.Data.ID)
}

func (suite *TestSuiteStandard) TestGetBillOtherUser() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})
	bill := suite.createTestBill(user, v1.BillEditable{Amount: "10", SectionID: section.ID})

	other := suite.createTestUser()
	recorder := test.Request(suite.T(), http.MethodGet, bill.Links.Self, nil, asUser(other))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestGetBillInvalidID() {
	user := suite.createTestUser()

	recorder := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/bills/not-a-uuid", nil, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestGetBillsFilters() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{AllowNegative: true})
	other := suite.createTestSection(user, v1.SectionEditable{AllowNegative: true})

	_ = suite.createTestBill(user, v1.BillEditable{Name: "Rent March", Amount: "800", Tag: "rent", SectionID: section.ID, Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)})
	_ = suite.createTestBill(user, v1.BillEditable{Name: "Groceries", Description: "Fruit and bread", Amount: "-23.5", Tag: "food", SectionID: section.ID, Date: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)})
	_ = suite.createTestBill(user, v1.BillEditable{Name: "Cinema", Amount: "-12", Tag: "fun", SectionID: other.ID, Date: time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC), Status: models.BillStatusArchived})

	tests := []struct {
		name  string
		query string
		len   int
	}{
		{"all", "", 3},
		{"name", "name=rent", 1},
		{"search in description", "search=bread", 1},
		{"tag exact", "tag=food", 1},
		{"tag glob", "tag=f*", 2},
		{"tag glob no match", "tag=x*", 0},
		{"section", fmt.Sprintf("section=%s", section.ID), 2},
		{"status active", "status=active", 2},
		{"status archived", "status=archived", 1},
		{"date", "date=2024-03-02T23:00:00Z", 1},
		{"fromDate", "fromDate=2024-03-02T00:00:00Z", 2},
		{"untilDate", "untilDate=2024-03-01T00:00:00Z", 1},
		{"amountMoreOrEqual", "amountMoreOrEqual=1", 1},
		{"amountLessOrEqual", "amountLessOrEqual=-12", 2},
		{"limit", "limit=2", 2},
		{"offset", "offset=2", 1},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			recorder := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/bills?%s", tt.query), nil, asUser(user))
			test.AssertHTTPStatus(t, &recorder, http.StatusOK)

			var response v1.BillListResponse
			test.DecodeResponse(t, &recorder, &response)
			assert.Len(t, response.Data, tt.len)
		})
	}
}

func (suite *TestSuiteStandard) TestGetBillsInvalidQuery() {
	user := suite.createTestUser()

	tests := []string{
		"status=pending",
		"timeFrame=yearly",
		"sort=tag",
		"order=sideways",
	}

	for _, query := range tests {
		suite.T().Run(query, func(t *testing.T) {
			recorder := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/bills?%s", query), nil, asUser(user))
			test.AssertHTTPStatus(t, &recorder, http.StatusBadRequest)
		})
	}
}

func (suite *TestSuiteStandard) TestGetBillsSort() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})

	_ = suite.createTestBill(user, v1.BillEditable{Name: "B", Amount: "10", SectionID: section.ID, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)})
	_ = suite.createTestBill(user, v1.BillEditable{Name: "A", Amount: "30", SectionID: section.ID, Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)})
	_ = suite.createTestBill(user, v1.BillEditable{Name: "C", Amount: "20", SectionID: section.ID, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	tests := []struct {
		query string
		first string
	}{
		{"", "A"},                        // default: date desc
		{"order=asc", "C"},               // date asc
		{"sort=amount", "A"},             // amount desc
		{"sort=amount&order=asc", "B"},   // amount asc
		{"sort=name&order=asc", "A"},     // name asc
	}

	for _, tt := range tests {
		suite.T().Run(tt.query, func(t *testing.T) {
			recorder := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/bills?%s", tt.query), nil, asUser(user))
			test.AssertHTTPStatus(t, &recorder, http.StatusOK)

			var response v1.BillListResponse
			test.DecodeResponse(t, &recorder, &response)
			suite.Require().Len(response.Data, 3)
			assert.Equal(t, tt.first, response.Data[0].Name)
		})
	}
}

func (suite *TestSuiteStandard) TestGetBillsPagination() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})

	for i := 0; i < 5; i++ {
		_ = suite.createTestBill(user, v1.BillEditable{Amount: "1", SectionID: section.ID})
	}

	recorder := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/bills?limit=2&page=2", nil, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.BillListResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Len(suite.T(), response.Data, 2)

	suite.Require().NotNil(response.Pagination)
	assert.Equal(suite.T(), int64(5), response.Pagination.Total)
	assert.Equal(suite.T(), uint(2), response.Pagination.Offset)
	assert.Equal(suite.T(), int64(3), response.Pagination.Pages)
}

func (suite *TestSuiteStandard) TestUpdateBill() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{Budget: "100"})
	bill := suite.createTestBill(user, v1.BillEditable{Amount: "30", SectionID: section.ID})

	recorder := test.Request(suite.T(), http.MethodPatch, bill.Links.Self, map[string]any{
		"amount": "45",
	}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.BillResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.True(suite.T(), response.Data.Amount.Equal(decimal.NewFromInt(45)))

	// The section totals follow the update
	var dbSection models.Section
	suite.Require().NoError(models.DB.First(&dbSection, "id = ?", section.ID).Error)
	assert.True(suite.T(), dbSection.Stats.TotalAmount.Equal(decimal.NewFromInt(45)))
	assert.True(suite.T(), dbSection.Stats.RemainingBudget.Equal(decimal.NewFromInt(55)))
}

func (suite *TestSuiteStandard) TestUpdateBillDateReclassifies() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})
	bill := suite.createTestBill(user, v1.BillEditable{Amount: "10", SectionID: section.ID})
	suite.Require().Equal(models.TimeFrameDaily, bill.TimeFrame)

	recorder := test.Request(suite.T(), http.MethodPatch, bill.Links.Self, map[string]any{
		"date": time.Now().AddDate(0, 0, -14),
	}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.BillResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), models.TimeFrameMonthly, response.Data.TimeFrame)
}

func (suite *TestSuiteStandard) TestUpdateBillSectionMove() {
	user := suite.createTestUser()
	from := suite.createTestSection(user, v1.SectionEditable{})
	to := suite.createTestSection(user, v1.SectionEditable{})
	bill := suite.createTestBill(user, v1.BillEditable{Amount: "25", SectionID: from.ID})

	recorder := test.Request(suite.T(), http.MethodPatch, bill.Links.Self, map[string]any{
		"sectionId": to.ID,
	}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var fromSection, toSection models.Section
	suite.Require().NoError(models.DB.First(&fromSection, "id = ?", from.ID).Error)
	suite.Require().NoError(models.DB.First(&toSection, "id = ?", to.ID).Error)
	assert.Equal(suite.T(), 0, fromSection.Stats.TotalBills)
	assert.Equal(suite.T(), 1, toSection.Stats.TotalBills)
}

func (suite *TestSuiteStandard) TestUpdateBillInvalidStatus() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})
	bill := suite.createTestBill(user, v1.BillEditable{Amount: "10", SectionID: section.ID})

	recorder := test.Request(suite.T(), http.MethodPatch, bill.Links.Self, map[string]any{
		"status": "deleted",
	}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestDeleteBill() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})
	bill := suite.createTestBill(user, v1.BillEditable{Amount: "10", SectionID: section.ID})

	recorder := test.Request(suite.T(), http.MethodDelete, bill.Links.Self, nil, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNoContent)

	// The bill is gone from reads and aggregates
	recorder = test.Request(suite.T(), http.MethodGet, bill.Links.Self, nil, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)

	var dbSection models.Section
	suite.Require().NoError(models.DB.First(&dbSection, "id = ?", section.ID).Error)
	assert.Equal(suite.T(), 0, dbSection.Stats.TotalBills)

	// A second delete is a 404, not an error on the hidden resource
	recorder = test.Request(suite.T(), http.MethodDelete, bill.Links.Self, nil, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestBulkDeleteBills() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})
	first := suite.createTestBill(user, v1.BillEditable{Amount: "10", SectionID: section.ID})
	second := suite.createTestBill(user, v1.BillEditable{Amount: "20", SectionID: section.ID})
	missing := uuid.New()

	recorder := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/bills/bulk-delete", v1.BillBulkDeleteEditable{
		IDs: []uuid.UUID{first.ID, missing, second.ID},
	}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)

	var response v1.BillBulkDeleteResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().Len(response.Data, 3)
	assert.Nil(suite.T(), response.Data[0].Error)
	assert.NotNil(suite.T(), response.Data[1].Error)
	assert.Nil(suite.T(), response.Data[2].Error)

	// Both existing bills are gone
	var count int64
	suite.Require().NoError(models.DB.Model(&models.Bill{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *TestSuiteStandard) TestBulkDeleteBillsEmpty() {
	user := suite.createTestUser()

	recorder := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/bills/bulk-delete", v1.BillBulkDeleteEditable{}, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestPurgeBillsConfirmation() {
	user := suite.createTestUser()

	tests := []string{
		"",
		"?confirm=yes",
		"?confirm=yes-please-purge-deleted-BILLS",
	}

	for _, query := range tests {
		suite.T().Run(query, func(t *testing.T) {
			recorder := test.Request(t, http.MethodDelete, fmt.Sprintf("http://example.com/v1/bills/purge%s", query), nil, asUser(user))
			test.AssertHTTPStatus(t, &recorder, http.StatusBadRequest)
		})
	}
}

func (suite *TestSuiteStandard) TestPurgeBills() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{})
	old := suite.createTestBill(user, v1.BillEditable{Amount: "10", SectionID: section.ID})
	recent := suite.createTestBill(user, v1.BillEditable{Amount: "20", SectionID: section.ID})
	kept := suite.createTestBill(user, v1.BillEditable{Amount: "30", SectionID: section.ID})

	deleteBill := func(b v1.Bill) {
		recorder := test.Request(suite.T(), http.MethodDelete, b.Links.Self, nil, asUser(user))
		test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNoContent)
	}
	deleteBill(old)
	deleteBill(recent)

	// Age the first deletion past the retention window
	suite.Require().NoError(models.DB.Unscoped().Model(&models.Bill{}).
		Where("id = ?", old.ID).
		Update("deleted_at", time.Now().Add(-31*24*time.Hour)).Error)

	recorder := test.Request(suite.T(), http.MethodDelete, "http://example.com/v1/bills/purge?confirm=yes-please-purge-deleted-bills", nil, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.PurgeResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotNil(response.Data)
	assert.Equal(suite.T(), int64(1), response.Data.Purged)

	// The row is physically gone, the fresh deletion and the active bill stay
	var count int64
	suite.Require().NoError(models.DB.Unscoped().Model(&models.Bill{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(suite.T(), int64(2), count)

	recorder = test.Request(suite.T(), http.MethodGet, kept.Links.Self, nil, asUser(user))
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
}

func (suite *TestSuiteStandard) TestBillUserStatsPropagation() {
	user := suite.createTestUser()
	section := suite.createTestSection(user, v1.SectionEditable{AllowNegative: true})

	_ = suite.createTestBill(user, v1.BillEditable{Amount: "30", SectionID: section.ID})
	_ = suite.createTestBill(user, v1.BillEditable{Amount: "-10", SectionID: section.ID})
	ledger.Wait()

	var dbUser models.User
	suite.Require().NoError(models.DB.First(&dbUser, "id = ?", user.ID).Error)
	assert.Equal(suite.T(), 2, dbUser.Stats.TotalBills)
	assert.True(suite.T(), dbUser.Stats.TotalSpent.Equal(decimal.NewFromInt(30)), dbUser.Stats.TotalSpent)
}

func (suite *TestSuiteStandard) TestBillDBError() {
	user := suite.createTestUser()
	userID := user.ID.String()

	suite.CloseDB()

	recorder := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/bills", nil, map[string]string{"X-User-ID": userID})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized, http.StatusInternalServerError)
}
