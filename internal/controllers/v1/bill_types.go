package v1

import (
	"fmt"
	"time"

	"github.com/billfold/backend/internal/models"
	ez_uuid "github.com/billfold/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillEditable struct {
	Name        string      `json:"name" example:"Groceries"`
	Description string      `json:"description" example:"Weekly shopping at the market" default:""`
	Amount      AmountInput `json:"amount" swaggertype:"string" example:"-14.03"` // Signed amount, negative for expenses. A JSON number or a string, strings may contain currency symbols, digit separators and basic arithmetic.
	Tag         string      `json:"tag" example:"food" default:"note"`
	Date        time.Time   `json:"date" example:"2024-03-02T00:00:00Z"`                        // Effective date. Defaults to the time of creation.
	SectionID   uuid.UUID   `json:"sectionId" example:"d430d7c3-d14c-4712-9336-ee56965a6673"`   // ID of the section the bill belongs to
	Status      models.BillStatus `json:"status" example:"active" default:"active"`             // One of active, archived
}

// model returns the database resource for the API representation of the
// editable fields.
func (editable BillEditable) model(userID uuid.UUID) (models.Bill, error) {
	amount, err := editable.Amount.decimal()
	if err != nil {
		return models.Bill{}, err
	}

	return models.Bill{
		UserID:      userID,
		SectionID:   editable.SectionID,
		Name:        editable.Name,
		Description: editable.Description,
		Amount:      amount,
		Tag:         editable.Tag,
		Date:        editable.Date,
		Status:      editable.Status,
	}, nil
}

type BillLinks struct {
	Self    string `json:"self" example:"https://example.com/api/v1/bills/d430d7c3-d14c-4712-9336-ee56965a6673"`    // The bill itself
	Section string `json:"section" example:"https://example.com/api/v1/sections/af892e10-7e0a-4fb8-b1bc-4b6d88401ed2"` // The section the bill belongs to
}

// Bill is the representation of a Bill in API v1.
type Bill struct {
	models.DefaultModel
	Name        string            `json:"name" example:"Groceries"`
	Description string            `json:"description" example:"Weekly shopping at the market"`
	Amount      decimal.Decimal   `json:"amount" example:"-14.03"`
	Tag         string            `json:"tag" example:"food"`
	Date        time.Time         `json:"date" example:"2024-03-02T00:00:00Z"`
	TimeFrame   models.TimeFrame  `json:"timeFrame" example:"weekly"`
	SectionID   uuid.UUID         `json:"sectionId" example:"d430d7c3-d14c-4712-9336-ee56965a6673"`
	Status      models.BillStatus `json:"status" example:"active"`
	Links       BillLinks         `json:"links"`
}

// newBill returns the API v1 representation of the resource.
func newBill(c *gin.Context, model models.Bill) Bill {
	url := c.GetString(string(models.DBContextURL))

	return Bill{
		DefaultModel: model.DefaultModel,
		Name:         model.Name,
		Description:  model.Description,
		Amount:       model.Amount,
		Tag:          model.Tag,
		Date:         model.Date,
		TimeFrame:    model.TimeFrame,
		SectionID:    model.SectionID,
		Status:       model.Status,
		Links: BillLinks{
			Self:    fmt.Sprintf("%s/v1/bills/%s", url, model.ID),
			Section: fmt.Sprintf("%s/v1/sections/%s", url, model.SectionID),
		},
	}
}

type BillListResponse struct {
	Data       []Bill      `json:"data"`       // List of bills
	Error      *apiError   `json:"error"`      // The error, if any occurred
	Pagination *Pagination `json:"pagination"` // Pagination information
}

type BillCreateResponse struct {
	Error *apiError      `json:"error"` // The error, if any occurred
	Data  []BillResponse `json:"data"`  // List of created bills
}

func (t *BillCreateResponse) appendError(err error, currentStatus int) int {
	t.Data = append(t.Data, BillResponse{Error: newError(err)})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type BillResponse struct {
	Error *apiError `json:"error"` // The error, if any occurred for this bill
	Data  *Bill     `json:"data"`  // The bill data, if the request was successful
}

type BillBulkDeleteEditable struct {
	IDs []uuid.UUID `json:"ids"` // IDs of the bills to delete
}

type BillBulkDeleteResponse struct {
	Error *apiError              `json:"error"` // The error, if any occurred
	Data  []BillBulkDeleteResult `json:"data"`  // Per-bill results in request order
}

func (t *BillBulkDeleteResponse) appendError(id uuid.UUID, err error, currentStatus int) int {
	t.Data = append(t.Data, BillBulkDeleteResult{ID: id, Error: newError(err)})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type BillBulkDeleteResult struct {
	ID    uuid.UUID `json:"id"`              // ID of the bill
	Error *apiError `json:"error,omitempty"` // The error, if any occurred for this bill
}

type PurgeResponse struct {
	Error *apiError    `json:"error"` // The error, if any occurred
	Data  *PurgeResult `json:"data"`  // The purge result
}

type PurgeResult struct {
	Purged int64     `json:"purged"` // Number of bills physically removed
	Before time.Time `json:"before"` // Bills deleted before this time were purged
}

type BillQueryFilter struct {
	Date              time.Time         `form:"date" filterField:"false"`              // Exact date. Time is ignored.
	FromDate          time.Time         `form:"fromDate" filterField:"false"`          // From this date. Time is ignored.
	UntilDate         time.Time         `form:"untilDate" filterField:"false"`         // Until this date. Time is ignored.
	AmountLessOrEqual decimal.Decimal   `form:"amountLessOrEqual" filterField:"false"` // Amount less than or equal to this
	AmountMoreOrEqual decimal.Decimal   `form:"amountMoreOrEqual" filterField:"false"` // Amount more than or equal to this
	Name              string            `form:"name" filterField:"false"`              // Name contains this string
	Search            string            `form:"search" filterField:"false"`            // Name or description contain this string
	Tag               string            `form:"tag" filterField:"false"`               // Tag matches this glob pattern
	SectionID         ez_uuid.UUID      `form:"section"`                               // ID of the section
	Status            models.BillStatus `form:"status"`                                // Status of the bill
	TimeFrame         models.TimeFrame  `form:"timeFrame"`                             // Time frame of the bill
	Sort              string            `form:"sort" filterField:"false"`              // Sort by date, amount, name or createdAt. Defaults to date.
	Order             string            `form:"order" filterField:"false"`             // Sort order, asc or desc. Defaults to desc.
	Offset            uint              `form:"offset" filterField:"false"`            // The offset of the first Bill returned. Defaults to 0.
	Limit             int               `form:"limit" filterField:"false"`             // Maximum number of Bills to return. Defaults to 50.
	Page              uint              `form:"page" filterField:"false"`              // Page number, overrides offset when set. Starts at 1.
}

func (f BillQueryFilter) model() models.Bill {
	// This does not set the string or date fields since they are
	// handled in the controller function
	return models.Bill{
		SectionID: f.SectionID.UUID,
		Status:    f.Status,
		TimeFrame: f.TimeFrame,
	}
}
