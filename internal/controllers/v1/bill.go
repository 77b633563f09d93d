package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/billfold/backend/internal/httputil"
	"github.com/billfold/backend/internal/ledger"
	"github.com/billfold/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/ryanuber/go-glob"
	"golang.org/x/exp/slices"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// billSortColumns maps the API sort parameter to the ORDER BY column.
var billSortColumns = map[string]string{
	"date":      "datetime(bills.date)",
	"amount":    "bills.amount",
	"name":      "bills.name",
	"createdAt": "datetime(bills.created_at)",
}

// RegisterBillRoutes registers the routes for bills with
// the RouterGroup that is passed.
func RegisterBillRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsBills)
		r.GET("", GetBills)
		r.POST("", CreateBills)
	}

	// Bulk operations
	{
		r.OPTIONS("/bulk-delete", OptionsBulkDeleteBills)
		r.POST("/bulk-delete", BulkDeleteBills)
	}

	// Purge of logically deleted bills
	{
		r.OPTIONS("/purge", OptionsPurgeBills)
		r.DELETE("/purge", PurgeBills)
	}

	// Bill with ID
	{
		r.OPTIONS("/:id", OptionsBillDetail)
		r.GET("/:id", GetBill)
		r.PATCH("/:id", UpdateBill)
		r.DELETE("/:id", DeleteBill)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Bills
// @Success		204
// @Router			/v1/bills [options]
func OptionsBills(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Bills
// @Success		204
// @Router			/v1/bills/bulk-delete [options]
func OptionsBulkDeleteBills(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Bills
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/bills/{id} [options]
func OptionsBillDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.Bill{})
}

// @Summary		Get bill
// @Description	Returns a specific bill
// @Tags			Bills
// @Produce		json
// @Success		200	{object}	BillResponse
// @Failure		400	{object}	BillResponse
// @Failure		404	{object}	BillResponse
// @Failure		500	{object}	BillResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/bills/{id} [get]
func GetBill(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)

	var bill models.Bill
	err = models.DB.First(&bill, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	data := newBill(c, bill)
	c.JSON(http.StatusOK, BillResponse{Data: &data})
}

// @Summary		Get bills
// @Description	Returns a list of bills
// @Tags			Bills
// @Produce		json
// @Success		200	{object}	BillListResponse
// @Failure		400	{object}	BillListResponse
// @Failure		500	{object}	BillListResponse
// @Router			/v1/bills [get]
// @Param			date				query	string	false	"Date of the bill. Ignores exact time, matches on the day of the RFC3339 timestamp provided."
// @Param			fromDate			query	string	false	"Bills at and after this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided."
// @Param			untilDate			query	string	false	"Bills before and at this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided."
// @Param			amountLessOrEqual	query	string	false	"Amount less than or equal to this"
// @Param			amountMoreOrEqual	query	string	false	"Amount more than or equal to this"
// @Param			name				query	string	false	"Filter by name"
// @Param			search				query	string	false	"Search in name and description"
// @Param			tag					query	string	false	"Filter by tag. Supports * as wildcard."
// @Param			section				query	string	false	"Filter by section ID"
// @Param			status				query	string	false	"Filter by status"
// @Param			timeFrame			query	string	false	"Filter by time frame"
// @Param			sort				query	string	false	"Sort by date, amount, name or createdAt. Defaults to date."
// @Param			order				query	string	false	"Sort order, asc or desc. Defaults to desc."
// @Param			offset				query	uint	false	"The offset of the first Bill returned. Defaults to 0."
// @Param			limit				query	int		false	"Maximum number of Bills to return. Defaults to 50."
// @Param			page				query	uint	false	"Page number, overrides offset when set. Starts at 1."
func GetBills(c *gin.Context) {
	user := currentUser(c)

	var filter BillQueryFilter
	if err := c.Bind(&filter); err != nil {
		c.JSON(http.StatusBadRequest, BillListResponse{
			Error: newError(err),
		})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	if filter.Status != "" && filter.Status != models.BillStatusActive && filter.Status != models.BillStatusArchived {
		c.JSON(http.StatusBadRequest, BillListResponse{
			Error: newError(errStatusFilterInvalid),
		})
		return
	}

	if filter.TimeFrame != "" && !slices.Contains([]models.TimeFrame{
		models.TimeFrameDaily, models.TimeFrameWeekly, models.TimeFrameMonthly, models.TimeFrameOneTime,
	}, filter.TimeFrame) {
		c.JSON(http.StatusBadRequest, BillListResponse{
			Error: newError(errTimeFrameFilterInvalid),
		})
		return
	}

	sort := "date"
	if filter.Sort != "" {
		if _, ok := billSortColumns[filter.Sort]; !ok {
			c.JSON(http.StatusBadRequest, BillListResponse{
				Error: newError(errSortInvalid),
			})
			return
		}
		sort = filter.Sort
	}

	order := "DESC"
	switch filter.Order {
	case "", "desc":
	case "asc":
		order = "ASC"
	default:
		c.JSON(http.StatusBadRequest, BillListResponse{
			Error: newError(errOrderInvalid),
		})
		return
	}

	model := filter.model()

	var q *gorm.DB
	q = models.DB.
		Order(fmt.Sprintf("%s %s, datetime(bills.created_at) DESC", billSortColumns[sort], order)).
		Where("bills.user_id = ?", user.ID).
		Where(&model, queryFields...)

	// Filter for the bill being at the same date
	if !filter.Date.IsZero() {
		date := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, time.UTC)
		q = q.Where("bills.date >= date(?)", date).Where("bills.date < date(?)", date.AddDate(0, 0, 1))
	}

	if !filter.FromDate.IsZero() {
		q = q.Where("bills.date >= date(?)", time.Date(filter.FromDate.Year(), filter.FromDate.Month(), filter.FromDate.Day(), 0, 0, 0, 0, time.UTC))
	}

	if !filter.UntilDate.IsZero() {
		q = q.Where("bills.date < date(?)", time.Date(filter.UntilDate.Year(), filter.UntilDate.Month(), filter.UntilDate.Day()+1, 0, 0, 0, 0, time.UTC))
	}

	if !filter.AmountLessOrEqual.IsZero() {
		q = q.Where("bills.amount <= ?", filter.AmountLessOrEqual)
	}

	if !filter.AmountMoreOrEqual.IsZero() {
		q = q.Where("bills.amount >= ?", filter.AmountMoreOrEqual)
	}

	if filter.Name != "" {
		q = q.Where("bills.name LIKE ?", fmt.Sprintf("%%%s%%", filter.Name))
	} else if slices.Contains(setFields, "Name") {
		q = q.Where("bills.name = ''")
	}

	if filter.Search != "" {
		search := fmt.Sprintf("%%%s%%", norm.NFC.String(filter.Search))
		q = q.Where("(bills.name LIKE ? OR bills.description LIKE ?)", search, search)
	}

	// Tag filters support globs. The pattern is matched against the
	// distinct tags of the user so that the SQL query stays a plain IN,
	// which keeps the pagination count correct.
	if filter.Tag != "" {
		if strings.Contains(filter.Tag, "*") {
			var tags []string
			err := models.DB.Model(&models.Bill{}).
				Where("bills.user_id = ?", user.ID).
				Distinct().
				Pluck("tag", &tags).Error
			if err != nil {
				c.JSON(status(err), BillListResponse{
					Error: newError(err),
				})
				return
			}

			matched := make([]string, 0)
			for _, tag := range tags {
				if glob.Glob(filter.Tag, tag) {
					matched = append(matched, tag)
				}
			}

			q = q.Where("bills.tag IN ?", matched)
		} else {
			q = q.Where("bills.tag = ?", filter.Tag)
		}
	}

	// Default to 50 bills and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	// Set the offset. The page parameter wins over a raw offset.
	offset := filter.Offset
	if filter.Page > 0 && limit > 0 {
		offset = (filter.Page - 1) * uint(limit)
	}
	q = q.Offset(int(offset))

	var bills []models.Bill
	err := q.Find(&bills).Error
	if err != nil {
		c.JSON(status(err), BillListResponse{
			Error: newError(err),
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		c.JSON(status(err), BillListResponse{
			Error: newError(err),
		})
		return
	}

	data := make([]Bill, 0)
	for _, bill := range bills {
		data = append(data, newBill(c, bill))
	}

	c.JSON(http.StatusOK, BillListResponse{
		Data:       data,
		Pagination: newPagination(len(data), count, offset, limit),
	})
}

// @Summary		Create bills
// @Description	Creates bills from the list of submitted bill data. The response code is the highest response code number that a single bill creation would have caused. If it is not equal to 201, at least one bill has an error.
// @Tags			Bills
// @Produce		json
// @Success		201		{object}	BillCreateResponse
// @Failure		400		{object}	BillCreateResponse
// @Failure		404		{object}	BillCreateResponse
// @Failure		500		{object}	BillCreateResponse
// @Param			bills	body		[]BillEditable	true	"Bills"
// @Router			/v1/bills [post]
func CreateBills(c *gin.Context) {
	user := currentUser(c)

	var editables []BillEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		c.JSON(status(err), BillCreateResponse{
			Error: newError(err),
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := BillCreateResponse{}

	for _, editable := range editables {
		bill, err := editable.model(user.ID)
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		err = models.DB.Create(&bill).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		ledger.BillCreated(models.DB, bill)

		data := newBill(c, bill)
		r.Data = append(r.Data, BillResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Update bill
// @Description	Updates an existing bill. Only values to be updated need to be specified.
// @Tags			Bills
// @Accept			json
// @Produce		json
// @Success		200		{object}	BillResponse
// @Failure		400		{object}	BillResponse
// @Failure		404		{object}	BillResponse
// @Failure		500		{object}	BillResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			bill	body		BillEditable	true	"Bill"
// @Router			/v1/bills/{id} [patch]
func UpdateBill(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)

	// Get the bill resource
	var bill models.Bill
	err = models.DB.First(&bill, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	// Get the fields that are set to be updated
	updateFields, err := httputil.GetBodyFields(c, BillEditable{})
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	// Bind the update for the patch
	var update BillEditable
	err = httputil.BindData(c, &update)
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	model, err := update.model(user.ID)
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	// A date change re-classifies the time frame
	if slices.Contains(updateFields, "Date") {
		model.TimeFrame = models.TimeFrameFor(model.Date, time.Now())
		updateFields = append(updateFields, "TimeFrame")
	}

	before := bill
	err = models.DB.Model(&bill).Select("", updateFields...).Updates(model).Error
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	var after models.Bill
	err = models.DB.First(&after, "id = ?", bill.ID).Error
	if err != nil {
		c.JSON(status(err), BillResponse{
			Error: newError(err),
		})
		return
	}

	ledger.BillUpdated(models.DB, before, after)

	data := newBill(c, after)
	c.JSON(http.StatusOK, BillResponse{Data: &data})
}

// @Summary		Delete bill
// @Description	Logically deletes a bill. The bill disappears from all lists and aggregates, a purge removes it for good.
// @Tags			Bills
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/bills/{id} [delete]
func DeleteBill(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)

	var bill models.Bill
	err = models.DB.First(&bill, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: newError(err),
		})
		return
	}

	// MarkDeleted flips the status on the receiver, the stats propagation
	// needs the state the bill had while it still counted.
	removed := bill
	err = bill.MarkDeleted(models.DB)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: newError(err),
		})
		return
	}

	ledger.BillRemoved(models.DB, removed)

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Delete bills
// @Description	Logically deletes all bills from the submitted ID list. The response code is the highest response code number that a single deletion would have caused and the response body reports the outcome for every ID.
// @Tags			Bills
// @Produce		json
// @Success		200		{object}	BillBulkDeleteResponse
// @Failure		400		{object}	BillBulkDeleteResponse
// @Failure		404		{object}	BillBulkDeleteResponse
// @Failure		500		{object}	BillBulkDeleteResponse
// @Param			ids		body		BillBulkDeleteEditable	true	"Bill IDs"
// @Router			/v1/bills/bulk-delete [post]
func BulkDeleteBills(c *gin.Context) {
	user := currentUser(c)

	var editable BillBulkDeleteEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		c.JSON(status(err), BillBulkDeleteResponse{
			Error: newError(err),
		})
		return
	}

	if len(editable.IDs) == 0 {
		c.JSON(http.StatusBadRequest, BillBulkDeleteResponse{
			Error: newError(errNoIDs),
		})
		return
	}

	status := http.StatusOK
	r := BillBulkDeleteResponse{}

	for _, id := range editable.IDs {
		var bill models.Bill
		err := models.DB.First(&bill, "id = ? AND user_id = ?", id, user.ID).Error
		if err != nil {
			status = r.appendError(id, err, status)
			continue
		}

		removed := bill
		err = bill.MarkDeleted(models.DB)
		if err != nil {
			status = r.appendError(id, err, status)
			continue
		}

		ledger.BillRemoved(models.DB, removed)
		r.Data = append(r.Data, BillBulkDeleteResult{ID: id})
	}

	c.JSON(status, r)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Bills
// @Success		204
// @Router			/v1/bills/purge [options]
func OptionsPurgeBills(c *gin.Context) {
	httputil.OptionsDelete(c)
}

// @Summary		Purge deleted bills
// @Description	Permanently removes bills that were logically deleted longer ago than the configured retention
// @Tags			Bills
// @Produce		json
// @Success		200		{object}	PurgeResponse
// @Failure		400		{object}	PurgeResponse
// @Failure		500		{object}	PurgeResponse
// @Param			confirm	query		string	false	"Confirmation for the purge. Must have the value 'yes-please-purge-deleted-bills'"
// @Router			/v1/bills/purge [delete]
func PurgeBills(c *gin.Context) {
	var params struct {
		Confirm string `form:"confirm"`
	}

	err := c.Bind(&params)
	if err != nil || params.Confirm != "yes-please-purge-deleted-bills" {
		c.JSON(http.StatusBadRequest, PurgeResponse{
			Error: newError(errPurgeConfirmation),
		})
		return
	}

	user := currentUser(c)

	before := time.Now().Add(-purgeRetention)
	purged, err := models.PurgeDeletedBills(models.DB.Where("user_id = ?", user.ID), before)
	if err != nil {
		c.JSON(status(err), PurgeResponse{
			Error: newError(err),
		})
		return
	}

	data := PurgeResult{Purged: purged, Before: before}
	c.JSON(http.StatusOK, PurgeResponse{Data: &data})
}
