package v1

import (
	"net/http"
	"time"

	"github.com/billfold/backend/internal/httputil"
	"github.com/billfold/backend/internal/models"
	ez_uuid "github.com/billfold/backend/internal/uuid"
	"github.com/gin-gonic/gin"
)

// RegisterAnalyticsRoutes registers the routes for analytics with
// the RouterGroup that is passed.
func RegisterAnalyticsRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/tags", OptionsTagStats)
	r.GET("/tags", GetTagStats)
	r.OPTIONS("/daily", OptionsDailySummaries)
	r.GET("/daily", GetDailySummaries)
}

type AnalyticsQuery struct {
	SectionID ez_uuid.UUID `form:"section"` // Only bills of this section
	Since     time.Time    `form:"since"`   // Only bills at and after this date. Ignores exact time.
	Days      int          `form:"days"`    // Only bills of the last n days. Ignored when since is set.
	Limit     int          `form:"limit"`   // Maximum number of tags to return. Defaults to 20. Only used for tag stats.
}

// filter converts the query to the analytics filter, resolving the days
// lookback against the current time.
func (q AnalyticsQuery) filter() models.AnalyticsFilter {
	since := q.Since
	if since.IsZero() && q.Days > 0 {
		now := time.Now().UTC()
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -q.Days)
	}

	if !since.IsZero() {
		since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)
	}

	return models.AnalyticsFilter{
		SectionID: q.SectionID.UUID,
		Since:     since,
	}
}

type TagStatsResponse struct {
	Error *apiError        `json:"error"` // The error, if any occurred
	Data  []models.TagStat `json:"data"`  // Per-tag aggregates, most used first
}

type DailySummariesResponse struct {
	Error *apiError             `json:"error"` // The error, if any occurred
	Data  []models.DailySummary `json:"data"`  // Per-day aggregates, newest first
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Analytics
// @Success		204
// @Router			/v1/analytics/tags [options]
func OptionsTagStats(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Analytics
// @Success		204
// @Router			/v1/analytics/daily [options]
func OptionsDailySummaries(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Get tag stats
// @Description	Returns per-tag aggregates over the active bills of the authenticated user, most used tags first. The aggregates are computed on the fly and never persisted.
// @Tags			Analytics
// @Produce		json
// @Success		200	{object}	TagStatsResponse
// @Failure		400	{object}	TagStatsResponse
// @Failure		500	{object}	TagStatsResponse
// @Param			section	query	string	false	"Only bills of this section"
// @Param			since	query	string	false	"Only bills at and after this date"
// @Param			days	query	int		false	"Only bills of the last n days. Ignored when since is set."
// @Param			limit	query	int		false	"Maximum number of tags to return. Defaults to 20."
// @Router			/v1/analytics/tags [get]
func GetTagStats(c *gin.Context) {
	user := currentUser(c)

	var query AnalyticsQuery
	if err := c.Bind(&query); err != nil {
		c.JSON(http.StatusBadRequest, TagStatsResponse{
			Error: newError(err),
		})
		return
	}

	if query.Days < 0 {
		c.JSON(http.StatusBadRequest, TagStatsResponse{
			Error: newError(errDaysInvalid),
		})
		return
	}

	limit := models.TagStatsDefaultLimit
	if query.Limit != 0 {
		if query.Limit < 0 {
			c.JSON(http.StatusBadRequest, TagStatsResponse{
				Error: newError(errLimitInvalid),
			})
			return
		}
		limit = query.Limit
	}

	stats, err := models.TagStats(models.DB, user.ID, query.filter(), limit)
	if err != nil {
		c.JSON(status(err), TagStatsResponse{
			Error: newError(err),
		})
		return
	}

	c.JSON(http.StatusOK, TagStatsResponse{Data: stats})
}

// @Summary		Get daily summaries
// @Description	Returns per-day aggregates over the active bills of the authenticated user, newest day first. Days without bills are not reported.
// @Tags			Analytics
// @Produce		json
// @Success		200	{object}	DailySummariesResponse
// @Failure		400	{object}	DailySummariesResponse
// @Failure		500	{object}	DailySummariesResponse
// @Param			section	query	string	false	"Only bills of this section"
// @Param			since	query	string	false	"Only bills at and after this date"
// @Param			days	query	int		false	"Only bills of the last n days. Ignored when since is set. Defaults to 30."
// @Router			/v1/analytics/daily [get]
func GetDailySummaries(c *gin.Context) {
	user := currentUser(c)

	var query AnalyticsQuery
	if err := c.Bind(&query); err != nil {
		c.JSON(http.StatusBadRequest, DailySummariesResponse{
			Error: newError(err),
		})
		return
	}

	if query.Days < 0 {
		c.JSON(http.StatusBadRequest, DailySummariesResponse{
			Error: newError(errDaysInvalid),
		})
		return
	}

	// Without an explicit window the summary covers the last 30 days
	if query.Since.IsZero() && query.Days == 0 {
		query.Days = models.DailySummaryDefaultDays
	}

	summaries, err := models.DailySummaries(models.DB, user.ID, query.filter())
	if err != nil {
		c.JSON(status(err), DailySummariesResponse{
			Error: newError(err),
		})
		return
	}

	c.JSON(http.StatusOK, DailySummariesResponse{Data: summaries})
}
