package v1

import (
	"fmt"
	"net/http"

	"github.com/billfold/backend/internal/httputil"
	"github.com/billfold/backend/internal/ledger"
	"github.com/billfold/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterSectionRoutes registers the routes for sections with
// the RouterGroup that is passed.
func RegisterSectionRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsSections)
		r.GET("", GetSections)
		r.POST("", CreateSections)
	}

	// Section with ID
	{
		r.OPTIONS("/:id", OptionsSectionDetail)
		r.GET("/:id", GetSection)
		r.PATCH("/:id", UpdateSection)
		r.DELETE("/:id", DeleteSection)
	}

	// Actions on a section
	{
		r.OPTIONS("/:id/recompute", OptionsSectionRecompute)
		r.POST("/:id/recompute", RecomputeSection)
		r.OPTIONS("/:id/duplicate", OptionsSectionDuplicate)
		r.POST("/:id/duplicate", DuplicateSection)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sections
// @Success		204
// @Router			/v1/sections [options]
func OptionsSections(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sections
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sections/{id} [options]
func OptionsSectionDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.Section{})
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sections
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sections/{id}/recompute [options]
func OptionsSectionRecompute(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Sections
// @Success		204
// @Param			id	path	URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sections/{id}/duplicate [options]
func OptionsSectionDuplicate(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Get section
// @Description	Returns a specific section with its stats
// @Tags			Sections
// @Produce		json
// @Success		200	{object}	SectionResponse
// @Failure		400	{object}	SectionResponse
// @Failure		404	{object}	SectionResponse
// @Failure		500	{object}	SectionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sections/{id} [get]
func GetSection(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)

	var section models.Section
	err = models.DB.First(&section, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	data := newSection(c, section)
	c.JSON(http.StatusOK, SectionResponse{Data: &data})
}

// @Summary		Get sections
// @Description	Returns a list of sections
// @Tags			Sections
// @Produce		json
// @Success		200	{object}	SectionListResponse
// @Failure		400	{object}	SectionListResponse
// @Failure		500	{object}	SectionListResponse
// @Router			/v1/sections [get]
// @Param			name			query	string	false	"Filter by name"
// @Param			note			query	string	false	"Filter by note"
// @Param			archived		query	bool	false	"Is the section archived?"
// @Param			allowNegative	query	bool	false	"Does the section allow negative bills?"
// @Param			offset			query	uint	false	"The offset of the first Section returned. Defaults to 0."
// @Param			limit			query	int		false	"Maximum number of Sections to return. Defaults to 50."
// @Param			page			query	uint	false	"Page number, overrides offset when set. Starts at 1."
func GetSections(c *gin.Context) {
	user := currentUser(c)

	var filter SectionQueryFilter
	if err := c.Bind(&filter); err != nil {
		c.JSON(http.StatusBadRequest, SectionListResponse{
			Error: newError(err),
		})
		return
	}

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model := filter.model()

	var q *gorm.DB
	q = models.DB.
		Order("sections.name ASC").
		Where("sections.user_id = ?", user.ID).
		Where(&model, queryFields...)

	if filter.Name != "" {
		q = q.Where("sections.name LIKE ?", fmt.Sprintf("%%%s%%", filter.Name))
	} else if slices.Contains(setFields, "Name") {
		q = q.Where("sections.name = ''")
	}

	if filter.Note != "" {
		q = q.Where("sections.note LIKE ?", fmt.Sprintf("%%%s%%", filter.Note))
	} else if slices.Contains(setFields, "Note") {
		q = q.Where("sections.note = ''")
	}

	if slices.Contains(setFields, "Archived") {
		q = q.Where("sections.archived = ?", filter.Archived)
	}

	// Default to 50 sections and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	offset := filter.Offset
	if filter.Page > 0 && limit > 0 {
		offset = (filter.Page - 1) * uint(limit)
	}
	q = q.Offset(int(offset))

	var sections []models.Section
	err := q.Find(&sections).Error
	if err != nil {
		c.JSON(status(err), SectionListResponse{
			Error: newError(err),
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		c.JSON(status(err), SectionListResponse{
			Error: newError(err),
		})
		return
	}

	data := make([]Section, 0)
	for _, section := range sections {
		data = append(data, newSection(c, section))
	}

	c.JSON(http.StatusOK, SectionListResponse{
		Data:       data,
		Pagination: newPagination(len(data), count, offset, limit),
	})
}

// @Summary		Create sections
// @Description	Creates sections from the list of submitted section data. The response code is the highest response code number that a single section creation would have caused. If it is not equal to 201, at least one section has an error.
// @Tags			Sections
// @Produce		json
// @Success		201			{object}	SectionCreateResponse
// @Failure		400			{object}	SectionCreateResponse
// @Failure		409			{object}	SectionCreateResponse
// @Failure		500			{object}	SectionCreateResponse
// @Param			sections	body		[]SectionEditable	true	"Sections"
// @Router			/v1/sections [post]
func CreateSections(c *gin.Context) {
	user := currentUser(c)

	var editables []SectionEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		c.JSON(status(err), SectionCreateResponse{
			Error: newError(err),
		})
		return
	}

	status := http.StatusCreated
	r := SectionCreateResponse{}

	for _, editable := range editables {
		section, err := editable.model(user.ID)
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		err = models.DB.Create(&section).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		ledger.SectionCreated(models.DB, section)

		data := newSection(c, section)
		r.Data = append(r.Data, SectionResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Update section
// @Description	Updates an existing section. Only values to be updated need to be specified. A budget change refreshes the section stats synchronously.
// @Tags			Sections
// @Accept			json
// @Produce		json
// @Success		200		{object}	SectionResponse
// @Failure		400		{object}	SectionResponse
// @Failure		404		{object}	SectionResponse
// @Failure		409		{object}	SectionResponse
// @Failure		500		{object}	SectionResponse
// @Param			id		path		URIID			true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			section	body		SectionEditable	true	"Section"
// @Router			/v1/sections/{id} [patch]
func UpdateSection(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)

	var section models.Section
	err = models.DB.First(&section, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, SectionEditable{})
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	var update SectionEditable
	err = httputil.BindData(c, &update)
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	model, err := update.model(user.ID)
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	err = models.DB.Model(&section).Select("", updateFields...).Updates(model).Error
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	// The remaining budget depends on the budget, refresh it right away
	if slices.Contains(updateFields, "Budget") {
		err = section.RecomputeStats(models.DB)
		if err != nil {
			c.JSON(status(err), SectionResponse{
				Error: newError(err),
			})
			return
		}
	}

	err = models.DB.First(&section, "id = ?", section.ID).Error
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	data := newSection(c, section)
	c.JSON(http.StatusOK, SectionResponse{Data: &data})
}

// @Summary		Delete section
// @Description	Deletes a section. The section must not have any active bills.
// @Tags			Sections
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sections/{id} [delete]
func DeleteSection(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)

	var section models.Section
	err = models.DB.First(&section, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: newError(err),
		})
		return
	}

	// Hard delete so that the name becomes available again. Sections can
	// only be deleted when no active or archived bill references them, the
	// hook checks that and purges any logically deleted leftovers.
	err = models.DB.Unscoped().Delete(&section).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: newError(err),
		})
		return
	}

	ledger.SectionRemoved(models.DB, section)

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Recompute section stats
// @Description	Rebuilds the stats of a section from its active bills and returns the section. Use this when the denormalized stats have drifted.
// @Tags			Sections
// @Produce		json
// @Success		200	{object}	SectionResponse
// @Failure		400	{object}	SectionResponse
// @Failure		404	{object}	SectionResponse
// @Failure		500	{object}	SectionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sections/{id}/recompute [post]
func RecomputeSection(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)

	var section models.Section
	err = models.DB.First(&section, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	err = section.RecomputeStats(models.DB)
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	data := newSection(c, section)
	c.JSON(http.StatusOK, SectionResponse{Data: &data})
}

// @Summary		Duplicate section
// @Description	Creates a copy of the section with an empty bill list. The copy keeps the display fields and the budget and gets " (copy)" appended to the name.
// @Tags			Sections
// @Produce		json
// @Success		201	{object}	SectionResponse
// @Failure		400	{object}	SectionResponse
// @Failure		404	{object}	SectionResponse
// @Failure		409	{object}	SectionResponse
// @Failure		500	{object}	SectionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/sections/{id}/duplicate [post]
func DuplicateSection(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)

	var section models.Section
	err = models.DB.First(&section, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	duplicate, err := section.Duplicate(models.DB)
	if err != nil {
		c.JSON(status(err), SectionResponse{
			Error: newError(err),
		})
		return
	}

	ledger.SectionCreated(models.DB, duplicate)

	data := newSection(c, duplicate)
	c.JSON(http.StatusCreated, SectionResponse{Data: &data})
}
