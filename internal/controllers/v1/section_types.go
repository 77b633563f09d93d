package v1

import (
	"fmt"

	"github.com/billfold/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SectionEditable struct {
	Name          string      `json:"name" example:"Groceries"`
	Note          string      `json:"note" example:"Everything that ends up in the fridge" default:""`
	Budget        AmountInput `json:"budget" swaggertype:"string" example:"300"` // Non-negative budget target. A JSON number or a string.
	Color         string      `json:"color" example:"#27AE60" default:""`
	Icon          string      `json:"icon" example:"cart" default:""`
	Label         string      `json:"label" example:"Food" default:""`
	AllowNegative bool        `json:"allowNegative" example:"true" default:"false"` // Whether bills with negative amounts may be recorded
	Archived      bool        `json:"archived" example:"false" default:"false"`
}

// model returns the database resource for the API representation of the
// editable fields.
func (editable SectionEditable) model(userID uuid.UUID) (models.Section, error) {
	budget, err := editable.Budget.decimal()
	if err != nil {
		return models.Section{}, err
	}

	return models.Section{
		UserID: userID,
		Name:   editable.Name,
		Note:   editable.Note,
		Budget: budget,
		Theme: models.Theme{
			Color: editable.Color,
			Icon:  editable.Icon,
			Label: editable.Label,
		},
		AllowNegative: editable.AllowNegative,
		Archived:      editable.Archived,
	}, nil
}

type SectionLinks struct {
	Self  string `json:"self" example:"https://example.com/api/v1/sections/af892e10-7e0a-4fb8-b1bc-4b6d88401ed2"`              // The section itself
	Bills string `json:"bills" example:"https://example.com/api/v1/bills?section=af892e10-7e0a-4fb8-b1bc-4b6d88401ed2"` // The bills of the section
}

// Section is the representation of a Section in API v1.
type Section struct {
	models.DefaultModel
	Name             string              `json:"name" example:"Groceries"`
	Note             string              `json:"note" example:"Everything that ends up in the fridge"`
	Budget           decimal.Decimal     `json:"budget" example:"300"`
	Color            string              `json:"color" example:"#27AE60"`
	Icon             string              `json:"icon" example:"cart"`
	Label            string              `json:"label" example:"Food"`
	AllowNegative    bool                `json:"allowNegative" example:"true"`
	Archived         bool                `json:"archived" example:"false"`
	Stats            models.SectionStats `json:"stats"`
	Overspent        bool                `json:"overspent" example:"false"`       // Whether more than the budget has been spent
	BudgetPercentage decimal.Decimal     `json:"budgetPercentage" example:"42.5"` // Spent part of the budget in percent, capped at 100
	Links            SectionLinks        `json:"links"`
}

// newSection returns the API v1 representation of the resource.
func newSection(c *gin.Context, model models.Section) Section {
	url := c.GetString(string(models.DBContextURL))

	return Section{
		DefaultModel:     model.DefaultModel,
		Name:             model.Name,
		Note:             model.Note,
		Budget:           model.Budget,
		Color:            model.Theme.Color,
		Icon:             model.Theme.Icon,
		Label:            model.Theme.Label,
		AllowNegative:    model.AllowNegative,
		Archived:         model.Archived,
		Stats:            model.Stats,
		Overspent:        model.IsOverspent(),
		BudgetPercentage: model.BudgetPercentage(),
		Links: SectionLinks{
			Self:  fmt.Sprintf("%s/v1/sections/%s", url, model.ID),
			Bills: fmt.Sprintf("%s/v1/bills?section=%s", url, model.ID),
		},
	}
}

type SectionListResponse struct {
	Data       []Section   `json:"data"`       // List of sections
	Error      *apiError   `json:"error"`      // The error, if any occurred
	Pagination *Pagination `json:"pagination"` // Pagination information
}

type SectionCreateResponse struct {
	Error *apiError         `json:"error"` // The error, if any occurred
	Data  []SectionResponse `json:"data"`  // List of created sections
}

func (t *SectionCreateResponse) appendError(err error, currentStatus int) int {
	t.Data = append(t.Data, SectionResponse{Error: newError(err)})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type SectionResponse struct {
	Error *apiError `json:"error"` // The error, if any occurred for this section
	Data  *Section  `json:"data"`  // The section data, if the request was successful
}

type SectionQueryFilter struct {
	Name          string `json:"name" form:"name" filterField:"false"`         // Name contains this string
	Note          string `json:"note" form:"note" filterField:"false"`         // Note contains this string
	Archived      bool   `json:"archived" form:"archived" filterField:"false"` // Is the section archived?
	AllowNegative bool   `json:"allowNegative" form:"allowNegative"`           // Does the section allow negative bills?
	Offset        uint   `json:"offset" form:"offset" filterField:"false"`     // The offset of the first Section returned. Defaults to 0.
	Limit         int    `json:"limit" form:"limit" filterField:"false"`       // Maximum number of Sections to return. Defaults to 50.
	Page          uint   `json:"page" form:"page" filterField:"false"`         // Page number, overrides offset when set. Starts at 1.
}

func (f SectionQueryFilter) model() models.Section {
	return models.Section{
		AllowNegative: f.AllowNegative,
	}
}
