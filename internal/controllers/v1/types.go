package v1

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/billfold/backend/internal/amount"
	"github.com/billfold/backend/internal/config"
	"github.com/billfold/backend/internal/models"
	ez_uuid "github.com/billfold/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type URIID struct {
	ID ez_uuid.UUID `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

// Pagination contains information about the pagination
type Pagination struct {
	Count  int   `json:"count"`  // The amount of records returned in this response
	Total  int64 `json:"total"`  // The total number of records matching the query
	Offset uint  `json:"offset"` // The offset of the first record returned
	Limit  int   `json:"limit"`  // The maximum number of records returned
	Pages  int64 `json:"pages"`  // The number of pages at this limit
}

func newPagination(count int, total int64, offset uint, limit int) *Pagination {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}

	return &Pagination{
		Count:  count,
		Total:  total,
		Offset: offset,
		Limit:  limit,
		Pages:  pages,
	}
}

// AmountInput accepts an amount as a JSON number or as a string. Strings may
// contain currency symbols, digit separators and basic arithmetic, e.g.
// "₦1,000" or "10+5*2".
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		s = inner
	}

	*a = AmountInput(s)
	return nil
}

// decimal parses the input, enforcing the configured maximum magnitude. An
// empty input parses to zero.
func (a AmountInput) decimal() (decimal.Decimal, error) {
	if a == "" {
		return decimal.Zero, nil
	}

	d, err := amount.Parse(string(a), maxAmount)
	if err != nil {
		return decimal.Zero, models.NewAmountError(err)
	}

	return d, nil
}

// Runtime limits for the controllers, set by Configure.
var (
	maxAmount      = decimal.NewFromInt(1_000_000)
	purgeRetention = 30 * 24 * time.Hour
)

// Configure sets the runtime limits for the controllers from the
// configuration.
func Configure(cfg *config.Config) {
	maxAmount = cfg.MaxAmount
	purgeRetention = cfg.PurgeRetention
}

// currentUser returns the authenticated user that the router middleware
// stored in the context.
func currentUser(c *gin.Context) models.User {
	return c.MustGet(string(models.ContextUser)).(models.User)
}
