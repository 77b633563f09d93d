package v1

import (
	"github.com/billfold/backend/internal/httputil"
	"github.com/billfold/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// resourceOptionsDetail returns the appropriate response for an HTTP OPTIONS
// request for a specific resource owned by the authenticated user.
func resourceOptionsDetail[R models.Bill | models.Section](c *gin.Context, resource R) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: newError(err),
		})
		return
	}

	user := currentUser(c)
	err = models.DB.First(&resource, "id = ? AND user_id = ?", uri.ID.UUID, user.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: newError(err),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}
