package v1

import (
	"net/http"

	"github.com/billfold/backend/internal/httputil"
	"github.com/billfold/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes registers the routes for the authenticated user with
// the RouterGroup that is passed.
func RegisterUserRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsUser)
		r.GET("", GetUser)
	}

	// Recompute of the lifetime stats
	{
		r.OPTIONS("/recompute", OptionsUserRecompute)
		r.POST("/recompute", RecomputeUser)
	}

	// Recently used tags
	{
		r.OPTIONS("/tags/recent", OptionsRecentTags)
		r.GET("/tags/recent", GetRecentTags)
	}
}

// RegisterUserRegistrationRoutes registers the routes for creating users with
// the RouterGroup that is passed. These routes do not require the
// X-User-ID header.
func RegisterUserRegistrationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsUsers)
	r.POST("", CreateUsers)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			User
// @Success		204
// @Router			/v1/user [options]
func OptionsUser(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			User
// @Success		204
// @Router			/v1/users [options]
func OptionsUsers(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			User
// @Success		204
// @Router			/v1/user/recompute [options]
func OptionsUserRecompute(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			User
// @Success		204
// @Router			/v1/user/tags/recent [options]
func OptionsRecentTags(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Get user
// @Description	Returns the authenticated user with their lifetime stats
// @Tags			User
// @Produce		json
// @Success		200	{object}	UserResponse
// @Router			/v1/user [get]
func GetUser(c *gin.Context) {
	user := currentUser(c)

	data := newUser(c, user)
	c.JSON(http.StatusOK, UserResponse{Data: &data})
}

// @Summary		Create users
// @Description	Creates users from the list of submitted user data. The response code is the highest response code number that a single user creation would have caused.
// @Tags			User
// @Produce		json
// @Success		201		{object}	UserCreateResponse
// @Failure		400		{object}	UserCreateResponse
// @Failure		500		{object}	UserCreateResponse
// @Param			users	body		[]UserEditable	true	"Users"
// @Router			/v1/users [post]
func CreateUsers(c *gin.Context) {
	var editables []UserEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		c.JSON(status(err), UserCreateResponse{
			Error: newError(err),
		})
		return
	}

	status := http.StatusCreated
	r := UserCreateResponse{}

	for _, editable := range editables {
		user := editable.model()

		err := models.DB.Create(&user).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newUser(c, user)
		r.Data = append(r.Data, UserResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Recompute user stats
// @Description	Rebuilds the lifetime stats of the authenticated user from scratch and returns the user. Use this when the incrementally maintained stats have drifted.
// @Tags			User
// @Produce		json
// @Success		200	{object}	UserResponse
// @Failure		500	{object}	UserResponse
// @Router			/v1/user/recompute [post]
func RecomputeUser(c *gin.Context) {
	user := currentUser(c)

	err := user.RecomputeStats(models.DB)
	if err != nil {
		c.JSON(status(err), UserResponse{
			Error: newError(err),
		})
		return
	}

	data := newUser(c, user)
	c.JSON(http.StatusOK, UserResponse{Data: &data})
}

// @Summary		Get recent tags
// @Description	Returns the most recently used tags of the authenticated user, newest first. When no recent tags have been recorded yet, they are filled from the tag analytics.
// @Tags			User
// @Produce		json
// @Success		200	{object}	RecentTagsResponse
// @Failure		500	{object}	RecentTagsResponse
// @Router			/v1/user/tags/recent [get]
func GetRecentTags(c *gin.Context) {
	user := currentUser(c)

	if len(user.RecentTags) == 0 {
		err := user.RefreshRecentTags(models.DB)
		if err != nil {
			c.JSON(status(err), RecentTagsResponse{
				Error: newError(err),
			})
			return
		}
	}

	tags := user.RecentTags
	if tags == nil {
		tags = make([]string, 0)
	}

	c.JSON(http.StatusOK, RecentTagsResponse{Data: tags})
}
