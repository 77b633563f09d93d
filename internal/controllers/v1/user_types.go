package v1

import (
	"fmt"

	"github.com/billfold/backend/internal/models"
	"github.com/gin-gonic/gin"
)

type UserEditable struct {
	Name string `json:"name" example:"Morag"`
}

// model returns the database resource for the API representation of the
// editable fields.
func (editable UserEditable) model() models.User {
	return models.User{
		Name: editable.Name,
	}
}

type UserLinks struct {
	Self     string `json:"self" example:"https://example.com/api/v1/user"`          // The user itself
	Sections string `json:"sections" example:"https://example.com/api/v1/sections"`  // The sections of the user
	Bills    string `json:"bills" example:"https://example.com/api/v1/bills"`        // The bills of the user
	Tags     string `json:"tags" example:"https://example.com/api/v1/user/tags/recent"` // The recently used tags of the user
}

// User is the representation of a User in API v1.
type User struct {
	models.DefaultModel
	Name       string           `json:"name" example:"Morag"`
	RecentTags []string         `json:"recentTags" example:"food,transport"` // Most recently used tags, newest first
	Stats      models.UserStats `json:"stats"`
	Links      UserLinks        `json:"links"`
}

// newUser returns the API v1 representation of the resource.
func newUser(c *gin.Context, model models.User) User {
	url := c.GetString(string(models.DBContextURL))

	recentTags := model.RecentTags
	if recentTags == nil {
		recentTags = make([]string, 0)
	}

	return User{
		DefaultModel: model.DefaultModel,
		Name:         model.Name,
		RecentTags:   recentTags,
		Stats:        model.Stats,
		Links: UserLinks{
			Self:     fmt.Sprintf("%s/v1/user", url),
			Sections: fmt.Sprintf("%s/v1/sections", url),
			Bills:    fmt.Sprintf("%s/v1/bills", url),
			Tags:     fmt.Sprintf("%s/v1/user/tags/recent", url),
		},
	}
}

type UserCreateResponse struct {
	Error *apiError      `json:"error"` // The error, if any occurred
	Data  []UserResponse `json:"data"`  // List of created users
}

func (t *UserCreateResponse) appendError(err error, currentStatus int) int {
	t.Data = append(t.Data, UserResponse{Error: newError(err)})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type UserResponse struct {
	Error *apiError `json:"error"` // The error, if any occurred
	Data  *User     `json:"data"`  // The user data, if the request was successful
}

type RecentTagsResponse struct {
	Error *apiError `json:"error"` // The error, if any occurred
	Data  []string  `json:"data"`  // Most recently used tags, newest first
}
