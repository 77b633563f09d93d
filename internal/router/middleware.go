package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/billfold/backend/internal/metrics"
	"github.com/billfold/backend/internal/models"
	ez_uuid "github.com/billfold/backend/internal/uuid"
	"github.com/gin-gonic/gin"
)

// URLMiddleware stores the base URL the API is served under so that
// resource representations can include absolute links.
func URLMiddleware(url *url.URL) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(models.DBContextURL), url.String())
		c.Next()
	}
}

// MetricsMiddleware updates Prometheus metrics.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := float64(time.Since(start)) / float64(time.Second)

		// Replace all URL parameters with their name to reduce cardinality
		// https://prometheus.io/docs/practices/naming/#labels
		url := c.Request.URL.Path
		for _, p := range c.Params {
			url = strings.Replace(url, p.Value, fmt.Sprintf(":%s", p.Key), 1)
		}

		metrics.RequestDuration.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		metrics.RequestCount.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}

// UserMiddleware resolves the X-User-ID header to a user and aborts with
// 401 when that is not possible. Authentication itself is the job of the
// fronting auth layer, the backend trusts the header.
func UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "the X-User-ID header must be set",
			})
			return
		}

		id, err := ez_uuid.Parse(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "the X-User-ID header must be a valid UUID",
			})
			return
		}

		var user models.User
		err = models.DB.First(&user, "id = ?", id.UUID).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "there is no user matching the X-User-ID header",
			})
			return
		}

		c.Set(string(models.ContextUser), user)
		c.Next()
	}
}
