package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhub/internal/apperr"
)

// tolerant of claim value types (int / int64 / float64 / string)
func getInt64FromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserID(c *gin.Context) int64 {
	id, _ := getInt64FromCtx(c, "user_id")
	return id
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// respondErr maps the error taxonomy onto HTTP statuses. Unclassified errors
// are infrastructure failures and come back as 500.
func respondErr(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apperr.CodeValidation, apperr.CodeScopeMismatch:
		status = http.StatusBadRequest
	case apperr.CodeForbidden:
		status = http.StatusForbidden
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeConflict, apperr.CodeInvalidTransition:
		status = http.StatusConflict
	}
	body := gin.H{"error": err.Error()}
	if code != "" {
		body["code"] = code
	}
	c.JSON(status, body)
}
