package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestEnvelopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		write  func(c *gin.Context)
		status int
		body   string
	}{
		{
			name:   "success",
			write:  func(c *gin.Context) { Success(c, http.StatusCreated, gin.H{"id": "b1"}) },
			status: http.StatusCreated,
			body:   `{"success":true,"data":{"id":"b1"}}`,
		},
		{
			name:   "error",
			write:  func(c *gin.Context) { Error(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found") },
			status: http.StatusNotFound,
			body:   `{"success":false,"error":{"code":"BOOKING_NOT_FOUND","message":"Booking not found"}}`,
		},
		{
			name: "details",
			write: func(c *gin.Context) {
				ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", map[string]string{"hours": "min"})
			},
			status: http.StatusBadRequest,
			body:   `{"success":false,"error":{"code":"VALIDATION_ERROR","message":"Validation failed","details":{"hours":"min"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.write(c)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestAbort_StopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reached := false
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		Abort(c, http.StatusForbidden, "FORBIDDEN", "nope")
	}, func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, reached)
	assert.Contains(t, w.Body.String(), `"FORBIDDEN"`)
}
