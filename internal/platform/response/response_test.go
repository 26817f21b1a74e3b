package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/service-scheduling/internal/domain"
)

func TestPaginated_WrapsItemsWithMetadata(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Paginated(c, []string{"a", "b"}, 5, 2, 2)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool                           `json:"success"`
		Data    domain.PaginatedResult[string] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"a", "b"}, body.Data.Items)
	assert.Equal(t, int64(5), body.Data.Total)
	assert.Equal(t, 2, body.Data.Page)
	assert.Equal(t, 2, body.Data.Limit)
}

func TestError_MapsKindsToStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
	}{
		{domain.NewValidationError("bad input"), http.StatusBadRequest},
		{domain.NewNotFoundError("reservation", "RSV-MISSING"), http.StatusNotFound},
		{domain.NewConflictError("taken"), http.StatusConflict},
		{domain.NewRateLimitError("slow down"), http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		Error(c, tc.err)
		assert.Equal(t, tc.status, rec.Code)
	}
}
