package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/residencia-api/internal/domain/complaint"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestParseFilter(t *testing.T) {
	c, _ := testContext("/api/complaints?status=RESOLVED&priority=HIGH&category=NOISE&building=Tower%201")

	f, problem := parseFilter(c)
	require.Empty(t, problem)
	assert.Equal(t, complaint.StatusResolved, *f.Status)
	assert.Equal(t, complaint.PriorityHigh, *f.Priority)
	assert.Equal(t, complaint.CategoryNoise, *f.Category)
	assert.Equal(t, "Tower 1", *f.Building)
	assert.Nil(t, f.AuthorID)
}

func TestParseFilter_Empty(t *testing.T) {
	c, _ := testContext("/api/complaints")

	f, problem := parseFilter(c)
	require.Empty(t, problem)
	assert.Equal(t, complaint.Filter{}, f)
}

func TestParseFilter_Invalid(t *testing.T) {
	tests := map[string]string{
		"status":   "/api/complaints?status=done",
		"priority": "/api/complaints?priority=CRITICAL",
		"category": "/api/complaints?category=PARKING",
	}
	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := testContext(target)
			_, problem := parseFilter(c)
			assert.Contains(t, problem, name)
		})
	}
}

func TestUUIDParam(t *testing.T) {
	c, w := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	_, ok := uuidParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, _ = testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f"}}
	id, ok := uuidParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, "6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f", id.String())
}

func TestCallerOrAbort_Anonymous(t *testing.T) {
	c, w := testContext("/")

	_, ok := callerOrAbort(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(nil, []string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, h.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, h.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, h.upgrader.CheckOrigin(req))

	open := NewWebSocketHandler(nil, []string{"*"})
	assert.True(t, open.upgrader.CheckOrigin(req))
}
