package contacts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, nil)
	r.POST("/api/contact", h.Submit)
	r.GET("/api/admin/contacts/:id", h.Get)
	r.PUT("/api/admin/contacts/:id", h.Update)
	r.DELETE("/api/admin/contacts/:id", h.Delete)
	return r
}

func do(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SubmitAndTriage(t *testing.T) {
	r := newTestRouter(NewService(newMemStore(), nil, nil))

	w := do(r, http.MethodPost, "/api/contact", validSubmission())
	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	target := "/api/admin/contacts/" + body.Data.ID

	w = do(r, http.MethodPut, target, map[string]string{"status": "responded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, target, map[string]string{"status": "read"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"read"`)

	w = do(r, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/admin/contacts/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SubmitRejectsInvalid(t *testing.T) {
	r := newTestRouter(NewService(newMemStore(), nil, nil))
	w := do(r, http.MethodPost, "/api/contact", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
