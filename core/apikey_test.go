package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAPIKeyRequired(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{name: "disabled", configured: "", header: "", wantStatus: http.StatusOK},
		{name: "missing", configured: "secret", header: "", wantStatus: http.StatusForbidden},
		{name: "wrong", configured: "secret", header: "secreT", wantStatus: http.StatusForbidden},
		{name: "prefix only", configured: "secret", header: "sec", wantStatus: http.StatusForbidden},
		{name: "match", configured: "secret", header: "secret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/profile", APIKeyRequired(tt.configured), func(c *gin.Context) {
				c.String(http.StatusOK, "ok")
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("x-api-key", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.JSONEq(t, `{"error":{"code":"FORBIDDEN","message":"invalid api key"}}`, w.Body.String())
			}
		})
	}
}
