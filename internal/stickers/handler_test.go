package stickers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// The server starts without S3 when storage is misconfigured; photo endpoints
// must refuse cleanly instead of panicking.
func TestPhotoEndpointsWithoutStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, zap.NewNop())

	endpoints := map[string]gin.HandlerFunc{
		"upload-url":   h.PhotoUploadURL,
		"upload":       h.UploadPhoto,
		"download-url": h.PhotoDownloadURL,
	}
	for name, handler := range endpoints {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/stickers/x/photo", bytes.NewReader(nil))
			handler(c)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		})
	}
}
