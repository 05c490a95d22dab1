package api

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"WaveRider/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", service.ErrAuthFailed), http.StatusUnauthorized},
		{fmt.Errorf("wrap: %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrap: %w", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", service.ErrMergeInconsistency), http.StatusInternalServerError},
		{fmt.Errorf("意外错误"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusForError(tc.err))
	}
}

func TestWriteGameError_FailedEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	writeGameError(c, fmt.Errorf("wrap: %w", service.ErrAuthFailed))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/xml")

	var parsed failureResponse
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Equal(t, "failed", parsed.Status)
}

func TestWriteXML_HeaderAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	writeXML(c, http.StatusOK, songIDResponse{Status: "allgood", SongID: 7})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, xml.Header[:5])
	assert.Contains(t, body, `<RESULT status="allgood">`)
	assert.Contains(t, body, "<songid>7</songid>")
}
