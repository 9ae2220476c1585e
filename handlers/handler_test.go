package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammedsw45/blue-basks/apperrors"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"unauthenticated", apperrors.New(apperrors.Unauthenticated, "authentication required"), http.StatusUnauthorized, "authentication required"},
		{"forbidden", apperrors.New(apperrors.Forbidden, "admin access required"), http.StatusForbidden, "admin access required"},
		{"not found", apperrors.New(apperrors.NotFound, "task not found"), http.StatusNotFound, "task not found"},
		{"validation", apperrors.New(apperrors.ValidationFailed, "This team already has a team leader."), http.StatusBadRequest, "This team already has a team leader."},
		{"conflict", apperrors.New(apperrors.Conflict, "status not changed"), http.StatusConflict, "status not changed"},
		{"internal cause hidden", errors.New("mongo: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantBody, body["error"])
		})
	}
}

func TestRequireActorWithoutIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)

	_, ok := requireActor(rec, req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
