package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (body=%s)", err, rec.Body.String())
	}
	return env
}

func TestRespondErrMapsTaxonomy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", apierr.NotFound("image not found"), http.StatusNotFound, apierr.CodeNotFound, "image not found"},
		{"forbidden", apierr.Forbidden("admin privileges required"), http.StatusForbidden, apierr.CodeForbidden, "admin privileges required"},
		{"upstream", apierr.Upstream("upload", errors.New("timeout")), http.StatusBadGateway, apierr.CodeUpstreamFailure, "upload: timeout"},
		{"plain", errors.New("pq: connection refused"), http.StatusInternalServerError, apierr.CodeInternal, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondErr(c, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Error.Code != tc.code || env.Error.Message != tc.message {
				t.Fatalf("envelope: want=%s/%q got=%s/%q", tc.code, tc.message, env.Error.Code, env.Error.Message)
			}
		})
	}
}
