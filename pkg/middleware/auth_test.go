package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"table-booking/internal/data/entity"
	"table-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "middleware-secret"

type directory map[string]entity.Actor

func (d directory) Resolve(_ context.Context, userID string) (entity.Actor, error) {
	actor, ok := d[userID]
	if !ok {
		return entity.Actor{}, fmt.Errorf("user %s: %w", userID, entity.ErrNotFound)
	}
	return actor, nil
}

func issue(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, ttl)
	require.NoError(t, err)
	return tok.Token
}

func echoActor(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(actor.ID + ":" + actor.Role.String()))
}

func TestAuth(t *testing.T) {
	branch := entity.BranchCentral
	dir := directory{
		"100001": {ID: "100001", Role: entity.RoleCustomer},
		"200001": {ID: "200001", Role: entity.RoleStaff, Branch: &branch},
	}
	handler := Auth(secret, dir, zap.NewNop())(http.HandlerFunc(echoActor))

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantBody string
	}{
		{name: "valid customer", header: "Bearer " + issue(t, "100001", time.Hour), wantCode: http.StatusOK, wantBody: "100001:customer"},
		{name: "role comes from the directory", header: "Bearer " + issue(t, "200001", time.Hour), wantCode: http.StatusOK, wantBody: "200001:staff"},
		{name: "lowercase scheme", header: "bearer " + issue(t, "100001", time.Hour), wantCode: http.StatusOK, wantBody: "100001:customer"},
		{name: "query token", query: "?access_token=" + issue(t, "100001", time.Hour), wantCode: http.StatusOK, wantBody: "100001:customer"},
		{name: "missing token", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + issue(t, "100001", -time.Minute), wantCode: http.StatusUnauthorized},
		{name: "unknown subject", header: "Bearer " + issue(t, "999999", time.Hour), wantCode: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-jwt", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/reservations"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAuthRejectsForeignSignature(t *testing.T) {
	tok, err := utils.NewAccessToken("another-secret", "100001", time.Hour)
	require.NoError(t, err)

	handler := Auth(secret, directory{"100001": {ID: "100001"}}, zap.NewNop())(http.HandlerFunc(echoActor))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	gate := RequireRole(zap.NewNop(), entity.RoleAdmin, entity.RoleSuperAdmin)(http.HandlerFunc(echoActor))

	tests := []struct {
		name     string
		actor    *entity.Actor
		wantCode int
	}{
		{name: "no actor", wantCode: http.StatusUnauthorized},
		{name: "customer", actor: &entity.Actor{ID: "1", Role: entity.RoleCustomer}, wantCode: http.StatusForbidden},
		{name: "staff", actor: &entity.Actor{ID: "2", Role: entity.RoleStaff}, wantCode: http.StatusForbidden},
		{name: "admin", actor: &entity.Actor{ID: "3", Role: entity.RoleAdmin}, wantCode: http.StatusOK},
		{name: "super admin", actor: &entity.Actor{ID: "4", Role: entity.RoleSuperAdmin}, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/branches/0/pause", nil)
			if tt.actor != nil {
				req = req.WithContext(utils.SetActorContext(req.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()

			gate.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
