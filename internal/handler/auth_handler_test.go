package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replenishment-service/internal/operator"
	"replenishment-service/pkg/config"
	"replenishment-service/pkg/jwtutil"
)

type fakeOperators map[string]*operator.Operator

func (f fakeOperators) Authenticate(_ context.Context, email, password string) (*operator.Operator, error) {
	if email == "broken@example.com" {
		return nil, errors.New("db down")
	}
	op, ok := f[email]
	if !ok || password != "pw" {
		return nil, operator.ErrInvalidCredentials
	}
	return op, nil
}

func TestLogin(t *testing.T) {
	j := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationHours: 1})
	h := NewAuthHandler(fakeOperators{
		"buyer@example.com": {ID: 7, Email: "buyer@example.com", Role: jwtutil.RoleBuyer},
	}, j)
	e := echo.New()
	e.POST("/auth/login", h.Login)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"email":"buyer@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := j.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.UserID)
	assert.True(t, claims.CanSubmit())

	assert.Equal(t, http.StatusUnauthorized, post(`{"email":"buyer@example.com","password":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"email":"buyer@example.com"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)
	assert.Equal(t, http.StatusInternalServerError, post(`{"email":"broken@example.com","password":"pw"}`).Code)
}
