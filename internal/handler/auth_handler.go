package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"replenishment-service/internal/operator"
	"replenishment-service/pkg/jwtutil"
	"replenishment-service/pkg/logger"
	"replenishment-service/prometheus"
)

// Authenticator checks operator credentials
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*operator.Operator, error)
}

// AuthHandler issues operator tokens
type AuthHandler struct {
	operators Authenticator
	jwt       *jwtutil.JWTUtil
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(operators Authenticator, j *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{operators: operators, jwt: j}
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges an email and password for a signed operator token
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	op, err := h.operators.Authenticate(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, operator.ErrInvalidCredentials) {
		prometheus.RecordAuthError()
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		log.Error("Operator lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	token, err := h.jwt.GenerateToken(strconv.FormatUint(uint64(op.ID), 10), op.Email, op.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Operator logged in", zap.String("email", op.Email), zap.String("role", op.Role))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"operator": echo.Map{
			"id":    op.ID,
			"email": op.Email,
			"role":  op.Role,
		},
	})
}
