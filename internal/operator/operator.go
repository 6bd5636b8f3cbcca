// Package operator stores the people allowed to call the replenishment API.
package operator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"replenishment-service/pkg/jwtutil"
	"replenishment-service/pkg/logger"
	"replenishment-service/prometheus"
)

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExists             = errors.New("operator already exists")
	ErrInvalidRole        = errors.New("invalid operator role")
)

// Operator is a user of the replenishment API
type Operator struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"`
	Role         string    `json:"role" gorm:"type:varchar(20)"`
	Active       bool      `json:"active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Operator) TableName() string { return "operators" }

// Store reads and writes operators
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewStore creates a Store
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: logger.OrNop(log)}
}

// Migrate creates the operators table. The table belongs to this service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Operator{}); err != nil {
		return fmt.Errorf("failed to migrate operators: %w", err)
	}
	return nil
}

// Create registers an operator with a bcrypt-hashed password
func (s *Store) Create(ctx context.Context, email, password, role string) (*Operator, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	if !jwtutil.ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	defer prometheus.TrackDBOperation("operator_insert")(time.Now())

	var count int64
	if err := s.db.WithContext(ctx).Model(&Operator{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check operator: %w", err)
	}
	if count > 0 {
		return nil, ErrExists
	}

	op := &Operator{Email: email, PasswordHash: string(hash), Role: role, Active: true}
	if err := s.db.WithContext(ctx).Create(op).Error; err != nil {
		return nil, fmt.Errorf("create operator: %w", err)
	}
	s.log.Info("Operator created", zap.String("email", email), zap.String("role", role))
	return op, nil
}

// Authenticate checks an email and password pair. Unknown, inactive and
// wrong-password operators all return ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*Operator, error) {
	email = normalizeEmail(email)
	defer prometheus.TrackDBOperation("operator_select")(time.Now())

	var op Operator
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("Login for unknown operator", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find operator: %w", err)
	}

	if !op.Active {
		s.log.Warn("Login for inactive operator", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("Invalid password", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}
	return &op, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
