package auth

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/internal/users"
	pkgauth "github.com/stockplace/stockplace-backend/pkg/auth"
	"github.com/stockplace/stockplace-backend/pkg/config"
	"github.com/stockplace/stockplace-backend/pkg/enums"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:auth_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	// no primary key on id: registration relies on the database default for
	// id generation, which sqlite does not provide.
	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL,
  delivery_days TEXT,
  stripe_account_id TEXT UNIQUE,
  stripe_onboarding_completed INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "stockplace-test",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	// small argon parameters to keep the suite fast
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
	}
}

func newAuthService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	usersSvc, err := users.NewService(users.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Users:       usersSvc,
		JWTConfig:   testJWTConfig(),
		PasswordCfg: testPasswordConfig(),
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterThenLoginRoundTrips(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{
		Email:     "renter@example.com",
		Password:  "correct horse battery",
		FirstName: "Rita",
		LastName:  "Renter",
		Role:      "renter",
	})
	require.NoError(t, err)
	require.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, enums.UserRoleRenter, registered.User.Role)

	loggedIn, err := svc.Login(ctx, LoginRequest{
		Email:    "renter@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), loggedIn.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "renter@example.com", claims.Email)
	assert.Equal(t, enums.UserRoleRenter, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email:     "buyer@example.com",
		Password:  "right password",
		FirstName: "Ben",
		LastName:  "Buyer",
		Role:      "buyer",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "buyer@example.com",
		Password: "wrong password",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRegisterRefusesAdminRole(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "root@example.com",
		Password:  "supersecret",
		FirstName: "Root",
		LastName:  "User",
		Role:      "admin",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
