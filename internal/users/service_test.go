package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockplace/stockplace-backend/pkg/enums"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
)

func TestRegisterNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	db := setupUsersTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	input := RegisterInput{
		Email:        "  Buyer@Example.COM ",
		PasswordHash: "hash",
		FirstName:    "Ben",
		LastName:     "Buyer",
		Role:         enums.UserRoleBuyer,
	}

	user, err := svc.Register(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", user.Email)
	assert.True(t, user.IsActive)

	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRegisterValidatesRole(t *testing.T) {
	db := setupUsersTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{
		Email:        "x@example.com",
		PasswordHash: "hash",
		FirstName:    "X",
		LastName:     "Y",
		Role:         enums.UserRole("landlord"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestResolveStripeAccountReturnsNilWhenUnknown(t *testing.T) {
	db := setupUsersTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	user, err := svc.ResolveStripeAccount(ctx, "acct_missing")
	require.NoError(t, err)
	assert.Nil(t, user)

	acct := "acct_present"
	_, err = svc.Register(ctx, RegisterInput{
		Email:           "lessor@example.com",
		PasswordHash:    "hash",
		FirstName:       "Lena",
		LastName:        "Lessor",
		Role:            enums.UserRoleLessor,
		StripeAccountID: &acct,
	})
	require.NoError(t, err)

	user, err = svc.ResolveStripeAccount(ctx, "acct_present")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "lessor@example.com", user.Email)
}

func TestCompleteStripeOnboardingReportsMatch(t *testing.T) {
	db := setupUsersTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	acct := "acct_onboard"
	_, err = svc.Register(ctx, RegisterInput{
		Email:           "onboard@example.com",
		PasswordHash:    "hash",
		FirstName:       "Omar",
		LastName:        "Onboard",
		Role:            enums.UserRoleLessor,
		StripeAccountID: &acct,
	})
	require.NoError(t, err)

	matched, err := svc.CompleteStripeOnboarding(ctx, "acct_onboard")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = svc.CompleteStripeOnboarding(ctx, "acct_other")
	require.NoError(t, err)
	assert.False(t, matched)
}
