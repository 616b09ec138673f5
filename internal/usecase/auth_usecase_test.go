package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"linkup/internal/domain/entity"
	"linkup/pkg/errors"
)

func TestRegisterValidationNeverReachesNetwork(t *testing.T) {
	auth := newFakeAuthClient()
	uc := NewAuthUseCase(newFakeUserRepo(), auth)

	cases := []RegisterInput{
		{Email: "a@x.com", Password: "secret1"},           // no name
		{Name: "Alice", Password: "secret1"},              // no email
		{Name: "Alice", Email: "not-an-email", Password: "secret1"},
		{Name: "Alice", Email: "a@x.com", Password: "12345"}, // too short
	}
	for _, input := range cases {
		_, err := uc.Register(context.Background(), input)
		assert.Error(t, err)
	}

	assert.Equal(t, 0, auth.createCalls)
	assert.Equal(t, 0, auth.signInCalls)
}

func TestRegisterWeakPasswordCode(t *testing.T) {
	uc := NewAuthUseCase(newFakeUserRepo(), newFakeAuthClient())

	_, err := uc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "a@x.com", Password: "12345",
	})

	assert.True(t, errors.Is(err, "WEAK_PASSWORD"))
}

func TestRegisterCreatesUserAndSignsIn(t *testing.T) {
	userRepo := newFakeUserRepo()
	uc := NewAuthUseCase(userRepo, newFakeAuthClient())

	result, err := uc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "a@x.com", Password: "secret1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "token-a@x.com", result.Token)
	assert.Equal(t, "Available", result.User.About)

	stored, err := userRepo.GetByEmail(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, "Alice", stored.Name)
}

func TestRegisterExistingEmailConflicts(t *testing.T) {
	userRepo := newFakeUserRepo(&entity.User{Email: "a@x.com", Name: "Alice"})
	uc := NewAuthUseCase(userRepo, newFakeAuthClient())

	_, err := uc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "a@x.com", Password: "secret1",
	})

	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestLoginWrongPassword(t *testing.T) {
	auth := newFakeAuthClient()
	auth.uids["a@x.com"] = "uid-a@x.com"
	auth.passwords["a@x.com"] = "secret1"
	uc := NewAuthUseCase(newFakeUserRepo(&entity.User{Email: "a@x.com"}), auth)

	_, err := uc.Login(context.Background(), "a@x.com", "wrong")

	assert.True(t, errors.Is(err, "INVALID_CREDENTIALS"))
}

func TestLoginRecordsSignInTime(t *testing.T) {
	auth := newFakeAuthClient()
	auth.uids["a@x.com"] = "uid-a@x.com"
	auth.passwords["a@x.com"] = "secret1"
	userRepo := newFakeUserRepo(&entity.User{Email: "a@x.com", Name: "Alice"})
	uc := NewAuthUseCase(userRepo, auth)

	result, err := uc.Login(context.Background(), "a@x.com", "secret1")

	assert.NoError(t, err)
	assert.Equal(t, "token-a@x.com", result.Token)

	stored, _ := userRepo.GetByEmail(context.Background(), "a@x.com")
	assert.False(t, stored.LastSignInAt.IsZero())
}

func TestChangePasswordChecksCurrent(t *testing.T) {
	auth := newFakeAuthClient()
	auth.uids["a@x.com"] = "uid-a"
	auth.passwords["a@x.com"] = "secret1"
	uc := NewAuthUseCase(newFakeUserRepo(), auth)
	user := &entity.User{ID: "uid-a", Email: "a@x.com"}

	err := uc.ChangePassword(context.Background(), user, "wrong", "newsecret")
	assert.Error(t, err)

	err = uc.ChangePassword(context.Background(), user, "secret1", "newsecret")
	assert.NoError(t, err)
	assert.Equal(t, "newsecret", auth.passwords["a@x.com"])
}

func TestDeleteAccountRemovesAuthAndDirectory(t *testing.T) {
	auth := newFakeAuthClient()
	auth.uids["a@x.com"] = "uid-a"
	userRepo := newFakeUserRepo(&entity.User{ID: "uid-a", Email: "a@x.com"})
	uc := NewAuthUseCase(userRepo, auth)

	err := uc.DeleteAccount(context.Background(), &entity.User{ID: "uid-a", Email: "a@x.com"})

	assert.NoError(t, err)
	assert.Contains(t, auth.deleted, "uid-a")
	_, err = userRepo.GetByEmail(context.Background(), "a@x.com")
	assert.Error(t, err)
}
