package usecase

import (
	"context"
	"regexp"
	"time"

	"linkup/internal/domain/entity"
	"linkup/internal/domain/repository"
	"linkup/pkg/errors"
	"linkup/pkg/logger"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthUseCase struct {
	userRepo     repository.UserRepository
	firebaseAuth FirebaseAuthClient
}

func NewAuthUseCase(userRepo repository.UserRepository, firebaseAuth FirebaseAuthClient) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     userRepo,
		firebaseAuth: firebaseAuth,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type AuthResult struct {
	User  *entity.User
	Token string
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	// Validation failures never reach the network.
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, errors.Validation("name, email and password are required")
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, errors.Validation("email address is malformed")
	}
	if len(input.Password) < 6 {
		return nil, errors.WeakPassword(nil)
	}

	if existing, err := uc.userRepo.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, errors.Conflict("Email already in use")
	}

	uid, err := uc.firebaseAuth.CreateUser(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:           uid,
		Email:        input.Email,
		Name:         input.Name,
		About:        "Available",
		CreatedAt:    now,
		LastSignInAt: now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		logger.Error("User record creation failed after auth signup for %s: %v", input.Email, err)
		return nil, err
	}

	token, err := uc.firebaseAuth.SignInWithEmailPassword(input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, errors.Validation("email and password are required")
	}

	token, err := uc.firebaseAuth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	user.LastSignInAt = time.Now()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		logger.Warn("Failed to record sign-in time for %s: %v", email, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) ChangePassword(ctx context.Context, user *entity.User, current, next string) error {
	if next == "" {
		return errors.Validation("new password is required")
	}
	if len(next) < 6 {
		return errors.WeakPassword(nil)
	}

	// Re-check the current password before touching the account.
	if _, err := uc.firebaseAuth.SignInWithEmailPassword(user.Email, current); err != nil {
		return err
	}

	return uc.firebaseAuth.UpdateUserPassword(ctx, user.ID, next)
}

// DeleteAccount removes the auth record and the directory document. Chats the
// user participated in are untouched; other members keep their history.
func (uc *AuthUseCase) DeleteAccount(ctx context.Context, user *entity.User) error {
	if err := uc.firebaseAuth.DeleteUser(ctx, user.ID); err != nil {
		return err
	}

	if err := uc.userRepo.Delete(ctx, user.Email); err != nil {
		logger.Error("Auth record deleted but user document removal failed for %s: %v", user.Email, err)
		return err
	}

	return nil
}

func (uc *AuthUseCase) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}
	return user, nil
}
