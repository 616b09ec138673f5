package usecase

import (
	"context"
	"time"

	"linkup/internal/domain/entity"
	"linkup/internal/domain/repository"
	"linkup/pkg/errors"
)

type UserUseCase struct {
	userRepo repository.UserRepository
	chatRepo repository.ChatRepository
}

func NewUserUseCase(userRepo repository.UserRepository, chatRepo repository.ChatRepository) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		chatRepo: chatRepo,
	}
}

// ListDirectory returns every user, name-ordered, for the contact picker.
func (uc *UserUseCase) ListDirectory(ctx context.Context) ([]*entity.User, error) {
	return uc.userRepo.List(ctx)
}

// UpdateProfile changes the mutable profile fields of the caller.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, email, name, about string) (*entity.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if about != "" {
		user.About = about
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// AddContact creates a directory entry for someone not yet registered and
// opens an empty personal chat with them, mirroring the mobile "add user"
// flow. The chat stays out of the list view until a first message exists.
func (uc *UserUseCase) AddContact(ctx context.Context, me *entity.User, name, email string) (*entity.Chat, error) {
	if name == "" || email == "" {
		return nil, errors.Validation("name and email are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, errors.Validation("email address is malformed")
	}

	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, errors.Conflict("User already exists")
	}

	contact := &entity.User{
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := uc.userRepo.Create(ctx, contact); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	chat := &entity.Chat{
		Users: []entity.Participant{
			me.AsParticipant(),
			contact.AsParticipant(),
		},
		Messages:    []entity.Message{},
		GroupName:   "",
		LastUpdated: now,
		LastAccess: []entity.AccessStamp{
			{Email: me.Email, Date: now},
			{Email: email},
		},
	}

	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	return chat, nil
}
