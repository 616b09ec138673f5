package repository

import (
	"context"

	"linkup/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, email string) error
	List(ctx context.Context) ([]*entity.User, error)
}
