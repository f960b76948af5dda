package repositoryImp

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/auth/repository"
)

type userRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.UserRepository { return &userRepo{db} }

func (r *userRepo) Create(ctx context.Context, u *entities.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Invalid(map[string]string{"email": "A user with this email already exists."})
	}
	return err
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	var u entities.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var u entities.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) ListPending(ctx context.Context) ([]entities.User, error) {
	var out []entities.User
	err := r.db.WithContext(ctx).Where("approved = ?", false).Order("created_at").Find(&out).Error
	return out, err
}

func (r *userRepo) Approve(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user %d not found", id)
	}
	return nil
}
