package repository

import (
	"context"

	"market_chat_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindById 按 ID 查找用户
func (r *userRepository) FindById(ctx context.Context, id uint64) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 id=%d", id)
	}
	return &user, nil
}

// FindByUsername 按用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 username=%s", username)
	}
	return &user, nil
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *model.UserInfo) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}
