// Package auth 提供认证相关的业务逻辑
// 负责注册、密码登录和访问令牌校验
package auth

import (
	"context"

	"go.uber.org/zap"

	"market_chat_server/internal/dao/mysql/repository"
	"market_chat_server/internal/dto/request"
	"market_chat_server/internal/dto/respond"
	"market_chat_server/internal/model"
	"market_chat_server/pkg/errorx"
	"market_chat_server/pkg/util/jwt"
)

// Service 认证服务实现
type Service struct {
	repos *repository.Repositories
}

// NewAuthService 创建认证服务实例
func NewAuthService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// Register 注册并直接签发令牌
func (s *Service) Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error) {
	_, err := s.repos.User.FindByUsername(ctx, req.Username)
	if err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "username already taken")
	}
	if !errorx.IsNotFound(err) {
		return nil, err
	}

	user := &model.UserInfo{
		Username:     req.Username,
		Email:        req.Email,
		IsFreelancer: req.IsFreelancer,
		IsActive:     true,
		RawPassword:  req.Password,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if errorx.GetCode(err) == errorx.CodeConflict {
			return nil, errorx.New(errorx.CodeUserExist, "username already taken")
		}
		return nil, err
	}
	zap.L().Info("user registered", zap.Uint64("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

// Login 用户名密码登录
func (s *Service) Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := s.repos.User.FindByUsername(ctx, req.Username)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUnauthorized, "invalid username or password")
		}
		return nil, err
	}
	if !user.CheckPassword(req.Password) || !user.IsActive {
		return nil, errorx.New(errorx.CodeUnauthorized, "invalid username or password")
	}
	return s.issue(user)
}

func (s *Service) issue(user *model.UserInfo) (*respond.LoginRespond, error) {
	token, err := jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeServerBusy, "generate token failed")
	}
	return &respond.LoginRespond{
		Id:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		AvatarUrl:    user.AvatarUrl,
		IsFreelancer: user.IsFreelancer,
		AccessToken:  token,
	}, nil
}

// VerifyToken 解析令牌并确认用户仍然可用
// 任何失败都返回 Unauthorized，不区分原因
func (s *Service) VerifyToken(ctx context.Context, token string) (uint64, error) {
	if token == "" {
		return 0, errorx.ErrUnauthorized
	}
	claims, err := jwt.ParseToken(token)
	if err != nil {
		return 0, errorx.Wrap(err, errorx.CodeUnauthorized, "invalid token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, errorx.Wrap(err, errorx.CodeUnauthorized, "invalid token subject")
	}
	user, err := s.repos.User.FindById(ctx, userID)
	if err != nil {
		return 0, errorx.Wrap(err, errorx.CodeUnauthorized, "token user not found")
	}
	if !user.IsActive {
		return 0, errorx.New(errorx.CodeUnauthorized, "user disabled")
	}
	return userID, nil
}
