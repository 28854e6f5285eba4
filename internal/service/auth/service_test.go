package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_chat_server/internal/dao/mysql/testdb"
	"market_chat_server/internal/dto/request"
	"market_chat_server/internal/model"
	"market_chat_server/pkg/errorx"
	"market_chat_server/pkg/util/jwt"
)

func TestRegisterLoginVerify(t *testing.T) {
	jwt.Init("auth-test-secret", "market_chat", 10)
	ctx := context.Background()
	db, repos := testdb.New(t)
	svc := NewAuthService(repos)

	reg, err := svc.Register(ctx, request.RegisterRequest{Username: "alice", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)

	_, err = svc.Register(ctx, request.RegisterRequest{Username: "alice", Email: "x@example.com", Password: "secret1"})
	assert.Equal(t, errorx.CodeUserExist, errorx.GetCode(err))

	login, err := svc.Login(ctx, request.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	id, err := svc.VerifyToken(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.Id, id)

	_, err = svc.Login(ctx, request.LoginRequest{Username: "alice", Password: "wrong-pass"})
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))

	_, err = svc.VerifyToken(ctx, "garbage")
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))

	// 停用后旧令牌失效
	require.NoError(t, db.Model(&model.UserInfo{}).Where("id = ?", id).Update("is_active", false).Error)
	_, err = svc.VerifyToken(ctx, login.AccessToken)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestVerifyTokenForDeletedUser(t *testing.T) {
	jwt.Init("auth-test-secret", "market_chat", 10)
	_, repos := testdb.New(t)
	svc := NewAuthService(repos)

	token, err := jwt.GenerateAccessToken(404, "ghost")
	require.NoError(t, err)
	_, err = svc.VerifyToken(context.Background(), token)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}
