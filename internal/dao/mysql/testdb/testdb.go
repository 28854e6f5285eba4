// Package testdb 为测试提供独立的内存 sqlite 数据库
package testdb

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"market_chat_server/internal/config"
	"market_chat_server/internal/dao/mysql"
	"market_chat_server/internal/dao/mysql/repository"
	"market_chat_server/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// New 打开一个迁移好的内存库，每次调用互不干扰
func New(t testing.TB) (*gorm.DB, *repository.Repositories) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := mysql.Open(&config.MysqlConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, mysql.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db, repository.NewRepositories(db)
}

// CreateUser 插入一个可用的用户
func CreateUser(t testing.TB, repos *repository.Repositories, username string) *model.UserInfo {
	t.Helper()
	u := &model.UserInfo{Username: username, Email: username + "@example.com", RawPassword: "password", IsActive: true}
	require.NoError(t, repos.User.Create(context.Background(), u))
	return u
}
