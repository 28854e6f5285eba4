// Package model 定义数据库实体模型
// 本文件定义用户信息模型，只保留消息模块需要的资料和认证字段
package model

import (
	"time"

	"golang.org/x/crypto/bcrypt" // 密码哈希库
	"gorm.io/gorm"
)

// UserInfo 用户信息模型
// 对应数据库 user_info 表
type UserInfo struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`

	// Username 登录名，也是聊天中展示的名字
	Username string `gorm:"column:username;uniqueIndex;type:varchar(50);not null;comment:用户名"`

	Email string `gorm:"column:email;type:varchar(100);comment:邮箱"`

	// AvatarUrl 头像地址，存储相对路径如 "/static/avatars/xxx.jpg"
	AvatarUrl string `gorm:"column:avatar_url;type:varchar(255);comment:头像"`

	IsFreelancer bool `gorm:"column:is_freelancer;not null;default:false;comment:是否自由职业者"`

	// Password bcrypt 哈希，永远不出现在响应里
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码" json:"-"`

	// IsActive 停用的账号既不能登录也不能收发消息
	IsActive bool `gorm:"column:is_active;not null;default:true;comment:账号是否可用"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	// RawPassword 明文密码（不存入数据库），在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}

// BeforeSave GORM Hook：将 RawPassword 加密后写入 Password
func (u *UserInfo) BeforeSave(tx *gorm.DB) error {
	if u.RawPassword == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	u.RawPassword = "" // 清空明文，防止泄露
	return nil
}

// CheckPassword 校验密码是否正确
func (u *UserInfo) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext)) == nil
}
