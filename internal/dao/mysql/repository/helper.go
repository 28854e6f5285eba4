package repository

import (
	"errors"
	"fmt"

	"market_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

// dbCode gorm 错误到业务码：
// 记录不存在为 NotFound，唯一键冲突为 Conflict（需开启 TranslateError），其余为 DBError
func dbCode(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errorx.CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errorx.CodeConflict
	default:
		return errorx.CodeDBError
	}
}

func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errorx.Wrap(err, dbCode(err), msg)
}

func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return wrapDBError(err, fmt.Sprintf(format, args...))
}
