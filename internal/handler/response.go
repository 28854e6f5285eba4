package handler

import (
	"errors"
	"net/http"

	"market_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ResponseData 统一响应结构体
type ResponseData struct {
	Code int `json:"code"`           // 业务响应状态码
	Msg  any `json:"msg"`            // 提示信息
	Data any `json:"data,omitempty"` // 数据
}

// HandleSuccess 返回成功响应
func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, ResponseData{Code: errorx.CodeSuccess, Msg: "success", Data: data})
}

// HandleError 通用错误处理
// 业务错误按错误码映射 HTTP 状态；非 CodeError 统一按服务繁忙返回，细节只进日志
//
//	if err := svc.DoSomething(); err != nil {
//	    HandleError(c, err)
//	    return
//	}
func HandleError(c *gin.Context, err error) {
	code := errorx.GetCode(err)
	status := errorx.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
	}
	writeError(c, status, code, errorx.Message(err))
}

// HandleParamError 参数绑定失败，validator 错误会翻译成逐字段的提示
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && Trans != nil {
		writeError(c, http.StatusBadRequest, errorx.CodeInvalidParam, RemoveTopStruct(validationErrs.Translate(Trans)))
		return
	}
	// JSON 格式错误、类型不匹配等
	zap.L().Debug("param bind error", zap.Error(err))
	writeError(c, http.StatusBadRequest, errorx.CodeInvalidParam, errorx.ErrInvalidParam.Msg)
}

// paramError 路径参数错误
func paramError(c *gin.Context, msg string) {
	writeError(c, http.StatusBadRequest, errorx.CodeInvalidParam, msg)
}

func writeError(c *gin.Context, status, code int, msg any) {
	c.JSON(status, ResponseData{Code: code, Msg: msg})
}
