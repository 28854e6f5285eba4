package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Trans 参数校验错误的翻译器，InitTrans 之前为 nil
var Trans ut.Translator

// InitTrans 给 gin 的 validator 注册翻译，locale 取 "en" 或 "zh"，其他值按 en 处理
// 错误信息里的字段名使用 json/form tag，与客户端看到的参数名一致
func InitTrans(locale string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	v.RegisterTagNameFunc(fieldName)

	uni := ut.New(en.New(), en.New(), zh.New())
	if locale != "zh" {
		locale = "en"
	}
	trans, _ := uni.GetTranslator(locale)

	var err error
	if locale == "zh" {
		err = zh_translations.RegisterDefaultTranslations(v, trans)
	} else {
		err = en_translations.RegisterDefaultTranslations(v, trans)
	}
	if err != nil {
		return fmt.Errorf("register %s translations: %w", locale, err)
	}
	Trans = trans
	return nil
}

// fieldName json tag 优先，multipart 表单字段回退到 form tag
func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// RemoveTopStruct 去掉 "SendMessageRequest.receiverId" 中的结构体前缀
func RemoveTopStruct(fields map[string]string) map[string]string {
	res := make(map[string]string, len(fields))
	for field, msg := range fields {
		res[field[strings.Index(field, ".")+1:]] = msg
	}
	return res
}
