package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// TlsHandler 将明文请求重定向到 https，配置 mainConfig.tlsRedirect 时启用
func TlsHandler(host string, port int) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:        true,
		SSLHost:            host + ":" + strconv.Itoa(port),
		FrameDeny:          true,
		ContentTypeNosniff: true,
	})

	return func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			// 重定向已写入响应，终止后续处理
			zap.L().Debug("tls redirect", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
