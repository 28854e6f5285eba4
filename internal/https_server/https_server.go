// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件、静态资源和路由
package https_server

import (
	"market_chat_server/internal/config"                    // 配置管理
	"market_chat_server/internal/infrastructure/logger"     // 自定义日志中间件
	"market_chat_server/internal/infrastructure/middleware" // 指标与 TLS 中间件
	"market_chat_server/internal/router"                    // 路由注册

	"github.com/gin-contrib/cors" // CORS 跨域中间件
	"github.com/gin-gonic/gin"    // Gin Web 框架
)

// Init 创建 Gin 引擎并返回
// 配置顺序：
//  1. 创建 Gin 引擎（空白，不含默认中间件）
//  2. 注册日志、恢复和指标中间件
//  3. 配置 CORS 跨域规则，按需启用 TLS 重定向
//  4. 映射静态资源目录
//  5. 注册业务路由
func Init(conf *config.Config, rt *router.Router) *gin.Engine {
	if conf.MainConfig.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(logger.GinLogger())
	// 参数 true 表示在日志中包含堆栈信息
	engine.Use(logger.GinRecovery(true))
	engine.Use(middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // 允许所有来源（生产环境应指定具体域名）
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 如果由 Nginx 处理 SSL 则保持关闭
	if conf.MainConfig.TLSRedirect {
		engine.Use(middleware.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	// /static/avatars -> 头像文件目录
	engine.Static("/static/avatars", conf.StaticAvatarPath)
	// /static/files -> 聊天附件目录
	engine.Static("/static/files", conf.StaticFilePath)

	rt.RegisterRoutes(engine)
	return engine
}
