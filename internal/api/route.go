package api

import (
	"BookItNow/internal/api/middleware"
	"BookItNow/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		imGroup := apiGroup.Group("/im")
		{
			// 通道连接自带 token 鉴权，不走 Bearer 中间件
			imGroup.GET("", group.WSHandler.Connect)

			authGroup := imGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/send", group.IMHandler.SendMessage)
			}
		}

		notificationGroup := apiGroup.Group("/notifications")
		notificationGroup.Use(middleware.AuthMiddleware())
		{
			notificationGroup.GET("/:user_id", group.NotificationHandler.GetCounts)
			notificationGroup.POST("/:user_id/read/:other_id", group.NotificationHandler.MarkConversationRead)
		}

		presenceGroup := apiGroup.Group("/presence")
		presenceGroup.Use(middleware.AuthMiddleware())
		{
			presenceGroup.POST("/viewing/:other_id", group.PresenceHandler.MarkViewing)
			presenceGroup.DELETE("/viewing/:other_id", group.PresenceHandler.ClearViewing)
			presenceGroup.GET("/check/:sender_id/:receiver_id", group.PresenceHandler.Check)
		}
	}

	return r
}
