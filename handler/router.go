package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册 /api/v1 下的路由
func RegisterRoutes(api *gin.RouterGroup, upload *UploadHandler, sessions *SessionHandler) {
	api.POST("/upload", upload.Upload)

	s := api.Group("/sessions/:id")
	{
		s.GET("", sessions.Get)
		s.DELETE("", sessions.Delete)
		s.POST("/foreground", sessions.SetForeground)
		s.POST("/polygons", sessions.SetPolygons)
		s.POST("/compose", sessions.Compose)
		s.GET("/preview", sessions.Preview)
	}
}
