// internal/api/router.go
package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Corphon/CreatorPulseMCP/internal/config"
	"github.com/Corphon/CreatorPulseMCP/internal/di"
	"github.com/Corphon/CreatorPulseMCP/internal/services"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()

	// 获取依赖注入容器，只从容器获取服务，不创建新实例
	container := di.GetContainer()

	trendsService, ok := container.Get("trends").(*services.TrendsService)
	if !ok {
		return nil, fmt.Errorf("热门话题服务未正确初始化")
	}

	captionService, ok := container.Get("caption").(*services.CaptionService)
	if !ok {
		return nil, fmt.Errorf("文案生成服务未正确初始化")
	}

	draftService, ok := container.Get("draft").(*services.DraftService)
	if !ok {
		return nil, fmt.Errorf("草稿服务未正确初始化")
	}

	llmService, ok := container.Get("llm").(*services.LLMService)
	if !ok {
		return nil, fmt.Errorf("LLM服务未正确初始化")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("进度服务未正确初始化")
	}

	handler := &Handler{
		TrendsService:  trendsService,
		CaptionService: captionService,
		DraftService:   draftService,
		LLMService:     llmService,
		Progress:       progressService,
		UploadDir:      cfg.UploadDir,
		Response:       NewResponseHelper(),
	}

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// 启用CORS
	r.Use(corsMiddleware())

	// 上传大小上限（multipart内存缓冲）
	r.MaxMultipartMemory = 32 << 20

	// 热门话题的备用挂载点
	r.GET("/trends", DefaultRateLimit(), handler.GetTrends)

	// OAuth占位页面
	r.GET("/auth/tiktok", handler.AuthTikTokPage)

	// WebSocket 进度订阅
	r.GET("/ws/caption/:task_id", handler.CaptionProgressWS)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		api.GET("/trends", handler.GetTrends)

		api.POST("/caption", CaptionRateLimit(), handler.GenerateCaption)

		draftsGroup := api.Group("/drafts")
		{
			draftsGroup.GET("", handler.GetDrafts)
			draftsGroup.POST("", handler.CreateDraft)
			draftsGroup.PUT("/:id", handler.UpdateDraft)
			draftsGroup.DELETE("/:id", handler.DeleteDraft)
		}

		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/status", handler.GetLLMStatus)
		}
	}

	// 静态前端与单页应用回退
	setupSPAFallback(r, cfg.WebDir)

	return r, nil
}

// setupSPAFallback 未匹配的GET请求回退到前端index页面
func setupSPAFallback(r *gin.Engine, webDir string) {
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Not found"})
			return
		}

		// 先尝试按路径提供静态文件
		requested := filepath.Join(webDir, filepath.Clean(c.Request.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			c.File(requested)
			return
		}

		indexPath := filepath.Join(webDir, "index.html")
		if _, err := os.Stat(indexPath); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Front end not found"})
			return
		}

		c.File(indexPath)
	})
}
