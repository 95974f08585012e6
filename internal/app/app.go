// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Corphon/CreatorPulseMCP/internal/config"
	"github.com/Corphon/CreatorPulseMCP/internal/di"
	"github.com/Corphon/CreatorPulseMCP/internal/services"
	"github.com/Corphon/CreatorPulseMCP/internal/storage"
	"github.com/Corphon/CreatorPulseMCP/internal/utils"

	// 注册LLM提供者
	_ "github.com/Corphon/CreatorPulseMCP/internal/llm/providers/openai"
	_ "github.com/Corphon/CreatorPulseMCP/internal/llm/providers/openrouter"
)

// App 应用程序实例
type App struct {
	config   *config.AppConfig
	server   *http.Server
	stopChan chan os.Signal
}

// 全局应用实例
var instance *App

// GetApp 获取应用实例（单例模式）
func GetApp() *App {
	if instance == nil {
		instance = &App{
			stopChan: make(chan os.Signal, 1),
		}
	}
	return instance
}

// GetConfig 返回应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	// 基础服务
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	container.Register("storage", fileStorage)

	llmService := services.NewLLMService()
	if !llmService.IsReady() {
		log.Printf("警告: LLM服务未就绪: %s", llmService.GetReadyState())
	}
	container.Register("llm", llmService)

	progressService := services.NewProgressService()
	container.Register("progress", progressService)

	trendsService := services.NewTrendsService(cfg.ScrapeTrends, cfg.TrendsPageURL, cfg.TrendsAPIKey)
	container.Register("trends", trendsService)

	transcriptionService := services.NewTranscriptionService(cfg.OpenAIAPIKey)
	container.Register("transcription", transcriptionService)

	// 依赖服务
	draftService, err := services.NewDraftService(fileStorage)
	if err != nil {
		return fmt.Errorf("初始化草稿服务失败: %w", err)
	}
	container.Register("draft", draftService)

	captionService := services.NewCaptionService(llmService, trendsService, transcriptionService, progressService)
	container.Register("caption", captionService)

	return nil
}

// InitLogging 初始化日志系统，日志文件按日期命名
func InitLogging(logDir string) error {
	logFile := filepath.Join(logDir, fmt.Sprintf("server_%s.log", time.Now().Format("20060102")))
	return utils.InitLogger(logFile)
}

// Run 启动HTTP服务并等待停止信号
func (a *App) Run(handler http.Handler) error {
	cfg := a.config
	if cfg == nil {
		cfg = config.GetCurrentConfig()
		a.config = cfg
	}

	a.server = &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v", err)
		}
	}()

	// 等待中断信号以进行优雅关闭
	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	<-a.stopChan

	log.Println("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务器强制关闭: %w", err)
	}

	log.Println("服务器优雅关闭完成")
	return nil
}
