// internal/api/handlers.go
package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Corphon/CreatorPulseMCP/internal/models"
	"github.com/Corphon/CreatorPulseMCP/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 上传大小上限
const maxUploadBytes = 100 << 20 // 100MB

// Handler 处理API请求
type Handler struct {
	TrendsService  *services.TrendsService        // 热门话题服务
	CaptionService *services.CaptionService       // 文案生成服务
	DraftService   *services.DraftService         // 草稿服务
	LLMService     *services.LLMService           // LLM服务
	Progress       *services.ProgressService      // 进度服务
	UploadDir      string                         // 上传临时目录
	Response       *ResponseHelper                // 响应助手
}

// CreateDraftRequest 创建草稿的请求结构
type CreateDraftRequest struct {
	Name     string `json:"name"`
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
}

// CaptionRequest JSON形式的文案生成请求
type CaptionRequest struct {
	Idea   string `json:"idea"`
	TaskID string `json:"task_id"`
}

// GetTrends 返回热门话题列表
func (h *Handler) GetTrends(c *gin.Context) {
	result := h.TrendsService.GetTrends(c.Request.Context())

	h.Response.OK(c, gin.H{
		"provider": result.Provider,
		"data":     result.Items,
	})
}

// GenerateCaption 执行文案生成流水线
//
// 接受 multipart 表单（字段video）或 JSON {idea}；两者都缺失返回400。
func (h *Handler) GenerateCaption(c *gin.Context) {
	input := services.CaptionInput{
		TaskID: c.Query("task_id"),
	}

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, err := c.FormFile("video")
		if err == nil {
			if file.Size > maxUploadBytes {
				h.Response.BadRequest(c, "Video file too large (max 100MB)")
				return
			}

			// 时间戳+随机后缀避免文件名冲突
			tempName := fmt.Sprintf("%d_%s_%s",
				time.Now().UnixMilli(),
				strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
				filepath.Base(file.Filename))
			tempPath := filepath.Join(h.UploadDir, tempName)

			if err := c.SaveUploadedFile(file, tempPath); err != nil {
				h.Response.InternalError(c, "Failed to save upload", err.Error())
				return
			}

			input.MediaPath = tempPath
		}

		if taskID := c.PostForm("task_id"); taskID != "" {
			input.TaskID = taskID
		}
		input.Idea = c.PostForm("idea")
	} else {
		var req CaptionRequest
		// 请求体缺失或非法时让流水线的输入校验给出统一提示
		_ = c.ShouldBindJSON(&req)
		input.Idea = req.Idea
		if req.TaskID != "" {
			input.TaskID = req.TaskID
		}
	}

	result, err := h.CaptionService.Generate(c.Request.Context(), input)
	if err != nil {
		h.Response.FailFromError(c, err)
		return
	}

	h.Response.OK(c, gin.H{
		"captions": result.Captions,
		"sounds":   result.Sounds,
		"trends":   result.Trends,
	})
}

// GetDrafts 返回全部草稿
func (h *Handler) GetDrafts(c *gin.Context) {
	drafts := h.DraftService.List()
	h.Response.OK(c, gin.H{"drafts": drafts})
}

// CreateDraft 创建草稿
func (h *Handler) CreateDraft(c *gin.Context) {
	var req CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	draft, err := h.DraftService.Create(req.Name, req.Caption, req.Hashtags)
	if err != nil {
		h.Response.FailFromError(c, err)
		return
	}

	h.Response.OK(c, gin.H{"draft": draft})
}

// UpdateDraft 部分更新草稿
func (h *Handler) UpdateDraft(c *gin.Context) {
	var patch models.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.Response.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	draft, err := h.DraftService.Update(c.Param("id"), patch)
	if err != nil {
		h.Response.FailFromError(c, err)
		return
	}

	h.Response.OK(c, gin.H{"draft": draft})
}

// DeleteDraft 删除草稿
func (h *Handler) DeleteDraft(c *gin.Context) {
	draft, err := h.DraftService.Delete(c.Param("id"))
	if err != nil {
		h.Response.FailFromError(c, err)
		return
	}

	h.Response.OK(c, gin.H{"deleted": draft})
}

// GetLLMStatus 返回LLM服务就绪状态
func (h *Handler) GetLLMStatus(c *gin.Context) {
	h.Response.OK(c, gin.H{
		"provider": h.LLMService.GetProviderName(),
		"ready":    h.LLMService.IsReady(),
		"state":    h.LLMService.GetReadyState(),
	})
}

// AuthTikTokPage 返回OAuth占位页面，不做真实鉴权
func (h *Handler) AuthTikTokPage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<!DOCTYPE html>
<html>
<head><title>TikTok Login</title></head>
<body>
  <h1>TikTok OAuth</h1>
  <p>OAuth integration is not configured yet. This is a placeholder page.</p>
  <a href="/">Back to app</a>
</body>
</html>`)
}
