// internal/services/caption_service.go
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Corphon/CreatorPulseMCP/internal/apperr"
	"github.com/Corphon/CreatorPulseMCP/internal/llm"
	"github.com/Corphon/CreatorPulseMCP/internal/models"
)

const (
	maxCaptions       = 4
	maxSounds         = 3
	captionTokenLimit = 300
	soundTokenLimit   = 120

	captionSystemPrompt = "You are a short-form video content strategist who writes scroll-stopping TikTok captions."
)

// noCaptionInputMessage 既没有创意文本也没有媒体文件时的提示
const noCaptionInputMessage = "Provide video file (field 'video') or JSON { idea }"

// 热门话题服务完全不可用时的最小后备列表
var captionFallbackTrends = []string{"#fyp", "#viral", "#creator"}

// 匹配行首的数字列表前缀，如 "1. " 或 "2) "
var listPrefixPattern = regexp.MustCompile(`^\s*\d+[.)]\s*`)

// CaptionInput 文案生成输入，Idea与MediaPath二选一
type CaptionInput struct {
	Idea      string
	MediaPath string
	TaskID    string // 可选，用于进度订阅
}

// CaptionService 编排文案生成流水线
//
// 转写、热门话题与两次LLM调用按顺序执行；任一步骤的意外错误
// 都会使整个请求失败，不返回部分结果。
type CaptionService struct {
	LLM           *LLMService
	Trends        *TrendsService
	Transcription *TranscriptionService
	Progress      *ProgressService
}

// NewCaptionService 创建文案生成服务
func NewCaptionService(llmService *LLMService, trends *TrendsService, transcription *TranscriptionService, progress *ProgressService) *CaptionService {
	return &CaptionService{
		LLM:           llmService,
		Trends:        trends,
		Transcription: transcription,
		Progress:      progress,
	}
}

// Generate 执行完整的文案生成流水线
func (s *CaptionService) Generate(ctx context.Context, input CaptionInput) (*models.CaptionResult, error) {
	s.publish(input.TaskID, StepReceived, "")

	result, err := s.generate(ctx, input)
	if err != nil {
		s.publish(input.TaskID, StepFailed, err.Error())
		return nil, err
	}

	s.publish(input.TaskID, StepDone, "")
	return result, nil
}

func (s *CaptionService) generate(ctx context.Context, input CaptionInput) (*models.CaptionResult, error) {
	hasIdea := strings.TrimSpace(input.Idea) != ""
	hasMedia := input.MediaPath != ""

	if hasIdea == hasMedia {
		// 两者都给或都不给均视为无效输入
		return nil, apperr.NewValidation(noCaptionInputMessage)
	}

	if !s.LLM.IsReady() {
		return nil, apperr.NewConfig("OPENAI_API_KEY not configured")
	}

	// 1. 上下文提取
	contextText := input.Idea
	if hasMedia {
		s.publish(input.TaskID, StepTranscribing, input.MediaPath)
		transcript, err := s.Transcription.Transcribe(ctx, input.MediaPath)
		if err != nil {
			return nil, err
		}
		contextText = transcript
	}

	// 2. 热门话题补充，取前5条
	s.publish(input.TaskID, StepTrends, "")
	trends := s.lookupTrends(ctx)
	topTrends := trends
	if len(topTrends) > 5 {
		topTrends = topTrends[:5]
	}
	trendText := strings.Join(topTrends, " ")

	// 3. 文案生成
	s.publish(input.TaskID, StepCaptions, "")
	captionResp, err := s.LLM.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       buildCaptionPrompt(contextText, trendText),
		SystemPrompt: captionSystemPrompt,
		MaxTokens:    captionTokenLimit,
		Temperature:  0.8,
	})
	if err != nil {
		return nil, err
	}
	captions := ParseSuggestionLines(captionResp.Text, maxCaptions)

	// 4. 音乐推荐
	s.publish(input.TaskID, StepSounds, "")
	soundResp, err := s.LLM.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       buildSoundPrompt(contextText),
		SystemPrompt: captionSystemPrompt,
		MaxTokens:    soundTokenLimit,
		Temperature:  0.8,
	})
	if err != nil {
		return nil, err
	}
	sounds := ParseSuggestionLines(soundResp.Text, maxSounds)

	return &models.CaptionResult{
		Captions: captions,
		Sounds:   sounds,
		Trends:   trends,
	}, nil
}

// lookupTrends 直接调用热门话题服务（进程内，不走HTTP回环）
func (s *CaptionService) lookupTrends(ctx context.Context) []string {
	if s.Trends == nil {
		return captionFallbackTrends
	}

	result := s.Trends.GetTrends(ctx)
	if result == nil || len(result.Items) == 0 {
		return captionFallbackTrends
	}
	return result.Items
}

func (s *CaptionService) publish(taskID, step, message string) {
	if s.Progress != nil {
		s.Progress.Publish(taskID, step, message)
	}
}

// buildCaptionPrompt 构建文案生成提示词
func buildCaptionPrompt(contextText, trendText string) string {
	return fmt.Sprintf(`Write exactly 4 TikTok caption variants for the following video content.

Content: %s

Currently trending hashtags: %s

Requirements:
- Each caption under 100 characters
- Cover these niches in order: 1 educational, 1 funny, 1 lifestyle, 1 challenge/trend
- One caption per line, numbering allowed
- Weave in relevant trending hashtags where natural`, contextText, trendText)
}

// buildSoundPrompt 构建音乐推荐提示词
func buildSoundPrompt(contextText string) string {
	return fmt.Sprintf(`Suggest 3 trending-sound style phrases that would fit a TikTok video about: %s

One suggestion per line, short phrases only, numbering allowed.`, contextText)
}

// ParseSuggestionLines 按行解析模型输出
//
// 去掉数字列表前缀和空行，最多保留limit条。
func ParseSuggestionLines(text string, limit int) []string {
	lines := strings.Split(text, "\n")

	items := make([]string, 0, limit)
	for _, line := range lines {
		line = listPrefixPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, line)
		if len(items) >= limit {
			break
		}
	}

	return items
}
