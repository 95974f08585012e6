// internal/services/transcription_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Corphon/CreatorPulseMCP/internal/apperr"
	"github.com/Corphon/CreatorPulseMCP/internal/utils"
)

// TranscriptionService 负责媒体文件的音频提取与语音转写
type TranscriptionService struct {
	APIKey  string
	BaseURL string
	Model   string

	client *http.Client

	// Transcode 从媒体文件提取压缩单声道音频，默认调用ffmpeg
	Transcode func(ctx context.Context, src, dst string) error
}

// NewTranscriptionService 创建语音转写服务
func NewTranscriptionService(apiKey string) *TranscriptionService {
	s := &TranscriptionService{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "whisper-1",
		client:  &http.Client{},
	}
	s.Transcode = s.ffmpegExtractAudio
	return s
}

// Transcribe 提取音频并调用语音转写API，返回转写文本
//
// 无论成功失败，原始媒体文件和派生音频文件都会被尽力删除。
func (s *TranscriptionService) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	audioPath := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".mp3"

	defer func() {
		// 清理失败只记录，不影响结果
		if err := os.Remove(mediaPath); err != nil && !os.IsNotExist(err) {
			utils.GetLogger().Warnf("清理上传文件失败 %s: %v", mediaPath, err)
		}
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			utils.GetLogger().Warnf("清理音频文件失败 %s: %v", audioPath, err)
		}
	}()

	if err := s.Transcode(ctx, mediaPath, audioPath); err != nil {
		return "", apperr.NewUpstream("Audio extraction failed", err)
	}

	text, err := s.requestTranscription(ctx, audioPath)
	if err != nil {
		return "", err
	}

	return text, nil
}

// ffmpegExtractAudio 提取音轨为压缩单声道mp3
func (s *TranscriptionService) ffmpegExtractAudio(ctx context.Context, src, dst string) error {
	args := []string{
		"-y",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-b:a", "64k",
		dst,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		utils.GetLogger().Errorf("ffmpeg提取音频失败: %s", stderr.String())
		return fmt.Errorf("ffmpeg error: %w", err)
	}

	return nil
}

// requestTranscription 以multipart形式上传音频到转写API
func (s *TranscriptionService) requestTranscription(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", apperr.NewInternal("Failed to open audio file", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", apperr.NewInternal("Failed to build upload request", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", apperr.NewInternal("Failed to build upload request", err)
	}
	if err := writer.WriteField("model", s.Model); err != nil {
		return "", apperr.NewInternal("Failed to build upload request", err)
	}
	if err := writer.Close(); err != nil {
		return "", apperr.NewInternal("Failed to build upload request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", apperr.NewInternal("Failed to build upload request", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperr.NewUpstream("Transcription request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", apperr.NewUpstream(
			fmt.Sprintf("Transcription API returned %d", resp.StatusCode),
			fmt.Errorf("%s", string(respBody)),
		)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apperr.NewUpstream("Failed to parse transcription response", err)
	}

	return result.Text, nil
}
