// internal/services/transcription_service_test.go
package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Corphon/CreatorPulseMCP/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempMedia(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0644))
	return path
}

func stubTranscode(content string) func(ctx context.Context, src, dst string) error {
	return func(ctx context.Context, src, dst string) error {
		return os.WriteFile(dst, []byte(content), 0644)
	}
}

func TestTranscribe(t *testing.T) {
	var gotAuth, gotModel, gotFilename string
	var gotFileBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotFileBytes, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hello from the video"}`))
	}))
	defer server.Close()

	mediaPath := writeTempMedia(t)

	svc := NewTranscriptionService("sk-test")
	svc.BaseURL = server.URL
	svc.Transcode = stubTranscode("fake mp3 bytes")

	text, err := svc.Transcribe(context.Background(), mediaPath)
	require.NoError(t, err)
	assert.Equal(t, "hello from the video", text)

	// multipart字段按OpenAI兼容格式提交
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "clip.mp3", gotFilename)
	assert.Equal(t, []byte("fake mp3 bytes"), gotFileBytes)
}

func TestTranscribeCleansUpFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "ok"}`))
	}))
	defer server.Close()

	mediaPath := writeTempMedia(t)
	audioPath := filepath.Join(filepath.Dir(mediaPath), "clip.mp3")

	svc := NewTranscriptionService("sk-test")
	svc.BaseURL = server.URL
	svc.Transcode = stubTranscode("audio")

	_, err := svc.Transcribe(context.Background(), mediaPath)
	require.NoError(t, err)

	// 上传文件和派生音频都被删除
	_, err = os.Stat(mediaPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(audioPath)
	assert.True(t, os.IsNotExist(err))
}

func TestTranscribeCleansUpOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad audio"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	mediaPath := writeTempMedia(t)

	svc := NewTranscriptionService("sk-test")
	svc.BaseURL = server.URL
	svc.Transcode = stubTranscode("audio")

	_, err := svc.Transcribe(context.Background(), mediaPath)
	require.Error(t, err)
	assert.True(t, apperr.IsUpstream(err))
	assert.Contains(t, err.Error(), "Transcription API returned 400")

	_, err = os.Stat(mediaPath)
	assert.True(t, os.IsNotExist(err))
}

func TestTranscribeTranscodeFailure(t *testing.T) {
	mediaPath := writeTempMedia(t)

	svc := NewTranscriptionService("sk-test")
	svc.Transcode = func(ctx context.Context, src, dst string) error {
		return assert.AnError
	}

	_, err := svc.Transcribe(context.Background(), mediaPath)
	require.Error(t, err)
	assert.True(t, apperr.IsUpstream(err))
	assert.Contains(t, err.Error(), "Audio extraction failed")

	// 源文件同样被清理
	_, err = os.Stat(mediaPath)
	assert.True(t, os.IsNotExist(err))
}
