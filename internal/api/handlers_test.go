// internal/api/handlers_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Corphon/CreatorPulseMCP/internal/app"
	"github.com/Corphon/CreatorPulseMCP/internal/config"
	"github.com/Corphon/CreatorPulseMCP/internal/di"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRouter 用临时目录初始化全套服务和路由
func setupTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()

	dataDir := t.TempDir()
	webDir := t.TempDir()

	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("LOG_DIR", t.TempDir())
	t.Setenv("WEB_DIR", webDir)
	t.Setenv("SCRAPE_TRENDS", "false")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEBUG_MODE", "false")

	require.NoError(t, config.InitConfig(dataDir))

	di.GetContainer().Clear()
	require.NoError(t, app.InitServices())

	router, err := SetupRouter()
	require.NoError(t, err)

	return router, webDir
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope map[string]any
	if strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}

	return w, envelope
}

func TestGetTrendsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, path := range []string{"/api/trends", "/trends"} {
		w, body := doRequest(t, router, "GET", path, "")

		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "simulated", body["provider"])

		items, ok := body["data"].([]any)
		require.True(t, ok)
		assert.Len(t, items, 9)
		assert.Contains(t, items, "#fyp")
	}
}

func TestTrendsRateLimitHeaders(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, _ := doRequest(t, router, "GET", "/api/trends", "")
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}

func TestDraftLifecycle(t *testing.T) {
	router, _ := setupTestRouter(t)

	// 创建
	w, body := doRequest(t, router, "POST", "/api/drafts", `{"name": "Hook idea"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])

	draft, ok := body["draft"].(map[string]any)
	require.True(t, ok)
	id, _ := draft["id"].(string)
	assert.True(t, strings.HasPrefix(id, "draft_"))
	assert.Equal(t, "Hook idea", draft["name"])
	assert.Equal(t, "", draft["caption"])
	assert.Equal(t, "", draft["hashtags"])

	// 列表包含新草稿
	w, body = doRequest(t, router, "GET", "/api/drafts", "")
	require.Equal(t, http.StatusOK, w.Code)
	drafts, ok := body["drafts"].([]any)
	require.True(t, ok)
	require.Len(t, drafts, 1)

	// 部分更新
	w, body = doRequest(t, router, "PUT", "/api/drafts/"+id, `{"caption": "new caption"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated, _ := body["draft"].(map[string]any)
	assert.Equal(t, "new caption", updated["caption"])
	assert.Equal(t, "Hook idea", updated["name"])

	// 删除
	w, body = doRequest(t, router, "DELETE", "/api/drafts/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	deleted, _ := body["deleted"].(map[string]any)
	assert.Equal(t, id, deleted["id"])

	w, body = doRequest(t, router, "GET", "/api/drafts", "")
	require.Equal(t, http.StatusOK, w.Code)
	drafts, _ = body["drafts"].([]any)
	assert.Empty(t, drafts)
}

func TestCreateDraftValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	// 缺少名称
	w, body := doRequest(t, router, "POST", "/api/drafts", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Draft name is required", body["error"])

	// JSON语法错误
	w, body = doRequest(t, router, "POST", "/api/drafts", `{"name":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestUpdateDraftNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, body := doRequest(t, router, "PUT", "/api/drafts/draft_0_missing", `{"name": "x"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Draft not found", body["error"])

	w, body = doRequest(t, router, "DELETE", "/api/drafts/draft_0_missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Draft not found", body["error"])
}

func TestGenerateCaptionNoInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	// 无请求体
	w, body := doRequest(t, router, "POST", "/api/caption", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Provide video file (field 'video') or JSON { idea }", body["error"])

	// 空JSON对象同样无效
	w, body = doRequest(t, router, "POST", "/api/caption", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Provide video file (field 'video') or JSON { idea }", body["error"])
}

func TestGenerateCaptionWithoutAPIKey(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, body := doRequest(t, router, "POST", "/api/caption", `{"idea": "coffee hacks"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "OPENAI_API_KEY not configured", body["error"])
}

func TestLLMStatusEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, body := doRequest(t, router, "GET", "/api/llm/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["ready"])
}

func TestAuthTikTokPlaceholder(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, _ := doRequest(t, router, "GET", "/auth/tiktok", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "TikTok OAuth")
}

func TestSPAFallback(t *testing.T) {
	router, webDir := setupTestRouter(t)

	indexHTML := "<html><body>creator pulse</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "index.html"), []byte(indexHTML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "app.js"), []byte("console.log(1)"), 0644))

	// 未知路径回退到index.html
	w, _ := doRequest(t, router, "GET", "/drafts/editor", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, indexHTML, w.Body.String())

	// 实际存在的静态文件按路径提供
	w, _ = doRequest(t, router, "GET", "/app.js", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	// 非GET的未知路径不回退
	w, body := doRequest(t, router, "POST", "/drafts/editor", `{}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["ok"])
}

func TestSPAFallbackWithoutFrontEnd(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, body := doRequest(t, router, "GET", "/anywhere", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Front end not found", body["error"])
}
