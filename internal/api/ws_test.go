// internal/api/ws_test.go
package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Corphon/CreatorPulseMCP/internal/di"
	"github.com/Corphon/CreatorPulseMCP/internal/services"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptionProgressWS(t *testing.T) {
	router, _ := setupTestRouter(t)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := strings.Replace(server.URL, "http://", "ws://", 1) + "/ws/caption/task-ws-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	progress, ok := di.GetContainer().Get("progress").(*services.ProgressService)
	require.True(t, ok)

	// 服务端订阅在升级后异步完成，重复发布直到第一条事件送达
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				progress.Publish("task-ws-1", services.StepReceived, "")
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first services.ProgressEvent
	require.NoError(t, conn.ReadJSON(&first))
	close(stop)
	assert.Equal(t, "task-ws-1", first.TaskID)
	assert.Equal(t, services.StepReceived, first.Step)

	progress.Publish("task-ws-1", services.StepCaptions, "")
	progress.Publish("task-ws-1", services.StepDone, "")

	// 跳过重发期间积压的received事件，校验后续顺序
	var steps []string
	for {
		var event services.ProgressEvent
		require.NoError(t, conn.ReadJSON(&event))
		if event.Step == services.StepReceived {
			continue
		}
		steps = append(steps, event.Step)
		if event.Step == services.StepDone {
			break
		}
	}
	assert.Equal(t, []string{services.StepCaptions, services.StepDone}, steps)

	// done之后服务端关闭连接
	var event services.ProgressEvent
	err = conn.ReadJSON(&event)
	assert.Error(t, err)
}
