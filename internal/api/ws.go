// internal/api/ws.go
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/Corphon/CreatorPulseMCP/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 与CORS策略保持一致，允许所有来源
		return true
	},
}

// CaptionProgressWS 订阅指定任务的流水线进度
//
// 客户端先连接，再带task_id发起文案请求；连接在done/failed后关闭。
func (h *Handler) CaptionProgressWS(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		h.Response.BadRequest(c, "task_id is required")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.Progress.Subscribe(taskID)
	defer unsubscribe()

	// 读循环只用于感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				return
			}

			if event.Step == services.StepDone || event.Step == services.StepFailed {
				return
			}
		case <-done:
			return
		}
	}
}
