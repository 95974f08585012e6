// internal/services/progress_service.go
package services

import (
	"sync"
	"time"
)

// ProgressEvent 文案生成流水线的一次步骤通知
type ProgressEvent struct {
	TaskID    string    `json:"task_id"`
	Step      string    `json:"step"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// 流水线步骤名称
const (
	StepReceived     = "received"
	StepTranscribing = "transcribing"
	StepTrends       = "trends"
	StepCaptions     = "captions"
	StepSounds       = "sounds"
	StepDone         = "done"
	StepFailed       = "failed"
)

// ProgressService 按任务ID向订阅者广播流水线进度
//
// 纯观测用途，不提供取消机制。
type ProgressService struct {
	mutex       sync.RWMutex
	subscribers map[string][]chan ProgressEvent
}

// NewProgressService 创建进度服务
func NewProgressService() *ProgressService {
	return &ProgressService{
		subscribers: make(map[string][]chan ProgressEvent),
	}
}

// Subscribe 订阅任务进度，返回事件通道和取消函数
func (s *ProgressService) Subscribe(taskID string) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 16)

	s.mutex.Lock()
	s.subscribers[taskID] = append(s.subscribers[taskID], ch)
	s.mutex.Unlock()

	unsubscribe := func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		subs := s.subscribers[taskID]
		for i, sub := range subs {
			if sub == ch {
				s.subscribers[taskID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		if len(s.subscribers[taskID]) == 0 {
			delete(s.subscribers, taskID)
		}
	}

	return ch, unsubscribe
}

// Publish 广播一次进度事件；没有订阅者时为空操作
func (s *ProgressService) Publish(taskID, step, message string) {
	if taskID == "" {
		return
	}

	event := ProgressEvent{
		TaskID:    taskID,
		Step:      step,
		Message:   message,
		Timestamp: time.Now(),
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, ch := range s.subscribers[taskID] {
		select {
		case ch <- event:
		default:
			// 订阅者处理过慢时丢弃事件，不阻塞流水线
		}
	}
}
