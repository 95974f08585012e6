// internal/services/draft_service.go
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Corphon/CreatorPulseMCP/internal/apperr"
	"github.com/Corphon/CreatorPulseMCP/internal/models"
	"github.com/Corphon/CreatorPulseMCP/internal/storage"
	"github.com/Corphon/CreatorPulseMCP/internal/utils"
	"github.com/google/uuid"
)

const draftsFile = "drafts.json"

// DraftService 管理文案草稿的文件持久化
//
// 持久化格式为单个JSON数组，最新的草稿排在最前。
type DraftService struct {
	storage *storage.FileStorage
}

// NewDraftService 创建草稿服务
func NewDraftService(fs *storage.FileStorage) (*DraftService, error) {
	s := &DraftService{storage: fs}

	// 首次运行时初始化为空数组
	if !fs.FileExists(draftsFile) {
		if err := fs.SaveJSONFile(draftsFile, []models.Draft{}); err != nil {
			return nil, fmt.Errorf("初始化草稿文件失败: %w", err)
		}
	}

	return s, nil
}

// List 返回全部草稿；读取或解析失败时返回空列表而不是错误
func (s *DraftService) List() []models.Draft {
	var drafts []models.Draft
	if err := s.storage.LoadJSONFile(draftsFile, &drafts); err != nil {
		utils.GetLogger().Warnf("读取草稿文件失败，返回空列表: %v", err)
		return []models.Draft{}
	}

	if drafts == nil {
		drafts = []models.Draft{}
	}
	return drafts
}

// Create 创建新草稿并插入列表头部
func (s *DraftService) Create(name, caption, hashtags string) (*models.Draft, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.NewValidation("Draft name is required")
	}

	draft := models.Draft{
		ID:       newDraftID(),
		Name:     name,
		Caption:  caption,
		Hashtags: hashtags,
		Created:  time.Now().UTC(),
	}

	drafts := s.List()
	drafts = append([]models.Draft{draft}, drafts...)

	if err := s.storage.SaveJSONFile(draftsFile, drafts); err != nil {
		return nil, apperr.NewInternal("Failed to save draft", err)
	}

	return &draft, nil
}

// Update 合并非nil字段并更新时间戳
func (s *DraftService) Update(id string, patch models.DraftPatch) (*models.Draft, error) {
	drafts := s.List()

	for i := range drafts {
		if drafts[i].ID != id {
			continue
		}

		if patch.Name != nil {
			drafts[i].Name = *patch.Name
		}
		if patch.Caption != nil {
			drafts[i].Caption = *patch.Caption
		}
		if patch.Hashtags != nil {
			drafts[i].Hashtags = *patch.Hashtags
		}

		now := time.Now().UTC()
		drafts[i].Updated = &now

		if err := s.storage.SaveJSONFile(draftsFile, drafts); err != nil {
			return nil, apperr.NewInternal("Failed to save draft", err)
		}

		updated := drafts[i]
		return &updated, nil
	}

	return nil, apperr.NewNotFound("Draft not found")
}

// Delete 删除草稿并返回被删除的记录
func (s *DraftService) Delete(id string) (*models.Draft, error) {
	drafts := s.List()

	for i := range drafts {
		if drafts[i].ID != id {
			continue
		}

		removed := drafts[i]
		drafts = append(drafts[:i], drafts[i+1:]...)

		if err := s.storage.SaveJSONFile(draftsFile, drafts); err != nil {
			return nil, apperr.NewInternal("Failed to save drafts", err)
		}

		return &removed, nil
	}

	return nil, apperr.NewNotFound("Draft not found")
}

// newDraftID 生成唯一草稿ID，时间戳加随机后缀
func newDraftID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("draft_%d_%s", time.Now().UnixMilli(), suffix)
}
