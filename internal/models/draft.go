// internal/models/draft.go
package models

import "time"

// Draft 保存的文案草稿，由草稿服务独占读写
type Draft struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Caption  string     `json:"caption"`
	Hashtags string     `json:"hashtags"`
	Created  time.Time  `json:"created"`
	Updated  *time.Time `json:"updated,omitempty"`
}

// DraftPatch 部分更新请求，nil字段保持原值
type DraftPatch struct {
	Name     *string `json:"name"`
	Caption  *string `json:"caption"`
	Hashtags *string `json:"hashtags"`
}
