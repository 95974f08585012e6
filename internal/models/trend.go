// internal/models/trend.go
package models

// TrendsResult 热门话题查询结果，Items为话题标签文本
type TrendsResult struct {
	Provider string   `json:"provider"` // "scrape" 或 "simulated"
	Items    []string `json:"items"`
}

// CaptionResult 文案生成结果，直接返回给调用方，不做持久化
type CaptionResult struct {
	Captions []string `json:"captions"`
	Sounds   []string `json:"sounds"`
	Trends   []string `json:"trends"`
}
