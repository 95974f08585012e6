// internal/services/trends_service.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Corphon/CreatorPulseMCP/internal/models"
	"github.com/Corphon/CreatorPulseMCP/internal/utils"
	"golang.org/x/net/html"
)

const (
	ProviderScrape    = "scrape"
	ProviderSimulated = "simulated"

	maxScrapedTrends = 40
	scrapeTimeout    = 15 * time.Second
)

// simulatedTrends 抓取失败或禁用时的固定后备列表
var simulatedTrends = []string{
	"#fyp",
	"#viral",
	"#trending",
	"#foryou",
	"#duet",
	"#challenge",
	"#comedy",
	"#dance",
	"#learnontiktok",
}

// TrendsService 提供热门话题查询，抓取失败时退回固定列表
type TrendsService struct {
	ScrapeEnabled bool
	PageURL       string
	APIKey        string

	client *http.Client
}

// NewTrendsService 创建热门话题服务
func NewTrendsService(scrapeEnabled bool, pageURL, apiKey string) *TrendsService {
	return &TrendsService{
		ScrapeEnabled: scrapeEnabled,
		PageURL:       pageURL,
		APIKey:        apiKey,
		client:        &http.Client{},
	}
}

// GetTrends 查询热门话题
//
// 任何抓取错误都被吸收为后备结果，调用方总能拿到一个非空列表。
func (s *TrendsService) GetTrends(ctx context.Context) *models.TrendsResult {
	if !s.ScrapeEnabled {
		return s.simulated()
	}

	items, err := s.scrape(ctx)
	if err != nil {
		utils.GetLogger().Warnf("热门话题抓取失败，使用模拟数据: %v", err)
		return s.simulated()
	}

	if len(items) == 0 {
		utils.GetLogger().Warnf("热门话题抓取结果为空，使用模拟数据")
		return s.simulated()
	}

	return &models.TrendsResult{
		Provider: ProviderScrape,
		Items:    items,
	}
}

func (s *TrendsService) simulated() *models.TrendsResult {
	items := make([]string, len(simulatedTrends))
	copy(items, simulatedTrends)

	return &models.TrendsResult{
		Provider: ProviderSimulated,
		Items:    items,
	}
}

// scrape 拉取热门页面并提取话题标签，超时受限
func (s *TrendsService) scrape(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", s.PageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("热门页面返回状态码 %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析热门页面失败: %w", err)
	}

	return ExtractHashtags(doc, maxScrapedTrends), nil
}

// ExtractHashtags 从HTML文档中提取话题标签文本
//
// 候选节点: 以#开头的文本节点，以及class包含hashtag/title的元素文本。
// 结果去重并保持出现顺序，最多limit条。
func ExtractHashtags(doc *html.Node, limit int) []string {
	var items []string
	seen := make(map[string]bool)

	add := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" || len(items) >= limit {
			return
		}
		if !strings.HasPrefix(text, "#") {
			text = "#" + text
		}
		// 多行或过长的文本不是话题标签
		if strings.ContainsAny(text, "\n\t") || len(text) > 80 {
			return
		}
		if seen[text] {
			return
		}
		seen[text] = true
		items = append(items, text)
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(items) >= limit {
			return
		}

		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if attr.Key != "class" {
					continue
				}
				class := strings.ToLower(attr.Val)
				if strings.Contains(class, "hashtag") || strings.Contains(class, "title") {
					add(nodeText(n))
				}
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); strings.HasPrefix(text, "#") {
				add(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return items
}

// nodeText 拼接节点下的全部文本
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
