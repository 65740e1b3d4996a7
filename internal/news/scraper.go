package news

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/pkg/httputil"
	"github.com/wonny/alphaforge/pkg/logger"
)

// Article is one scraped headline
type Article struct {
	Headline string
	Summary  string
	URL      string
	Source   string
}

// Scraper extracts headlines from a per-symbol news page
// ⭐ SSOT: 뉴스 페이지 스크래핑은 여기서만
type Scraper struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	urlTemplate string
	now         func() time.Time
}

// NewScraper creates a news scraper. urlTemplate is a fmt template (%s = symbol).
func NewScraper(httpClient *httputil.Client, urlTemplate string, log *logger.Logger) *Scraper {
	return &Scraper{
		httpClient:  httpClient,
		logger:      log,
		urlTemplate: urlTemplate,
		now:         time.Now,
	}
}

// FetchArticles downloads and parses the news page of one symbol
func (s *Scraper) FetchArticles(ctx context.Context, symbol string) ([]Article, error) {
	pageURL := fmt.Sprintf(s.urlTemplate, url.PathEscape(strings.ToUpper(symbol)))

	body, err := s.httpClient.GetBody(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch news page: %w", err)
	}

	articles, err := ParseHeadlines(body, pageURL)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(articles),
	}).Debug("Fetched news headlines")

	return articles, nil
}

// FetchNews scrapes headlines and tags them with red flag keywords
func (s *Scraper) FetchNews(ctx context.Context, companyID int64, symbol string) ([]contracts.NewsItem, error) {
	articles, err := s.FetchArticles(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// 페이지에 발행 시각이 없으므로 수집 시각 사용
	fetchedAt := s.now().UTC().Truncate(time.Second)

	items := make([]contracts.NewsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, contracts.NewsItem{
			CompanyID:       companyID,
			Headline:        a.Headline,
			Summary:         a.Summary,
			URL:             a.URL,
			Source:          a.Source,
			PublishedAt:     fetchedAt,
			RedFlagKeywords: ScanArticle(a.Headline, a.Summary),
		})
	}
	return items, nil
}

// ParseHeadlines extracts h3 headlines (with optional link and following paragraph)
func ParseHeadlines(html []byte, pageURL string) ([]Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse news html: %w", err)
	}

	base, _ := url.Parse(pageURL)
	source := ""
	if base != nil {
		source = base.Hostname()
	}

	seen := make(map[string]bool)
	var articles []Article

	doc.Find("h3").Each(func(i int, h *goquery.Selection) {
		headline := strings.Join(strings.Fields(h.Text()), " ")
		if headline == "" || seen[headline] {
			return
		}
		seen[headline] = true

		link, ok := h.Find("a").First().Attr("href")
		if !ok {
			link, _ = h.Closest("a").Attr("href")
		}

		articles = append(articles, Article{
			Headline: headline,
			Summary:  strings.TrimSpace(h.NextFiltered("p").Text()),
			URL:      resolveURL(base, link),
			Source:   source,
		})
	})

	return articles, nil
}

func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
