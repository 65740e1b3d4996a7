package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/httputil"
	"github.com/wonny/alphaforge/pkg/logger"
)

func TestRedFlagKeywords(t *testing.T) {
	assert.Len(t, RedFlagKeywords, 28)
}

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"clean", "Quarterly revenue beats estimates", []string{}},
		{"case insensitive", "Company Files For BANKRUPTCY", []string{"bankruptcy", "bankrupt"}},
		{"substring overlap", "Firm faces SEC investigation", []string{"investigation", "sec investigation"}},
		{"multiple", "Class action lawsuit after CFO resigns", []string{"cfo resigns", "class action", "lawsuit"}},
		{"embedded word", "Auditorium opening", []string{"audit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scan(tt.text))
		})
	}
}

func TestScanArticle(t *testing.T) {
	got := ScanArticle("Shares fall", "Auditor raises going concern doubt")
	assert.Equal(t, []string{"audit", "going concern"}, got)
}

const newsPage = `<html><body>
<ul>
  <li><h3><a href="/news/acme-fraud-inquiry">ACME hit by fraud inquiry</a></h3><p>Regulators open an investigation.</p></li>
  <li><h3><a href="https://other.example.com/story">ACME launches   new product</a></h3></li>
  <li><h3><a href="/news/dup">ACME hit by fraud inquiry</a></h3></li>
  <li><h3>   </h3></li>
</ul>
</body></html>`

func TestParseHeadlines(t *testing.T) {
	articles, err := ParseHeadlines([]byte(newsPage), "https://news.example.com/quote/ACME/news")
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "ACME hit by fraud inquiry", articles[0].Headline)
	assert.Equal(t, "Regulators open an investigation.", articles[0].Summary)
	assert.Equal(t, "https://news.example.com/news/acme-fraud-inquiry", articles[0].URL)
	assert.Equal(t, "news.example.com", articles[0].Source)

	assert.Equal(t, "ACME launches new product", articles[1].Headline)
	assert.Equal(t, "https://other.example.com/story", articles[1].URL)
	assert.Empty(t, articles[1].Summary)
}

func TestScraper_FetchNews(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(newsPage))
	}))
	defer server.Close()

	client := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	scraper := NewScraper(client, server.URL+"/quote/%s/news", logger.Nop())
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	scraper.now = func() time.Time { return fixed }

	items, err := scraper.FetchNews(context.Background(), 5, "acme")
	require.NoError(t, err)
	assert.Equal(t, "/quote/ACME/news", gotPath)
	require.Len(t, items, 2)

	assert.Equal(t, int64(5), items[0].CompanyID)
	assert.Equal(t, []string{"fraud", "investigation"}, items[0].RedFlagKeywords)
	assert.Equal(t, fixed, items[0].PublishedAt)
	assert.Empty(t, items[1].RedFlagKeywords)
}

func TestScraper_FetchNewsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	scraper := NewScraper(client, server.URL+"/%s", logger.Nop())

	_, err := scraper.FetchNews(context.Background(), 1, "NOPE")
	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

type fakeNewsStore struct {
	items []contracts.NewsRedFlag
	err   error
	limit int
}

func (f *fakeNewsStore) RecentRedFlagNews(ctx context.Context, companyID int64, limit int) ([]contracts.NewsRedFlag, error) {
	f.limit = limit
	return f.items, f.err
}

func TestProvider_RedFlagNews(t *testing.T) {
	store := &fakeNewsStore{items: []contracts.NewsRedFlag{
		{Headline: "a", Keywords: []string{"fraud"}},
		{Headline: "b"},
		{Headline: "c", Keywords: []string{"lawsuit"}},
	}}

	got, err := NewProvider(store).RedFlagNews(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, RedFlagLimit, store.limit)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Headline)
	assert.Equal(t, "c", got[1].Headline)

	store.err = errors.New("boom")
	_, err = NewProvider(store).RedFlagNews(context.Background(), 3)
	assert.Error(t, err)
}
