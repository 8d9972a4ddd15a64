package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ddgPage = `<html><body>
<div class="result results_links results_links_deep web-result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fdocs.infoblox.com%2Fnios&amp;rut=abc">NIOS  Docs</a>
  <a class="result__snippet" href="#">Grid <b>Manager</b> guide</a>
</div>
<div class="result results_links web-result">
  <a class="result__a" href="https://example.com/two">Second</a>
</div>
<div class="result results_links web-result">
  <a class="result__a" href="https://example.com/three">Third</a>
</div>
</body></html>`

func TestParseDuckDuckGoResults(t *testing.T) {
	results, err := parseDuckDuckGoResults(ddgPage, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "https://docs.infoblox.com/nios", results[0].URL)
	assert.Equal(t, "NIOS Docs", results[0].Title)
	assert.Equal(t, "Grid Manager guide", results[0].Snippet)
	assert.Equal(t, "https://example.com/two", results[1].URL)
}

func TestDuckDuckGoSearcher_Search(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(ddgPage))
	}))
	defer srv.Close()

	s := NewDuckDuckGoSearcher(5 * time.Second)
	s.baseURL = srv.URL + "/html/"

	results, err := s.Search(context.Background(), "infoblox grid", 3)
	require.NoError(t, err)
	assert.Equal(t, "infoblox grid", gotQuery)
	assert.Len(t, results, 3)
}

func TestDuckDuckGoSearcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewDuckDuckGoSearcher(5 * time.Second)
	s.baseURL = srv.URL

	_, err := s.Search(context.Background(), "q", 3)
	assert.Error(t, err)
}

func TestSerpAPISearcher_Search(t *testing.T) {
	t.Setenv("TEST_SERPAPI_KEY", "secret")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "site:linkedin.com/learning go", r.URL.Query().Get("q"))
		w.Write([]byte(`{"organic_results":[
			{"title":"Learning Go","link":"https://linkedin.com/learning/go","snippet":"Basics"},
			{"title":"No link"},
			{"title":"Advanced Go","link":"https://linkedin.com/learning/adv-go"}
		]}`))
	}))
	defer srv.Close()

	s, err := NewSerpAPISearcher("TEST_SERPAPI_KEY", 5*time.Second)
	require.NoError(t, err)
	s.baseURL = srv.URL

	results, err := s.Search(context.Background(), "site:linkedin.com/learning go", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Learning Go", results[0].Title)
	assert.Equal(t, "Basics", results[0].Snippet)
	assert.Equal(t, "https://linkedin.com/learning/adv-go", results[1].URL)
}

func TestSerpAPISearcher_MissingKey(t *testing.T) {
	t.Setenv("TEST_SERPAPI_KEY", "")
	_, err := NewSerpAPISearcher("TEST_SERPAPI_KEY", time.Second)
	assert.Error(t, err)
}

func TestSerpAPISearcher_APIError(t *testing.T) {
	t.Setenv("TEST_SERPAPI_KEY", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer srv.Close()

	s, err := NewSerpAPISearcher("TEST_SERPAPI_KEY", time.Second)
	require.NoError(t, err)
	s.baseURL = srv.URL

	_, err = s.Search(context.Background(), "q", 3)
	assert.ErrorContains(t, err, "Invalid API key")
}

func TestStripHTML(t *testing.T) {
	raw := `<html><head><title>T</title><style>.x{}</style></head><body>
<script>var a = 1;</script>
<h1>  Grid   Manager  </h1>
<p>First  phrase  second phrase</p>
<noscript>enable js</noscript>
</body></html>`

	text, err := StripHTML(raw)
	require.NoError(t, err)
	assert.Equal(t, "Grid\nManager\nFirst\nphrase\nsecond phrase", text)
	assert.NotContains(t, text, "var a")
	assert.NotContains(t, text, "enable js")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc"+truncationMarker, Truncate("abcdef", 3))
	assert.Equal(t, "héé"+truncationMarker, Truncate("héééé", 3))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
}

func TestPageFetcher_Fetch(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("a", 50) + "</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewPageFetcher(5*time.Second, 20)

	text, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 20)+truncationMarker, text)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestPageFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("<p>late</p>"))
	}))
	defer srv.Close()

	f := NewPageFetcher(20*time.Millisecond, 100)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}
