package openlibrary

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "ISBN:9780140328721": {
    "title": "Fantastic Mr Fox",
    "authors": [{"name": "Roald Dahl"}, {"name": "Quentin Blake"}],
    "cover": {
      "small": "https://covers.openlibrary.org/b/id/8739161-S.jpg",
      "medium": "https://covers.openlibrary.org/b/id/8739161-M.jpg"
    }
  }
}`

func newTestServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "data", r.URL.Query().Get("jscmd"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, sampleResponse, nil)
	client := NewClient(srv.URL + "/")

	d, err := client.Lookup(context.Background(), "978-0-14-032872-1")
	require.NoError(t, err)
	assert.Equal(t, "9780140328721", d.ISBN)
	assert.Equal(t, "Fantastic Mr Fox", d.Title)
	assert.Equal(t, "Roald Dahl, Quentin Blake", d.Author)
	require.NotNil(t, d.CoverImage)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/8739161-M.jpg", *d.CoverImage)
}

func TestLookup_Placeholders(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"ISBN:0000000000": {}}`, nil)

	d, err := NewClient(srv.URL).Lookup(context.Background(), "0000000000")
	require.NoError(t, err)
	assert.Equal(t, "N/A", d.Title)
	assert.Equal(t, "N/A", d.Author)
	assert.Nil(t, d.CoverImage)
}

func TestLookup_NotFound(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{}`, nil)

	_, err := NewClient(srv.URL).Lookup(context.Background(), "9780000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_UpstreamErrors(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		srv := newTestServer(t, http.StatusBadGateway, ``, nil)
		_, err := NewClient(srv.URL).Lookup(context.Background(), "9780140328721")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("bad json", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, `<html>`, nil)
		_, err := NewClient(srv.URL).Lookup(context.Background(), "9780140328721")
		assert.Error(t, err)
	})
}

func TestLookup_InvalidISBN(t *testing.T) {
	client := NewClient("http://127.0.0.1:0")
	for _, isbn := range []string{"", "  ", "97801403/28721", "abc"} {
		_, err := client.Lookup(context.Background(), isbn)
		assert.ErrorIs(t, err, ErrInvalidISBN, isbn)
	}
}

func TestLookup_Cache(t *testing.T) {
	var hits int32
	srv := newTestServer(t, http.StatusOK, sampleResponse, &hits)

	client := NewClient(srv.URL)
	for i := 0; i < 3; i++ {
		_, err := client.Lookup(context.Background(), "9780140328721")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	uncached := NewClient(srv.URL, WithCacheTTL(0), WithHTTPClient(srv.Client()))
	for i := 0; i < 2; i++ {
		_, err := uncached.Lookup(context.Background(), "9780140328721")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestDetailsCache_Bounded(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &detailsCache{
		ttl:        time.Minute,
		maxEntries: 3,
		entries:    make(map[string]cacheEntry),
		now:        func() time.Time { return now },
	}

	t.Run("oldest entry makes room", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			c.put(fmt.Sprintf("isbn-%d", i), &Details{})
			now = now.Add(time.Second)
		}
		assert.Len(t, c.entries, 3)
		_, ok := c.get("isbn-9")
		assert.True(t, ok)
		_, ok = c.get("isbn-0")
		assert.False(t, ok)
	})

	t.Run("expired entries are pruned", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		c.put("fresh", &Details{})
		assert.Len(t, c.entries, 1)
		_, ok := c.get("fresh")
		assert.True(t, ok)
	})

	t.Run("refreshing a key does not evict", func(t *testing.T) {
		c.put("a", &Details{})
		c.put("b", &Details{})
		c.put("fresh", &Details{Title: "again"})
		assert.Len(t, c.entries, 3)
	})
}

func TestWithCacheSize(t *testing.T) {
	assert.Equal(t, DefaultCacheSize, NewClient("").cache.maxEntries)
	assert.Equal(t, 10, NewClient("", WithCacheSize(10)).cache.maxEntries)
	assert.Equal(t, DefaultCacheSize, NewClient("", WithCacheSize(0)).cache.maxEntries)
}

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "080442957X", normalizeISBN("0-8044-2957-x"))
	assert.Equal(t, "9780140328721", normalizeISBN(" 978 0140328721 "))
	assert.Equal(t, "", normalizeISBN("isbn:123"))
}
