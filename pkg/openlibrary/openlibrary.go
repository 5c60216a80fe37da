package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the public OpenLibrary service
const DefaultBaseURL = "https://openlibrary.org"

// placeholder is used for title or author when OpenLibrary has none
const placeholder = "N/A"

var (
	// ErrNotFound is returned when OpenLibrary has no record for the ISBN
	ErrNotFound = errors.New("book details not found")

	// ErrInvalidISBN is returned for an empty or non-alphanumeric ISBN
	ErrInvalidISBN = errors.New("invalid isbn")
)

// Details is the subset of OpenLibrary data used to pre-fill a new book
type Details struct {
	ISBN       string  `json:"isbn"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	CoverImage *string `json:"cover_image"`
}

// Lookup fetches book metadata by ISBN
type Lookup interface {
	Lookup(ctx context.Context, isbn string) (*Details, error)
}

// Client queries the OpenLibrary books API and caches answers
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *detailsCache
}

var _ Lookup = (*Client)(nil)

// DefaultCacheSize bounds the number of remembered lookups
const DefaultCacheSize = 1024

type detailsCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]cacheEntry
	now        func() time.Time
}

type cacheEntry struct {
	details   *Details
	expiresAt time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithCacheTTL sets how long successful lookups are remembered. Zero disables
// the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(client *Client) {
		client.cache.ttl = ttl
	}
}

// WithCacheSize caps how many lookups are remembered at once
func WithCacheSize(n int) Option {
	return func(client *Client) {
		if n > 0 {
			client.cache.maxEntries = n
		}
	}
}

// NewClient creates a client for the OpenLibrary instance at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache: &detailsCache{
			ttl:        time.Hour,
			maxEntries: DefaultCacheSize,
			entries:    make(map[string]cacheEntry),
			now:        time.Now,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// bookData is one value of the jscmd=data response, keyed by "ISBN:<isbn>"
type bookData struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Cover struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

// Lookup returns the details OpenLibrary holds for isbn
func (c *Client) Lookup(ctx context.Context, isbn string) (*Details, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, ErrInvalidISBN
	}

	if d, ok := c.cache.get(isbn); ok {
		return d, nil
	}

	bibkey := "ISBN:" + isbn
	query := url.Values{}
	query.Set("bibkeys", bibkey)
	query.Set("format", "json")
	query.Set("jscmd", "data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/books?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch book details: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openlibrary returned status %d", resp.StatusCode)
	}

	var body map[string]bookData
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse book details: %w", err)
	}

	data, ok := body[bibkey]
	if !ok {
		return nil, ErrNotFound
	}

	details := data.toDetails(isbn)
	c.cache.put(isbn, details)
	return details, nil
}

func (b bookData) toDetails(isbn string) *Details {
	d := &Details{ISBN: isbn, Title: b.Title, Author: placeholder}
	if d.Title == "" {
		d.Title = placeholder
	}

	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	if len(names) > 0 {
		d.Author = strings.Join(names, ", ")
	}

	for _, cover := range []string{b.Cover.Medium, b.Cover.Large, b.Cover.Small} {
		if cover != "" {
			cover := cover
			d.CoverImage = &cover
			break
		}
	}
	return d
}

// normalizeISBN strips hyphens and spaces. It returns "" if anything other
// than digits or X remains.
func normalizeISBN(isbn string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(isbn) {
		switch {
		case r == '-' || r == ' ':
			continue
		case r >= '0' && r <= '9', r == 'X', r == 'x':
			sb.WriteRune(r)
		default:
			return ""
		}
	}
	return strings.ToUpper(sb.String())
}

func (c *detailsCache) get(isbn string) (*Details, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[isbn]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.details, true
}

func (c *detailsCache) put(isbn string, d *Details) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.entries[isbn]; !ok && len(c.entries) >= c.maxEntries {
		c.evict(now)
	}
	c.entries[isbn] = cacheEntry{details: d, expiresAt: now.Add(c.ttl)}
}

// evict drops expired entries, then the oldest one if the cache is still
// full. Callers hold c.mu.
func (c *detailsCache) evict(now time.Time) {
	for isbn, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, isbn)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var oldest string
	var oldestExpiry time.Time
	for isbn, e := range c.entries {
		if oldest == "" || e.expiresAt.Before(oldestExpiry) {
			oldest, oldestExpiry = isbn, e.expiresAt
		}
	}
	delete(c.entries, oldest)
}
