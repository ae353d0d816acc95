// Package youtube fetches video metadata and captions.
package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"golang.org/x/sync/errgroup"
)

const (
	defaultOEmbedURL    = "https://www.youtube.com/oembed"
	defaultTimedTextURL = "https://www.youtube.com/api/timedtext"
	thumbnailURL        = "https://img.youtube.com/vi/%s/hqdefault.jpg"
)

var (
	// ErrInvalidURL is returned when no video ID can be found in a URL.
	ErrInvalidURL = errors.New("invalid youtube url")

	// ErrNoTranscript is returned when the video has no captions in the
	// requested language.
	ErrNoTranscript = errors.New("no transcript available")
)

var (
	idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	titlePath     = jp.MustParseString("$.title")
	thumbnailPath = jp.MustParseString("$.thumbnail_url")
)

// Video is everything the digest needs about one video.
type Video struct {
	ID           string
	URL          string
	Title        string
	ThumbnailURL string
	Transcript   string
}

// VideoID extracts the 11 character video ID from a watch, short, embed,
// shorts or live URL, or accepts a bare ID.
func VideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if idPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if !strings.Contains(raw, "://") {
			u, err = url.Parse("https://" + raw)
		}
		if err != nil || u == nil || u.Host == "" {
			return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
		}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 {
			switch parts[0] {
			case "embed", "shorts", "live", "v":
				id = parts[1]
			}
		}
	}

	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return id, nil
}

// Fetcher retrieves videos over HTTP.
type Fetcher struct {
	client       *http.Client
	oembedURL    string
	timedTextURL string
	lang         string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithEndpoints overrides the oEmbed and timed text endpoints.
func WithEndpoints(oembedURL, timedTextURL string) Option {
	return func(f *Fetcher) {
		f.oembedURL = oembedURL
		f.timedTextURL = timedTextURL
	}
}

// WithLanguage sets the caption language. Default "en".
func WithLanguage(lang string) Option {
	return func(f *Fetcher) { f.lang = lang }
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       &http.Client{Timeout: 30 * time.Second},
		oembedURL:    defaultOEmbedURL,
		timedTextURL: defaultTimedTextURL,
		lang:         "en",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads the metadata and transcript for the video at rawURL.
// Both requests run concurrently.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Video, error) {
	id, err := VideoID(rawURL)
	if err != nil {
		return nil, err
	}

	v := &Video{ID: id, URL: "https://www.youtube.com/watch?v=" + id}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return f.metadata(ctx, v)
	})
	g.Go(func() error {
		text, err := f.transcript(ctx, id)
		v.Transcript = text
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if v.ThumbnailURL == "" {
		v.ThumbnailURL = fmt.Sprintf(thumbnailURL, id)
	}
	return v, nil
}

func (f *Fetcher) metadata(ctx context.Context, v *Video) error {
	q := url.Values{"url": {v.URL}, "format": {"json"}}
	body, err := f.get(ctx, f.oembedURL+"?"+q.Encode())
	if err != nil {
		return fmt.Errorf("fetch metadata: %w", err)
	}

	doc, err := oj.Parse(body)
	if err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}
	v.Title, _ = titlePath.First(doc).(string)
	v.ThumbnailURL, _ = thumbnailPath.First(doc).(string)
	return nil
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

func (f *Fetcher) transcript(ctx context.Context, id string) (string, error) {
	q := url.Values{"v": {id}, "lang": {f.lang}}
	body, err := f.get(ctx, f.timedTextURL+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoTranscript, id)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}

	lines := make([]string, 0, len(tt.Lines))
	for _, l := range tt.Lines {
		text := strings.Join(strings.Fields(html.UnescapeString(l.Text)), " ")
		if text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoTranscript, id)
	}
	return strings.Join(lines, " "), nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", req.URL.Path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
