package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/textutil"
)

const (
	defaultBaseURL       = "https://www.youtube.com"
	initialDataPrefix    = "var ytInitialData ="
	playerResponsePrefix = "var ytInitialPlayerResponse ="

	// userAgent requests the desktop page; mobile variants embed their
	// data under different renderer paths.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// VideoInfo is video metadata scraped from a channel page or watch page.
// Published is approximate when it came from a relative timestamp on the
// channel grid; the watch page carries the exact date.
type VideoInfo struct {
	ID              string
	Title           string
	Description     string
	DurationSeconds int
	Published       time.Time
	ViewCount       int64
	ThumbnailURL    string
}

// ChannelPage is the scraped videos tab of a channel.
type ChannelPage struct {
	ChannelID string
	Title     string
	URL       string
	Videos    []VideoInfo
}

// CaptionTrack describes one subtitle track available on a video.
type CaptionTrack struct {
	LanguageCode  string
	Name          string
	URL           string
	AutoGenerated bool
}

// VideoDetails is the watch-page view of a single video.
type VideoDetails struct {
	VideoInfo
	ChannelID     string
	ChannelName   string
	CaptionTracks []CaptionTrack
}

// Client scrapes YouTube pages for channel and video metadata.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// ClientOption adjusts a Client.
type ClientOption func(*Client)

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL points the client at a different host, used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewClient builds a scraping client with the configured request timeout.
func NewClient(cfg config.YouTubeConfig, logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	client := &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		baseURL:    defaultBaseURL,
		logger:     logger.With("component", "youtube"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ChannelVideos fetches a channel's videos tab and returns the channel
// metadata plus every video on the first page of the grid.
func (c *Client) ChannelVideos(ctx context.Context, channelID string) (*ChannelPage, error) {
	return c.channelPage(ctx, "/channel/"+url.PathEscape(channelID)+"/videos", channelID)
}

// ChannelPageByRef fetches the videos tab for any reference a user might
// paste: a canonical UC id, an @handle, or a full channel URL. The returned
// page always carries the canonical channel id.
func (c *Client) ChannelPageByRef(ctx context.Context, ref string) (*ChannelPage, error) {
	path, knownID, err := channelRefPath(ref)
	if err != nil {
		return nil, err
	}
	page, err := c.channelPage(ctx, path, knownID)
	if err != nil {
		return nil, err
	}
	if page.ChannelID == "" {
		return nil, services.Wrap(services.ErrTransient, "youtube", "resolve channel",
			fmt.Sprintf("channel page for %q carries no canonical id", ref), nil)
	}
	return page, nil
}

func (c *Client) channelPage(ctx context.Context, path, fallbackID string) (*ChannelPage, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+path, "channel videos")
	if err != nil {
		return nil, err
	}

	data, err := scriptJSON(doc, initialDataPrefix)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "youtube", "channel videos",
			fmt.Sprintf("channel page %s: %v", path, err), nil)
	}

	page := &ChannelPage{ChannelID: fallbackID}
	if id := stringAt(data, "metadata.channelMetadataRenderer.externalId"); id != "" {
		page.ChannelID = id
	}
	page.Title = stringAt(data, "metadata.channelMetadataRenderer.title")
	if page.Title == "" {
		page.Title = doc.Find("meta[property='og:title']").AttrOr("content", "")
	}
	page.URL = c.baseURL + "/channel/" + page.ChannelID
	if channelURL := stringAt(data, "metadata.channelMetadataRenderer.channelUrl"); channelURL != "" {
		page.URL = channelURL
	}

	now := time.Now().UTC()
	for _, tab := range data.Path("contents.twoColumnBrowseResultsRenderer.tabs").Children() {
		for _, item := range tab.Path("tabRenderer.content.richGridRenderer.contents").Children() {
			renderer := item.Path("richItemRenderer.content.videoRenderer")
			if info, ok := videoFromRenderer(renderer, now); ok {
				page.Videos = append(page.Videos, info)
			}
		}
	}

	c.logger.Debug("scraped channel videos tab",
		"channel_id", page.ChannelID,
		"videos", len(page.Videos))
	return page, nil
}

// VideoDetails fetches a watch page and returns the video's metadata along
// with its caption tracks.
func (c *Client) VideoDetails(ctx context.Context, videoID string) (*VideoDetails, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+"/watch?v="+url.QueryEscape(videoID), "video details")
	if err != nil {
		return nil, err
	}

	data, err := scriptJSON(doc, playerResponsePrefix)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "youtube", "video details",
			fmt.Sprintf("video %s page: %v", videoID, err), nil)
	}

	details := &VideoDetails{}
	details.ID = stringAt(data, "videoDetails.videoId")
	if details.ID == "" {
		return nil, services.Wrap(services.ErrNotFound, "youtube", "video details",
			fmt.Sprintf("video %s has no player data, it may be private or removed", videoID), nil)
	}
	details.ChannelID = stringAt(data, "videoDetails.channelId")
	details.ChannelName = stringAt(data, "videoDetails.author")
	details.Title = stringAtAny(data, "videoDetails.title", "microformat.playerMicroformatRenderer.title.simpleText")
	details.Description = stringAtAny(data, "videoDetails.shortDescription", "microformat.playerMicroformatRenderer.description.simpleText")
	if length := stringAt(data, "videoDetails.lengthSeconds"); length != "" {
		details.DurationSeconds, _ = strconv.Atoi(length)
	}
	if views := stringAt(data, "videoDetails.viewCount"); views != "" {
		details.ViewCount, _ = strconv.ParseInt(views, 10, 64)
	}
	if date := stringAtAny(data,
		"microformat.playerMicroformatRenderer.publishDate",
		"microformat.playerMicroformatRenderer.uploadDate"); date != "" {
		details.Published = parsePublishDate(date)
	}
	details.ThumbnailURL = lastThumbnail(data.Path("videoDetails.thumbnail.thumbnails"))

	for _, track := range data.Path("captions.playerCaptionsTracklistRenderer.captionTracks").Children() {
		baseURL := stringAt(track, "baseUrl")
		if baseURL == "" {
			continue
		}
		details.CaptionTracks = append(details.CaptionTracks, CaptionTrack{
			URL:           baseURL,
			LanguageCode:  stringAt(track, "languageCode"),
			Name:          stringAtAny(track, "name.simpleText", "name.runs.0.text"),
			AutoGenerated: stringAt(track, "kind") == "asr",
		})
	}
	return details, nil
}

// DownloadCaptions fetches a caption track as json3 and reduces it to plain
// text. An empty string with a nil error means the track exists but holds
// no speech.
func (c *Client) DownloadCaptions(ctx context.Context, track CaptionTrack) (string, error) {
	trackURL, err := url.Parse(track.URL)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "youtube", "download captions",
			fmt.Sprintf("caption track url %q is not parseable", track.URL), err)
	}
	query := trackURL.Query()
	query.Set("fmt", "json3")
	trackURL.RawQuery = query.Encode()

	body, err := c.fetchBody(ctx, trackURL.String(), "download captions")
	if err != nil {
		return "", err
	}

	data, err := gabs.ParseJSON(body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "youtube", "download captions",
			"caption payload is not json3", err)
	}

	var builder strings.Builder
	for _, event := range data.Path("events").Children() {
		for _, seg := range event.Path("segs").Children() {
			if text, ok := seg.Path("utf8").Data().(string); ok {
				builder.WriteString(text)
			}
		}
		builder.WriteString(" ")
	}
	return textutil.CollapseWhitespace(builder.String()), nil
}

// ChannelURL returns the canonical public URL of a channel.
func ChannelURL(channelID string) string {
	return defaultBaseURL + "/channel/" + channelID
}

// PickCaptionTrack selects the best track for a language: a manual track
// wins over an auto-generated one, and language codes match by prefix so
// "en" accepts "en-US". Returns nil when no track fits.
func PickCaptionTrack(tracks []CaptionTrack, language string) *CaptionTrack {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		lang = "en"
	}
	var auto *CaptionTrack
	for i := range tracks {
		track := &tracks[i]
		if !strings.HasPrefix(strings.ToLower(track.LanguageCode), lang) {
			continue
		}
		if !track.AutoGenerated {
			return track
		}
		if auto == nil {
			auto = track
		}
	}
	return auto
}

func (c *Client) fetchDocument(ctx context.Context, pageURL, operation string) (*goquery.Document, error) {
	body, err := c.fetchBody(ctx, pageURL, operation)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "youtube", operation, "parse page", err)
	}
	return doc, nil
}

func (c *Client) fetchBody(ctx context.Context, fetchURL, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "youtube", operation, "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "youtube", operation, "fetch "+fetchURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "youtube", operation,
			fmt.Sprintf("%s returned 404", fetchURL), nil)
	}
	if res.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrUnavailable, "youtube", operation,
			fmt.Sprintf("%s returned status %d", fetchURL, res.StatusCode), nil)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "youtube", operation, "read response", err)
	}
	return body, nil
}

// scriptJSON finds the inline script whose body starts with prefix and
// parses the JSON assigned there.
func scriptJSON(doc *goquery.Document, prefix string) (*gabs.Container, error) {
	for _, node := range doc.Find("script").Nodes {
		if node.FirstChild == nil || node.FirstChild.Type != html.TextNode {
			continue
		}
		content := strings.TrimSpace(node.FirstChild.Data)
		if !strings.HasPrefix(content, prefix) {
			continue
		}
		content = strings.TrimPrefix(content, prefix)
		content = strings.TrimSuffix(strings.TrimSpace(content), ";")
		return gabs.ParseJSON([]byte(content))
	}
	return nil, fmt.Errorf("page has no %q script", prefix)
}

func videoFromRenderer(renderer *gabs.Container, now time.Time) (VideoInfo, bool) {
	id := stringAt(renderer, "videoId")
	if id == "" {
		return VideoInfo{}, false
	}

	info := VideoInfo{ID: id}
	info.Title = stringAtAny(renderer, "title.runs.0.text", "title.simpleText")
	if length := stringAt(renderer, "lengthText.simpleText"); length != "" {
		info.DurationSeconds = parseClockDuration(length)
	}
	if views := stringAt(renderer, "viewCountText.simpleText"); views != "" {
		info.ViewCount = parseViewCount(views)
	}
	if published := stringAt(renderer, "publishedTimeText.simpleText"); published != "" {
		if ts, ok := parseRelativeTime(published, now); ok {
			info.Published = ts
		}
	}
	info.ThumbnailURL = lastThumbnail(renderer.Path("thumbnail.thumbnails"))
	return info, true
}

func stringAt(container *gabs.Container, path string) string {
	if container == nil || !container.ExistsP(path) {
		return ""
	}
	value, _ := container.Path(path).Data().(string)
	return value
}

func stringAtAny(container *gabs.Container, paths ...string) string {
	for _, path := range paths {
		if value := stringAt(container, path); value != "" {
			return value
		}
	}
	return ""
}

// lastThumbnail returns the URL of the final entry, which YouTube orders
// smallest to largest.
func lastThumbnail(thumbnails *gabs.Container) string {
	children := thumbnails.Children()
	if len(children) == 0 {
		return ""
	}
	return stringAt(children[len(children)-1], "url")
}
