package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"tutorium/backend/config"
)

// VideoResult is one hit from the video-search API.
type VideoResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail"`
}

var ErrNoVideoKey = errors.New("video search is not configured")

// YouTubeClient is a thin proxy around the YouTube Data API v3 search
// endpoint.
type YouTubeClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewYouTubeClient(cfg *config.Config) *YouTubeClient {
	return &YouTubeClient{
		apiKey:     cfg.YouTubeAPIKey,
		baseURL:    "https://www.googleapis.com/youtube/v3/search",
		httpClient: &http.Client{Timeout: cfg.AITimeout},
	}
}

func (y *YouTubeClient) Search(ctx context.Context, query string, maxResults int) ([]VideoResult, error) {
	if y.apiKey == "" {
		return nil, ErrNoVideoKey
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube http %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var parsed struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
				Thumbnails   struct {
					Default struct {
						URL string `json:"url"`
					} `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("youtube: decode response: %w", err)
	}

	results := make([]VideoResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, VideoResult{
			ID:        item.ID.VideoID,
			Title:     item.Snippet.Title,
			Channel:   item.Snippet.ChannelTitle,
			Thumbnail: item.Snippet.Thumbnails.Default.URL,
		})
	}
	return results, nil
}
