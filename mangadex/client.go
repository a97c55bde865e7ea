// Package mangadex is a minimal client for the MangaDex REST API, used to
// resolve manga ids to titles when enriching event payloads.
package mangadex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.mangadex.org"
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type mangaRes struct {
	Data struct {
		Attributes struct {
			Title map[string]string `json:"title"`
		} `json:"attributes"`
	} `json:"data"`
}

// MangaTitle resolves a MangaDex manga id to its English title, falling back
// to the first available localization.
func (c *Client) MangaTitle(ctx context.Context, mangaID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/manga/%s", c.BaseURL, mangaID), nil)
	if err != nil {
		return "", fmt.Errorf("mangadex: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mangadex: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mangadex: unexpected status %d", resp.StatusCode)
	}

	var res mangaRes
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("mangadex: decode response: %w", err)
	}

	if title, ok := res.Data.Attributes.Title["en"]; ok {
		return title, nil
	}
	for _, title := range res.Data.Attributes.Title {
		return title, nil
	}
	return "", fmt.Errorf("mangadex: manga %s has no title", mangaID)
}
