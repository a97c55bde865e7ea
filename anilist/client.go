// Package anilist is a minimal client for the AniList GraphQL API. It is
// used to enrich event payloads and to feed the airing-schedule notifier;
// progression rules never depend on it.
package anilist

import (
	"bytes"
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
		baseURL = "https://graphql.anilist.co"
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// AiringEpisode is one entry of the airing schedule.
type AiringEpisode struct {
	MediaID  int       `json:"mediaId"`
	Title    string    `json:"title"`
	Episode  int       `json:"episode"`
	AiringAt time.Time `json:"airingAt"`
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type airingScheduleRes struct {
	Data struct {
		Page struct {
			AiringSchedules []struct {
				Episode  int   `json:"episode"`
				AiringAt int64 `json:"airingAt"`
				Media    struct {
					ID    int `json:"id"`
					Title struct {
						Romaji  string `json:"romaji"`
						English string `json:"english"`
					} `json:"title"`
				} `json:"media"`
			} `json:"airingSchedules"`
		} `json:"Page"`
	} `json:"data"`
}

const airingScheduleQuery = `
query ($from: Int, $to: Int) {
  Page(perPage: 50) {
    airingSchedules(airingAt_greater: $from, airingAt_lesser: $to, sort: TIME) {
      episode
      airingAt
      media { id title { romaji english } }
    }
  }
}`

// AiringSchedule returns episodes airing within the window starting at from.
func (c *Client) AiringSchedule(ctx context.Context, from time.Time, window time.Duration) ([]AiringEpisode, error) {
	var res airingScheduleRes
	err := c.query(ctx, airingScheduleQuery, map[string]interface{}{
		"from": from.Unix(),
		"to":   from.Add(window).Unix(),
	}, &res)
	if err != nil {
		return nil, err
	}

	episodes := make([]AiringEpisode, 0, len(res.Data.Page.AiringSchedules))
	for _, s := range res.Data.Page.AiringSchedules {
		title := s.Media.Title.English
		if title == "" {
			title = s.Media.Title.Romaji
		}
		episodes = append(episodes, AiringEpisode{
			MediaID:  s.Media.ID,
			Title:    title,
			Episode:  s.Episode,
			AiringAt: time.Unix(s.AiringAt, 0).UTC(),
		})
	}
	return episodes, nil
}

type mediaTitleRes struct {
	Data struct {
		Media struct {
			Title struct {
				Romaji  string `json:"romaji"`
				English string `json:"english"`
			} `json:"title"`
		} `json:"Media"`
	} `json:"data"`
}

const mediaTitleQuery = `
query ($id: Int) {
  Media(id: $id, type: ANIME) { title { romaji english } }
}`

// AnimeTitle resolves an AniList media id to a display title.
func (c *Client) AnimeTitle(ctx context.Context, mediaID int) (string, error) {
	var res mediaTitleRes
	if err := c.query(ctx, mediaTitleQuery, map[string]interface{}{"id": mediaID}, &res); err != nil {
		return "", err
	}
	if res.Data.Media.Title.English != "" {
		return res.Data.Media.Title.English, nil
	}
	return res.Data.Media.Title.Romaji, nil
}

func (c *Client) query(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("anilist: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("anilist: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("anilist: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("anilist: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("anilist: decode response: %w", err)
	}
	return nil
}
