// Package api is a thin client for the server's REST surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrRoomNotFound = errors.New("api: room not found")
	ErrUnauthorized = errors.New("api: unauthorized")
)

type Playback struct {
	VideoUrl    string  `json:"video_url"`
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
}

type Room struct {
	Id               string   `json:"id"`
	Name             string   `json:"name"`
	OwnerId          string   `json:"owner_id"`
	Playback         Playback `json:"playback"`
	ParticipantCount int      `json:"participant_count"`
	CreatedAt        int64    `json:"created_at"`
}

type Client struct {
	baseUrl  string
	userId   string
	username string
	hc       *http.Client
}

func NewClient(serverUrl, userId, username string) *Client {
	return &Client{
		baseUrl:  serverUrl + "/api/v1",
		userId:   userId,
		username: username,
		hc:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreateRoom(ctx context.Context, name string) (Room, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return Room{}, fmt.Errorf("marshal create room request: %w", err)
	}

	var out struct {
		Room Room `json:"room"`
	}
	if err := c.do(ctx, http.MethodPost, "/rooms", bytes.NewReader(body), http.StatusCreated, &out); err != nil {
		return Room{}, err
	}
	return out.Room, nil
}

func (c *Client) GetRoom(ctx context.Context, roomId string) (Room, error) {
	var out struct {
		Room Room `json:"room"`
	}
	if err := c.do(ctx, http.MethodGet, "/rooms/"+roomId, nil, http.StatusOK, &out); err != nil {
		return Room{}, err
	}
	return out.Room, nil
}

// ListRooms returns the rooms the caller owns or participates in.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var out struct {
		Rooms []Room `json:"rooms"`
	}
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

func (c *Client) DeleteRoom(ctx context.Context, roomId string) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+roomId, nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader, wantStatus int, out any) error {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = body
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", c.userId)
	req.Header.Set("X-Username", c.username)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case wantStatus:
	case http.StatusNotFound:
		return ErrRoomNotFound
	case http.StatusForbidden:
		return ErrUnauthorized
	default:
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, payload.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
