package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/keyword-synergy/internal/model"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsInsufficientPool reports whether err is a draw rejected for having fewer
// than two keywords.
func IsInsufficientPool(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "insufficient_pool"
}

// Membership is the user and room returned by create-room and join-room.
type Membership struct {
	User *model.User `json:"user"`
	Room *model.Room `json:"room"`
}

// API is a typed client for the server's JSON endpoints.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI returns a client for the server at baseURL. A nil httpClient gets
// one with a 15 second timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// CreateUser creates an anonymous participant. name may be empty.
func (a *API) CreateUser(ctx context.Context, name string) (*model.User, error) {
	var res struct {
		User *model.User `json:"user"`
	}
	err := a.do(ctx, http.MethodPost, "/api/users", map[string]string{"name": name}, &res)
	return res.User, err
}

// CreateRoom creates a room hosted by a new user.
func (a *API) CreateRoom(ctx context.Context, roomName, userName string) (*Membership, error) {
	var res Membership
	body := map[string]string{"roomName": roomName, "userName": userName}
	if err := a.do(ctx, http.MethodPost, "/api/rooms", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// JoinRoom joins an existing room as a new user.
func (a *API) JoinRoom(ctx context.Context, roomID, userName string) (*Membership, error) {
	var res Membership
	body := map[string]string{"roomId": roomID, "userName": userName}
	if err := a.do(ctx, http.MethodPost, "/api/rooms/join", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetRoom looks a room up by ID.
func (a *API) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	var res struct {
		Room *model.Room `json:"room"`
	}
	err := a.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(id), nil, &res)
	return res.Room, err
}

// SubmitKeyword adds word to the pool.
func (a *API) SubmitKeyword(ctx context.Context, userID, word, roomID string) (*model.Keyword, error) {
	var res struct {
		Keyword *model.Keyword `json:"keyword"`
	}
	body := map[string]string{"userId": userID, "word": word, "roomId": roomID}
	err := a.do(ctx, http.MethodPost, "/api/keywords", body, &res)
	return res.Keyword, err
}

// ListKeywords fetches a pool snapshot, newest first.
func (a *API) ListKeywords(ctx context.Context, roomID string) ([]model.Keyword, error) {
	var res struct {
		Keywords []model.Keyword `json:"keywords"`
	}
	err := a.do(ctx, http.MethodGet, "/api/keywords"+roomQuery(roomID), nil, &res)
	return res.Keywords, err
}

// Draw asks the server to draw two keywords from the pool.
func (a *API) Draw(ctx context.Context, roomID string) (*model.DrawResult, error) {
	var res struct {
		Result *model.DrawResult `json:"result"`
	}
	err := a.do(ctx, http.MethodPost, "/api/draw", map[string]string{"roomId": roomID}, &res)
	return res.Result, err
}

// History fetches the most recent draws, newest first.
func (a *API) History(ctx context.Context, roomID string) ([]model.HistoryEntry, error) {
	var res struct {
		History []model.HistoryEntry `json:"history"`
	}
	err := a.do(ctx, http.MethodGet, "/api/history"+roomQuery(roomID), nil, &res)
	return res.History, err
}

func roomQuery(roomID string) string {
	if roomID == "" {
		return ""
	}
	return "?" + url.Values{"room_id": {roomID}}.Encode()
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		// A non-JSON error body still yields a usable APIError.
		_ = json.NewDecoder(res.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding %s %s response: %w", method, path, err)
	}
	return nil
}
