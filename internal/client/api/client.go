package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"checkers/internal/client/display"
	"checkers/internal/core"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Out        io.Writer // Request trace; nil keeps the client quiet
	Verbose    bool
}

// Error is a non-2xx reply decoded from the server's error body
type Error struct {
	Status int
	core.ErrorResponse
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.ErrorResponse.Error)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			// Long polls are held open by the server for up to 25s
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) tracef(format string, args ...any) {
	if c.Out != nil {
		fmt.Fprintf(c.Out, format, args...)
	}
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	var bodyReader io.Reader
	var bodyJSON []byte
	if body != nil {
		var err error
		if bodyJSON, err = json.Marshal(body); err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.tracef("%s\n", display.Request.Render(fmt.Sprintf("[API] %s %s", method, path)))
	if c.Verbose && len(bodyJSON) > 0 {
		c.tracef("%s\n", display.Info.Render("Request Body:"))
		display.PrettyJSON(c.Out, json.RawMessage(bodyJSON))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.tracef("%s\n", display.Failure.Render("[ERROR] "+err.Error()))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	status := display.Success
	if resp.StatusCode >= 400 {
		status = display.Failure
	}
	c.tracef("%s\n", status.Render(fmt.Sprintf("[%d %s]", resp.StatusCode, http.StatusText(resp.StatusCode))))
	if c.Verbose && len(respBody) > 0 {
		c.tracef("%s\n", display.Info.Render("Response Body:"))
		if json.Valid(respBody) {
			display.PrettyJSON(c.Out, json.RawMessage(respBody))
		} else {
			c.tracef("%s\n", respBody)
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &apiErr.ErrorResponse); err != nil {
			apiErr.ErrorResponse.Error = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// API Methods

func (c *Client) Health() (*core.HealthResponse, error) {
	var resp core.HealthResponse
	err := c.doRequest(http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) CreateGame(req *core.CreateGameRequest) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.doRequest(http.MethodPost, "/api/v1/games", req, &resp)
	return &resp, err
}

func (c *Client) GetGame(gameID string) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.doRequest(http.MethodGet, "/api/v1/games/"+gameID, nil, &resp)
	return &resp, err
}

// GetGameWithPoll blocks until the game's version differs from version or the
// server's wait timeout passes
func (c *Client) GetGameWithPoll(gameID string, version uint64) (*core.GameResponse, error) {
	var resp core.GameResponse
	path := fmt.Sprintf("/api/v1/games/%s?wait=true&version=%d", gameID, version)
	err := c.doRequest(http.MethodGet, path, nil, &resp)
	return &resp, err
}

func (c *Client) DeleteGame(gameID string) error {
	return c.doRequest(http.MethodDelete, "/api/v1/games/"+gameID, nil, nil)
}

func (c *Client) MakeMove(gameID string, origin, target core.CoordinatesDTO) (*core.MoveResponse, error) {
	req := &core.MoveRequest{Origin: origin, Target: target}
	var resp core.MoveResponse
	err := c.doRequest(http.MethodPost, "/api/v1/games/"+gameID+"/moves", req, &resp)
	return &resp, err
}

func (c *Client) ChangePlayer(gameID, team string, playerType core.PlayerType) (*core.ChangePlayerResponse, error) {
	req := &core.ChangePlayerRequest{Team: team, Type: playerType}
	var resp core.ChangePlayerResponse
	err := c.doRequest(http.MethodPut, "/api/v1/games/"+gameID+"/players", req, &resp)
	return &resp, err
}

// Restart starts over from a position or save; both empty means the opening
func (c *Client) Restart(gameID string, req *core.RestartRequest) (*core.RestartResponse, error) {
	if req == nil {
		req = &core.RestartRequest{}
	}
	var resp core.RestartResponse
	err := c.doRequest(http.MethodPost, "/api/v1/games/"+gameID+"/restart", req, &resp)
	return &resp, err
}

func (c *Client) ToggleHighlighting(gameID string) (*core.HighlightResponse, error) {
	var resp core.HighlightResponse
	err := c.doRequest(http.MethodPost, "/api/v1/games/"+gameID+"/highlight", nil, &resp)
	return &resp, err
}

func (c *Client) GetBoard(gameID string) (*core.BoardResponse, error) {
	var resp core.BoardResponse
	err := c.doRequest(http.MethodGet, "/api/v1/games/"+gameID+"/board", nil, &resp)
	return &resp, err
}

func (c *Client) SaveGame(gameID, name string) (*core.SaveResponse, error) {
	req := &core.SaveRequest{Name: name}
	var resp core.SaveResponse
	err := c.doRequest(http.MethodPost, "/api/v1/games/"+gameID+"/saves", req, &resp)
	return &resp, err
}

func (c *Client) ListSaves(name string) (*core.SaveListResponse, error) {
	path := "/api/v1/saves"
	if name != "" {
		path += "?name=" + url.QueryEscape(name)
	}
	var resp core.SaveListResponse
	err := c.doRequest(http.MethodGet, path, nil, &resp)
	return &resp, err
}

func (c *Client) DeleteSave(saveID string) error {
	return c.doRequest(http.MethodDelete, "/api/v1/saves/"+saveID, nil, nil)
}

// RawRequest performs a raw HTTP request for debugging purposes
func (c *Client) RawRequest(method, path string, body string) (json.RawMessage, error) {
	var bodyData any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &bodyData); err != nil {
			// Try as raw string
			bodyData = body
		}
	}

	var raw json.RawMessage
	err := c.doRequest(strings.ToUpper(method), path, bodyData, &raw)
	return raw, err
}
