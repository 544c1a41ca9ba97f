// Package client 调用地图持久化服务的 HTTP 接口
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"drone-map/model"
)

// APIError 服务端返回的错误
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client 地图服务客户端, 实现 mapstate.Remote
type Client struct {
	BaseURL    string
	Token      string // 非空时带上 Authorization: Bearer
	HTTPClient *http.Client
}

// New 创建客户端
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: http.DefaultClient,
	}
}

// AddPoint POST /add-point
func (c *Client) AddPoint(ctx context.Context, pointID string, lat, lng float64) error {
	return c.post(ctx, "/add-point", model.AddPointRequest{PointID: pointID, Lat: &lat, Lng: &lng}, nil)
}

// AddLine POST /add-line
func (c *Client) AddLine(ctx context.Context, lineID, startID, endID string) error {
	return c.post(ctx, "/add-line", model.AddLineRequest{LineID: lineID, Start: startID, End: endID}, nil)
}

// RemovePoint POST /remove-point
func (c *Client) RemovePoint(ctx context.Context, pointID string) error {
	return c.post(ctx, "/remove-point", model.RemovePointRequest{PointID: pointID}, nil)
}

// RemoveLine POST /remove-line
func (c *Client) RemoveLine(ctx context.Context, lineID string) error {
	return c.post(ctx, "/remove-line", model.RemoveLineRequest{LineID: lineID}, nil)
}

// MapData GET /map-data
func (c *Client) MapData(ctx context.Context) (model.MapData, error) {
	var data model.MapData
	if err := c.do(ctx, http.MethodGet, "/map-data", nil, &data); err != nil {
		return model.MapData{}, err
	}
	return data, nil
}

// Login POST /login, 返回 Token
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp model.LoginResponse
	if err := c.post(ctx, "/login", model.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
