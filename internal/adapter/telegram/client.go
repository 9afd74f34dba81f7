package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrForbidden means the user has blocked or removed the bot. The loop
// must skip past the stuck update instead of retrying it.
var ErrForbidden = errors.New("telegram: forbidden")

// Client talks to the Telegram Bot API: long-poll updates in, text and
// photo replies out.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	pollTimeout time.Duration
	logger      *slog.Logger
}

// NewClient creates a Bot API client for the given token. pollTimeout
// bounds the GetUpdates long poll; the HTTP timeout is sized to outlive it.
func NewClient(token string, pollTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: pollTimeout + 10*time.Second,
		},
		baseURL:     "https://api.telegram.org/bot" + token,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// GetUpdates long-polls for updates with update_id >= offset. An empty
// slice means the poll timed out with nothing new, which is the normal
// idle case.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	params := url.Values{
		"timeout": {strconv.Itoa(int(c.pollTimeout.Seconds()))},
	}
	if offset != 0 {
		params.Set("offset", strconv.FormatInt(offset, 10))
	}

	raw, err := c.call(ctx, "getUpdates", params)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// SendMessage sends a plain-text reply to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	_, err := c.call(ctx, "sendMessage", params)
	return err
}

// SendPhoto uploads an image file as a photo reply.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("build photo request: %w", err)
	}
	part, err := mw.CreateFormFile("photo", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("build photo request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build photo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendPhoto", &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendPhoto request: %w", err)
	}
	defer resp.Body.Close()

	_, err = c.decodeResult("sendPhoto", resp)
	return err
}

// call performs a GET Bot API method call and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	u := c.baseURL + "/" + method
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	return c.decodeResult(method, resp)
}

// apiResponse is the uniform Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (c *Client) decodeResult(method string, resp *http.Response) (json.RawMessage, error) {
	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !envelope.OK {
		c.logger.Warn("telegram API call rejected",
			"method", method,
			"error_code", envelope.ErrorCode,
			"description", envelope.Description)
		if envelope.ErrorCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: %s", ErrForbidden, envelope.Description)
		}
		return nil, fmt.Errorf("telegram API error %d: %s", envelope.ErrorCode, envelope.Description)
	}
	return envelope.Result, nil
}
