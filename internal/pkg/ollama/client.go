package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"chatbot/internal/config"
)

const (
	generatePath = "/api/generate"
	tagsPath     = "/api/tags"
)

// ErrUnreachable 无法与 Ollama 建立连接（拒绝连接、DNS 失败、连接被重置、响应前断开等）
var ErrUnreachable = errors.New("ollama is unreachable")

// Client Ollama HTTP 客户端
// 构造后只读，可被多个请求并发使用
type Client struct {
	http        *http.Client
	baseURL     *url.URL
	generateURL string
	tagsURL     string
}

// NewClient 创建 Ollama 客户端
func NewClient(cfg *config.OllamaConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama base url %q is not absolute", cfg.BaseURL)
	}

	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     base,
		generateURL: base.JoinPath(generatePath).String(),
		tagsURL:     base.JoinPath(tagsPath).String(),
	}, nil
}

// BaseURL 返回后端地址
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// GenerateRequest /api/generate 请求体
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse /api/generate 响应体，流式模式下每行一个
// Response 为 nil 表示该字段缺失
type GenerateResponse struct {
	Model    string  `json:"model,omitempty"`
	Response *string `json:"response,omitempty"`
	Done     bool    `json:"done,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// StatusError 后端返回了非 2xx 状态码
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ollama returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("ollama returned status %d: %s", e.StatusCode, e.Message)
}

// Generate 非流式生成，阻塞直到后端返回完整结果
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	body := *req
	body.Stream = false

	resp, err := c.post(ctx, c.generateURL, &body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	return &result, nil
}

// GenerateStream 流式生成
// 返回时后端已响应头部，调用方负责 Close
func (c *Client) GenerateStream(ctx context.Context, req *GenerateRequest) (*Stream, error) {
	body := *req
	body.Stream = true

	resp, err := c.post(ctx, c.generateURL, &body, "application/x-ndjson")
	if err != nil {
		return nil, err
	}

	return newStream(resp.Body), nil
}

// Ping 检查后端是否可用
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tagsURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, accept string) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readStatusError(resp)
	}

	return resp, nil
}

func readStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}

	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}

// classify 将建连失败包装为 ErrUnreachable，其余错误原样返回
func classify(err error) error {
	if IsUnreachable(err) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return err
}

// IsUnreachable 判断错误是否属于建连失败
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnreachable) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// 后端接受连接后未返回响应头就断开
	var urlErr *url.Error
	if errors.As(err, &urlErr) && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
