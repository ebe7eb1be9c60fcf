package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lk2023060901/gachalogs/pkg/logger"
)

// maxResponseBytes 单个响应体上限
const maxResponseBytes = 8 << 20

// envelope 米哈游接口统一响应
type envelope struct {
	Retcode int             `json:"retcode"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) hasData() bool {
	return len(e.Data) > 0 && !bytes.Equal(e.Data, []byte("null"))
}

// decodeData 解析 data 字段
func (e *envelope) decodeData(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrResponseInvalid, err)
	}
	return nil
}

// apiClient 发送请求并解析统一响应
type apiClient struct {
	http   *http.Client
	signer *Signer
	logger logger.Logger
}

func newAPIClient(cfg *Config, httpClient *http.Client, l logger.Logger) *apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &apiClient{
		http:   httpClient,
		signer: NewSigner(cfg),
		logger: l,
	}
}

// get 不签名的 GET，用于抽卡记录接口
func (c *apiClient) get(ctx context.Context, rawURL string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	return c.do(req)
}

// signedGet 带签名头的 GET
func (c *apiClient) signedGet(ctx context.Context, rawURL, cookie string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	c.signer.Apply(req.Header, cookie)
	return c.do(req)
}

// signedPost 带签名头的 JSON POST
func (c *apiClient) signedPost(ctx context.Context, rawURL, cookie string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %v", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	c.signer.Apply(req.Header, cookie)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *apiClient) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	c.logger.Debug("api response", "url", req.URL.String(), "retcode", env.Retcode, "message", env.Message)
	return &env, nil
}
