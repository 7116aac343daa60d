package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/snegopad/snowpay/internal/pkg/env"
)

const defaultVKAPIBaseURL = "https://api.vk.com/method"

// VKClient calls the VK API with the application's service token. The
// bounded HTTP timeout is what makes the client verification path fail
// closed instead of hanging on a slow upstream.
type VKClient struct {
	ServiceToken string
	APIBaseURL   string
	Version      string
	TestMode     bool

	HTTPClient *http.Client
}

// VKOrder is the order record returned by orders.getById.
type VKOrder struct {
	ID         int64  `json:"id"`
	AppOrderID string `json:"app_order_id"`
	Status     string `json:"status"`
	Item       string `json:"item"`
	Amount     int64  `json:"amount"`
}

type vkAPIError struct {
	Code int    `json:"error_code"`
	Msg  string `json:"error_msg"`
}

// NewVKClientFromEnv builds the client from VK_SERVICE_TOKEN,
// VK_API_VERSION and VK_TEST_PAY.
func NewVKClientFromEnv() *VKClient {
	return &VKClient{
		ServiceToken: strings.TrimSpace(env.GetEnv("VK_SERVICE_TOKEN", "")),
		APIBaseURL:   strings.TrimSpace(env.GetEnv("VK_API_BASE_URL", defaultVKAPIBaseURL)),
		Version:      strings.TrimSpace(env.GetEnv("VK_API_VERSION", "5.131")),
		TestMode:     env.GetEnv("VK_TEST_PAY", "0") == "1",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// OrdersGetByID fetches the authoritative order record for an
// app_order_id. Returns ErrOrderNotFound when the API answers with an
// empty response.
func (c *VKClient) OrdersGetByID(ctx context.Context, appOrderID string) (*VKOrder, error) {
	if strings.TrimSpace(c.ServiceToken) == "" {
		return nil, errors.New("VK_SERVICE_TOKEN is not configured")
	}

	u, err := url.Parse(strings.TrimRight(c.APIBaseURL, "/") + "/orders.getById")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("v", c.Version)
	q.Set("access_token", c.ServiceToken)
	q.Set("order_id", appOrderID)
	if c.TestMode {
		q.Set("test_mode", "1")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vk orders.getById failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw struct {
		Response json.RawMessage `json:"response"`
		Error    *vkAPIError     `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw.Error != nil {
		return nil, fmt.Errorf("vk orders.getById error %d: %s", raw.Error.Code, raw.Error.Msg)
	}
	if len(raw.Response) == 0 {
		return nil, ErrOrderNotFound
	}

	// The API returns either a single object or a one-element array.
	var single VKOrder
	if err := json.Unmarshal(raw.Response, &single); err == nil && single.Status != "" {
		return &single, nil
	}
	var list []VKOrder
	if err := json.Unmarshal(raw.Response, &list); err != nil {
		return nil, fmt.Errorf("vk orders.getById unexpected response: %s", string(raw.Response))
	}
	if len(list) == 0 {
		return nil, ErrOrderNotFound
	}
	return &list[0], nil
}
