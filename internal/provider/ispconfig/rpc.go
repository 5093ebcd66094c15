package ispconfig

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/provider"
)

const (
	// requestTimeout 单次请求超时
	requestTimeout = 60 * time.Second

	endpointPath    = "/remote/json.php"
	keySessionID    = "session_id"
	maxResponseBody = 8 << 20
)

// 远程动作
const (
	actionLogin                = "login"
	actionLogout               = "logout"
	actionClientAdd            = "client_add"
	actionClientGetByUsername  = "client_get_by_username"
	actionClientGetSitesByUser = "client_get_sites_by_user"
	actionClientChangePassword = "client_change_password"
	actionClientDeleteAll      = "client_delete_everything"
	actionSiteAdd              = "sites_web_domain_add"
	actionSiteUpdate           = "sites_web_domain_update"
	actionSiteSetStatus        = "sites_web_domain_set_status"
	actionDNSZoneAdd           = "dns_zone_add"
	actionDNSAAdd              = "dns_a_add"
	actionDNSNSAdd             = "dns_ns_add"
	actionMailDomainAdd        = "mail_domain_add"
)

// HTTPDoer 发送HTTP请求，便于测试替换
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RPCClient 面板远程接口客户端
type RPCClient struct {
	endpoint   string
	httpClient HTTPDoer
	session    *Session
}

// BaseURL 返回面板根地址，如 https://panel.example.com:8080
func BaseURL(cfg config.PanelConfig) string {
	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}
	host := strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	if cfg.Port > 0 {
		host += ":" + strconv.Itoa(cfg.Port)
	}
	return scheme + "://" + host
}

// Endpoint 返回远程接口地址
func Endpoint(cfg config.PanelConfig) string {
	return BaseURL(cfg) + endpointPath
}

// newHTTPClient 创建固定超时的HTTP客户端，insecure 为 true 时跳过证书校验
func newHTTPClient(insecure bool) *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
		},
	}
}

// Request 调用远程动作，首次调用时登录
func (c *RPCClient) Request(ctx context.Context, action string, payload *Payload) (*Envelope, error) {
	token, err := c.session.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, action, payload, token)
}

// call 发送一次请求，持有令牌时在参数最前面加上 session_id（login 除外）
func (c *RPCClient) call(ctx context.Context, action string, payload *Payload, token string) (*Envelope, error) {
	if payload == nil {
		payload = NewPayload()
	}
	body := payload
	if action != actionLogin && token != "" {
		body = payload.withSession(token)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, provider.WrapAction(action, fmt.Errorf("序列化请求失败: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+action, bytes.NewReader(data))
	if err != nil {
		return nil, provider.WrapAction(action, fmt.Errorf("%w: %v", provider.ErrTransport, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.WrapAction(action, fmt.Errorf("%w: %v", provider.ErrTransport, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, provider.WrapAction(action, fmt.Errorf("%w: 读取响应失败: %v", provider.ErrTransport, err))
	}

	if resp.StatusCode >= 300 {
		return nil, provider.WrapAction(action, fmt.Errorf("%w: HTTP %d: %s", provider.ErrTransport, resp.StatusCode, snippet(raw)))
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, provider.WrapAction(action, fmt.Errorf("%w: 响应不是有效的JSON: %s", provider.ErrTransport, snippet(raw)))
	}
	return &env, nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
