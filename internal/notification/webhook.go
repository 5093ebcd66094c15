package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"text/template"
	"time"

	"github.com/google/uuid"

	"ispconfig-manager/internal/config"
)

// EventType 事件类型
type EventType string

const (
	EventAccountCreated     EventType = "account_created"     // 账户开通成功
	EventAccountSuspended   EventType = "account_suspended"   // 账户已暂停
	EventAccountUnsuspended EventType = "account_unsuspended" // 账户已恢复
	EventAccountCancelled   EventType = "account_cancelled"   // 账户已注销
	EventProvisionFailed    EventType = "provision_failed"    // 开通失败
	EventDNSMirrorFailed    EventType = "dns_mirror_failed"   // 外部DNS同步失败
	EventCertInstalled      EventType = "cert_installed"      // 证书已安装
)

// EventData 事件数据
type EventData struct {
	ID        string         `json:"id"`             // 事件ID
	Event     string         `json:"event"`          // 事件类型
	Username  string         `json:"username"`       // 账户用户名
	Domain    string         `json:"domain"`         // 域名
	Timestamp string         `json:"timestamp"`      // 时间戳
	Message   string         `json:"message"`        // 消息
	Data      map[string]any `json:"data,omitempty"` // 额外数据
}

// WebhookNotifier Webhook 通知器
type WebhookNotifier struct {
	config  *config.WebhookConfig
	client  *http.Client
	backoff func(attempt int) time.Duration
}

// NewWebhookNotifier 创建 Webhook 通知器，未启用时返回 nil
func NewWebhookNotifier(cfg *config.WebhookConfig) *WebhookNotifier {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &WebhookNotifier{
		config: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		backoff: exponentialBackoff,
	}
}

// exponentialBackoff 指数退避：1s, 2s, 4s
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

// ShouldNotify 检查是否应该发送该事件的通知
func (w *WebhookNotifier) ShouldNotify(eventType EventType) bool {
	if !w.IsEnabled() {
		return false
	}

	// 如果没有配置事件列表，则发送所有事件
	if len(w.config.Events) == 0 {
		return true
	}

	for _, e := range w.config.Events {
		if e == string(eventType) {
			return true
		}
	}

	return false
}

// Notify 发送通知
func (w *WebhookNotifier) Notify(ctx context.Context, eventType EventType, username, domain, message string, data map[string]any) error {
	if !w.ShouldNotify(eventType) {
		return nil
	}

	eventData := EventData{
		ID:        uuid.NewString(),
		Event:     string(eventType),
		Username:  username,
		Domain:    domain,
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   message,
		Data:      data,
	}

	body, err := w.buildBody(eventData)
	if err != nil {
		return err
	}

	retries := w.config.Retries
	if retries <= 0 {
		retries = 3
	}

	var lastErr error
	for i := 0; i < retries; i++ {
		if i > 0 {
			backoff := w.backoff(i)
			log.Printf("Webhook 通知失败，%v 后重试 (第 %d/%d 次)...", backoff, i+1, retries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if lastErr = w.send(ctx, body); lastErr == nil {
			log.Printf("Webhook 通知发送成功: %s (事件: %s, 域名: %s)", w.config.URL, eventType, domain)
			return nil
		}
	}

	log.Printf("Webhook 通知发送失败 (已重试 %d 次): %v", retries, lastErr)
	return lastErr
}

// buildBody 生成请求体，自定义模板渲染失败时回退到默认 JSON
func (w *WebhookNotifier) buildBody(eventData EventData) ([]byte, error) {
	if w.config.BodyTemplate != "" {
		body, err := w.renderTemplate(w.config.BodyTemplate, eventData)
		if err == nil {
			return body, nil
		}
		log.Printf("渲染 Webhook 请求体模板失败: %v", err)
	}

	body, err := json.Marshal(eventData)
	if err != nil {
		return nil, fmt.Errorf("序列化事件数据失败: %w", err)
	}
	return body, nil
}

func (w *WebhookNotifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range w.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Webhook 返回错误状态码: %d", resp.StatusCode)
	}
	return nil
}

// renderTemplate 渲染模板
func (w *WebhookNotifier) renderTemplate(tmplStr string, data EventData) ([]byte, error) {
	tmplData := map[string]any{
		"ID":        data.ID,
		"Event":     data.Event,
		"Username":  data.Username,
		"Domain":    data.Domain,
		"Timestamp": data.Timestamp,
		"Message":   data.Message,
		"Data":      data.Data,
	}

	funcMap := template.FuncMap{
		"toJson": func(v any) string {
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return string(b)
		},
	}

	tmpl, err := template.New("webhook").Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tmplData); err != nil {
		return nil, fmt.Errorf("渲染模板失败: %w", err)
	}

	return buf.Bytes(), nil
}

// NotifyAccountCreated 通知账户开通成功
func (w *WebhookNotifier) NotifyAccountCreated(ctx context.Context, username, domain string, clientID int) error {
	message := fmt.Sprintf("账户开通成功: %s (%s)", username, domain)
	return w.Notify(ctx, EventAccountCreated, username, domain, message, map[string]any{
		"client_id": clientID,
	})
}

// NotifyAccountSuspended 通知账户已暂停
func (w *WebhookNotifier) NotifyAccountSuspended(ctx context.Context, username, domain string) error {
	message := fmt.Sprintf("账户已暂停: %s (%s)", username, domain)
	return w.Notify(ctx, EventAccountSuspended, username, domain, message, nil)
}

// NotifyAccountUnsuspended 通知账户已恢复
func (w *WebhookNotifier) NotifyAccountUnsuspended(ctx context.Context, username, domain string) error {
	message := fmt.Sprintf("账户已恢复: %s (%s)", username, domain)
	return w.Notify(ctx, EventAccountUnsuspended, username, domain, message, nil)
}

// NotifyAccountCancelled 通知账户已注销
func (w *WebhookNotifier) NotifyAccountCancelled(ctx context.Context, username, domain string) error {
	message := fmt.Sprintf("账户已注销: %s (%s)", username, domain)
	return w.Notify(ctx, EventAccountCancelled, username, domain, message, nil)
}

// NotifyProvisionFailed 通知开通失败，step 为失败的远程动作
func (w *WebhookNotifier) NotifyProvisionFailed(ctx context.Context, username, domain, step, reason string) error {
	message := fmt.Sprintf("账户开通失败: %s (%s)", username, domain)
	return w.Notify(ctx, EventProvisionFailed, username, domain, message, map[string]any{
		"step":   step,
		"reason": reason,
	})
}

// NotifyDNSMirrorFailed 通知外部DNS同步失败
func (w *WebhookNotifier) NotifyDNSMirrorFailed(ctx context.Context, username, domain, providerName, reason string) error {
	message := fmt.Sprintf("外部DNS同步失败: %s (%s)", domain, providerName)
	return w.Notify(ctx, EventDNSMirrorFailed, username, domain, message, map[string]any{
		"provider": providerName,
		"reason":   reason,
	})
}

// NotifyCertInstalled 通知证书已安装
func (w *WebhookNotifier) NotifyCertInstalled(ctx context.Context, username, domain, certID string, notAfter time.Time) error {
	message := fmt.Sprintf("证书已安装: %s", domain)
	return w.Notify(ctx, EventCertInstalled, username, domain, message, map[string]any{
		"cert_id":   certID,
		"not_after": notAfter.Format(time.RFC3339),
	})
}

// IsEnabled 检查是否启用
func (w *WebhookNotifier) IsEnabled() bool {
	return w != nil && w.config != nil && w.config.Enabled
}
