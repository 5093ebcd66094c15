package ispconfig

import (
	"context"
	"fmt"
	"log"
	"sync"

	"ispconfig-manager/internal/provider"
)

var errSessionClosed = fmt.Errorf("%w: 会话已关闭", provider.ErrAuthentication)

// Session 面板会话
// 首次调用时登录一次，之后复用同一个令牌，Teardown 后不再可用。
type Session struct {
	rpc      *RPCClient
	username string
	password string

	mu     sync.Mutex
	token  string
	closed bool
}

// EnsureSession 返回会话令牌，未登录时先登录
func (s *Session) EnsureSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", errSessionClosed
	}
	if s.token != "" {
		return s.token, nil
	}

	payload := NewPayload().
		Set("username", s.username).
		Set("password", s.password)

	env, err := s.rpc.call(ctx, actionLogin, payload, "")
	if err != nil {
		return "", err
	}
	token, err := env.String()
	if err != nil || token == "" {
		msg := env.Message
		if msg == "" {
			msg = "未返回会话令牌"
		}
		return "", provider.WrapAction(actionLogin, fmt.Errorf("%w: %s", provider.ErrAuthentication, msg))
	}

	s.token = token
	log.Printf("[ISPConfig] 已登录面板: %s", s.username)
	return token, nil
}

// Token 返回当前令牌，未登录时为空
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Teardown 注销会话
// 持有令牌时发送一次 logout；从未登录成功时面板上没有会话，不发请求。
// 失败只记录日志，重复调用无副作用。
func (s *Session) Teardown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	token := s.token
	s.token = ""
	if token == "" {
		return
	}

	// 调用方的 ctx 可能已取消，注销仍要发出去
	ctx = context.WithoutCancel(ctx)
	if _, err := s.rpc.call(ctx, actionLogout, NewPayload(), token); err != nil {
		log.Printf("[ISPConfig] 注销会话失败: %v", err)
		return
	}
	log.Printf("[ISPConfig] 已注销面板会话")
}
