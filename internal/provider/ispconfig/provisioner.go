package ispconfig

import (
	"context"
	"fmt"
	"log"
	"time"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/provider"
)

// PanelName 面板名称
const PanelName = "ISPConfig 3"

// Provisioner ISPConfig 3 面板提供商
// 一个实例对应一个面板会话，用完调用 Close。不支持并发使用。
type Provisioner struct {
	cfg     config.PanelConfig
	rpc     *RPCClient
	session *Session
	now     func() time.Time
}

var _ provider.PanelProvider = (*Provisioner)(nil)

// Option 配置项
type Option func(*Provisioner)

// WithHTTPClient 替换HTTP客户端
func WithHTTPClient(client HTTPDoer) Option {
	return func(p *Provisioner) {
		p.rpc.httpClient = client
	}
}

// WithClock 替换时钟，用于DNS记录时间戳
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) {
		p.now = now
	}
}

// New 创建 ISPConfig 3 提供商
func New(cfg config.PanelConfig, opts ...Option) *Provisioner {
	var client HTTPDoer = newHTTPClient(cfg.InsecureSkipVerify)
	if cfg.InsecureSkipVerify {
		log.Printf("[ISPConfig] 警告: 已关闭面板证书校验")
	}

	rpc := &RPCClient{
		endpoint:   Endpoint(cfg),
		httpClient: client,
	}
	session := &Session{
		rpc:      rpc,
		username: cfg.Username,
		password: cfg.Password,
	}
	rpc.session = session

	p := &Provisioner{
		cfg:     cfg,
		rpc:     rpc,
		session: session,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name 返回面板名称
func (p *Provisioner) Name() string {
	return PanelName
}

// Close 注销面板会话
func (p *Provisioner) Close(ctx context.Context) {
	p.session.Teardown(ctx)
}

func (p *Provisioner) request(ctx context.Context, action string, payload *Payload) (*Envelope, error) {
	return p.rpc.Request(ctx, action, payload)
}

// CreateAccount 开通账户
// 依次创建客户、网站、DNS区域、DNS记录和邮件域，任何一步失败都会中止后续步骤，
// 已创建的资源不会回滚。
func (p *Provisioner) CreateAccount(ctx context.Context, account *provider.Account) (*provider.Account, error) {
	if err := checkAccount(account); err != nil {
		return nil, err
	}
	if account.Package == nil {
		return nil, fmt.Errorf("账户 %s 缺少套餐", account.Username)
	}

	acc := copyAccount(account)

	log.Printf("[ISPConfig] 开始开通账户: %s (%s)", acc.Username, acc.Domain)

	clientID, err := p.ensureClient(ctx, acc)
	if err != nil {
		return nil, err
	}
	acc.Client.ID = clientID

	if err := p.addSite(ctx, acc); err != nil {
		return nil, err
	}

	zoneID, err := p.addDNSZone(ctx, acc)
	if err != nil {
		return nil, err
	}

	if err := p.addDNSRecords(ctx, acc, zoneID); err != nil {
		return nil, err
	}

	if err := p.addMailDomain(ctx, acc); err != nil {
		return nil, err
	}

	log.Printf("[ISPConfig] 账户开通完成: %s, 客户ID: %d", acc.Username, clientID)
	return acc, nil
}

// ensureClient 按用户名查找客户，不存在时创建
func (p *Provisioner) ensureClient(ctx context.Context, acc *provider.Account) (int, error) {
	rec, found, err := p.lookupClient(ctx, acc.Username)
	if err != nil {
		return 0, err
	}
	if found {
		log.Printf("[ISPConfig] 客户已存在: %s, 客户ID: %d", acc.Username, rec.ClientID)
		return int(rec.ClientID), nil
	}

	payload := NewPayload().
		Set("reseller_id", 0).
		Set("params", clientParams(acc))

	id, err := p.createEntity(ctx, actionClientAdd, payload)
	if err != nil {
		return 0, err
	}
	log.Printf("[ISPConfig] 已创建客户: %s, 客户ID: %d", acc.Username, id)
	return id, nil
}

func (p *Provisioner) addSite(ctx context.Context, acc *provider.Account) error {
	payload := NewPayload().
		Set("client_id", acc.Client.ID).
		Set("params", siteParams(acc, acc.Client.ID))

	id, err := p.createEntity(ctx, actionSiteAdd, payload)
	if err != nil {
		return err
	}
	log.Printf("[ISPConfig] 已创建网站: %s, 网站ID: %d", acc.Domain, id)
	return nil
}

func (p *Provisioner) addDNSZone(ctx context.Context, acc *provider.Account) (int, error) {
	payload := NewPayload().
		Set("client_id", acc.Client.ID).
		Set("params", zoneParams(acc, acc.Client.ID))

	id, err := p.createEntity(ctx, actionDNSZoneAdd, payload)
	if err != nil {
		return 0, err
	}
	log.Printf("[ISPConfig] 已创建DNS区域: %s, 区域ID: %d", acc.Domain, id)
	return id, nil
}

func (p *Provisioner) addDNSRecords(ctx context.Context, acc *provider.Account, zoneID int) error {
	now := p.now()

	for _, name := range aRecordNames(acc.Domain) {
		payload := NewPayload().
			Set("client_id", acc.Client.ID).
			Set("params", aRecordParams(zoneID, name, acc.IP, now))
		if _, err := p.createEntity(ctx, actionDNSAAdd, payload); err != nil {
			return err
		}
	}

	for _, ns := range []string{acc.NS1, acc.NS2} {
		payload := NewPayload().
			Set("client_id", acc.Client.ID).
			Set("params", nsRecordParams(zoneID, acc.Domain, ns, now))
		if _, err := p.createEntity(ctx, actionDNSNSAdd, payload); err != nil {
			return err
		}
	}

	log.Printf("[ISPConfig] 已创建DNS记录: %s", acc.Domain)
	return nil
}

func (p *Provisioner) addMailDomain(ctx context.Context, acc *provider.Account) error {
	payload := NewPayload().
		Set("client_id", acc.Client.ID).
		Set("params", mailDomainParams(acc))

	if _, err := p.createEntity(ctx, actionMailDomainAdd, payload); err != nil {
		return err
	}
	log.Printf("[ISPConfig] 已创建邮件域: %s", acc.Domain)
	return nil
}

// createEntity 调用创建类动作并返回新实体ID
func (p *Provisioner) createEntity(ctx context.Context, action string, payload *Payload) (int, error) {
	env, err := p.request(ctx, action, payload)
	if err != nil {
		return 0, provider.WrapAction(action, err)
	}
	if !env.Found() {
		return 0, provider.WrapAction(action, remoteFault(env))
	}
	id, err := env.Int()
	if err != nil {
		return 0, provider.WrapAction(action, fmt.Errorf("%w: %v", provider.ErrTransport, err))
	}
	return id, nil
}

// remoteFault 面板返回空结果时的错误
func remoteFault(env *Envelope) error {
	msg := env.Message
	if msg == "" {
		msg = "面板未返回结果"
	}
	return fmt.Errorf("%w: %s", provider.ErrRemoteFault, msg)
}

// LoginURL 返回用户登录地址
func (p *Provisioner) LoginURL(account *provider.Account) string {
	return BaseURL(p.cfg) + "/"
}

// ResellerLoginURL 返回代理商登录地址
func (p *Provisioner) ResellerLoginURL(account *provider.Account) string {
	return BaseURL(p.cfg) + "/"
}

func checkAccount(account *provider.Account) error {
	if account == nil {
		return fmt.Errorf("账户为空")
	}
	if account.Client == nil {
		return fmt.Errorf("账户 %s 缺少客户资料", account.Username)
	}
	return nil
}

// copyAccount 复制账户，调用方的输入保持不变
func copyAccount(account *provider.Account) *provider.Account {
	acc := *account
	client := *account.Client
	acc.Client = &client
	return &acc
}
