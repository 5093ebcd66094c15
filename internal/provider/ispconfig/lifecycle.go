package ispconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ispconfig-manager/internal/provider"
)

// 站点状态
const (
	statusActive   = "active"
	statusInactive = "inactive"
)

// clientRecord client_get_by_username 返回的系统用户记录
type clientRecord struct {
	ClientID flexInt    `json:"client_id"`
	UserID   flexInt    `json:"userid"`
	Groups   flexString `json:"groups"`
}

// siteRecord client_get_sites_by_user 返回的网站记录
type siteRecord struct {
	DomainID flexInt    `json:"domain_id"`
	Domain   string     `json:"domain"`
	Active   flexString `json:"active"`
}

// lookupClient 按用户名查找客户
func (p *Provisioner) lookupClient(ctx context.Context, username string) (*clientRecord, bool, error) {
	payload := NewPayload().Set("username", username)

	env, err := p.request(ctx, actionClientGetByUsername, payload)
	if err != nil {
		return nil, false, provider.WrapAction(actionClientGetByUsername, err)
	}
	if !env.Found() {
		return nil, false, nil
	}

	var rec clientRecord
	if err := env.Decode(&rec); err != nil {
		return nil, false, provider.WrapAction(actionClientGetByUsername,
			fmt.Errorf("%w: 无法解析客户记录: %v", provider.ErrTransport, err))
	}
	if rec.ClientID <= 0 {
		return nil, false, nil
	}
	return &rec, true, nil
}

// requireClient 查找客户，不存在时返回 ErrNotFound
func (p *Provisioner) requireClient(ctx context.Context, username string) (*clientRecord, error) {
	rec, found, err := p.lookupClient(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("客户 %s: %w", username, provider.ErrNotFound)
	}
	return rec, nil
}

// sitesOf 列出客户名下的网站
func (p *Provisioner) sitesOf(ctx context.Context, rec *clientRecord) ([]siteRecord, error) {
	payload := NewPayload().
		Set("sys_userid", int(rec.UserID)).
		Set("sys_groupid", string(rec.Groups))

	env, err := p.request(ctx, actionClientGetSitesByUser, payload)
	if err != nil {
		return nil, provider.WrapAction(actionClientGetSitesByUser, err)
	}
	if !env.Found() {
		return nil, nil
	}

	var list []siteRecord
	if err := env.Decode(&list); err == nil {
		return list, nil
	}

	// 面板偶尔以对象形式返回列表
	var keyed map[string]siteRecord
	if err := json.Unmarshal(env.Response, &keyed); err != nil {
		return nil, provider.WrapAction(actionClientGetSitesByUser,
			fmt.Errorf("%w: 无法解析网站列表: %v", provider.ErrTransport, err))
	}
	for _, s := range keyed {
		list = append(list, s)
	}
	return list, nil
}

// primarySite 按域名精确匹配账户主站点
func (p *Provisioner) primarySite(ctx context.Context, acc *provider.Account) (*clientRecord, int, bool, error) {
	rec, found, err := p.lookupClient(ctx, acc.Username)
	if err != nil || !found {
		return nil, 0, false, err
	}

	sites, err := p.sitesOf(ctx, rec)
	if err != nil {
		return nil, 0, false, err
	}
	for _, s := range sites {
		if s.Domain == acc.Domain && s.DomainID > 0 {
			return rec, int(s.DomainID), true, nil
		}
	}
	return rec, 0, false, nil
}

// SuspendAccount 暂停账户主站点
func (p *Provisioner) SuspendAccount(ctx context.Context, account *provider.Account) (bool, error) {
	return p.setSiteStatus(ctx, account, statusInactive)
}

// UnsuspendAccount 恢复账户主站点
func (p *Provisioner) UnsuspendAccount(ctx context.Context, account *provider.Account) (bool, error) {
	return p.setSiteStatus(ctx, account, statusActive)
}

// setSiteStatus 修改主站点状态，找不到主站点时不发请求并返回 false
func (p *Provisioner) setSiteStatus(ctx context.Context, account *provider.Account, status string) (bool, error) {
	if account == nil {
		return false, fmt.Errorf("账户为空")
	}

	_, siteID, found, err := p.primarySite(ctx, account)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("[ISPConfig] 警告: 未找到账户 %s 的主站点 %s，跳过状态修改", account.Username, account.Domain)
		return false, nil
	}

	payload := NewPayload().
		Set("primary_id", siteID).
		Set("status", status)

	env, err := p.request(ctx, actionSiteSetStatus, payload)
	if err != nil {
		return false, provider.WrapAction(actionSiteSetStatus, err)
	}

	ok := env.Bool()
	log.Printf("[ISPConfig] 站点 %s 状态修改为 %s: %v", account.Domain, status, ok)
	return ok, nil
}

// CancelAccount 删除客户及其全部资源
func (p *Provisioner) CancelAccount(ctx context.Context, account *provider.Account) (bool, error) {
	if account == nil {
		return false, fmt.Errorf("账户为空")
	}

	rec, err := p.requireClient(ctx, account.Username)
	if err != nil {
		return false, err
	}

	payload := NewPayload().Set("client_id", int(rec.ClientID))
	env, err := p.request(ctx, actionClientDeleteAll, payload)
	if err != nil {
		return false, provider.WrapAction(actionClientDeleteAll, err)
	}

	ok := env.Bool()
	log.Printf("[ISPConfig] 已注销账户: %s, 客户ID: %d, 结果: %v", account.Username, rec.ClientID, ok)
	return ok, nil
}

// ChangeAccountPassword 修改客户登录密码
func (p *Provisioner) ChangeAccountPassword(ctx context.Context, account *provider.Account, newPassword string) (bool, error) {
	if account == nil {
		return false, fmt.Errorf("账户为空")
	}
	if newPassword == "" {
		return false, fmt.Errorf("新密码不能为空")
	}

	rec, err := p.requireClient(ctx, account.Username)
	if err != nil {
		return false, err
	}

	payload := NewPayload().
		Set("client_id", int(rec.ClientID)).
		Set("new_password", newPassword)

	env, err := p.request(ctx, actionClientChangePassword, payload)
	if err != nil {
		return false, provider.WrapAction(actionClientChangePassword, err)
	}

	ok := env.Bool()
	log.Printf("[ISPConfig] 修改账户 %s 密码: %v", account.Username, ok)
	return ok, nil
}

// TestConnection 强制登录以测试连接
func (p *Provisioner) TestConnection(ctx context.Context) (bool, error) {
	token, err := p.session.EnsureSession(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// ListSites 列出账户客户名下的网站
func (p *Provisioner) ListSites(ctx context.Context, account *provider.Account) ([]*provider.Site, error) {
	if account == nil {
		return nil, fmt.Errorf("账户为空")
	}

	rec, err := p.requireClient(ctx, account.Username)
	if err != nil {
		return nil, err
	}

	records, err := p.sitesOf(ctx, rec)
	if err != nil {
		return nil, err
	}

	sites := make([]*provider.Site, 0, len(records))
	for _, r := range records {
		sites = append(sites, &provider.Site{
			ID:     int(r.DomainID),
			Domain: r.Domain,
			Active: strings.EqualFold(string(r.Active), "y"),
		})
	}
	return sites, nil
}

// InstallCertificate 为账户主站点安装证书
func (p *Provisioner) InstallCertificate(ctx context.Context, account *provider.Account, cert *provider.Certificate) (bool, error) {
	if account == nil {
		return false, fmt.Errorf("账户为空")
	}
	if cert == nil || cert.Certificate == "" || cert.PrivateKey == "" {
		return false, fmt.Errorf("证书内容不完整")
	}

	rec, siteID, found, err := p.primarySite(ctx, account)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("账户 %s 的主站点 %s: %w", account.Username, account.Domain, provider.ErrNotFound)
	}

	payload := NewPayload().
		Set("client_id", int(rec.ClientID)).
		Set("primary_id", siteID).
		Set("params", certificateParams(cert))

	env, err := p.request(ctx, actionSiteUpdate, payload)
	if err != nil {
		return false, provider.WrapAction(actionSiteUpdate, err)
	}

	ok := env.Bool()
	log.Printf("[ISPConfig] 站点 %s 证书安装结果: %v", account.Domain, ok)
	return ok, nil
}

// SynchronizeAccount 不支持
func (p *Provisioner) SynchronizeAccount(ctx context.Context, account *provider.Account) (*provider.Account, error) {
	return nil, provider.NewUnsupportedError(PanelName, "account synchronization")
}

// ChangeAccountPackage 不支持
func (p *Provisioner) ChangeAccountPackage(ctx context.Context, account *provider.Account, pkg *provider.Package) (bool, error) {
	return false, provider.NewUnsupportedError(PanelName, "changing the account package")
}

// ChangeAccountUsername 不支持
func (p *Provisioner) ChangeAccountUsername(ctx context.Context, account *provider.Account, newUsername string) (bool, error) {
	return false, provider.NewUnsupportedError(PanelName, "username changes")
}

// ChangeAccountDomain 不支持
func (p *Provisioner) ChangeAccountDomain(ctx context.Context, account *provider.Account, newDomain string) (bool, error) {
	return false, provider.NewUnsupportedError(PanelName, "changing the account domain")
}

// ChangeAccountIP 不支持
func (p *Provisioner) ChangeAccountIP(ctx context.Context, account *provider.Account, newIP string) (bool, error) {
	return false, provider.NewUnsupportedError(PanelName, "changing the account IP")
}
