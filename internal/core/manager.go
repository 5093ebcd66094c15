package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/notification"
	"ispconfig-manager/internal/provider"
	"ispconfig-manager/internal/provider/ispconfig"
	"ispconfig-manager/internal/storage"
)

// ErrNoCertificate 证书来源中没有可用证书
var ErrNoCertificate = errors.New("没有可用的证书")

// Manager 账户管理器
// 每个操作使用独立的面板会话，操作结束时注销。
type Manager struct {
	config    *config.Config
	factory   *Factory
	storage   *storage.FileStorage
	validator *Validator
	executor  *Executor
	notifier  *notification.WebhookNotifier
	now       func() time.Time
}

// NewManager 创建管理器
func NewManager(cfg *config.Config, opts ...ispconfig.Option) (*Manager, error) {
	return &Manager{
		config:    cfg,
		factory:   NewFactory(cfg, opts...),
		storage:   storage.NewFileStorage(cfg.OutputDir),
		validator: NewValidator(),
		executor:  NewExecutor(),
		notifier:  notification.NewWebhookNotifier(cfg.Webhook),
		now:       time.Now,
	}, nil
}

// withPanel 创建面板提供商执行 fn，返回前注销会话
func (m *Manager) withPanel(ctx context.Context, fn func(p provider.PanelProvider) error) error {
	panel, err := m.factory.NewPanelProvider()
	if err != nil {
		return err
	}
	defer panel.Close(ctx)
	return fn(panel)
}

// notify 发送通知，失败只记录日志
func (m *Manager) notify(err error) {
	if err != nil {
		log.Printf("发送通知失败: %v", err)
	}
}

// TestConnection 测试面板连接
func (m *Manager) TestConnection(ctx context.Context) error {
	return m.withPanel(ctx, func(p provider.PanelProvider) error {
		log.Printf("测试 %s 连接: %s", p.Name(), m.config.Panel.Host)
		ok, err := p.TestConnection(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: 未获得会话", provider.ErrAuthentication)
		}
		log.Printf("连接成功")
		return nil
	})
}

// CreateAccount 开通账户
// 面板开通成功后依次执行：外部DNS同步、保存报告、后置命令、通知。
// 面板之后的步骤失败只记录日志，不影响开通结果。
func (m *Manager) CreateAccount(ctx context.Context, file *config.AccountFile) (*provider.Account, error) {
	account := file.Account()

	log.Printf("\n========== 开通账户: %s (%s) ==========", account.Username, account.Domain)

	if err := m.validator.ValidateAccount(account); err != nil {
		return nil, fmt.Errorf("账户信息无效: %w", err)
	}

	var created *provider.Account
	var loginURL string
	err := m.withPanel(ctx, func(p provider.PanelProvider) error {
		var err error
		created, err = p.CreateAccount(ctx, account)
		if err != nil {
			return err
		}
		loginURL = p.LoginURL(created)
		return nil
	})
	if err != nil {
		step := provider.FailedAction(err)
		log.Printf("账户 %s 开通失败 (步骤: %s): %v", account.Username, step, err)
		m.notify(m.notifier.NotifyProvisionFailed(ctx, account.Username, account.Domain, step, err.Error()))
		return nil, fmt.Errorf("开通账户失败: %w", err)
	}

	now := m.now()
	report := &storage.AccountReport{
		Username:  created.Username,
		Domain:    created.Domain,
		Panel:     ispconfig.PanelName,
		ClientID:  created.Client.ID,
		IP:        created.IP,
		NS1:       created.NS1,
		NS2:       created.NS2,
		LoginURL:  loginURL,
		Status:    storage.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if mirror, err := m.mirror(); err != nil {
		log.Printf("外部DNS同步未执行: %v", err)
	} else if mirror != nil {
		records, err := mirror.Publish(ctx, created)
		if err != nil {
			log.Printf("外部DNS同步失败: %v", err)
			m.notify(m.notifier.NotifyDNSMirrorFailed(ctx, created.Username, created.Domain, mirror.Name(), err.Error()))
		}
		report.Mirror = mirrorReport(mirror.Name(), records)
	}

	if err := m.storage.SaveReport(report); err != nil {
		log.Printf("保存开通报告失败: %v", err)
	}

	postCommand := file.PostCommand
	if postCommand == "" {
		postCommand = m.config.PostCommand
	}
	if postCommand != "" {
		vars := m.executor.BuildVars(created, m.storage.GetReportPath(created.Domain))
		if err := m.executor.RunPostCommand(ctx, postCommand, vars); err != nil {
			log.Printf("执行后置命令失败: %v", err)
		}
	}

	m.notify(m.notifier.NotifyAccountCreated(ctx, created.Username, created.Domain, created.Client.ID))

	log.Printf("账户 %s 开通完成！客户ID: %d", created.Username, created.Client.ID)
	return created, nil
}

// mirror 返回配置的外部DNS同步，未配置时返回 nil
func (m *Manager) mirror() (*DNSMirror, error) {
	if m.config.DNSMirror == nil || m.config.DNSMirror.Provider == "" {
		return nil, nil
	}
	dns, err := m.factory.GetDNSProvider(m.config.DNSMirror.Provider)
	if err != nil {
		return nil, err
	}
	return NewDNSMirror(dns, m.config.DNSMirror.TTL), nil
}

func mirrorReport(name string, records []*provider.DNSRecord) *storage.MirrorReport {
	r := &storage.MirrorReport{Provider: name}
	for _, record := range records {
		r.Records = append(r.Records, storage.MirrorRecord{
			RecordID: record.RecordID,
			RR:       record.RR,
			Type:     record.Type,
			Value:    record.Value,
		})
	}
	return r
}

// SuspendAccount 暂停账户
func (m *Manager) SuspendAccount(ctx context.Context, account *provider.Account) (bool, error) {
	var ok bool
	err := m.withPanel(ctx, func(p provider.PanelProvider) error {
		var err error
		ok, err = p.SuspendAccount(ctx, account)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("暂停账户失败: %w", err)
	}
	if ok {
		m.updateStatus(account.Domain, storage.StatusSuspended)
		m.notify(m.notifier.NotifyAccountSuspended(ctx, account.Username, account.Domain))
	}
	return ok, nil
}

// UnsuspendAccount 恢复账户
func (m *Manager) UnsuspendAccount(ctx context.Context, account *provider.Account) (bool, error) {
	var ok bool
	err := m.withPanel(ctx, func(p provider.PanelProvider) error {
		var err error
		ok, err = p.UnsuspendAccount(ctx, account)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("恢复账户失败: %w", err)
	}
	if ok {
		m.updateStatus(account.Domain, storage.StatusActive)
		m.notify(m.notifier.NotifyAccountUnsuspended(ctx, account.Username, account.Domain))
	}
	return ok, nil
}

// updateStatus 更新已有报告的状态，没有报告时跳过
func (m *Manager) updateStatus(domain, status string) {
	report, err := m.storage.LoadReport(domain)
	if err != nil {
		log.Printf("读取开通报告失败: %v", err)
		return
	}
	if report == nil {
		return
	}
	report.Status = status
	report.UpdatedAt = m.now()
	if err := m.storage.SaveReport(report); err != nil {
		log.Printf("保存开通报告失败: %v", err)
	}
}

// CancelAccount 注销账户
// 面板删除成功后删除外部DNS记录和开通报告。
func (m *Manager) CancelAccount(ctx context.Context, account *provider.Account) (bool, error) {
	log.Printf("\n========== 注销账户: %s (%s) ==========", account.Username, account.Domain)

	var ok bool
	err := m.withPanel(ctx, func(p provider.PanelProvider) error {
		var err error
		ok, err = p.CancelAccount(ctx, account)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("注销账户失败: %w", err)
	}
	if !ok {
		log.Printf("面板未确认删除账户 %s", account.Username)
		return false, nil
	}

	if mirror, err := m.mirror(); err != nil {
		log.Printf("外部DNS记录未删除: %v", err)
	} else if mirror != nil {
		if err := mirror.Withdraw(ctx, account); err != nil {
			log.Printf("删除外部DNS记录失败: %v", err)
			m.notify(m.notifier.NotifyDNSMirrorFailed(ctx, account.Username, account.Domain, mirror.Name(), err.Error()))
		}
	}

	if err := m.storage.RemoveReport(account.Domain); err != nil {
		log.Printf("删除开通报告失败: %v", err)
	}

	m.notify(m.notifier.NotifyAccountCancelled(ctx, account.Username, account.Domain))
	return true, nil
}

// ChangePassword 修改账户密码
func (m *Manager) ChangePassword(ctx context.Context, account *provider.Account, newPassword string) (bool, error) {
	var ok bool
	err := m.withPanel(ctx, func(p provider.PanelProvider) error {
		var err error
		ok, err = p.ChangeAccountPassword(ctx, account, newPassword)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("修改密码失败: %w", err)
	}
	return ok, nil
}

// ListSites 列出账户的网站
func (m *Manager) ListSites(ctx context.Context, account *provider.Account) ([]*provider.Site, error) {
	var sites []*provider.Site
	err := m.withPanel(ctx, func(p provider.PanelProvider) error {
		var err error
		sites, err = p.ListSites(ctx, account)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("获取网站列表失败: %w", err)
	}
	return sites, nil
}

// InstallCertificate 从云平台取已签发证书安装到账户主站点
// 线上证书仍然有效时跳过，force 为 true 时总是安装。
func (m *Manager) InstallCertificate(ctx context.Context, account *provider.Account, force bool) (bool, error) {
	if m.config.SSL == nil || m.config.SSL.CertProvider == "" {
		return false, fmt.Errorf("未配置证书来源 (ssl.cert_provider)")
	}
	minDays := m.config.SSL.MinDays

	if !force {
		need, expiry := m.validator.NeedInstall(account.Domain, minDays)
		if !need {
			log.Printf("线上证书有效 (到期: %s)，无需安装", expiry.Format("2006-01-02"))
			return false, nil
		}
	}

	certProvider, err := m.factory.GetCertProvider(m.config.SSL.CertProvider)
	if err != nil {
		return false, fmt.Errorf("获取证书提供商失败: %w", err)
	}

	info, err := certProvider.FindValidCertificate(ctx, account.Domain, minDays)
	if err != nil {
		return false, fmt.Errorf("查询证书失败: %w", err)
	}
	if info == nil {
		return false, fmt.Errorf("%s 中没有覆盖 %s 且有效期大于 %d 天的证书: %w",
			certProvider.Name(), account.Domain, minDays, ErrNoCertificate)
	}

	cert, err := certProvider.GetCertificateDetail(ctx, info.CertID)
	if err != nil {
		return false, fmt.Errorf("获取证书内容失败: %w", err)
	}

	var ok bool
	err = m.withPanel(ctx, func(p provider.PanelProvider) error {
		var err error
		ok, err = p.InstallCertificate(ctx, account, cert)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("安装证书失败: %w", err)
	}
	if !ok {
		return false, nil
	}

	m.recordCertificate(account.Domain, certProvider.Name(), info)
	m.notify(m.notifier.NotifyCertInstalled(ctx, account.Username, account.Domain, info.CertID, info.NotAfter))

	log.Printf("域名 %s 证书安装完成 (CertID: %s)", account.Domain, info.CertID)
	return true, nil
}

func (m *Manager) recordCertificate(domain, providerName string, info *provider.CertificateInfo) {
	report, err := m.storage.LoadReport(domain)
	if err != nil || report == nil {
		return
	}
	now := m.now()
	report.Certificate = &storage.CertificateReport{
		Provider:    providerName,
		CertID:      info.CertID,
		NotAfter:    info.NotAfter,
		InstalledAt: now,
	}
	report.UpdatedAt = now
	if err := m.storage.SaveReport(report); err != nil {
		log.Printf("保存开通报告失败: %v", err)
	}
}

// LoginURL 返回用户和代理商登录地址，不访问面板
func (m *Manager) LoginURL(ctx context.Context, account *provider.Account) (string, string, error) {
	var user, reseller string
	err := m.withPanel(ctx, func(p provider.PanelProvider) error {
		user = p.LoginURL(account)
		reseller = p.ResellerLoginURL(account)
		return nil
	})
	return user, reseller, err
}

// GetConfig 获取配置
func (m *Manager) GetConfig() *config.Config {
	return m.config
}
