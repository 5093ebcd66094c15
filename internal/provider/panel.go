package provider

import "context"

// PanelProvider 托管面板提供商接口
// 每种面板一个实现，开通流程只依赖该接口。
// 一个实例持有一个面板会话，使用完毕必须调用 Close。
type PanelProvider interface {
	// Name 返回面板名称
	Name() string

	// TestConnection 测试面板连接（强制登录）
	TestConnection(ctx context.Context) (bool, error)

	// CreateAccount 开通账户，返回回填了客户ID的账户副本
	CreateAccount(ctx context.Context, account *Account) (*Account, error)

	// SuspendAccount 暂停账户
	SuspendAccount(ctx context.Context, account *Account) (bool, error)

	// UnsuspendAccount 恢复账户
	UnsuspendAccount(ctx context.Context, account *Account) (bool, error)

	// CancelAccount 注销账户及其全部资源
	CancelAccount(ctx context.Context, account *Account) (bool, error)

	// ChangeAccountPassword 修改账户密码
	ChangeAccountPassword(ctx context.Context, account *Account, newPassword string) (bool, error)

	// SynchronizeAccount 同步账户
	SynchronizeAccount(ctx context.Context, account *Account) (*Account, error)

	// ChangeAccountPackage 变更套餐
	ChangeAccountPackage(ctx context.Context, account *Account, pkg *Package) (bool, error)

	// ChangeAccountUsername 修改用户名
	ChangeAccountUsername(ctx context.Context, account *Account, newUsername string) (bool, error)

	// ChangeAccountDomain 修改域名
	ChangeAccountDomain(ctx context.Context, account *Account, newDomain string) (bool, error)

	// ChangeAccountIP 修改IP
	ChangeAccountIP(ctx context.Context, account *Account, newIP string) (bool, error)

	// ListSites 列出账户客户名下的网站
	ListSites(ctx context.Context, account *Account) ([]*Site, error)

	// InstallCertificate 为账户主站点安装证书
	InstallCertificate(ctx context.Context, account *Account, cert *Certificate) (bool, error)

	// LoginURL 返回用户登录地址
	LoginURL(account *Account) string

	// ResellerLoginURL 返回代理商登录地址
	ResellerLoginURL(account *Account) string

	// Close 注销面板会话，不返回错误
	Close(ctx context.Context)
}
