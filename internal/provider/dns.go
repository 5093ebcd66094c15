package provider

import "context"

// DNSProvider 外部DNS提供商接口
// 用于在域名解析托管于云平台时同步站点记录。
type DNSProvider interface {
	// Name 返回提供商名称
	Name() string

	// EnsureRecord 添加DNS记录，已存在相同主机记录和类型时更新
	// domain: 主域名 (如 example.com)
	// record.RR: 主机记录 (如 www，@ 表示主域名)
	EnsureRecord(ctx context.Context, domain string, record *DNSRecord) error

	// DeleteRecord 删除DNS记录
	DeleteRecord(ctx context.Context, domain, recordID string) error

	// ListRecords 列出 domain 所在主域名下的全部DNS记录，RR 相对于主域名
	ListRecords(ctx context.Context, domain string) ([]*DNSRecord, error)
}
