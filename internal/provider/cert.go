package provider

import "context"

// CertProvider 证书来源接口（只读）
// 只查询云平台上已签发的证书，不申请新证书。
type CertProvider interface {
	// Name 返回提供商名称
	Name() string

	// FindValidCertificate 查找域名的有效证书（剩余有效期大于minDays天），没有时返回 nil
	FindValidCertificate(ctx context.Context, domain string, minDays int) (*CertificateInfo, error)

	// GetCertificateDetail 获取证书详情（通过证书ID）
	GetCertificateDetail(ctx context.Context, certID string) (*Certificate, error)
}
