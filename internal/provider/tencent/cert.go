package tencent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	ssl "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/ssl/v20191205"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

// 证书状态: 1 已通过
const statusIssued = 1

const certTimeLayout = "2006-01-02 15:04:05"

// CertProvider 腾讯云证书来源
type CertProvider struct {
	client *ssl.Client
}

var _ provider.CertProvider = (*CertProvider)(nil)

// NewCertProvider 创建腾讯云证书来源
func NewCertProvider(cfg *config.TencentConfig) (*CertProvider, error) {
	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "ssl.tencentcloudapi.com"

	region := cfg.Region
	if region == "" {
		region = "ap-guangzhou"
	}

	client, err := ssl.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云SSL客户端失败: %w", err)
	}

	return &CertProvider{client: client}, nil
}

// Name 返回提供商名称
func (p *CertProvider) Name() string {
	return "tencent"
}

// listIssued 列出已签发的证书
func (p *CertProvider) listIssued(ctx context.Context) ([]*provider.CertificateInfo, error) {
	request := ssl.NewDescribeCertificatesRequest()
	request.Limit = common.Uint64Ptr(100)

	response, err := p.client.DescribeCertificatesWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("获取证书列表失败: %w", err)
	}
	if response.Response == nil {
		return nil, nil
	}

	var certs []*provider.CertificateInfo
	for _, cert := range response.Response.Certificates {
		if cert == nil || cert.CertificateId == nil {
			continue
		}
		if cert.Status == nil || *cert.Status != statusIssued {
			continue
		}

		var notAfter time.Time
		if cert.CertEndTime != nil {
			notAfter, _ = time.Parse(certTimeLayout, *cert.CertEndTime)
		}

		var sans []string
		for _, s := range cert.SubjectAltName {
			if s != nil {
				sans = append(sans, *s)
			}
		}

		certs = append(certs, &provider.CertificateInfo{
			CertID:   *cert.CertificateId,
			Domain:   stringValue(cert.Domain),
			Sans:     sans,
			NotAfter: notAfter,
		})
	}

	return certs, nil
}

// FindValidCertificate 查找覆盖域名且剩余有效期大于 minDays 天的证书
func (p *CertProvider) FindValidCertificate(ctx context.Context, target string, minDays int) (*provider.CertificateInfo, error) {
	certs, err := p.listIssued(ctx)
	if err != nil {
		return nil, err
	}

	log.Printf("[腾讯云] 共查询到 %d 个已签发证书", len(certs))

	for _, cert := range certs {
		matched := domain.CertCovers(cert.Domain, cert.Sans, target)
		daysRemaining := int(time.Until(cert.NotAfter).Hours() / 24)

		log.Printf("[腾讯云] 证书: Domain=%s, Sans=%v, 到期: %s, 剩余: %d 天, 匹配: %v",
			cert.Domain, cert.Sans, cert.NotAfter.Format("2006-01-02"), daysRemaining, matched)

		if matched && daysRemaining > minDays {
			return cert, nil
		}
	}

	return nil, nil
}

// GetCertificateDetail 获取证书内容
func (p *CertProvider) GetCertificateDetail(ctx context.Context, certID string) (*provider.Certificate, error) {
	request := ssl.NewDescribeCertificateDetailRequest()
	request.CertificateId = common.StringPtr(certID)

	response, err := p.client.DescribeCertificateDetailWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("获取证书详情失败: %w", err)
	}
	if response.Response == nil {
		return nil, fmt.Errorf("证书内容为空")
	}

	certificate := stringValue(response.Response.CertificatePublicKey)
	privateKey := stringValue(response.Response.CertificatePrivateKey)

	if certificate == "" || privateKey == "" {
		return nil, fmt.Errorf("证书内容为空")
	}

	return &provider.Certificate{
		Certificate: certificate,
		PrivateKey:  privateKey,
		Chain:       certificate,
	}, nil
}
