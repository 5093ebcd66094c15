package huawei

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/basic"
	scm "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/scm/v3"
	scmModel "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/scm/v3/model"
	scmRegion "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/scm/v3/region"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

const certTimeLayout = "2006-01-02 15:04:05"

// CertProvider 华为云证书来源
type CertProvider struct {
	client *scm.ScmClient
}

var _ provider.CertProvider = (*CertProvider)(nil)

// NewCertProvider 创建华为云证书来源
func NewCertProvider(cfg *config.HuaweiConfig) (*CertProvider, error) {
	auth := basic.NewCredentialsBuilder().
		WithAk(cfg.AccessKey).
		WithSk(cfg.SecretKey).
		Build()

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	regionObj, err := scmRegion.SafeValueOf(region)
	if err != nil {
		return nil, fmt.Errorf("无效的区域: %s", region)
	}

	client := scm.NewScmClient(
		scm.ScmClientBuilder().
			WithRegion(regionObj).
			WithCredential(auth).
			Build())

	return &CertProvider{client: client}, nil
}

// Name 返回提供商名称
func (p *CertProvider) Name() string {
	return "huawei"
}

// listIssued 列出已签发的证书
func (p *CertProvider) listIssued() ([]*provider.CertificateInfo, error) {
	response, err := p.client.ListCertificates(&scmModel.ListCertificatesRequest{})
	if err != nil {
		return nil, fmt.Errorf("获取证书列表失败: %w", err)
	}

	var certs []*provider.CertificateInfo
	if response.Certificates == nil {
		return certs, nil
	}
	for _, cert := range *response.Certificates {
		if cert.Status != "ISSUED" {
			continue
		}

		var notAfter time.Time
		if cert.ExpireTime != "" {
			notAfter, _ = time.Parse(certTimeLayout, cert.ExpireTime)
		}

		var sans []string
		if cert.Sans != "" {
			sans = strings.Split(cert.Sans, ",")
		}

		certs = append(certs, &provider.CertificateInfo{
			CertID:   cert.Id,
			Domain:   cert.Domain,
			Sans:     sans,
			NotAfter: notAfter,
		})
	}

	return certs, nil
}

// FindValidCertificate 查找覆盖域名且剩余有效期大于 minDays 天的证书
func (p *CertProvider) FindValidCertificate(ctx context.Context, target string, minDays int) (*provider.CertificateInfo, error) {
	certs, err := p.listIssued()
	if err != nil {
		return nil, err
	}

	log.Printf("[华为云] 共查询到 %d 个已签发证书", len(certs))

	for _, cert := range certs {
		matched := domain.CertCovers(cert.Domain, cert.Sans, target)
		daysRemaining := int(time.Until(cert.NotAfter).Hours() / 24)

		log.Printf("[华为云] 证书: Domain=%s, Sans=%v, 到期: %s, 剩余: %d 天, 匹配: %v",
			cert.Domain, cert.Sans, cert.NotAfter.Format("2006-01-02"), daysRemaining, matched)

		if matched && daysRemaining > minDays {
			return cert, nil
		}
	}

	return nil, nil
}

// GetCertificateDetail 导出证书内容
func (p *CertProvider) GetCertificateDetail(ctx context.Context, certID string) (*provider.Certificate, error) {
	response, err := p.client.ExportCertificate(&scmModel.ExportCertificateRequest{
		CertificateId: certID,
	})
	if err != nil {
		return nil, fmt.Errorf("导出证书失败: %w", err)
	}

	var certificate, privateKey, chain string
	if response.Certificate != nil {
		certificate = *response.Certificate
	}
	if response.PrivateKey != nil {
		privateKey = *response.PrivateKey
	}
	if response.CertificateChain != nil {
		chain = *response.CertificateChain
	}

	if certificate == "" || privateKey == "" {
		return nil, fmt.Errorf("证书内容为空")
	}

	return &provider.Certificate{
		Certificate: certificate,
		PrivateKey:  privateKey,
		Chain:       chain,
	}, nil
}
