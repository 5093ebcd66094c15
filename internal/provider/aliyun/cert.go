package aliyun

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	cas "github.com/alibabacloud-go/cas-20200407/v3/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

// CertProvider 阿里云证书来源
type CertProvider struct {
	client *cas.Client
}

var _ provider.CertProvider = (*CertProvider)(nil)

// NewCertProvider 创建阿里云证书来源
func NewCertProvider(cfg *config.AliyunConfig) (*CertProvider, error) {
	clientConfig := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String("cas.aliyuncs.com"),
	}

	client, err := cas.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("创建阿里云CAS客户端失败: %w", err)
	}

	return &CertProvider{client: client}, nil
}

// Name 返回提供商名称
func (p *CertProvider) Name() string {
	return "aliyun"
}

// listIssued 列出已签发的证书
func (p *CertProvider) listIssued() ([]*provider.CertificateInfo, error) {
	request := &cas.ListUserCertificateOrderRequest{
		OrderType: tea.String("CERT"),
		Status:    tea.String("ISSUED"),
	}

	response, err := p.client.ListUserCertificateOrder(request)
	if err != nil {
		return nil, fmt.Errorf("获取证书列表失败: %w", err)
	}
	if response.Body == nil {
		return nil, nil
	}

	var certs []*provider.CertificateInfo
	for _, cert := range response.Body.CertificateOrderList {
		name := tea.StringValue(cert.CommonName)
		if name == "" {
			name = tea.StringValue(cert.Domain)
		}

		var notAfter time.Time
		if endTime := tea.Int64Value(cert.CertEndTime); endTime > 0 {
			notAfter = time.UnixMilli(endTime)
		}

		var sans []string
		if s := tea.StringValue(cert.Sans); s != "" {
			sans = strings.Split(s, ",")
		}

		certs = append(certs, &provider.CertificateInfo{
			CertID:   strconv.FormatInt(tea.Int64Value(cert.CertificateId), 10),
			Domain:   name,
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

	log.Printf("[阿里云] 共查询到 %d 个已签发证书", len(certs))

	for _, cert := range certs {
		matched := domain.CertCovers(cert.Domain, cert.Sans, target)
		daysRemaining := int(time.Until(cert.NotAfter).Hours() / 24)

		log.Printf("[阿里云] 证书: Domain=%s, Sans=%v, 到期: %s, 剩余: %d 天, 匹配: %v",
			cert.Domain, cert.Sans, cert.NotAfter.Format("2006-01-02"), daysRemaining, matched)

		if matched && daysRemaining > minDays {
			return cert, nil
		}
	}

	return nil, nil
}

// GetCertificateDetail 获取证书内容
func (p *CertProvider) GetCertificateDetail(ctx context.Context, certID string) (*provider.Certificate, error) {
	id, err := strconv.ParseInt(certID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("无效的证书ID %q: %w", certID, err)
	}

	request := &cas.GetUserCertificateDetailRequest{
		CertId: tea.Int64(id),
	}

	response, err := p.client.GetUserCertificateDetail(request)
	if err != nil {
		return nil, fmt.Errorf("获取证书详情失败: %w", err)
	}
	if response.Body == nil {
		return nil, fmt.Errorf("证书内容为空")
	}

	certificate := tea.StringValue(response.Body.Cert)
	privateKey := tea.StringValue(response.Body.Key)

	if certificate == "" || privateKey == "" {
		return nil, fmt.Errorf("证书内容为空")
	}

	// 阿里云返回的证书已包含证书链
	return &provider.Certificate{
		Certificate: certificate,
		PrivateKey:  privateKey,
		Chain:       certificate,
	}, nil
}
