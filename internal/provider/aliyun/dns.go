package aliyun

import (
	"context"
	"fmt"
	"log"

	alidns "github.com/alibabacloud-go/alidns-20150109/v4/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

const listPageSize = 500

// DNSProvider 阿里云DNS提供商
type DNSProvider struct {
	client *alidns.Client
}

var _ provider.DNSProvider = (*DNSProvider)(nil)

// NewDNSProvider 创建阿里云DNS提供商
func NewDNSProvider(cfg *config.AliyunConfig) (*DNSProvider, error) {
	endpoint := "alidns.cn-hangzhou.aliyuncs.com"
	if cfg.Region != "" {
		endpoint = fmt.Sprintf("alidns.%s.aliyuncs.com", cfg.Region)
	}

	clientConfig := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String(endpoint),
	}

	client, err := alidns.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("创建阿里云DNS客户端失败: %w", err)
	}

	return &DNSProvider{client: client}, nil
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "aliyun"
}

// EnsureRecord 添加DNS记录，相同主机记录和类型已存在时更新
func (p *DNSProvider) EnsureRecord(ctx context.Context, zone string, record *provider.DNSRecord) error {
	mainDomain := domain.ExtractMainDomain(zone)
	rr := domain.RelativeName(domain.AbsoluteName(record.RR, zone), mainDomain)

	existing, err := p.findRecord(mainDomain, rr, record.Type)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Value == record.Value && (record.TTL == 0 || existing.TTL == record.TTL) {
			log.Printf("[阿里云DNS] 记录无变化: %s.%s -> %s", rr, mainDomain, record.Value)
			record.RecordID = existing.RecordID
			return nil
		}
		return p.updateRecord(existing.RecordID, rr, record)
	}

	log.Printf("[阿里云DNS] 添加记录: %s.%s -> %s (类型: %s)", rr, mainDomain, record.Value, record.Type)

	request := &alidns.AddDomainRecordRequest{
		DomainName: tea.String(mainDomain),
		RR:         tea.String(rr),
		Type:       tea.String(record.Type),
		Value:      tea.String(record.Value),
	}
	if record.TTL > 0 {
		request.TTL = tea.Int64(int64(record.TTL))
	}

	response, err := p.client.AddDomainRecord(request)
	if err != nil {
		return fmt.Errorf("添加DNS记录失败: %w", err)
	}
	if response.Body != nil {
		record.RecordID = tea.StringValue(response.Body.RecordId)
	}

	log.Printf("[阿里云DNS] 记录已添加")
	return nil
}

func (p *DNSProvider) updateRecord(recordID, rr string, record *provider.DNSRecord) error {
	log.Printf("[阿里云DNS] 更新记录: ID=%s, %s -> %s", recordID, rr, record.Value)

	request := &alidns.UpdateDomainRecordRequest{
		RecordId: tea.String(recordID),
		RR:       tea.String(rr),
		Type:     tea.String(record.Type),
		Value:    tea.String(record.Value),
	}
	if record.TTL > 0 {
		request.TTL = tea.Int64(int64(record.TTL))
	}

	if _, err := p.client.UpdateDomainRecord(request); err != nil {
		return fmt.Errorf("更新DNS记录失败: %w", err)
	}

	record.RecordID = recordID
	log.Printf("[阿里云DNS] 记录已更新")
	return nil
}

// DeleteRecord 删除DNS记录
func (p *DNSProvider) DeleteRecord(ctx context.Context, zone, recordID string) error {
	log.Printf("[阿里云DNS] 删除记录: ID=%s", recordID)

	request := &alidns.DeleteDomainRecordRequest{
		RecordId: tea.String(recordID),
	}

	if _, err := p.client.DeleteDomainRecord(request); err != nil {
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}

	log.Printf("[阿里云DNS] 记录已删除")
	return nil
}

// findRecord 查找主机记录和类型都相同的记录
func (p *DNSProvider) findRecord(mainDomain, rr, recordType string) (*provider.DNSRecord, error) {
	request := &alidns.DescribeDomainRecordsRequest{
		DomainName: tea.String(mainDomain),
		RRKeyWord:  tea.String(rr),
		Type:       tea.String(recordType),
	}

	response, err := p.client.DescribeDomainRecords(request)
	if err != nil {
		return nil, fmt.Errorf("查询DNS记录失败: %w", err)
	}

	for _, record := range toRecords(mainDomain, response) {
		if record.RR == rr && record.Type == recordType {
			return record, nil
		}
	}
	return nil, nil
}

// ListRecords 列出DNS记录
func (p *DNSProvider) ListRecords(ctx context.Context, zone string) ([]*provider.DNSRecord, error) {
	mainDomain := domain.ExtractMainDomain(zone)

	request := &alidns.DescribeDomainRecordsRequest{
		DomainName: tea.String(mainDomain),
		PageSize:   tea.Int64(listPageSize),
	}

	response, err := p.client.DescribeDomainRecords(request)
	if err != nil {
		return nil, fmt.Errorf("获取DNS记录列表失败: %w", err)
	}

	return toRecords(mainDomain, response), nil
}

func toRecords(mainDomain string, response *alidns.DescribeDomainRecordsResponse) []*provider.DNSRecord {
	var records []*provider.DNSRecord
	if response == nil || response.Body == nil || response.Body.DomainRecords == nil {
		return records
	}
	for _, record := range response.Body.DomainRecords.Record {
		records = append(records, &provider.DNSRecord{
			RecordID: tea.StringValue(record.RecordId),
			Domain:   mainDomain,
			RR:       tea.StringValue(record.RR),
			Type:     tea.StringValue(record.Type),
			Value:    tea.StringValue(record.Value),
			TTL:      int(tea.Int64Value(record.TTL)),
		})
	}
	return records
}
