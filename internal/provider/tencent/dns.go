package tencent

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	dnspod "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/dnspod/v20210323"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

const (
	defaultRecordLine = "默认"
	listLimit         = 3000
)

// DNSProvider 腾讯云DNS提供商 (DNSPod)
type DNSProvider struct {
	client *dnspod.Client
}

var _ provider.DNSProvider = (*DNSProvider)(nil)

// NewDNSProvider 创建腾讯云DNS提供商
func NewDNSProvider(cfg *config.TencentConfig) (*DNSProvider, error) {
	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "dnspod.tencentcloudapi.com"

	client, err := dnspod.NewClient(credential, "", cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云DNSPod客户端失败: %w", err)
	}

	return &DNSProvider{client: client}, nil
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "tencent"
}

// EnsureRecord 添加DNS记录，相同主机记录和类型已存在时更新
func (p *DNSProvider) EnsureRecord(ctx context.Context, zone string, record *provider.DNSRecord) error {
	mainDomain := domain.ExtractMainDomain(zone)
	subDomain := domain.RelativeName(domain.AbsoluteName(record.RR, zone), mainDomain)

	existing, err := p.findRecord(ctx, mainDomain, subDomain, record.Type)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Value == record.Value && (record.TTL == 0 || existing.TTL == record.TTL) {
			log.Printf("[腾讯云DNS] 记录无变化: %s.%s -> %s", subDomain, mainDomain, record.Value)
			record.RecordID = existing.RecordID
			return nil
		}
		return p.updateRecord(ctx, mainDomain, existing.RecordID, subDomain, record)
	}

	log.Printf("[腾讯云DNS] 添加记录: %s.%s -> %s (类型: %s)", subDomain, mainDomain, record.Value, record.Type)

	request := dnspod.NewCreateRecordRequest()
	request.Domain = common.StringPtr(mainDomain)
	request.SubDomain = common.StringPtr(subDomain)
	request.RecordType = common.StringPtr(record.Type)
	request.RecordLine = common.StringPtr(defaultRecordLine)
	request.Value = common.StringPtr(record.Value)
	if record.TTL > 0 {
		request.TTL = common.Uint64Ptr(uint64(record.TTL))
	}

	response, err := p.client.CreateRecordWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("添加DNS记录失败: %w", err)
	}
	if response.Response != nil && response.Response.RecordId != nil {
		record.RecordID = strconv.FormatUint(*response.Response.RecordId, 10)
	}

	log.Printf("[腾讯云DNS] 记录已添加")
	return nil
}

func (p *DNSProvider) updateRecord(ctx context.Context, mainDomain, recordID, subDomain string, record *provider.DNSRecord) error {
	log.Printf("[腾讯云DNS] 更新记录: ID=%s, %s -> %s", recordID, subDomain, record.Value)

	id, err := strconv.ParseUint(recordID, 10, 64)
	if err != nil {
		return fmt.Errorf("无效的记录ID %q: %w", recordID, err)
	}

	request := dnspod.NewModifyRecordRequest()
	request.Domain = common.StringPtr(mainDomain)
	request.RecordId = common.Uint64Ptr(id)
	request.SubDomain = common.StringPtr(subDomain)
	request.RecordType = common.StringPtr(record.Type)
	request.RecordLine = common.StringPtr(defaultRecordLine)
	request.Value = common.StringPtr(record.Value)
	if record.TTL > 0 {
		request.TTL = common.Uint64Ptr(uint64(record.TTL))
	}

	if _, err := p.client.ModifyRecordWithContext(ctx, request); err != nil {
		return fmt.Errorf("更新DNS记录失败: %w", err)
	}

	record.RecordID = recordID
	log.Printf("[腾讯云DNS] 记录已更新")
	return nil
}

// DeleteRecord 删除DNS记录
func (p *DNSProvider) DeleteRecord(ctx context.Context, zone, recordID string) error {
	mainDomain := domain.ExtractMainDomain(zone)

	log.Printf("[腾讯云DNS] 删除记录: ID=%s", recordID)

	id, err := strconv.ParseUint(recordID, 10, 64)
	if err != nil {
		return fmt.Errorf("无效的记录ID %q: %w", recordID, err)
	}

	request := dnspod.NewDeleteRecordRequest()
	request.Domain = common.StringPtr(mainDomain)
	request.RecordId = common.Uint64Ptr(id)

	if _, err := p.client.DeleteRecordWithContext(ctx, request); err != nil {
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}

	log.Printf("[腾讯云DNS] 记录已删除")
	return nil
}

func (p *DNSProvider) findRecord(ctx context.Context, mainDomain, subDomain, recordType string) (*provider.DNSRecord, error) {
	request := dnspod.NewDescribeRecordListRequest()
	request.Domain = common.StringPtr(mainDomain)
	request.Subdomain = common.StringPtr(subDomain)
	request.RecordType = common.StringPtr(recordType)

	records, err := p.describe(ctx, mainDomain, request)
	if err != nil {
		return nil, fmt.Errorf("查询DNS记录失败: %w", err)
	}

	for _, record := range records {
		if record.RR == subDomain && record.Type == recordType {
			return record, nil
		}
	}
	return nil, nil
}

// ListRecords 列出DNS记录
func (p *DNSProvider) ListRecords(ctx context.Context, zone string) ([]*provider.DNSRecord, error) {
	mainDomain := domain.ExtractMainDomain(zone)

	request := dnspod.NewDescribeRecordListRequest()
	request.Domain = common.StringPtr(mainDomain)
	request.Limit = common.Uint64Ptr(listLimit)

	records, err := p.describe(ctx, mainDomain, request)
	if err != nil {
		return nil, fmt.Errorf("获取DNS记录列表失败: %w", err)
	}
	return records, nil
}

// describe 查询记录列表，记录为空时腾讯云返回错误，这里当作空列表
func (p *DNSProvider) describe(ctx context.Context, mainDomain string, request *dnspod.DescribeRecordListRequest) ([]*provider.DNSRecord, error) {
	response, err := p.client.DescribeRecordListWithContext(ctx, request)
	if err != nil {
		if strings.Contains(err.Error(), "NoRecord") || strings.Contains(err.Error(), "记录列表为空") {
			return nil, nil
		}
		return nil, err
	}

	var records []*provider.DNSRecord
	if response.Response == nil {
		return records, nil
	}
	for _, record := range response.Response.RecordList {
		if record == nil || record.RecordId == nil {
			continue
		}
		r := &provider.DNSRecord{
			RecordID: strconv.FormatUint(*record.RecordId, 10),
			Domain:   mainDomain,
			RR:       stringValue(record.Name),
			Type:     stringValue(record.Type),
			Value:    stringValue(record.Value),
		}
		if record.TTL != nil {
			r.TTL = int(*record.TTL)
		}
		records = append(records, r)
	}
	return records, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
