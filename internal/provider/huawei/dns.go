package huawei

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/basic"
	dns "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2"
	dnsModel "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2/model"
	dnsRegion "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/dns/v2/region"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/domain"
	"ispconfig-manager/internal/provider"
)

const defaultRegion = "cn-north-4"

// DNSProvider 华为云DNS提供商
type DNSProvider struct {
	client *dns.DnsClient
}

var _ provider.DNSProvider = (*DNSProvider)(nil)

// NewDNSProvider 创建华为云DNS提供商
func NewDNSProvider(cfg *config.HuaweiConfig) (*DNSProvider, error) {
	auth := basic.NewCredentialsBuilder().
		WithAk(cfg.AccessKey).
		WithSk(cfg.SecretKey).
		Build()

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	regionObj, err := dnsRegion.SafeValueOf(region)
	if err != nil {
		return nil, fmt.Errorf("无效的区域: %s", region)
	}

	client := dns.NewDnsClient(
		dns.DnsClientBuilder().
			WithRegion(regionObj).
			WithCredential(auth).
			Build())

	return &DNSProvider{client: client}, nil
}

// Name 返回提供商名称
func (p *DNSProvider) Name() string {
	return "huawei"
}

// getZoneID 获取主域名的Zone ID
func (p *DNSProvider) getZoneID(mainDomain string) (string, error) {
	response, err := p.client.ListPublicZones(&dnsModel.ListPublicZonesRequest{})
	if err != nil {
		return "", fmt.Errorf("获取Zone列表失败: %w", err)
	}

	if response.Zones != nil {
		for _, zone := range *response.Zones {
			if zone.Name != nil && zone.Id != nil && domain.Normalize(*zone.Name) == mainDomain {
				return *zone.Id, nil
			}
		}
	}

	return "", fmt.Errorf("未找到域名 %s 的Zone", mainDomain)
}

// recordName 华为云记录名为带末尾点的完整域名
func recordName(rr, mainDomain string) string {
	return domain.AbsoluteName(rr, mainDomain) + "."
}

// EnsureRecord 添加DNS记录，相同记录名和类型已存在时更新
func (p *DNSProvider) EnsureRecord(ctx context.Context, zone string, record *provider.DNSRecord) error {
	mainDomain := domain.ExtractMainDomain(zone)
	name := recordName(domain.RelativeName(domain.AbsoluteName(record.RR, zone), mainDomain), mainDomain)

	zoneID, err := p.getZoneID(mainDomain)
	if err != nil {
		return err
	}

	existing, err := p.findRecord(zoneID, mainDomain, name, record.Type)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Value == record.Value && (record.TTL == 0 || existing.TTL == record.TTL) {
			log.Printf("[华为云DNS] 记录无变化: %s -> %s", name, record.Value)
			record.RecordID = existing.RecordID
			return nil
		}
		return p.updateRecord(zoneID, existing.RecordID, name, record)
	}

	log.Printf("[华为云DNS] 添加记录: %s -> %s (类型: %s)", name, record.Value, record.Type)

	body := &dnsModel.CreateRecordSetRequestBody{
		Name:    name,
		Type:    record.Type,
		Records: []string{record.Value},
	}
	if record.TTL > 0 {
		ttl := int32(record.TTL)
		body.Ttl = &ttl
	}

	response, err := p.client.CreateRecordSet(&dnsModel.CreateRecordSetRequest{
		ZoneId: zoneID,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("添加DNS记录失败: %w", err)
	}
	if response.Id != nil {
		record.RecordID = *response.Id
	}

	log.Printf("[华为云DNS] 记录已添加")
	return nil
}

func (p *DNSProvider) updateRecord(zoneID, recordID, name string, record *provider.DNSRecord) error {
	log.Printf("[华为云DNS] 更新记录: ID=%s, %s -> %s", recordID, name, record.Value)

	recordType := record.Type
	body := &dnsModel.UpdateRecordSetReq{
		Name:    &name,
		Type:    &recordType,
		Records: &[]string{record.Value},
	}
	if record.TTL > 0 {
		ttl := int32(record.TTL)
		body.Ttl = &ttl
	}

	_, err := p.client.UpdateRecordSet(&dnsModel.UpdateRecordSetRequest{
		ZoneId:      zoneID,
		RecordsetId: recordID,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("更新DNS记录失败: %w", err)
	}

	record.RecordID = recordID
	log.Printf("[华为云DNS] 记录已更新")
	return nil
}

// DeleteRecord 删除DNS记录
func (p *DNSProvider) DeleteRecord(ctx context.Context, zone, recordID string) error {
	log.Printf("[华为云DNS] 删除记录: ID=%s", recordID)

	zoneID, err := p.getZoneID(domain.ExtractMainDomain(zone))
	if err != nil {
		return err
	}

	_, err = p.client.DeleteRecordSet(&dnsModel.DeleteRecordSetRequest{
		ZoneId:      zoneID,
		RecordsetId: recordID,
	})
	if err != nil {
		return fmt.Errorf("删除DNS记录失败: %w", err)
	}

	log.Printf("[华为云DNS] 记录已删除")
	return nil
}

func (p *DNSProvider) findRecord(zoneID, mainDomain, name, recordType string) (*provider.DNSRecord, error) {
	request := &dnsModel.ListRecordSetsByZoneRequest{
		ZoneId: zoneID,
		Name:   &name,
		Type:   &recordType,
	}

	records, err := p.list(request, mainDomain)
	if err != nil {
		return nil, fmt.Errorf("查询DNS记录失败: %w", err)
	}

	rr := domain.RelativeName(name, mainDomain)
	for _, record := range records {
		if record.RR == rr && strings.EqualFold(record.Type, recordType) {
			return record, nil
		}
	}
	return nil, nil
}

// ListRecords 列出DNS记录
func (p *DNSProvider) ListRecords(ctx context.Context, zone string) ([]*provider.DNSRecord, error) {
	mainDomain := domain.ExtractMainDomain(zone)

	zoneID, err := p.getZoneID(mainDomain)
	if err != nil {
		return nil, err
	}

	records, err := p.list(&dnsModel.ListRecordSetsByZoneRequest{ZoneId: zoneID}, mainDomain)
	if err != nil {
		return nil, fmt.Errorf("获取DNS记录列表失败: %w", err)
	}
	return records, nil
}

func (p *DNSProvider) list(request *dnsModel.ListRecordSetsByZoneRequest, mainDomain string) ([]*provider.DNSRecord, error) {
	response, err := p.client.ListRecordSetsByZone(request)
	if err != nil {
		return nil, err
	}

	var records []*provider.DNSRecord
	if response.Recordsets == nil {
		return records, nil
	}
	for _, recordSet := range *response.Recordsets {
		if recordSet.Id == nil {
			continue
		}

		record := &provider.DNSRecord{
			RecordID: *recordSet.Id,
			Domain:   mainDomain,
		}
		if recordSet.Name != nil {
			record.RR = domain.RelativeName(*recordSet.Name, mainDomain)
		}
		if recordSet.Type != nil {
			record.Type = *recordSet.Type
		}
		if recordSet.Records != nil && len(*recordSet.Records) > 0 {
			record.Value = (*recordSet.Records)[0]
		}
		if recordSet.Ttl != nil {
			record.TTL = int(*recordSet.Ttl)
		}
		records = append(records, record)
	}
	return records, nil
}
