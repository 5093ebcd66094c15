package core

import (
	"fmt"

	"ispconfig-manager/internal/config"
	"ispconfig-manager/internal/provider"
	"ispconfig-manager/internal/provider/aliyun"
	"ispconfig-manager/internal/provider/huawei"
	"ispconfig-manager/internal/provider/ispconfig"
	"ispconfig-manager/internal/provider/tencent"
)

// Factory 提供商工厂
type Factory struct {
	config *config.Config

	panelOptions []ispconfig.Option

	// 缓存已创建的云平台提供商实例，面板提供商每次新建
	certProviders map[string]provider.CertProvider
	dnsProviders  map[string]provider.DNSProvider
}

// NewFactory 创建工厂
func NewFactory(cfg *config.Config, opts ...ispconfig.Option) *Factory {
	return &Factory{
		config:        cfg,
		panelOptions:  opts,
		certProviders: make(map[string]provider.CertProvider),
		dnsProviders:  make(map[string]provider.DNSProvider),
	}
}

// NewPanelProvider 创建面板提供商，每个实例持有独立的会话
func (f *Factory) NewPanelProvider() (provider.PanelProvider, error) {
	switch f.config.Panel.Type {
	case config.PanelISPConfig3, "":
		return ispconfig.New(f.config.Panel, f.panelOptions...), nil
	default:
		return nil, fmt.Errorf("不支持的面板类型: %s", f.config.Panel.Type)
	}
}

// GetCertProvider 获取证书提供商
func (f *Factory) GetCertProvider(name string) (provider.CertProvider, error) {
	if p, ok := f.certProviders[name]; ok {
		return p, nil
	}

	var p provider.CertProvider
	var err error

	switch name {
	case "aliyun":
		if f.config.Providers.Aliyun == nil {
			return nil, fmt.Errorf("阿里云证书提供商未配置")
		}
		p, err = aliyun.NewCertProvider(f.config.Providers.Aliyun)

	case "tencent":
		if f.config.Providers.Tencent == nil {
			return nil, fmt.Errorf("腾讯云证书提供商未配置")
		}
		p, err = tencent.NewCertProvider(f.config.Providers.Tencent)

	case "huawei":
		if f.config.Providers.Huawei == nil {
			return nil, fmt.Errorf("华为云证书提供商未配置")
		}
		p, err = huawei.NewCertProvider(f.config.Providers.Huawei)

	default:
		return nil, fmt.Errorf("不支持的证书提供商: %s", name)
	}

	if err != nil {
		return nil, err
	}

	f.certProviders[name] = p
	return p, nil
}

// GetDNSProvider 获取DNS提供商
func (f *Factory) GetDNSProvider(name string) (provider.DNSProvider, error) {
	if p, ok := f.dnsProviders[name]; ok {
		return p, nil
	}

	var p provider.DNSProvider
	var err error

	switch name {
	case "aliyun":
		if f.config.Providers.Aliyun == nil {
			return nil, fmt.Errorf("阿里云DNS提供商未配置")
		}
		p, err = aliyun.NewDNSProvider(f.config.Providers.Aliyun)

	case "tencent":
		if f.config.Providers.Tencent == nil {
			return nil, fmt.Errorf("腾讯云DNS提供商未配置")
		}
		p, err = tencent.NewDNSProvider(f.config.Providers.Tencent)

	case "huawei":
		if f.config.Providers.Huawei == nil {
			return nil, fmt.Errorf("华为云DNS提供商未配置")
		}
		p, err = huawei.NewDNSProvider(f.config.Providers.Huawei)

	default:
		return nil, fmt.Errorf("不支持的DNS提供商: %s", name)
	}

	if err != nil {
		return nil, err
	}

	f.dnsProviders[name] = p
	return p, nil
}
