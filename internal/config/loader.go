package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PanelISPConfig3 ISPConfig 3 面板类型
const PanelISPConfig3 = "ispconfig3"

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	if config.Panel.Type == "" {
		config.Panel.Type = PanelISPConfig3
	}
	if config.OutputDir == "" {
		config.OutputDir = "./accounts"
	}
	if config.DNSMirror != nil && config.DNSMirror.TTL <= 0 {
		config.DNSMirror.TTL = 600
	}
	if config.SSL != nil && config.SSL.MinDays <= 0 {
		config.SSL.MinDays = 7
	}

	// 验证配置
	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate 验证配置
func validate(config *Config) error {
	panel := config.Panel

	switch panel.Type {
	case PanelISPConfig3:
	default:
		return fmt.Errorf("不支持的面板类型: %s", panel.Type)
	}

	if panel.Host == "" {
		return fmt.Errorf("panel.host 未配置")
	}
	if panel.Port < 0 || panel.Port > 65535 {
		return fmt.Errorf("panel.port 无效: %d", panel.Port)
	}
	if panel.Username == "" || panel.Password == "" {
		return fmt.Errorf("面板远程用户凭证不完整")
	}

	if config.DNSMirror != nil {
		if err := validateProviderConfig(config, config.DNSMirror.Provider, "DNS"); err != nil {
			return fmt.Errorf("dns_mirror: %w", err)
		}
	}

	if config.SSL != nil {
		if err := validateProviderConfig(config, config.SSL.CertProvider, "证书"); err != nil {
			return fmt.Errorf("ssl: %w", err)
		}
	}

	if config.Webhook != nil && config.Webhook.Enabled && config.Webhook.URL == "" {
		return fmt.Errorf("webhook 已启用但未配置 url")
	}

	return nil
}

// validateProviderConfig 验证提供商配置是否存在
func validateProviderConfig(config *Config, providerName, providerType string) error {
	switch providerName {
	case "aliyun":
		if config.Providers.Aliyun == nil {
			return fmt.Errorf("%s提供商 aliyun 未配置凭证", providerType)
		}
		if config.Providers.Aliyun.AccessKeyID == "" || config.Providers.Aliyun.AccessKeySecret == "" {
			return fmt.Errorf("aliyun 凭证不完整")
		}
	case "tencent":
		if config.Providers.Tencent == nil {
			return fmt.Errorf("%s提供商 tencent 未配置凭证", providerType)
		}
		if config.Providers.Tencent.SecretID == "" || config.Providers.Tencent.SecretKey == "" {
			return fmt.Errorf("tencent 凭证不完整")
		}
	case "huawei":
		if config.Providers.Huawei == nil {
			return fmt.Errorf("%s提供商 huawei 未配置凭证", providerType)
		}
		if config.Providers.Huawei.AccessKey == "" || config.Providers.Huawei.SecretKey == "" {
			return fmt.Errorf("huawei 凭证不完整")
		}
	default:
		return fmt.Errorf("不支持的%s提供商: %s", providerType, providerName)
	}
	return nil
}
