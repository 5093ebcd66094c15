package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ispconfig-manager/internal/provider"
)

// AccountFile 账户描述文件
type AccountFile struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Domain   string `yaml:"domain"`
	IP       string `yaml:"ip"`
	NS1      string `yaml:"ns1"`
	NS2      string `yaml:"ns2"`
	Note     string `yaml:"note,omitempty"`
	Reseller bool   `yaml:"reseller,omitempty"`

	Client  ClientFile  `yaml:"client"`
	Package PackageFile `yaml:"package"`

	PostCommand string `yaml:"post_command,omitempty"` // 覆盖全局后置命令
}

// ClientFile 客户资料
type ClientFile struct {
	Company   string `yaml:"company,omitempty"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Street    string `yaml:"street,omitempty"`
	Zip       string `yaml:"zip,omitempty"`
	City      string `yaml:"city,omitempty"`
	State     string `yaml:"state,omitempty"`
	Country   string `yaml:"country,omitempty"`
	Telephone string `yaml:"telephone,omitempty"`
	Www       string `yaml:"www,omitempty"`
}

// PackageFile 套餐
type PackageFile struct {
	Name      string            `yaml:"name"`
	Quota     int               `yaml:"quota"`
	Bandwidth int               `yaml:"bandwidth"`
	Custom    map[string]string `yaml:"custom,omitempty"`
}

// LoadAccount 加载账户描述文件
func LoadAccount(path string) (*AccountFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取账户文件失败: %w", err)
	}

	var file AccountFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析账户文件失败: %w", err)
	}

	if file.Username == "" {
		return nil, fmt.Errorf("账户文件 %s 缺少 username", path)
	}
	if file.Domain == "" {
		return nil, fmt.Errorf("账户文件 %s 缺少 domain", path)
	}

	return &file, nil
}

// Account 转换为开通使用的账户
func (f *AccountFile) Account() *provider.Account {
	return &provider.Account{
		Username: f.Username,
		Password: f.Password,
		Domain:   f.Domain,
		IP:       f.IP,
		NS1:      f.NS1,
		NS2:      f.NS2,
		Note:     f.Note,
		Reseller: f.Reseller,
		Client: &provider.Client{
			Company:   f.Client.Company,
			FirstName: f.Client.FirstName,
			LastName:  f.Client.LastName,
			Email:     f.Client.Email,
			Street:    f.Client.Street,
			Zip:       f.Client.Zip,
			City:      f.Client.City,
			State:     f.Client.State,
			Country:   f.Client.Country,
			Telephone: f.Client.Telephone,
			Www:       f.Client.Www,
		},
		Package: &provider.Package{
			Name:         f.Package.Name,
			Quota:        f.Package.Quota,
			Bandwidth:    f.Package.Bandwidth,
			CustomValues: f.Package.Custom,
		},
	}
}
