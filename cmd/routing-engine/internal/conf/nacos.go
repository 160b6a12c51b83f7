package conf

import (
	"fmt"
	"strings"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/spf13/viper"
)

// ProviderWatcher 从Nacos拉取提供商表并监听变更
// 变更回调收到完整的新表，调用方整表换入
type ProviderWatcher struct {
	client config_client.IConfigClient
	config NacosConfig
}

// NewProviderWatcher 创建提供商表监听器
func NewProviderWatcher(cfg NacosConfig) (*ProviderWatcher, error) {
	serverConfigs := []constant.ServerConfig{
		*constant.NewServerConfig(
			cfg.Addr,
			cfg.Port,
			constant.WithContextPath("/nacos"),
		),
	}

	clientConfig := *constant.NewClientConfig(
		constant.WithNamespaceId(cfg.Namespace),
		constant.WithTimeoutMs(5000),
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogDir("/tmp/nacos/log"),
		constant.WithCacheDir("/tmp/nacos/cache"),
		constant.WithLogLevel("info"),
	)

	client, err := clients.NewConfigClient(
		vo.NacosClientParam{
			ClientConfig:  &clientConfig,
			ServerConfigs: serverConfigs,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create nacos client failed: %w", err)
	}

	return &ProviderWatcher{client: client, config: cfg}, nil
}

// Fetch 拉取当前提供商表
func (w *ProviderWatcher) Fetch() ([]ProviderConfig, error) {
	content, err := w.client.GetConfig(vo.ConfigParam{
		DataId: w.config.DataID,
		Group:  w.config.Group,
	})
	if err != nil {
		return nil, fmt.Errorf("get provider table from nacos failed: %w", err)
	}

	return parseProviderTable(content)
}

// Watch 监听提供商表变更
func (w *ProviderWatcher) Watch(onChange func([]ProviderConfig)) error {
	return w.client.ListenConfig(vo.ConfigParam{
		DataId: w.config.DataID,
		Group:  w.config.Group,
		OnChange: func(namespace, group, dataID, data string) {
			providers, err := parseProviderTable(data)
			if err != nil {
				// 坏表不换入，继续用上一版
				return
			}
			onChange(providers)
		},
	})
}

// parseProviderTable 解析yaml格式的提供商表
func parseProviderTable(content string) ([]ProviderConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("parse provider table failed: %w", err)
	}

	var table struct {
		Providers []ProviderConfig `mapstructure:"providers"`
	}
	if err := v.Unmarshal(&table); err != nil {
		return nil, fmt.Errorf("unmarshal provider table failed: %w", err)
	}

	return table.Providers, nil
}
