package data

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"kire/cmd/routing-engine/internal/conf"
	"kire/cmd/routing-engine/internal/domain"
)

// HTTPProviderProbe 通过健康端点探测提供商
// 探测错误的语义由调用方解释：
//   - 2xx 返回nil（存活）
//   - 5xx 返回ErrProviderUnhealthy（提供商明确报告不可用）
//   - 网络失败/超时返回原始错误（健康状态未知）
type HTTPProviderProbe struct {
	client *http.Client

	mu   sync.RWMutex
	urls map[string]string
}

// NewHTTPProviderProbe 创建HTTP探测器
func NewHTTPProviderProbe(providers []conf.ProviderConfig, timeout time.Duration) *HTTPProviderProbe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	p := &HTTPProviderProbe{
		client: &http.Client{Timeout: timeout},
		urls:   make(map[string]string),
	}
	p.UpdateEndpoints(providers)
	return p
}

// UpdateEndpoints 换入新的健康端点表（随提供商表热更新）
func (p *HTTPProviderProbe) UpdateEndpoints(providers []conf.ProviderConfig) {
	urls := make(map[string]string, len(providers))
	for _, provider := range providers {
		if provider.HealthURL != "" {
			urls[provider.Name] = provider.HealthURL
		}
	}

	p.mu.Lock()
	p.urls = urls
	p.mu.Unlock()
}

// Probe 探测提供商存活
func (p *HTTPProviderProbe) Probe(ctx context.Context, provider string) error {
	p.mu.RLock()
	url, ok := p.urls[provider]
	p.mu.RUnlock()

	if !ok {
		// 未配置健康端点：无法判定
		return fmt.Errorf("no health endpoint configured for provider %q", provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: provider %q returned %d", domain.ErrProviderUnhealthy, provider, resp.StatusCode)
	default:
		return fmt.Errorf("unexpected probe status %d from provider %q", resp.StatusCode, provider)
	}
}
