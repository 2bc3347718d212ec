package adapter

import (
	"fmt"
	"sort"

	"ChannelSnapshot/internal/config"
	"ChannelSnapshot/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ========== 全局工厂函数注册表 ==========
var factoryRegistry = make(map[string]interfaces.Factory)

// Register 供数据源包的 init 调用，注册工厂函数
func Register(source string, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源%s的工厂函数不能为nil", source))
	}
	if _, exists := factoryRegistry[source]; exists {
		logrus.Warnf("数据源%s已注册，将覆盖原有实现", source)
	}
	factoryRegistry[source] = factory
}

// GetFactory 获取指定数据源的工厂函数
func GetFactory(source string) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[source]
	return factory, ok
}

// ListFactories 列出所有已注册的数据源（按名称排序）
func ListFactories() []string {
	sources := make([]string, 0, len(factoryRegistry))
	for s := range factoryRegistry {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}

// NewSource 按配置中的 snapshot.source 创建数据源实例
func NewSource(cfg *config.Config, logger *logrus.Logger) (interfaces.CatalogSource, error) {
	factory, ok := GetFactory(cfg.Snapshot.Source)
	if !ok {
		return nil, fmt.Errorf("未支持的数据源: %s（已注册：%v）", cfg.Snapshot.Source, ListFactories())
	}
	source := factory(&cfg.YouTube, logger)
	if source == nil {
		return nil, fmt.Errorf("数据源%s工厂函数返回nil", cfg.Snapshot.Source)
	}
	return source, nil
}
