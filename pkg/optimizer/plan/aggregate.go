package plan

import "github.com/kasuganosora/dmlexec/pkg/types"

// AggregateConfig 聚合配置
type AggregateConfig struct {
	AggFuncs    []*types.AggregationItem
	GroupByCols []string
}
