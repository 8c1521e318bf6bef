package public

import "github.com/vendora-next/internal/provider"

// Handler 前台/公开接口处理器入口
// 说明：该处理器仅用于买家侧只读查询，不暴露管理操作。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
