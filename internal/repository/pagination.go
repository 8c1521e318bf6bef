package repository

import "gorm.io/gorm"

// maxPageSize 仓储层兜底的单页上限，防止绕过接口层归一化的调用方拉全表
const maxPageSize = 500

// applyPagination 应用分页参数，页码与偏移量非法时落到安全值
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
