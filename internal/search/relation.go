package search

import "intern-hub/internal/model"

// 底层查询路径对同一关系可能返回单体指针或切片。所有下游映射
// 必须经过这里的归一化助手读取关系，禁止直接访问关系字段。

// firstOrNil 返回切片首元素，空切片返回 nil。
func firstOrNil[T any](items []T) *T {
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}

// toSlice 把可能为 nil 的切片归一化为非 nil 切片。
func toSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// firstOf 归一化同一关系的两种形态：优先单体指针，缺失时退回切片首元素。
func firstOf[T any](single *T, many []T) *T {
	if single != nil {
		return single
	}
	return firstOrNil(many)
}

// companyUsername 解析企业的用户名：两条查询路径分别填充 Profile 与
// Profiles，任一存在即可，均缺失时返回 nil。
func companyUsername(c model.Company) *string {
	if p := firstOf(c.Profile, c.Profiles); p != nil {
		return p.Username
	}
	return nil
}
