package search

import "intern-hub/internal/model"

// redactPeople 对非公开学生档案做脱敏：邮箱置空、学生信息收敛为
// private 标记。查询者为档案本人时不脱敏；企业与管理员档案不受影响。
// 该过滤在装配之后无条件执行。
func redactPeople(people []PersonResult, viewer Viewer) {
	for i := range people {
		p := &people[i]
		if p.Role != model.RoleStudent || p.IsPublic {
			continue
		}
		if viewer.ProfileID != nil && *viewer.ProfileID == p.ProfileID {
			continue
		}
		p.Email = nil
		p.Student = &PersonStudent{Private: true}
	}
}
