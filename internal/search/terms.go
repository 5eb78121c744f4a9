package search

import (
	"errors"
	"strings"
)

// ErrShortQuery 查询过短时返回，API 层据此回 400。
var ErrShortQuery = errors.New("search query must be at least 2 characters")

// query 表示解析后的检索请求。
// - terms: 去重后的模糊匹配词（原词 + 去掉 @ 前缀的词）
// - exact: 用于用户名精确匹配的归一化词
// - usernameIntent: 以 @ 开头视为用户名检索意图
type query struct {
	terms          []string
	exact          string
	usernameIntent bool
}

// parseQuery 校验并拆解检索词，不足两个字符时返回 ErrShortQuery。
func parseQuery(raw string) (query, error) {
	trimmed := strings.TrimSpace(raw)
	if len([]rune(trimmed)) < 2 {
		return query{}, ErrShortQuery
	}

	stripped := strings.TrimPrefix(trimmed, "@")
	q := query{
		exact:          stripped,
		usernameIntent: stripped != trimmed,
	}

	seen := make(map[string]struct{}, 2)
	for _, term := range []string{trimmed, stripped} {
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		q.terms = append(q.terms, term)
	}
	return q, nil
}
