package binding

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// NotFound MatchColumn 未命中时的返回值
const NotFound = -1

// MatchColumn 返回第一个与 name 匹配的列下标
// 两侧都必须非空，比较前统一小写并去除首尾空白；重复列名时先到先得
func MatchColumn(columns []string, name string) int {
	if name == "" {
		return NotFound
	}
	target := normalizeName(name)
	for i, column := range columns {
		if column == "" {
			continue
		}
		if normalizeName(column) == target {
			return i
		}
	}
	return NotFound
}

// ClosestColumn 模糊匹配最接近的列名，仅用于日志提示
func ClosestColumn(columns []string, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || len(columns) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, columns)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
