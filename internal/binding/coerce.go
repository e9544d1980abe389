package binding

import "strings"

var (
	trueLiterals = map[string]bool{
		"true": true, "yes": true, "1": true, "on": true, "enabled": true, "active": true,
	}
	falseLiterals = map[string]bool{
		"false": true, "no": true, "0": true, "off": true, "disabled": true, "inactive": true,
	}
)

// ParseBoolean 三态解析：第二个返回值表示是否识别该字面量
func ParseBoolean(cell string) (value bool, recognized bool) {
	lower := strings.ToLower(strings.TrimSpace(cell))
	switch {
	case trueLiterals[lower]:
		return true, true
	case falseLiterals[lower]:
		return false, true
	default:
		return false, false
	}
}

// ToBoolean 将单元格转换为布尔值，无法识别的内容一律视为 false
func ToBoolean(cell string) bool {
	value, _ := ParseBoolean(cell)
	return value
}

// ToVariant 将单元格转换为变体选项
// 仅当选项同时包含 "yes" 和 "no" 时才把布尔同义词映射为 yes/no，其余情况原样透传，不校验
func ToVariant(cell string, options []string) string {
	trimmed := strings.TrimSpace(cell)
	if !hasYesNo(options) {
		return trimmed
	}
	if value, ok := ParseBoolean(trimmed); ok {
		if value {
			return "yes"
		}
		return "no"
	}
	return trimmed
}

func hasYesNo(options []string) bool {
	var yes, no bool
	for _, o := range options {
		switch o {
		case "yes":
			yes = true
		case "no":
			no = true
		}
	}
	return yes && no
}
