package binding

import (
	"errors"
	"sort"
	"strings"

	"github.com/jalonsogo/figma-conveyor/internal/design"
)

// ErrTemplateNotFound 按名称找不到模板
var ErrTemplateNotFound = errors.New("template not found")

// ResolveTemplateByName 按名称（忽略大小写）查找模板
// 先在页面结构中直接查找（当前页优先，其后按文档顺序），
// 找不到时再查找任意实例替换属性当前引用的模板，用于找回只存在于外部库中的模板
func ResolveTemplateByName(tree Tree, name string) (*design.Node, bool) {
	if name == "" {
		return nil, false
	}
	pages := searchOrder(tree)

	for _, page := range pages {
		found := design.Find(page, func(n *design.Node) bool {
			return n.Kind.IsTemplateLike() && strings.EqualFold(n.Name, name)
		})
		if found != nil {
			return found, true
		}
	}

	for _, page := range pages {
		if found := findAssignedTemplate(tree, page, name); found != nil {
			return found, true
		}
	}
	return nil, false
}

// searchOrder 当前页在前，其余页面按文档顺序
func searchOrder(tree Tree) []*design.Node {
	current := tree.CurrentPage()
	pages := make([]*design.Node, 0, len(tree.AllPages())+1)
	if current != nil {
		pages = append(pages, current)
	}
	for _, page := range tree.AllPages() {
		if page != current {
			pages = append(pages, page)
		}
	}
	return pages
}

func findAssignedTemplate(tree Tree, root *design.Node, name string) *design.Node {
	var found *design.Node
	_ = design.Walk(root, design.Visitor{
		Instance: func(n *design.Node) error {
			for _, key := range sortedKeys(n.Properties) {
				value := n.Properties[key]
				if value.Type != design.PropertyInstanceSwap {
					continue
				}
				id, ok := value.Value.(string)
				if !ok {
					continue
				}
				assigned := tree.NodeByID(id)
				if assigned != nil && assigned.Kind.IsTemplateLike() && strings.EqualFold(assigned.Name, name) {
					found = assigned
					return design.StopWalk
				}
			}
			return nil
		},
	})
	return found
}

func sortedKeys(props map[string]design.PropertyValue) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
