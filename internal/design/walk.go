package design

import "errors"

var (
	// SkipChildren 访问函数返回该值时不再进入当前节点的子树
	SkipChildren = errors.New("skip children")
	// StopWalk 访问函数返回该值时立即结束遍历，Walk 返回 nil
	StopWalk = errors.New("stop walk")
)

// VisitFunc 单个节点的访问函数
type VisitFunc func(n *Node) error

// Visitor 按节点类型分派的访问器，未设置的分支直接跳过
type Visitor struct {
	Page        VisitFunc
	Template    VisitFunc
	TemplateSet VisitFunc
	Instance    VisitFunc
	Text        VisitFunc
	Other       VisitFunc
}

func (v Visitor) funcFor(kind NodeKind) VisitFunc {
	switch kind {
	case KindPage:
		return v.Page
	case KindTemplate:
		return v.Template
	case KindTemplateSet:
		return v.TemplateSet
	case KindInstance:
		return v.Instance
	case KindText:
		return v.Text
	default:
		return v.Other
	}
}

// Walk 深度优先先序遍历 root 及其全部后代
// 访问函数返回的其它错误会中断遍历并原样返回
func Walk(root *Node, v Visitor) error {
	err := walk(root, v)
	if errors.Is(err, StopWalk) {
		return nil
	}
	return err
}

func walk(n *Node, v Visitor) error {
	if n == nil {
		return nil
	}
	if fn := v.funcFor(n.Kind); fn != nil {
		if err := fn(n); err != nil {
			if errors.Is(err, SkipChildren) {
				return nil
			}
			return err
		}
	}
	for _, child := range n.Children {
		if err := walk(child, v); err != nil {
			return err
		}
	}
	return nil
}

// Find 返回先序遍历中第一个满足 match 的节点
func Find(root *Node, match func(n *Node) bool) *Node {
	var found *Node
	visit := func(n *Node) error {
		if match(n) {
			found = n
			return StopWalk
		}
		return nil
	}
	_ = Walk(root, Visitor{
		Page:        visit,
		Template:    visit,
		TemplateSet: visit,
		Instance:    visit,
		Text:        visit,
		Other:       visit,
	})
	return found
}
