package design

// NodeKind 节点类型，封闭集合
type NodeKind string

const (
	KindPage        NodeKind = "PAGE"         // 页面（顶层容器）
	KindTemplate    NodeKind = "TEMPLATE"     // 可复用模板
	KindTemplateSet NodeKind = "TEMPLATE_SET" // 模板变体集合
	KindInstance    NodeKind = "INSTANCE"     // 模板实例
	KindText        NodeKind = "TEXT"         // 文本字段
	KindGroup       NodeKind = "GROUP"        // 普通容器
)

// IsTemplateLike 是否为模板或模板集合
func (k NodeKind) IsTemplateLike() bool {
	return k == KindTemplate || k == KindTemplateSet
}

// PropertyType 类型化属性的种类
type PropertyType string

const (
	PropertyText         PropertyType = "TEXT"
	PropertyBoolean      PropertyType = "BOOLEAN"
	PropertyVariant      PropertyType = "VARIANT"
	PropertyInstanceSwap PropertyType = "INSTANCE_SWAP"
)

// PropertyDefinition 模板声明的属性定义
// Key 的格式可能是 "名称#消歧后缀"，Name 为空时需要从 Key 中恢复名称
type PropertyDefinition struct {
	Name           string       `json:"name,omitempty"`
	Type           PropertyType `json:"type"`
	DefaultValue   any          `json:"default_value,omitempty"`
	VariantOptions []string     `json:"variant_options,omitempty"`
}

// HasOption 判断变体选项中是否包含给定值（大小写敏感）
func (d PropertyDefinition) HasOption(option string) bool {
	for _, o := range d.VariantOptions {
		if o == option {
			return true
		}
	}
	return false
}

// PropertyValue 实例上的属性当前值
type PropertyValue struct {
	Type  PropertyType `json:"type"`
	Value any          `json:"value"`
}

// Rect 矩形区域
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node 设计文档中的节点
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Children []*Node  `json:"children,omitempty"`

	// 文本字段
	Characters string `json:"characters,omitempty"`
	FontName   string `json:"font_name,omitempty"`

	// 实例
	MainComponentID string                   `json:"main_component_id,omitempty"`
	Properties      map[string]PropertyValue `json:"properties,omitempty"`

	// 模板 / 模板集合
	Definitions map[string]PropertyDefinition `json:"definitions,omitempty"`

	parent *Node
}

// Parent 返回父节点，顶层节点返回 nil
func (n *Node) Parent() *Node {
	return n.parent
}

// AppendChild 追加子节点并维护父指针
func (n *Node) AppendChild(child *Node) {
	child.parent = n
	n.Children = append(n.Children, child)
}

// Bounds 节点在所属页面内的区域
func (n *Node) Bounds() Rect {
	return Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// IsVariant 是否为模板集合中的一个变体
func (n *Node) IsVariant() bool {
	return n.Kind == KindTemplate && n.parent != nil && n.parent.Kind == KindTemplateSet
}

// FirstVariant 模板集合的第一个变体，非集合或为空时返回 nil
func (n *Node) FirstVariant() *Node {
	if n.Kind != KindTemplateSet {
		return nil
	}
	for _, child := range n.Children {
		if child.Kind == KindTemplate {
			return child
		}
	}
	return nil
}
