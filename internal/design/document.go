package design

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Document 设计文档：页面树、外部模板库、当前选区与视口
type Document struct {
	Name          string   `json:"name"`
	Pages         []*Node  `json:"pages"`
	Library       []*Node  `json:"library,omitempty"` // 外部引入的模板，不在任何页面上
	CurrentPageID string   `json:"current_page_id,omitempty"`
	Selection     []string `json:"selection,omitempty"`
	Viewport      Rect     `json:"viewport"`
	Fonts         []string `json:"fonts,omitempty"` // 可用字体，为空表示不限制

	index       map[string]*Node
	loadedFonts map[string]bool
}

// Parse 解析文档 JSON 并建立节点索引
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if err := doc.Reindex(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Marshal 序列化文档
func (d *Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// Reindex 重建父指针与 id 索引，缺失 id 的节点自动补齐
func (d *Document) Reindex() error {
	if len(d.Pages) == 0 {
		return ErrNoPages
	}
	d.index = make(map[string]*Node)
	for _, page := range d.Pages {
		if page.Kind == "" {
			page.Kind = KindPage
		}
		if page.Kind != KindPage {
			return fmt.Errorf("top-level node %q is %s, expected %s", page.Name, page.Kind, KindPage)
		}
		page.parent = nil
		if err := d.register(page); err != nil {
			return err
		}
	}
	for _, n := range d.Library {
		n.parent = nil
		if err := d.register(n); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) register(n *Node) error {
	if d.index == nil {
		d.index = make(map[string]*Node)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, exists := d.index[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
	}
	d.index[n.ID] = n
	for _, child := range n.Children {
		child.parent = n
		if err := d.register(child); err != nil {
			return err
		}
	}
	return nil
}

// NodeByID 按 id 查找节点，包括外部模板库
func (d *Document) NodeByID(id string) *Node {
	if id == "" || d.index == nil {
		return nil
	}
	return d.index[id]
}

// AllPages 按文档顺序返回全部页面
func (d *Document) AllPages() []*Node {
	return d.Pages
}

// CurrentPage 当前页面，未指定时取第一页
func (d *Document) CurrentPage() *Node {
	for _, page := range d.Pages {
		if page.ID == d.CurrentPageID {
			return page
		}
	}
	if len(d.Pages) > 0 {
		return d.Pages[0]
	}
	return nil
}

// SelectedNodes 当前选区中仍然存在的节点
func (d *Document) SelectedNodes() []*Node {
	nodes := make([]*Node, 0, len(d.Selection))
	for _, id := range d.Selection {
		if n := d.NodeByID(id); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// SetSelection 替换当前选区
func (d *Document) SetSelection(nodes []*Node) {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			ids = append(ids, n.ID)
		}
	}
	d.Selection = ids
}

// ScrollAndZoomIntoView 将视口调整为刚好包含给定节点
func (d *Document) ScrollAndZoomIntoView(nodes []*Node) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		if n == nil {
			continue
		}
		b := n.Bounds()
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.Width)
		maxY = math.Max(maxY, b.Y+b.Height)
	}
	if math.IsInf(minX, 1) {
		return
	}
	d.Viewport = Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// MainComponent 实例对应的源模板，找不到时返回 nil
func (d *Document) MainComponent(instance *Node) *Node {
	if instance == nil || instance.Kind != KindInstance {
		return nil
	}
	main := d.NodeByID(instance.MainComponentID)
	if main == nil || main.Kind != KindTemplate {
		return nil
	}
	return main
}

// Definitions 模板的属性定义；模板集合中的变体由集合持有定义
func (d *Document) Definitions(template *Node) map[string]PropertyDefinition {
	if template == nil {
		return nil
	}
	if template.IsVariant() {
		return template.parent.Definitions
	}
	if template.Kind.IsTemplateLike() {
		return template.Definitions
	}
	return nil
}
