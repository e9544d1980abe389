package binding

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/jalonsogo/figma-conveyor/internal/design"
)

// Binder 将一行表格数据写入一份模板副本
type Binder struct {
	tree Tree
}

// NewBinder 创建绑定器
func NewBinder(tree Tree) *Binder {
	return &Binder{tree: tree}
}

// PropertyName 恢复属性的逻辑名称：优先使用声明的名称，否则去掉 key 中 "#" 之后的后缀
func PropertyName(key string, def design.PropertyDefinition) string {
	if def.Name != "" {
		return def.Name
	}
	name, _, _ := strings.Cut(key, "#")
	return name
}

// BindProperties 递归处理 root 及其所有嵌套实例的类型化属性
// 单个属性写入失败只记录在结果中，不影响兄弟属性和后代节点
func (b *Binder) BindProperties(root *design.Node, columns []string, row Row) Report {
	var report Report
	_ = design.Walk(root, design.Visitor{
		Instance: func(n *design.Node) error {
			b.bindInstance(n, columns, row, &report)
			return nil
		},
	})
	return report
}

func (b *Binder) bindInstance(n *design.Node, columns []string, row Row, report *Report) {
	if len(n.Properties) == 0 {
		return
	}
	main := b.tree.MainComponent(n)
	if main == nil {
		klog.V(6).Infof("实例没有可解析的源模板，跳过属性: instance=%s", n.Name)
		return
	}
	defs := b.tree.Definitions(main)
	if len(defs) == 0 {
		klog.V(6).Infof("源模板没有属性定义，跳过属性: instance=%s, template=%s", n.Name, main.Name)
		return
	}

	for _, key := range sortedKeys(n.Properties) {
		live := n.Properties[key]
		def, ok := defs[key]
		if !ok {
			continue
		}
		name := PropertyName(key, def)
		if live.Type != def.Type {
			klog.V(6).Infof("属性种类不一致，跳过: %s live=%s declared=%s", name, live.Type, def.Type)
			continue
		}

		index := MatchColumn(columns, name)
		if index == NotFound {
			if hint := ClosestColumn(columns, name); hint != "" {
				klog.V(6).Infof("属性没有匹配的列: %s (最接近: %q)", name, hint)
			}
			continue
		}
		cell, ok := row.Cell(index)
		if !ok {
			continue
		}
		cell = strings.TrimSpace(cell)

		value, err := b.coerce(n, name, def, cell, report)
		if err != nil {
			klog.Warningf("属性取值失败: instance=%s, property=%s, err=%v", n.Name, name, err)
			report.fail(n, name, err)
			continue
		}
		if err := b.tree.SetProperty(n, key, value); err != nil {
			klog.Warningf("属性写入失败: instance=%s, property=%s, err=%v", n.Name, name, err)
			report.fail(n, name, err)
			continue
		}
		report.PropertiesSet++
		klog.V(6).Infof("属性已更新: %s = %v", name, value)
	}
}

func (b *Binder) coerce(n *design.Node, name string, def design.PropertyDefinition, cell string, report *Report) (any, error) {
	switch def.Type {
	case design.PropertyText:
		return cell, nil
	case design.PropertyBoolean:
		if _, recognized := ParseBoolean(cell); !recognized {
			report.Notes = append(report.Notes, fmt.Sprintf("%s/%s: unrecognized boolean %q written as false", n.Name, name, cell))
		}
		return ToBoolean(cell), nil
	case design.PropertyVariant:
		return ToVariant(cell, def.VariantOptions), nil
	case design.PropertyInstanceSwap:
		target, ok := b.templateByID(cell)
		if !ok {
			target, ok = ResolveTemplateByName(b.tree, cell)
		}
		if ok && target.Kind == design.KindTemplateSet {
			target = target.FirstVariant()
		}
		if !ok || target == nil {
			return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, cell)
		}
		return target.ID, nil
	default:
		return nil, fmt.Errorf("unsupported property kind %s", def.Type)
	}
}

// templateByID 单元格可直接给出模板 id，包括外部模板库中的模板
func (b *Binder) templateByID(id string) (*design.Node, bool) {
	n := b.tree.NodeByID(id)
	if n == nil || !n.Kind.IsTemplateLike() {
		return nil, false
	}
	return n, true
}

// BindTextFields 递归处理所有文本字段，按字段自身名称匹配列
// 单元格内容原样写入，不做去空白处理；写入前先加载字体
func (b *Binder) BindTextFields(ctx context.Context, root *design.Node, columns []string, row Row) Report {
	var report Report
	_ = design.Walk(root, design.Visitor{
		Text: func(n *design.Node) error {
			index := MatchColumn(columns, n.Name)
			if index == NotFound {
				return nil
			}
			cell, ok := row.Cell(index)
			if !ok {
				return nil
			}
			if err := b.tree.LoadFont(ctx, n.FontName); err != nil {
				klog.Warningf("字体加载失败: field=%s, font=%s, err=%v", n.Name, n.FontName, err)
				report.fail(n, n.Name, err)
				return nil
			}
			if err := b.tree.SetCharacters(n, cell); err != nil {
				klog.Warningf("文本写入失败: field=%s, err=%v", n.Name, err)
				report.fail(n, n.Name, err)
				return nil
			}
			report.TextFieldsSet++
			klog.V(6).Infof("文本已更新: %q = %q", n.Name, cell)
			return nil
		},
	})
	return report
}
