package generator

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/jalonsogo/figma-conveyor/internal/binding"
	"github.com/jalonsogo/figma-conveyor/internal/design"
)

var (
	ErrNoTemplateSelected = errors.New("no template selected")
	ErrEmptyTable         = errors.New("table has no header row")
	ErrEmptyTemplateSet   = errors.New("template set has no variants")
)

// Host 生成过程需要的宿主文档能力，*design.Document 实现了该接口
type Host interface {
	binding.Tree
	CreateInstance(template *design.Node) (*design.Node, error)
	SetSelection(nodes []*design.Node)
	ScrollAndZoomIntoView(nodes []*design.Node)
}

// Options 副本摆放参数
type Options struct {
	StartX  float64
	StartY  float64
	Spacing float64
}

// DefaultOptions 默认从原点开始纵向排列，间距 20
func DefaultOptions() Options {
	return Options{Spacing: 20}
}

// Result 一次生成的产物
type Result struct {
	Copies []*design.Node  `json:"-"`
	Report binding.Report `json:"report"`
}

// Count 已生成的副本数量
func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Copies)
}

// Generator 按表格逐行生成模板副本
type Generator struct {
	opts Options
}

// New 创建生成器
func New(opts Options) *Generator {
	return &Generator{opts: opts}
}

// Generate 为 table 的每个数据行创建一份 template 副本并绑定数据
// 行严格按顺序处理，同一行内先绑定类型化属性再绑定文本字段。
// ctx 在行与行之间检查，取消后已生成的副本保留在文档中，返回部分结果与 ctx 的错误。
func (g *Generator) Generate(ctx context.Context, host Host, template *design.Node, table binding.Table) (*Result, error) {
	if template == nil {
		return nil, ErrNoTemplateSelected
	}
	source, err := bindingSource(template)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, ErrEmptyTable
	}

	header := []string(table.Header())
	binder := binding.NewBinder(host)
	result := &Result{Copies: make([]*design.Node, 0, table.DataRows())}

	klog.V(6).Infof("开始生成副本: template=%s, rows=%d", source.Name, table.DataRows())

	offsetY := g.opts.StartY
	for i, row := range table[1:] {
		if err := ctx.Err(); err != nil {
			klog.Warningf("生成被取消: template=%s, done=%d/%d", source.Name, i, table.DataRows())
			return result, err
		}

		copyRoot, err := host.CreateInstance(source)
		if err != nil {
			return result, fmt.Errorf("create copy for row %d: %w", i+1, err)
		}
		copyRoot.X = g.opts.StartX
		copyRoot.Y = offsetY
		offsetY += copyRoot.Height + g.opts.Spacing

		result.Report.Merge(binder.BindProperties(copyRoot, header, row))
		result.Report.Merge(binder.BindTextFields(ctx, copyRoot, header, row))
		result.Copies = append(result.Copies, copyRoot)
	}

	host.SetSelection(result.Copies)
	host.ScrollAndZoomIntoView(result.Copies)

	klog.V(6).Infof("生成完成: template=%s, copies=%d, properties=%d, texts=%d, failures=%d",
		source.Name, len(result.Copies), result.Report.PropertiesSet, result.Report.TextFieldsSet, len(result.Report.Failures))
	return result, nil
}

// bindingSource 模板集合取第一个变体作为生成源
func bindingSource(template *design.Node) (*design.Node, error) {
	switch template.Kind {
	case design.KindTemplate:
		return template, nil
	case design.KindTemplateSet:
		if variant := template.FirstVariant(); variant != nil {
			return variant, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrEmptyTemplateSet, template.Name)
	default:
		return nil, fmt.Errorf("%w: %s is %s", design.ErrNotTemplate, template.Name, template.Kind)
	}
}
