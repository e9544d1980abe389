package binding

import (
	"context"
	"fmt"

	"github.com/jalonsogo/figma-conveyor/internal/design"
)

// Tree 绑定引擎依赖的宿主文档能力，*design.Document 实现了该接口
type Tree interface {
	AllPages() []*design.Node
	CurrentPage() *design.Node
	NodeByID(id string) *design.Node
	MainComponent(instance *design.Node) *design.Node
	Definitions(template *design.Node) map[string]design.PropertyDefinition
	SetProperty(instance *design.Node, key string, value any) error
	LoadFont(ctx context.Context, font string) error
	SetCharacters(text *design.Node, characters string) error
}

// Row 一行单元格，按列位置索引
type Row []string

// Cell 取第 i 列，行比表头短时视为缺失而非错误
func (r Row) Cell(i int) (string, bool) {
	if i < 0 || i >= len(r) {
		return "", false
	}
	return r[i], true
}

// Table 表格数据，第 0 行为表头
type Table []Row

// Header 表头行，空表返回 nil
func (t Table) Header() Row {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// DataRows 数据行数量
func (t Table) DataRows() int {
	if len(t) == 0 {
		return 0
	}
	return len(t) - 1
}

// TableFromStrings 将 [][]string 转为 Table
func TableFromStrings(rows [][]string) Table {
	table := make(Table, len(rows))
	for i, row := range rows {
		table[i] = Row(row)
	}
	return table
}

// Failure 单个字段或属性的非致命失败
type Failure struct {
	NodeID   string `json:"node_id"`
	NodeName string `json:"node_name"`
	Field    string `json:"field"`
	Err      error  `json:"-"`
	Message  string `json:"message"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s/%s: %s", f.NodeName, f.Field, f.Message)
}

// Report 一次绑定的结果统计
type Report struct {
	PropertiesSet int       `json:"properties_set"`
	TextFieldsSet int       `json:"text_fields_set"`
	Failures      []Failure `json:"failures,omitempty"`
	Notes         []string  `json:"notes,omitempty"`
}

// Merge 合并另一份结果
func (r *Report) Merge(other Report) {
	r.PropertiesSet += other.PropertiesSet
	r.TextFieldsSet += other.TextFieldsSet
	r.Failures = append(r.Failures, other.Failures...)
	r.Notes = append(r.Notes, other.Notes...)
}

func (r *Report) fail(n *design.Node, field string, err error) {
	r.Failures = append(r.Failures, Failure{
		NodeID:   n.ID,
		NodeName: n.Name,
		Field:    field,
		Err:      err,
		Message:  err.Error(),
	})
}
