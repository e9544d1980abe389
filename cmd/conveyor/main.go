package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/AlecAivazis/survey/v2"
	"k8s.io/klog/v2"

	"github.com/jalonsogo/figma-conveyor/config"
	"github.com/jalonsogo/figma-conveyor/internal/binding"
	"github.com/jalonsogo/figma-conveyor/internal/design"
	"github.com/jalonsogo/figma-conveyor/internal/pkg/table"
	"github.com/jalonsogo/figma-conveyor/internal/service/generator"
)

// 离线生成：读取文档 JSON 与表格文件，输出生成后的文档 JSON
func main() {
	klog.InitFlags(nil)
	docPath := flag.String("doc", "", "design document JSON file")
	tablePath := flag.String("table", "", "table file (.csv or .xlsx)")
	templateName := flag.String("template", "", "template id or name; prompts when empty")
	outPath := flag.String("out", "", "output file, defaults to stdout")
	flag.Parse()
	defer klog.Flush()

	if *docPath == "" || *tablePath == "" {
		fmt.Fprintln(os.Stderr, "usage: conveyor -doc doc.json -table rows.csv [-template Card] [-out out.json]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *docPath, *tablePath, *templateName, *outPath, askSurvey); err != nil {
		klog.Errorf("生成失败: %v", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// askFunc 从候选模板名称中选择一个
type askFunc func(message string, options []string) (string, error)

func askSurvey(message string, options []string) (string, error) {
	var out string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", err
	}
	return out, nil
}

func run(ctx context.Context, docPath, tablePath, templateName, outPath string, ask askFunc) error {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return err
	}
	doc, err := design.Parse(data)
	if err != nil {
		return err
	}
	rows, err := table.Load(tablePath)
	if err != nil {
		return err
	}

	template, err := pickTemplate(doc, templateName, ask)
	if err != nil {
		return err
	}

	cfg := config.GetConfig()
	gen := generator.New(generator.Options{
		StartX:  cfg.Generation.StartX,
		StartY:  cfg.Generation.StartY,
		Spacing: cfg.Generation.Spacing,
	})
	result, genErr := gen.Generate(ctx, doc, template, binding.TableFromStrings(rows))
	if result.Count() == 0 && genErr != nil {
		return genErr
	}
	if genErr != nil {
		klog.Warningf("生成中断，保留已生成的 %d 份副本: %v", result.Count(), genErr)
	}

	for _, f := range result.Report.Failures {
		klog.Warningf("字段未更新: %s", f)
	}
	for _, note := range result.Report.Notes {
		klog.V(6).Infof("提示: %s", note)
	}

	out, err := doc.Marshal()
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err = os.Stdout.Write(append(out, '\n'))
	} else {
		err = os.WriteFile(outPath, out, 0644)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "generated %d copies of %q (properties=%d, texts=%d, failures=%d)\n",
		result.Count(), template.Name, result.Report.PropertiesSet, result.Report.TextFieldsSet, len(result.Report.Failures))
	return genErr
}

// pickTemplate 按 id 或名称查找模板；未指定时列出候选让用户选择
func pickTemplate(doc *design.Document, name string, ask askFunc) (*design.Node, error) {
	if name != "" {
		if n := doc.NodeByID(name); n != nil && n.Kind.IsTemplateLike() {
			return n, nil
		}
		if n, ok := binding.ResolveTemplateByName(doc, name); ok {
			return n, nil
		}
		return nil, fmt.Errorf("%w: %q", binding.ErrTemplateNotFound, name)
	}

	choices := templateChoices(doc)
	if len(choices) == 0 {
		return nil, errors.New("document has no templates")
	}
	options := make([]string, len(choices))
	for i, c := range choices {
		options[i] = fmt.Sprintf("%s (%s)", c.Name, c.ID)
	}
	picked, err := ask("Template to fill:", options)
	if err != nil {
		return nil, err
	}
	for i, option := range options {
		if option == picked {
			return choices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", binding.ErrTemplateNotFound, picked)
}

// templateChoices 所有页面上的模板与模板集合，集合内的变体不单独列出
func templateChoices(doc *design.Document) []*design.Node {
	var choices []*design.Node
	collect := func(n *design.Node) error {
		choices = append(choices, n)
		return design.SkipChildren
	}
	for _, page := range doc.AllPages() {
		_ = design.Walk(page, design.Visitor{Template: collect, TemplateSet: collect})
	}
	return choices
}
