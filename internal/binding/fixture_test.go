package binding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jalonsogo/figma-conveyor/internal/design"
)

// newFixture 构造测试用设计文档
//
//	Page 1: Button(集合: default/hover), Card, Star, Heart
//	Page 2: Arrow, 一个把 Icon 指向外部模板 Remote Logo 的 Card 实例
//	Library: Remote Logo
func newFixture(t *testing.T) *design.Document {
	t.Helper()

	buttonSet := &design.Node{
		ID:   "btn-set",
		Kind: design.KindTemplateSet,
		Name: "Button",
		Definitions: map[string]design.PropertyDefinition{
			"State":         {Type: design.PropertyVariant, DefaultValue: "default", VariantOptions: []string{"default", "hover"}},
			"Label#1:0":     {Type: design.PropertyText, DefaultValue: "Button"},
			"Show icon#1:1": {Type: design.PropertyBoolean, DefaultValue: false},
		},
		Children: []*design.Node{
			{ID: "btn-default", Kind: design.KindTemplate, Name: "State=default", Height: 40},
			{ID: "btn-hover", Kind: design.KindTemplate, Name: "State=hover", Height: 40},
		},
	}

	card := &design.Node{
		ID:     "card",
		Kind:   design.KindTemplate,
		Name:   "Card",
		Width:  320,
		Height: 100,
		Definitions: map[string]design.PropertyDefinition{
			"Title#2:0":    {Type: design.PropertyText, DefaultValue: "Untitled"},
			"Featured#2:1": {Name: "Featured", Type: design.PropertyBoolean, DefaultValue: false},
			"Size":         {Type: design.PropertyVariant, DefaultValue: "small", VariantOptions: []string{"small", "large"}},
			"Done":         {Type: design.PropertyVariant, DefaultValue: "no", VariantOptions: []string{"yes", "no"}},
			"Icon#2:2":     {Type: design.PropertyInstanceSwap, DefaultValue: "icon-star"},
		},
		Children: []*design.Node{
			{ID: "card-title", Kind: design.KindText, Name: "Title", FontName: "Inter", Characters: "Title"},
			{ID: "card-subtitle", Kind: design.KindText, Name: "Subtitle", FontName: "Inter", Characters: "Subtitle"},
			{ID: "card-caption", Kind: design.KindText, Name: "Caption", FontName: "Comic Sans", Characters: "Caption"},
			{
				ID:              "card-button",
				Kind:            design.KindInstance,
				Name:            "Button",
				MainComponentID: "btn-default",
				Properties: map[string]design.PropertyValue{
					"State":         {Type: design.PropertyVariant, Value: "default"},
					"Label#1:0":     {Type: design.PropertyText, Value: "Button"},
					"Show icon#1:1": {Type: design.PropertyBoolean, Value: false},
				},
			},
		},
	}

	doc := &design.Document{
		Name:          "fixture",
		CurrentPageID: "p1",
		Fonts:         []string{"Inter"},
		Pages: []*design.Node{
			{
				ID:   "p1",
				Kind: design.KindPage,
				Name: "Page 1",
				Children: []*design.Node{
					buttonSet,
					card,
					{ID: "icon-star", Kind: design.KindTemplate, Name: "Star"},
					{ID: "icon-heart", Kind: design.KindTemplate, Name: "Heart"},
				},
			},
			{
				ID:   "p2",
				Kind: design.KindPage,
				Name: "Page 2",
				Children: []*design.Node{
					{ID: "icon-arrow", Kind: design.KindTemplate, Name: "Arrow"},
					{
						ID:              "usage",
						Kind:            design.KindInstance,
						Name:            "Card",
						MainComponentID: "card",
						Properties: map[string]design.PropertyValue{
							"Icon#2:2": {Type: design.PropertyInstanceSwap, Value: "lib-logo"},
						},
					},
				},
			},
		},
		Library: []*design.Node{
			{ID: "lib-logo", Kind: design.KindTemplate, Name: "Remote Logo"},
		},
	}
	require.NoError(t, doc.Reindex())
	return doc
}

func newCardCopy(t *testing.T, doc *design.Document) *design.Node {
	t.Helper()
	copyRoot, err := doc.CreateInstance(doc.NodeByID("card"))
	require.NoError(t, err)
	return copyRoot
}

func childNamed(root *design.Node, name string) *design.Node {
	return design.Find(root, func(n *design.Node) bool {
		return n != root && n.Name == name
	})
}
