package design

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateInstance 基于模板创建实例并追加到当前页面
// 子树整体复制，嵌套实例保留各自的源模板与属性值
func (d *Document) CreateInstance(template *Node) (*Node, error) {
	if template == nil || template.Kind != KindTemplate {
		return nil, ErrNotTemplate
	}
	page := d.CurrentPage()
	if page == nil {
		return nil, ErrNoPages
	}

	instance := &Node{
		ID:              uuid.NewString(),
		Kind:            KindInstance,
		Name:            template.Name,
		Width:           template.Width,
		Height:          template.Height,
		MainComponentID: template.ID,
		Properties:      defaultProperties(d.Definitions(template)),
	}
	for _, child := range template.Children {
		instance.AppendChild(cloneNode(child))
	}

	page.AppendChild(instance)
	if err := d.register(instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func defaultProperties(defs map[string]PropertyDefinition) map[string]PropertyValue {
	if len(defs) == 0 {
		return nil
	}
	props := make(map[string]PropertyValue, len(defs))
	for key, def := range defs {
		value := def.DefaultValue
		if value == nil {
			switch def.Type {
			case PropertyBoolean:
				value = false
			case PropertyVariant:
				if len(def.VariantOptions) > 0 {
					value = def.VariantOptions[0]
				} else {
					value = ""
				}
			default:
				value = ""
			}
		}
		props[key] = PropertyValue{Type: def.Type, Value: value}
	}
	return props
}

func cloneNode(src *Node) *Node {
	dst := *src
	dst.ID = uuid.NewString()
	dst.parent = nil
	dst.Children = nil
	if src.Properties != nil {
		dst.Properties = make(map[string]PropertyValue, len(src.Properties))
		for k, v := range src.Properties {
			dst.Properties[k] = v
		}
	}
	if src.Definitions != nil {
		dst.Definitions = make(map[string]PropertyDefinition, len(src.Definitions))
		for k, v := range src.Definitions {
			dst.Definitions[k] = v
		}
	}
	for _, child := range src.Children {
		dst.AppendChild(cloneNode(child))
	}
	return &dst
}

// SetProperty 写入实例的类型化属性
// 值的 Go 类型必须与属性种类一致；变体值需在声明的选项内；替换引用需指向已知模板
func (d *Document) SetProperty(instance *Node, key string, value any) error {
	if instance == nil || instance.Kind != KindInstance {
		return ErrNotInstance
	}
	live, ok := instance.Properties[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, key)
	}

	switch live.Type {
	case PropertyText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: %s expects string, got %T", ErrValueType, live.Type, value)
		}
	case PropertyBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s expects bool, got %T", ErrValueType, live.Type, value)
		}
	case PropertyVariant:
		option, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects string, got %T", ErrValueType, live.Type, value)
		}
		def, hasDef := d.Definitions(d.MainComponent(instance))[key]
		if hasDef && len(def.VariantOptions) > 0 && !def.HasOption(option) {
			return fmt.Errorf("%w: %q not in %v", ErrInvalidVariant, option, def.VariantOptions)
		}
	case PropertyInstanceSwap:
		id, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects template id, got %T", ErrValueType, live.Type, value)
		}
		if target := d.NodeByID(id); target == nil || target.Kind != KindTemplate {
			return fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
		}
	default:
		return fmt.Errorf("%w: unsupported kind %s", ErrValueType, live.Type)
	}

	live.Value = value
	instance.Properties[key] = live
	return nil
}

// LoadFont 准备文本字段所需字体，必须在修改文本之前完成
func (d *Document) LoadFont(ctx context.Context, font string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if font == "" {
		return nil
	}
	if len(d.Fonts) > 0 && !contains(d.Fonts, font) {
		return fmt.Errorf("%w: %s", ErrFontUnavailable, font)
	}
	if d.loadedFonts == nil {
		d.loadedFonts = make(map[string]bool)
	}
	d.loadedFonts[font] = true
	return nil
}

// SetCharacters 覆盖文本字段内容，字体需已通过 LoadFont 加载
func (d *Document) SetCharacters(text *Node, characters string) error {
	if text == nil || text.Kind != KindText {
		return ErrNotText
	}
	if text.FontName != "" && !d.loadedFonts[text.FontName] {
		return fmt.Errorf("%w: %s", ErrFontNotLoaded, text.FontName)
	}
	text.Characters = characters
	return nil
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
