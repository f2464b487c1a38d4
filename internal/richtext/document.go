package richtext

import (
	"strings"
	"unicode/utf16"
)

// 块类型，与编辑器序列化出的名称保持一致
const (
	BlockUnstyled      = "unstyled"
	BlockHeaderOne     = "header-one"
	BlockHeaderTwo     = "header-two"
	BlockHeaderThree   = "header-three"
	BlockQuote         = "blockquote"
	BlockCode          = "code-block"
	BlockUnorderedItem = "unordered-list-item"
	BlockOrderedItem   = "ordered-list-item"
)

const (
	StyleBold      = "BOLD"
	StyleItalic    = "ITALIC"
	StyleUnderline = "UNDERLINE"

	EntityLink = "LINK"
)

// Document 模板描述的结构化富文本
type Document struct {
	Blocks    []Block           `json:"blocks"`
	EntityMap map[string]Entity `json:"entityMap"`
	Selection *Selection        `json:"selection,omitempty"`
}

type Block struct {
	Key               string         `json:"key"`
	Text              string         `json:"text"`
	Type              string         `json:"type"`
	Depth             int            `json:"depth"`
	InlineStyleRanges []StyleRange   `json:"inlineStyleRanges"`
	EntityRanges      []EntityRange  `json:"entityRanges"`
	Data              map[string]any `json:"data"`
}

type StyleRange struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Style  string `json:"style"`
}

// EntityRange 的 Key 指向 EntityMap 中的条目（编辑器以数字下标序列化）
type EntityRange struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
	Key    int `json:"key"`
}

// Entity 是对外部资源（链接、图片）的非拥有引用
type Entity struct {
	Type       string         `json:"type"`
	Mutability string         `json:"mutability"`
	Data       map[string]any `json:"data"`
}

// Selection 光标/选区标记
type Selection struct {
	AnchorKey    string `json:"anchorKey"`
	AnchorOffset int    `json:"anchorOffset"`
	FocusKey     string `json:"focusKey"`
	FocusOffset  int    `json:"focusOffset"`
}

// Empty 编辑器初始状态：没有块，也没有选区
func Empty() Document {
	return Document{
		Blocks:    []Block{},
		EntityMap: map[string]Entity{},
	}
}

// Paragraph 用一段纯文本构造单块文档，选区落在文本末尾
func Paragraph(key, text string) Document {
	end := TextLength(text)
	return Document{
		Blocks: []Block{{
			Key:               key,
			Text:              text,
			Type:              BlockUnstyled,
			InlineStyleRanges: []StyleRange{},
			EntityRanges:      []EntityRange{},
			Data:              map[string]any{},
		}},
		EntityMap: map[string]Entity{},
		Selection: &Selection{AnchorKey: key, AnchorOffset: end, FocusKey: key, FocusOffset: end},
	}
}

// IsEmpty reports whether the document carries no visible text.
func (d Document) IsEmpty() bool {
	for _, b := range d.Blocks {
		if strings.TrimSpace(b.Text) != "" {
			return false
		}
	}
	return true
}

// PlainText 以换行拼接所有块的文本
func (d Document) PlainText() string {
	parts := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, "\n")
}

func (d Document) block(key string) (Block, bool) {
	for _, b := range d.Blocks {
		if b.Key == key {
			return b, true
		}
	}
	return Block{}, false
}

// TextLength 以 UTF-16 码元计长度，和编辑器的偏移量口径一致
func TextLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}
