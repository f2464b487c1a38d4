package richtext

import (
	"html"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	htmlPolicy *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		htmlPolicy = p
	})
	return htmlPolicy
}

var blockTags = map[string]string{
	BlockUnstyled:      "p",
	BlockHeaderOne:     "h1",
	BlockHeaderTwo:     "h2",
	BlockHeaderThree:   "h3",
	BlockQuote:         "blockquote",
	BlockCode:          "pre",
	BlockUnorderedItem: "li",
	BlockOrderedItem:   "li",
}

var styleTags = map[string]string{
	StyleBold:      "strong",
	StyleItalic:    "em",
	StyleUnderline: "u",
}

// RenderHTML 将文档渲染为只读展示用的 HTML，输出经过 bluemonday 清洗
func RenderHTML(doc Document) string {
	var sb strings.Builder
	list := ""
	for _, b := range doc.Blocks {
		wantList := listTag(b.Type)
		if wantList != list {
			if list != "" {
				sb.WriteString("</" + list + ">")
			}
			if wantList != "" {
				sb.WriteString("<" + wantList + ">")
			}
			list = wantList
		}

		tag, ok := blockTags[b.Type]
		if !ok {
			tag = "p"
		}
		sb.WriteString("<" + tag + ">")
		renderInline(&sb, doc, b)
		sb.WriteString("</" + tag + ">")
	}
	if list != "" {
		sb.WriteString("</" + list + ">")
	}
	return sanitizer().Sanitize(sb.String())
}

func listTag(blockType string) string {
	switch blockType {
	case BlockUnorderedItem:
		return "ul"
	case BlockOrderedItem:
		return "ol"
	}
	return ""
}

type segment struct {
	text   strings.Builder
	styles string
	entity int
}

func renderInline(sb *strings.Builder, doc Document, b Block) {
	var segs []*segment
	pos := 0
	for _, r := range b.Text {
		styles := activeStyles(b.InlineStyleRanges, pos)
		entity := activeEntity(b.EntityRanges, pos)
		if n := len(segs); n == 0 || segs[n-1].styles != styles || segs[n-1].entity != entity {
			segs = append(segs, &segment{styles: styles, entity: entity})
		}
		segs[len(segs)-1].text.WriteRune(r)
		pos += len(utf16.Encode([]rune{r}))
	}

	for _, s := range segs {
		openTags, closeTags := "", ""
		if s.entity >= 0 {
			if e, ok := doc.EntityMap[strconv.Itoa(s.entity)]; ok && e.Type == EntityLink {
				if url, _ := e.Data["url"].(string); url != "" {
					openTags += `<a href="` + html.EscapeString(url) + `">`
					closeTags = "</a>" + closeTags
				}
			}
		}
		if s.styles != "" {
			for _, st := range strings.Split(s.styles, ",") {
				if tag, ok := styleTags[st]; ok {
					openTags += "<" + tag + ">"
					closeTags = "</" + tag + ">" + closeTags
				}
			}
		}
		sb.WriteString(openTags)
		sb.WriteString(html.EscapeString(s.text.String()))
		sb.WriteString(closeTags)
	}
}

func activeStyles(ranges []StyleRange, pos int) string {
	seen := map[string]bool{}
	var styles []string
	for _, r := range ranges {
		if pos >= r.Offset && pos < r.Offset+r.Length && !seen[r.Style] {
			seen[r.Style] = true
			styles = append(styles, r.Style)
		}
	}
	sort.Strings(styles)
	return strings.Join(styles, ",")
}

func activeEntity(ranges []EntityRange, pos int) int {
	for _, r := range ranges {
		if pos >= r.Offset && pos < r.Offset+r.Length {
			return r.Key
		}
	}
	return -1
}
