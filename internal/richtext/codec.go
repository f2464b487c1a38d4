package richtext

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// DecodeError 表示文档结构损坏。调用方自行决定如何处理，这里从不猜测修复。
type DecodeError struct {
	Reason   string
	BlockKey string
	Offset   int
	Err      error
}

func (e *DecodeError) Error() string {
	msg := "richtext: " + e.Reason
	if e.BlockKey != "" {
		msg += fmt.Sprintf(" (block %q, offset %d)", e.BlockKey, e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode 序列化为传输字符串。无效文档不会被编码。
func Encode(doc Document) (string, error) {
	if err := Validate(doc); err != nil {
		return "", err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", &DecodeError{Reason: "marshal document", Err: err}
	}
	return string(raw), nil
}

// Decode 解析并校验传输字符串
func Decode(s string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return Document{}, &DecodeError{Reason: "malformed json", Err: err}
	}
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate 检查块键唯一、区间合法、选区指向存在的块且偏移在范围内。
// 文本必须是合法 UTF-8，data 只能是 JSON 原生值，保证编码后可以原样解码回来。
func Validate(doc Document) error {
	seen := make(map[string]struct{}, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if b.Key == "" {
			return &DecodeError{Reason: "block without key"}
		}
		if !validUTF8(b.Key, b.Text, b.Type) {
			return &DecodeError{Reason: "invalid utf-8 in block", BlockKey: b.Key}
		}
		if !jsonNativeMap(b.Data) {
			return &DecodeError{Reason: "block data is not plain json", BlockKey: b.Key}
		}
		if _, dup := seen[b.Key]; dup {
			return &DecodeError{Reason: "duplicate block key", BlockKey: b.Key}
		}
		seen[b.Key] = struct{}{}

		if b.Depth < 0 {
			return &DecodeError{Reason: "negative block depth", BlockKey: b.Key}
		}

		n := TextLength(b.Text)
		for _, r := range b.InlineStyleRanges {
			if !validUTF8(r.Style) {
				return &DecodeError{Reason: "invalid utf-8 in style", BlockKey: b.Key, Offset: r.Offset}
			}
			if !rangeWithin(r.Offset, r.Length, n) {
				return &DecodeError{Reason: "style range out of bounds", BlockKey: b.Key, Offset: r.Offset}
			}
		}
		for _, r := range b.EntityRanges {
			if !rangeWithin(r.Offset, r.Length, n) {
				return &DecodeError{Reason: "entity range out of bounds", BlockKey: b.Key, Offset: r.Offset}
			}
			if _, ok := doc.EntityMap[strconv.Itoa(r.Key)]; !ok {
				return &DecodeError{Reason: fmt.Sprintf("entity %d not in entity map", r.Key), BlockKey: b.Key, Offset: r.Offset}
			}
		}
	}

	for key, e := range doc.EntityMap {
		if !validUTF8(key, e.Type, e.Mutability) {
			return &DecodeError{Reason: fmt.Sprintf("invalid utf-8 in entity %q", key)}
		}
		if !jsonNativeMap(e.Data) {
			return &DecodeError{Reason: fmt.Sprintf("entity %q data is not plain json", key)}
		}
	}

	if sel := doc.Selection; sel != nil {
		if err := checkMarker(doc, sel.AnchorKey, sel.AnchorOffset); err != nil {
			return err
		}
		if err := checkMarker(doc, sel.FocusKey, sel.FocusOffset); err != nil {
			return err
		}
	}
	return nil
}

func checkMarker(doc Document, key string, offset int) error {
	b, ok := doc.block(key)
	if !ok {
		return &DecodeError{Reason: "selection references unknown block", BlockKey: key, Offset: offset}
	}
	if offset < 0 || offset > TextLength(b.Text) {
		return &DecodeError{Reason: "selection offset out of bounds", BlockKey: key, Offset: offset}
	}
	return nil
}

// rangeWithin 不做 offset+length 加法，避免溢出
func rangeWithin(offset, length, n int) bool {
	return offset >= 0 && length >= 0 && offset <= n && length <= n-offset
}

func validUTF8(ss ...string) bool {
	for _, s := range ss {
		if !utf8.ValidString(s) {
			return false
		}
	}
	return true
}

// jsonNative 只接受 json.Unmarshal 到 any 时会产生的类型
func jsonNative(v any) bool {
	switch x := v.(type) {
	case nil, bool:
		return true
	case string:
		return utf8.ValidString(x)
	case float64:
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	case []any:
		if x == nil {
			return false
		}
		for _, e := range x {
			if !jsonNative(e) {
				return false
			}
		}
		return true
	case map[string]any:
		return x != nil && jsonNativeMap(x)
	}
	return false
}

func jsonNativeMap(m map[string]any) bool {
	for k, e := range m {
		if !utf8.ValidString(k) || !jsonNative(e) {
			return false
		}
	}
	return true
}
