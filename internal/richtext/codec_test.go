package richtext

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		Blocks: []Block{
			{
				Key:  "a1",
				Text: "Welcome to the survey",
				Type: BlockHeaderOne,
				InlineStyleRanges: []StyleRange{
					{Offset: 0, Length: 7, Style: StyleBold},
				},
				EntityRanges: []EntityRange{},
				Data:         map[string]any{},
			},
			{
				Key:               "b2",
				Text:              "Read the rules first",
				Type:              BlockUnorderedItem,
				Depth:             1,
				InlineStyleRanges: []StyleRange{{Offset: 5, Length: 3, Style: StyleItalic}},
				EntityRanges:      []EntityRange{{Offset: 9, Length: 5, Key: 0}},
				Data:              map[string]any{"text-align": "center"},
			},
		},
		EntityMap: map[string]Entity{
			"0": {Type: EntityLink, Mutability: "MUTABLE", Data: map[string]any{"url": "https://example.com/rules"}},
		},
		Selection: &Selection{AnchorKey: "a1", AnchorOffset: 0, FocusKey: "b2", FocusOffset: 20},
	}
}

func TestRoundTrip(t *testing.T) {
	docs := map[string]Document{
		"rich":      sampleDocument(),
		"empty":     Empty(),
		"paragraph": Paragraph("p1", "hello"),
		"no selection": {
			Blocks:    []Block{{Key: "x", Text: "", Type: BlockUnstyled}},
			EntityMap: map[string]Entity{},
		},
		"nested data": {
			Blocks: []Block{{
				Key:  "d",
				Text: "ß and 🎉",
				Type: BlockUnstyled,
				Data: map[string]any{
					"n":     float64(3),
					"flag":  true,
					"list":  []any{"a", 1.5, nil},
					"inner": map[string]any{"k": "v"},
				},
			}},
			EntityMap: map[string]Entity{},
		},
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			encoded, err := Encode(doc)
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)

			if diff := cmp.Diff(doc, decoded); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeRejectsUnknownSelectionBlock(t *testing.T) {
	raw := `{"blocks":[{"key":"a","text":"hi","type":"unstyled","depth":0,"inlineStyleRanges":[],"entityRanges":[],"data":{}}],
		"entityMap":{},"selection":{"anchorKey":"zz","anchorOffset":0,"focusKey":"a","focusOffset":1}}`

	doc, err := Decode(raw)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "zz", decodeErr.BlockKey)
	assert.Empty(t, doc.Blocks, "a failed decode must not hand back a usable document")
	assert.Nil(t, doc.Selection)
}

func TestDecodeSelectionOffsets(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		wantErr bool
	}{
		{"start", 0, false},
		{"end of text", 2, false},
		{"past end", 3, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Paragraph("k", "hi")
			doc.Selection.FocusOffset = tt.offset
			raw, err := jsonOf(doc)
			require.NoError(t, err)

			_, err = Decode(raw)
			if tt.wantErr {
				var decodeErr *DecodeError
				assert.ErrorAs(t, err, &decodeErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOffsetsCountUTF16Units(t *testing.T) {
	doc := Paragraph("k", "ok😀")
	assert.Equal(t, 4, doc.Selection.FocusOffset)

	_, err := Encode(doc)
	require.NoError(t, err)

	doc.Selection.FocusOffset = 5
	_, err = Encode(doc)
	assert.Error(t, err)
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode(`{"blocks":[`)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "malformed json", decodeErr.Reason)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestValidateRanges(t *testing.T) {
	t.Run("entity missing from map", func(t *testing.T) {
		doc := sampleDocument()
		doc.EntityMap = map[string]Entity{}
		assert.Error(t, Validate(doc))
	})

	t.Run("style range past text", func(t *testing.T) {
		doc := sampleDocument()
		doc.Blocks[0].InlineStyleRanges = []StyleRange{{Offset: 10, Length: 50, Style: StyleBold}}
		assert.Error(t, Validate(doc))
	})

	t.Run("duplicate keys", func(t *testing.T) {
		doc := sampleDocument()
		doc.Blocks[1].Key = "a1"
		doc.Selection = nil
		assert.Error(t, Validate(doc))
	})
}

func TestDecodeRejectsOverflowingRange(t *testing.T) {
	raw := `{"blocks":[{"key":"a","text":"hi","type":"unstyled","depth":0,` +
		`"inlineStyleRanges":[{"offset":1,"length":9223372036854775807,"style":"BOLD"}],"entityRanges":[],"data":{}}],"entityMap":{}}`
	_, err := Decode(raw)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "style range out of bounds", decodeErr.Reason)

	doc := Paragraph("a", "hi")
	doc.Blocks[0].EntityRanges = []EntityRange{{Offset: 2, Length: int(^uint(0) >> 1), Key: 0}}
	doc.EntityMap = map[string]Entity{"0": {Type: EntityLink, Mutability: "MUTABLE"}}
	assert.Error(t, Validate(doc))
}

// Encode 只接受能原样解码回来的文档
func TestEncodeRejectsLossyContent(t *testing.T) {
	cases := map[string]Document{
		"invalid utf-8 text": Paragraph("p", "a\xffb"),
		"int block data": {
			Blocks:    []Block{{Key: "p", Type: BlockUnstyled, Data: map[string]any{"n": 1}}},
			EntityMap: map[string]Entity{},
		},
		"struct in nested data": {
			Blocks:    []Block{{Key: "p", Type: BlockUnstyled, Data: map[string]any{"list": []any{struct{}{}}}}},
			EntityMap: map[string]Entity{},
		},
		"int entity data": {
			Blocks:    []Block{{Key: "p", Text: "link", Type: BlockUnstyled, EntityRanges: []EntityRange{{Offset: 0, Length: 4, Key: 0}}}},
			EntityMap: map[string]Entity{"0": {Type: EntityLink, Mutability: "MUTABLE", Data: map[string]any{"width": 300}}},
		},
		"invalid utf-8 style": {
			Blocks:    []Block{{Key: "p", Text: "x", Type: BlockUnstyled, InlineStyleRanges: []StyleRange{{Offset: 0, Length: 1, Style: "\xfe"}}}},
			EntityMap: map[string]Entity{},
		},
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Encode(doc)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Welcome to the survey\nRead the rules first", sampleDocument().PlainText())
	assert.True(t, Empty().IsEmpty())
	assert.False(t, Paragraph("p", "x").IsEmpty())
}

// jsonOf 绕过 Encode 的校验，用来构造非法输入
func jsonOf(doc Document) (string, error) {
	b, err := json.Marshal(doc)
	return string(b), err
}
