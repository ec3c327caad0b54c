package domain

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type Template string

const (
	TemplateH1             Template = "h1"
	TemplateH2             Template = "h2"
	TemplateH3             Template = "h3"
	TemplateParagraph      Template = "p"
	TemplateCode           Template = "code"
	TemplateMultipleChoice Template = "multiple_choice"
	TemplateSingleChoice   Template = "single_choice"
	TemplateTextInput      Template = "text_input"
	TemplateNumberInput    Template = "number_input"
	TemplateAttendance     Template = "attendance"
)

func (t Template) Valid() bool {
	switch t {
	case TemplateH1, TemplateH2, TemplateH3, TemplateParagraph, TemplateCode,
		TemplateMultipleChoice, TemplateSingleChoice, TemplateTextInput, TemplateNumberInput,
		TemplateAttendance:
		return true
	default:
		return false
	}
}

// Block is one entry of a party's invitation. Content is an opaque string;
// question templates store a JSON object there (label, options, public).
type Block struct {
	ID       string   `json:"id"`
	Template Template `json:"template"`
	Content  string   `json:"content"`
	Public   *bool    `json:"public,omitempty"`
}

// IsPublic reports whether other guests may see answers to this block.
// Malformed content counts as not public.
func (b Block) IsPublic() bool {
	if b.Public != nil && *b.Public {
		return true
	}
	if !gjson.Valid(b.Content) {
		return false
	}
	res := gjson.Parse(b.Content)
	return res.IsObject() && res.Get("public").Type == gjson.True
}

// ParseBlocks decodes stored blocks one by one. A block with a malformed
// content or public field is kept but counts as not public; a block without
// an id is skipped. Input that is not an array yields no blocks.
func ParseBlocks(raw string) []Block {
	blocks := []Block{}
	if !gjson.Valid(raw) {
		return blocks
	}
	arr := gjson.Parse(raw)
	if !arr.IsArray() {
		return blocks
	}
	arr.ForEach(func(_, el gjson.Result) bool {
		if b, ok := parseBlock(el); ok {
			blocks = append(blocks, b)
		}
		return true
	})
	return blocks
}

func parseBlock(el gjson.Result) (Block, bool) {
	id := el.Get("id")
	if id.Type != gjson.String || strings.TrimSpace(id.Str) == "" {
		return Block{}, false
	}
	b := Block{ID: id.Str}
	if t := el.Get("template"); t.Type == gjson.String {
		b.Template = Template(t.Str)
	}
	if c := el.Get("content"); c.Type == gjson.String {
		b.Content = c.Str
	}
	switch el.Get("public").Type {
	case gjson.True:
		b.Public = boolPtr(true)
	case gjson.False:
		b.Public = boolPtr(false)
	}
	return b, true
}

func boolPtr(v bool) *bool { return &v }

// ValidateBlocks checks blocks submitted by an author and returns them in
// canonical form. Blocks without an id get a fresh one.
func ValidateBlocks(raw string) ([]Block, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "[]"
	}
	var blocks []Block
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return nil, Errorf(ErrInvalidInput, "Invalid invitation_blocks JSON")
	}
	if blocks == nil {
		blocks = []Block{}
	}

	seen := make(map[string]bool, len(blocks))
	attendance := 0
	for i := range blocks {
		b := &blocks[i]
		if !b.Template.Valid() {
			return nil, Errorf(ErrInvalidInput, "unknown block template %q", b.Template)
		}
		if b.Template == TemplateAttendance {
			attendance++
		}
		b.ID = strings.TrimSpace(b.ID)
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if seen[b.ID] {
			return nil, Errorf(ErrInvalidInput, "duplicate block id %q", b.ID)
		}
		seen[b.ID] = true
	}
	if attendance > 1 {
		return nil, Errorf(ErrInvalidInput, "Only one attendance block is allowed per party")
	}
	return blocks, nil
}

func EncodeBlocks(blocks []Block) string {
	if len(blocks) == 0 {
		return "[]"
	}
	b, err := json.Marshal(blocks)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// AttendanceBlockID returns the id of the attendance block, or "".
func AttendanceBlockID(blocks []Block) string {
	for _, b := range blocks {
		if b.Template == TemplateAttendance {
			return b.ID
		}
	}
	return ""
}

func BlockIDs(blocks []Block) map[string]bool {
	ids := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if b.ID != "" {
			ids[b.ID] = true
		}
	}
	return ids
}

func PublicBlockIDs(blocks []Block) map[string]bool {
	ids := make(map[string]bool)
	for _, b := range blocks {
		if b.ID != "" && b.IsPublic() {
			ids[b.ID] = true
		}
	}
	return ids
}
