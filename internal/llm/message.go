package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

type plainMessage Message

func (m Message) MarshalJSON() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	return EncodeJSON(plainMessage(m))
}

// UnmarshalJSON never fails on the shape of a message: fields that do not
// decode are left empty and the payload is kept for encoding.
func (m *Message) UnmarshalJSON(data []byte) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return err
	}
	*m = Message{}

	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) == nil {
		_ = json.Unmarshal(fields["role"], &m.Role)
		m.Content = contentText(fields["content"])
		_ = json.Unmarshal(fields["tool_call_id"], &m.ToolCallID)
		_ = json.Unmarshal(fields["name"], &m.Name)
		if err := json.Unmarshal(fields["tool_calls"], &m.ToolCalls); err != nil {
			m.ToolCalls = nil
		}
	}

	if enc, err := EncodeJSON(plainMessage(*m)); err != nil || !bytes.Equal(enc, compact.Bytes()) {
		m.raw = append(json.RawMessage(nil), compact.Bytes()...)
	}
	return nil
}

// contentText reads plain string content or the text of content blocks
// such as [{"text":"hi"},{"toolUse":{...}}].
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var blocks []json.RawMessage
	if json.Unmarshal(raw, &blocks) != nil {
		blocks = []json.RawMessage{raw}
	}
	var texts []string
	for _, b := range blocks {
		var block struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(b, &block) == nil && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// EncodeJSON encodes v without HTML escaping, so stored text keeps its
// original bytes.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
