package model

import (
	"bytes"
	"encoding/json"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// AnswerKind is the raw shape a submitted answer arrived in
type AnswerKind int

const (
	AnswerNone    AnswerKind = iota // null / not answered
	AnswerText                      // a string: MCQ option or source code
	AnswerChoices                   // a list of strings: MSQ selection
	AnswerOther                     // any other shape, never gradeable
)

// AnswerValue is one submitted answer as sent by the client. The shape is kept
// as-is so results echo back exactly what was submitted; interpretation per
// question type happens at grading time.
type AnswerValue struct {
	kind    AnswerKind
	text    string
	choices []string
	raw     json.RawMessage
}

func TextAnswer(s string) AnswerValue {
	return AnswerValue{kind: AnswerText, text: s}
}

func ChoicesAnswer(choices ...string) AnswerValue {
	if choices == nil {
		choices = []string{}
	}
	return AnswerValue{kind: AnswerChoices, choices: choices}
}

func (v AnswerValue) Kind() AnswerKind { return v.kind }

// Text returns the value if it was submitted as a string
func (v AnswerValue) Text() (string, bool) {
	return v.text, v.kind == AnswerText
}

// Choices returns the value if it was submitted as a list of strings
func (v AnswerValue) Choices() ([]string, bool) {
	return v.choices, v.kind == AnswerChoices
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case AnswerText:
		return json.Marshal(v.text)
	case AnswerChoices:
		if v.choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.choices)
	case AnswerOther:
		if len(v.raw) > 0 {
			return v.raw, nil
		}
	}
	return []byte("null"), nil
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*v = TextAnswer(s)
			return nil
		}
	case '[':
		var choices []string
		if err := json.Unmarshal(trimmed, &choices); err == nil {
			*v = ChoicesAnswer(choices...)
			return nil
		}
	}

	// Wrong shapes are kept, not rejected: they grade as incorrect.
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return err
	}
	*v = AnswerValue{kind: AnswerOther, raw: json.RawMessage(compact.Bytes())}
	return nil
}

// otherDoc wraps a loose answer so it can pass through extended JSON, which
// only has a document form at the top level
type otherDoc struct {
	V bson.RawValue `bson:"v"`
}

// rawToBSON converts a loose JSON answer into the equivalent BSON value
func rawToBSON(raw json.RawMessage) (bson.RawValue, error) {
	wrapped := make([]byte, 0, len(raw)+6)
	wrapped = append(wrapped, `{"v":`...)
	wrapped = append(wrapped, raw...)
	wrapped = append(wrapped, '}')

	var doc otherDoc
	if err := bson.UnmarshalExtJSON(wrapped, false, &doc); err != nil {
		return bson.RawValue{}, err
	}
	return doc.V, nil
}

// bsonToRaw renders a stored loose answer back to relaxed extended JSON
func bsonToRaw(rv bson.RawValue) (json.RawMessage, error) {
	out, err := bson.MarshalExtJSON(otherDoc{V: rv}, false, false)
	if err != nil {
		return nil, err
	}
	var doc struct {
		V json.RawMessage `json:"v"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, err
	}
	return doc.V, nil
}

func (v AnswerValue) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch v.kind {
	case AnswerText:
		return bson.MarshalValue(v.text)
	case AnswerChoices:
		choices := v.choices
		if choices == nil {
			choices = []string{}
		}
		return bson.MarshalValue(choices)
	case AnswerOther:
		if len(v.raw) == 0 {
			break
		}
		rv, err := rawToBSON(v.raw)
		if err != nil {
			// Text extended JSON can't represent is dropped rather than failing the result.
			break
		}
		return rv.Type, rv.Value, nil
	}
	return bsontype.Null, nil, nil
}

func (v *AnswerValue) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*v = TextAnswer(rv.StringValue())
	case bsontype.Array:
		var choices []string
		if err := rv.Unmarshal(&choices); err == nil {
			*v = ChoicesAnswer(choices...)
			return nil
		}
		return v.setOther(rv)
	case bsontype.Null, bsontype.Undefined:
		*v = AnswerValue{}
	default:
		return v.setOther(rv)
	}
	return nil
}

func (v *AnswerValue) setOther(rv bson.RawValue) error {
	raw, err := bsonToRaw(rv)
	if err != nil {
		return err
	}
	*v = AnswerValue{kind: AnswerOther, raw: raw}
	return nil
}

// AnswerSet maps a question index ("0", "1", ...) to the submitted answer.
// Keys need not cover every question.
type AnswerSet map[string]AnswerValue

// At returns the answer for the question at index i
func (s AnswerSet) At(i int) (AnswerValue, bool) {
	v, ok := s[strconv.Itoa(i)]
	if !ok || v.kind == AnswerNone {
		return AnswerValue{}, false
	}
	return v, true
}

// UnmarshalJSON accepts both the {"0": ...} object form and a plain array
// indexed by question position.
func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []AnswerValue
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		out := make(AnswerSet, len(list))
		for i, v := range list {
			if v.kind != AnswerNone {
				out[strconv.Itoa(i)] = v
			}
		}
		*s = out
		return nil
	}

	var m map[string]AnswerValue
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	*s = m
	return nil
}
