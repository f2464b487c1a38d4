package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Answer 单题作答。Set 为 true 时取值在 Values（多选题），否则在 Value。
// 数字题以数字字符串保存。
type Answer struct {
	QuestionID string
	Value      string
	Values     []string
	Set        bool
}

func TextAnswer(questionID, text string) Answer {
	return Answer{QuestionID: questionID, Value: text}
}

func NumberAnswer(questionID string, n int) Answer {
	return Answer{QuestionID: questionID, Value: strconv.Itoa(n)}
}

func ChoiceAnswer(questionID, option string) Answer {
	return Answer{QuestionID: questionID, Value: option}
}

func CheckboxAnswer(questionID string, options ...string) Answer {
	return Answer{QuestionID: questionID, Values: append([]string{}, options...), Set: true}
}

type answerWire struct {
	QuestionID string          `json:"questionId"`
	Response   json.RawMessage `json:"response"`
}

func (a Answer) MarshalJSON() ([]byte, error) {
	var resp any = a.Value
	if a.Set {
		vals := a.Values
		if vals == nil {
			vals = []string{}
		}
		resp = vals
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerWire{QuestionID: a.QuestionID, Response: raw})
}

// UnmarshalJSON 接受字符串、数字或字符串数组形式的 response
func (a *Answer) UnmarshalJSON(data []byte) error {
	var w answerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Answer{QuestionID: w.QuestionID}
	resp := bytes.TrimSpace(w.Response)

	switch {
	case len(resp) == 0 || bytes.Equal(resp, []byte("null")):
	case resp[0] == '[':
		var vals []string
		if err := json.Unmarshal(resp, &vals); err != nil {
			return fmt.Errorf("answer %q: response must be a list of strings: %w", w.QuestionID, err)
		}
		out.Values = vals
		if out.Values == nil {
			out.Values = []string{}
		}
		out.Set = true
	case resp[0] == '"':
		if err := json.Unmarshal(resp, &out.Value); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(resp, &n); err != nil {
			return fmt.Errorf("answer %q: unsupported response: %w", w.QuestionID, err)
		}
		out.Value = n.String()
	}

	*a = out
	return nil
}

// ToggleChoice 按成员关系取反：存在则移除，不存在则加入
func ToggleChoice(set []string, option string) []string {
	out := make([]string, 0, len(set)+1)
	found := false
	for _, v := range set {
		if v == option {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, option)
	}
	return out
}

// Answers questionId -> Answer。传输时是按 questionId 排序的数组。
type Answers map[string]Answer

func (as Answers) MarshalJSON() ([]byte, error) {
	list := as.List()
	if list == nil {
		list = []Answer{}
	}
	return json.Marshal(list)
}

func (as *Answers) UnmarshalJSON(data []byte) error {
	var list []Answer
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	out := make(Answers, len(list))
	for _, a := range list {
		out[a.QuestionID] = a
	}
	*as = out
	return nil
}

func (as Answers) List() []Answer {
	keys := make([]string, 0, len(as))
	for k := range as {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]Answer, 0, len(keys))
	for _, k := range keys {
		list = append(list, as[k])
	}
	return list
}

// Clone 深拷贝，提交时发送的是当时的完整快照
func (as Answers) Clone() Answers {
	out := make(Answers, len(as))
	for k, a := range as {
		if a.Values != nil {
			a.Values = append([]string{}, a.Values...)
		}
		out[k] = a
	}
	return out
}
