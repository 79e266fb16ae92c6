package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// StringList is an ordered list of strings stored as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

// AnswerSet is one or more option strings. On the wire it accepts either a
// single string or an array of strings; it always encodes as an array.
type AnswerSet []string

var errAnswerShape = errors.New("answer must be a string or an array of strings")

// UnmarshalJSON implements json.Unmarshaler.
func (a *AnswerSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AnswerSet{s}
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(AnswerSet, 0, len(raw))
		for i, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return fmt.Errorf("answer[%d]: %w", i, errAnswerShape)
			}
			out = append(out, s)
		}
		*a = out
		return nil
	}
	return errAnswerShape
}

// Value implements driver.Valuer.
func (a AnswerSet) Value() (driver.Value, error) {
	return StringList(a).Value()
}

// Scan implements sql.Scanner. Legacy rows holding a bare JSON string are accepted.
func (a *AnswerSet) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan answer set: unsupported type %T", src)
	}
	return a.UnmarshalJSON(raw)
}

// SubmittedAnswer is a student's answer for one question.
type SubmittedAnswer struct {
	QuestionID int64     `json:"question_id"`
	Answer     AnswerSet `json:"answer"`
}

// SubmittedAnswers is the answers column of a StudentTest.
type SubmittedAnswers []SubmittedAnswer

// Value implements driver.Valuer. A nil list is stored as NULL.
func (s SubmittedAnswers) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal([]SubmittedAnswer(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *SubmittedAnswers) Scan(src any) error {
	return scanJSON(src, (*[]SubmittedAnswer)(s))
}

// Lookup returns the answer submitted for questionID, or nil.
func (s SubmittedAnswers) Lookup(questionID int64) AnswerSet {
	for _, a := range s {
		if a.QuestionID == questionID {
			return a.Answer
		}
	}
	return nil
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("scan json column: unsupported type %T", src)
	}
}
