package grading

import "proctorexam/internal/model"

// answer is a submitted value interpreted for one question type:
// mcqAnswer, msqAnswer or codeAnswer. nil means unanswered or wrong shape.
type answer interface {
	isAnswer()
}

type mcqAnswer string

type msqAnswer map[string]struct{}

type codeAnswer string

func (mcqAnswer) isAnswer()  {}
func (msqAnswer) isAnswer()  {}
func (codeAnswer) isAnswer() {}

// resolve decides once per question how the raw value is read
func resolve(q model.Question, v model.AnswerValue, present bool) answer {
	if !present {
		return nil
	}

	switch q.Kind() {
	case model.QuestionTypeMSQ:
		choices, ok := v.Choices()
		if !ok {
			return nil
		}
		return newChoiceSet(choices)
	case model.QuestionTypeCoding:
		code, ok := v.Text()
		if !ok {
			return nil
		}
		return codeAnswer(code)
	default:
		text, ok := v.Text()
		if !ok {
			return nil
		}
		return mcqAnswer(text)
	}
}

func newChoiceSet(choices []string) msqAnswer {
	set := make(msqAnswer, len(choices))
	for _, c := range choices {
		set[c] = struct{}{}
	}
	return set
}

func (s msqAnswer) equals(other msqAnswer) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if _, ok := other[c]; !ok {
			return false
		}
	}
	return true
}
