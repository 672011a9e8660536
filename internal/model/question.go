package model

// QuestionType defines the type of question
type QuestionType string

const (
	QuestionTypeMCQ    QuestionType = "MCQ"    // Single correct option
	QuestionTypeMSQ    QuestionType = "MSQ"    // Exact set of correct options
	QuestionTypeCoding QuestionType = "Coding" // Graded by running test cases
)

// TestCase is one stdin/stdout pair for a coding question
type TestCase struct {
	Input    string `json:"input" bson:"input"`
	Output   string `json:"output" bson:"output"`
	IsPublic bool   `json:"isPublic" bson:"isPublic"`
}

// Question is one entry of an exam. Only the answer key matching Type is meaningful.
type Question struct {
	QuestionText   string       `json:"questionText" bson:"questionText"`
	Options        []string     `json:"options" bson:"options"`
	Type           QuestionType `json:"type" bson:"type"`
	Weightage      int          `json:"weightage" bson:"weightage"`
	CorrectAnswer  string       `json:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"`   // MCQ
	CorrectAnswers []string     `json:"correctAnswers,omitempty" bson:"correctAnswers,omitempty"` // MSQ
	TestCases      []TestCase   `json:"testCases,omitempty" bson:"testCases,omitempty"`           // Coding
}

// Weight returns the question's weightage, 1 when unset.
func (q Question) Weight() int {
	if q.Weightage <= 0 {
		return 1
	}
	return q.Weightage
}

// Kind returns the question type, MCQ when unset.
func (q Question) Kind() QuestionType {
	if q.Type == "" {
		return QuestionTypeMCQ
	}
	return q.Type
}

// forStudent hides answer keys and non-public test cases
func (q Question) forStudent() Question {
	out := Question{
		QuestionText: q.QuestionText,
		Options:      q.Options,
		Type:         q.Type,
		Weightage:    q.Weightage,
	}
	for _, tc := range q.TestCases {
		if tc.IsPublic {
			out.TestCases = append(out.TestCases, tc)
		}
	}
	return out
}
