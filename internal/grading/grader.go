// Package grading scores a submitted answer set against an exam definition.
package grading

import (
	"context"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"proctorexam/internal/model"
	"proctorexam/internal/sandbox"
)

// Outcome is the result of grading one submission. Score is exact when it
// has a terminating decimal form and carries 16 places otherwise; the
// unrounded value backs Status and ScoreFloat.
type Outcome struct {
	Score              decimal.Decimal
	TotalPossibleScore decimal.Decimal
	Questions          []model.QuestionScore

	exact *big.Rat
}

// Exact returns the unrounded score
func (o Outcome) Exact() *big.Rat {
	if o.exact == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(o.exact)
}

// ScoreFloat is the score as stored on a Result
func (o Outcome) ScoreFloat() float64 {
	f, _ := o.Exact().Float64()
	return f
}

// Status compares the unrounded score against passingMarks
func (o Outcome) Status(passingMarks float64) model.ResultStatus {
	return StatusFor(o.Exact(), passingMarks)
}

// Grader scores submissions. Coding questions are run through the CodeRunner
// once per test case.
type Grader struct {
	runner      sandbox.CodeRunner
	parallelism int
}

// NewGrader creates a grader. parallelism bounds concurrent test-case runs
// within one question; values below 2 run cases one after another.
func NewGrader(runner sandbox.CodeRunner, parallelism int) *Grader {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Grader{
		runner:      runner,
		parallelism: parallelism,
	}
}

// Score grades answers against every question of exam in order. It never
// fails: missing or malformed answers and sandbox failures earn no credit.
func (g *Grader) Score(ctx context.Context, exam *model.Exam, answers model.AnswerSet) Outcome {
	out := Outcome{
		TotalPossibleScore: decimal.Zero,
		Questions:          make([]model.QuestionScore, 0, len(exam.Questions)),
		exact:              new(big.Rat),
	}

	for i, q := range exam.Questions {
		out.TotalPossibleScore = out.TotalPossibleScore.Add(decimal.NewFromInt(int64(q.Weight())))

		v, ok := answers.At(i)
		qs := model.QuestionScore{Index: i, Type: q.Kind(), Weight: q.Weight()}
		earned := g.scoreQuestion(ctx, q, resolve(q, v, ok), &qs)

		qs.Earned, _ = earned.Float64()
		out.exact.Add(out.exact, earned)
		out.Questions = append(out.Questions, qs)
	}

	// Divide once so partial credits never accumulate rounding error.
	out.Score = decimal.NewFromBigInt(out.exact.Num(), 0).
		Div(decimal.NewFromBigInt(out.exact.Denom(), 0))
	return out
}

func (g *Grader) scoreQuestion(ctx context.Context, q model.Question, a answer, qs *model.QuestionScore) *big.Rat {
	weight := big.NewRat(int64(q.Weight()), 1)

	switch q.Kind() {
	case model.QuestionTypeMSQ:
		if sel, ok := a.(msqAnswer); ok && sel.equals(newChoiceSet(q.CorrectAnswers)) {
			return weight
		}
		return new(big.Rat)

	case model.QuestionTypeCoding:
		// A coding question without test cases can't be earned; its weight
		// still counts towards the total.
		if len(q.TestCases) == 0 {
			return new(big.Rat)
		}
		qs.TotalCases = len(q.TestCases)
		code, ok := a.(codeAnswer)
		if !ok {
			return new(big.Rat)
		}
		qs.PassedCases = g.runCases(ctx, string(code), q.TestCases)
		return big.NewRat(int64(qs.PassedCases)*int64(q.Weight()), int64(qs.TotalCases))

	default:
		if ans, ok := a.(mcqAnswer); ok && string(ans) == q.CorrectAnswer {
			return weight
		}
		return new(big.Rat)
	}
}

// runCases returns how many test cases the code passes
func (g *Grader) runCases(ctx context.Context, code string, cases []model.TestCase) int {
	passed := make([]bool, len(cases))

	if g.parallelism == 1 {
		for i, tc := range cases {
			passed[i] = casePassed(g.runner.Run(ctx, code, tc.Input), tc)
		}
	} else {
		var eg errgroup.Group
		eg.SetLimit(g.parallelism)
		for i, tc := range cases {
			eg.Go(func() error {
				passed[i] = casePassed(g.runner.Run(ctx, code, tc.Input), tc)
				return nil
			})
		}
		_ = eg.Wait()
	}

	n := 0
	for _, ok := range passed {
		if ok {
			n++
		}
	}
	return n
}

// casePassed compares output ignoring leading and trailing whitespace only
func casePassed(res model.RunResult, tc model.TestCase) bool {
	return res.Success && strings.TrimSpace(res.Output) == strings.TrimSpace(tc.Output)
}

// StatusFor derives Pass/Fail; a score equal to passingMarks passes.
// passingMarks is read as its shortest decimal form, so 0.1 means 1/10.
func StatusFor(score *big.Rat, passingMarks float64) model.ResultStatus {
	if score.Cmp(decimal.NewFromFloat(passingMarks).Rat()) >= 0 {
		return model.StatusPass
	}
	return model.StatusFail
}
