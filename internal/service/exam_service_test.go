package service

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorexam/internal/model"
)

func TestCreateExam(t *testing.T) {
	e := newEnv(t)

	exam, err := e.examSvc.Create(context.Background(), "admin1", mixedExam())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), exam.ExamKey)
	assert.True(t, exam.IsActive)
	assert.True(t, exam.ProctoringEnabled)
	assert.Equal(t, "admin1", exam.CreatedBy)

	listed, err := e.examSvc.List(context.Background(), "admin1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, exam.ID, listed[0].ID)
}

func TestCreateExamProctoringOff(t *testing.T) {
	e := newEnv(t)
	input := mixedExam()
	off := false
	input.ProctoringEnabled = &off

	exam, err := e.examSvc.Create(context.Background(), "admin1", input)
	require.NoError(t, err)
	assert.False(t, exam.ProctoringEnabled)
}

func TestCreateExamValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.ExamInput)
	}{
		{"no title", func(in *model.ExamInput) { in.Title = "  " }},
		{"zero duration", func(in *model.ExamInput) { in.Duration = 0 }},
		{"negative passing marks", func(in *model.ExamInput) { in.PassingMarks = -1 }},
		{"no questions", func(in *model.ExamInput) { in.Questions = nil }},
		{"empty question text", func(in *model.ExamInput) { in.Questions[0].QuestionText = "" }},
		{"mcq answer not an option", func(in *model.ExamInput) { in.Questions[0].CorrectAnswer = "Berlin" }},
		{"msq without answers", func(in *model.ExamInput) { in.Questions[1].CorrectAnswers = nil }},
		{"msq answer not an option", func(in *model.ExamInput) { in.Questions[1].CorrectAnswers = []string{"2", "9"} }},
		{"coding without test cases", func(in *model.ExamInput) { in.Questions[2].TestCases = nil }},
		{"unknown type", func(in *model.ExamInput) { in.Questions[0].Type = "Essay" }},
		{"negative weightage", func(in *model.ExamInput) { in.Questions[0].Weightage = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			input := mixedExam()
			tt.mutate(input)

			_, err := e.examSvc.Create(context.Background(), "admin1", input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)

			count, _ := e.exams.Count(context.Background())
			assert.Zero(t, count)
		})
	}
}

func TestUpdateAndToggleExam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	exam, err := e.examSvc.Create(ctx, "admin1", mixedExam())
	require.NoError(t, err)

	// warm the cache, then make sure updates are visible
	_, err = e.examSvc.Get(ctx, exam.ID)
	require.NoError(t, err)

	input := mixedExam()
	input.Title = "Renamed"
	updated, err := e.examSvc.Update(ctx, exam.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	got, err := e.examSvc.Get(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	active, err := e.examSvc.ToggleStatus(ctx, exam.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = e.examSvc.ToggleStatus(ctx, exam.ID)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = e.examSvc.Update(ctx, "missing", mixedExam())
	assert.ErrorIs(t, err, ErrExamNotFound)
	_, err = e.examSvc.ToggleStatus(ctx, "missing")
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func TestDeleteExamCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	student := e.addStudent(t, "ada")

	exam, err := e.examSvc.Create(ctx, "admin1", mixedExam())
	require.NoError(t, err)
	_, err = e.submissions.Submit(ctx, student.ID, &model.SubmitRequest{ExamID: exam.ID})
	require.NoError(t, err)

	require.NoError(t, e.examSvc.Delete(ctx, exam.ID))

	n, _ := e.results.Count(ctx)
	assert.Zero(t, n)
	top, err := e.leaderboard.GetTop(ctx, exam.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = e.examSvc.Get(ctx, exam.ID)
	assert.ErrorIs(t, err, ErrExamNotFound)
	assert.ErrorIs(t, e.examSvc.Delete(ctx, exam.ID), ErrExamNotFound)
}

func TestVerifyKey(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	student := e.addStudent(t, "ada")

	exam, err := e.examSvc.Create(ctx, "admin1", mixedExam())
	require.NoError(t, err)

	t.Run("unknown key", func(t *testing.T) {
		_, err := e.examSvc.VerifyKey(ctx, student.ID, "ZZZZZZ")
		assert.ErrorIs(t, err, ErrInvalidExamKey)
	})

	t.Run("student view", func(t *testing.T) {
		view, err := e.examSvc.VerifyKey(ctx, student.ID, " "+strings.ToLower(exam.ExamKey)+" ")
		require.NoError(t, err)
		assert.Empty(t, view.Questions[0].CorrectAnswer)
		assert.Empty(t, view.Questions[1].CorrectAnswers)
		require.Len(t, view.Questions[2].TestCases, 1)
		assert.True(t, view.Questions[2].TestCases[0].IsPublic)

		active, err := e.proctorCache.Active(ctx, exam.ID, student.ID)
		require.NoError(t, err)
		assert.True(t, active)
		assert.Equal(t, 45*60, int(e.mr.TTL("exam:"+exam.ID+":proctor:"+student.ID).Seconds()))
	})

	t.Run("inactive", func(t *testing.T) {
		_, err := e.examSvc.ToggleStatus(ctx, exam.ID)
		require.NoError(t, err)
		defer e.examSvc.ToggleStatus(ctx, exam.ID)

		_, err = e.examSvc.VerifyKey(ctx, student.ID, exam.ExamKey)
		assert.ErrorIs(t, err, ErrInvalidExamKey)
	})

	t.Run("already taken", func(t *testing.T) {
		_, err := e.submissions.Submit(ctx, student.ID, &model.SubmitRequest{ExamID: exam.ID})
		require.NoError(t, err)

		_, err = e.examSvc.VerifyKey(ctx, student.ID, exam.ExamKey)
		assert.ErrorIs(t, err, ErrExamAlreadyTaken)
	})
}
