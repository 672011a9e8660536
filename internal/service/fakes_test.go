package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"proctorexam/internal/cache"
	"proctorexam/internal/grading"
	"proctorexam/internal/model"
)

type idSource struct {
	mu sync.Mutex
	n  int
}

func (s *idSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%024x", s.n)
}

var ids = &idSource{}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = ids.next()
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, list []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range list {
		if u, _ := r.GetByID(ctx, id); u != nil {
			out[id] = u
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role model.Role) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.User{}
	for _, u := range r.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeUserRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsBlocked = blocked
	}
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	delete(r.users, id)
	return ok, nil
}

func (r *fakeUserRepo) Count(_ context.Context, role model.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if role == "" || u.Role == role {
			n++
		}
	}
	return n, nil
}

type fakeExamRepo struct {
	mu    sync.Mutex
	exams map[string]*model.Exam
	taken map[string]bool // keys reported as existing regardless of exams
}

func newFakeExamRepo() *fakeExamRepo {
	return &fakeExamRepo{exams: map[string]*model.Exam{}, taken: map[string]bool{}}
}

func (r *fakeExamRepo) Create(_ context.Context, e *model.Exam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = ids.next()
	e.CreatedAt = time.Now()
	cp := *e
	r.exams[e.ID] = &cp
	return nil
}

func (r *fakeExamRepo) GetByID(_ context.Context, id string) (*model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.exams[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeExamRepo) GetByKey(_ context.Context, key string) (*model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.exams {
		if e.ExamKey == key {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeExamRepo) ExistsByKey(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	taken := r.taken[key]
	r.mu.Unlock()
	if taken {
		return true, nil
	}
	e, _ := r.GetByKey(ctx, key)
	return e != nil, nil
}

func (r *fakeExamRepo) GetByIDs(ctx context.Context, list []string) (map[string]*model.Exam, error) {
	out := map[string]*model.Exam{}
	for _, id := range list {
		if e, _ := r.GetByID(ctx, id); e != nil {
			out[id] = e
		}
	}
	return out, nil
}

func (r *fakeExamRepo) ListByCreator(_ context.Context, creatorID string) ([]*model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Exam{}
	for _, e := range r.exams {
		if e.CreatedBy == creatorID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeExamRepo) Update(_ context.Context, id string, in *model.ExamInput) (*model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exams[id]
	if !ok {
		return nil, nil
	}
	e.Title, e.Duration, e.PassingMarks, e.Questions = in.Title, in.Duration, in.PassingMarks, in.Questions
	if in.ProctoringEnabled != nil {
		e.ProctoringEnabled = *in.ProctoringEnabled
	}
	cp := *e
	return &cp, nil
}

func (r *fakeExamRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.exams[id]; ok {
		e.IsActive = active
	}
	return nil
}

func (r *fakeExamRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.exams[id]
	delete(r.exams, id)
	return ok, nil
}

func (r *fakeExamRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.exams)), nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results []*model.Result
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{}
}

func (r *fakeResultRepo) Create(_ context.Context, res *model.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.ID = ids.next()
	if res.SubmittedAt.IsZero() {
		res.SubmittedAt = time.Now()
	}
	cp := *res
	r.results = append(r.results, &cp)
	return nil
}

func (r *fakeResultRepo) GetByID(_ context.Context, id string) (*model.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.ID == id {
			cp := *res
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeResultRepo) ExistsForStudent(_ context.Context, studentID, examID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.StudentID == studentID && res.ExamID == examID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeResultRepo) filter(keep func(*model.Result) bool, less func(a, b *model.Result) bool) []*model.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Result{}
	for _, res := range r.results {
		if keep(res) {
			cp := *res
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r *fakeResultRepo) ListByExam(_ context.Context, examID string) ([]*model.Result, error) {
	return r.filter(
		func(res *model.Result) bool { return res.ExamID == examID },
		func(a, b *model.Result) bool { return a.Score > b.Score },
	), nil
}

func (r *fakeResultRepo) ListByStudent(_ context.Context, studentID string) ([]*model.Result, error) {
	return r.filter(
		func(res *model.Result) bool { return res.StudentID == studentID },
		func(a, b *model.Result) bool { return a.SubmittedAt.After(b.SubmittedAt) },
	), nil
}

func (r *fakeResultRepo) Delete(_ context.Context, id string) (*model.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, res := range r.results {
		if res.ID == id {
			r.results = append(r.results[:i], r.results[i+1:]...)
			return res, nil
		}
	}
	return nil, nil
}

func (r *fakeResultRepo) deleteWhere(keep func(*model.Result) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.results[:0]
	var n int64
	for _, res := range r.results {
		if keep(res) {
			kept = append(kept, res)
		} else {
			n++
		}
	}
	r.results = kept
	return n
}

func (r *fakeResultRepo) DeleteByExam(_ context.Context, examID string) (int64, error) {
	return r.deleteWhere(func(res *model.Result) bool { return res.ExamID != examID }), nil
}

func (r *fakeResultRepo) DeleteByStudent(_ context.Context, studentID string) (int64, error) {
	return r.deleteWhere(func(res *model.Result) bool { return res.StudentID != studentID }), nil
}

func (r *fakeResultRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.results)), nil
}

// stubRunner answers sandbox calls from a table keyed by stdin
type stubRunner struct {
	mu      sync.Mutex
	outputs map[string]model.RunResult
	calls   int
}

func (s *stubRunner) Run(_ context.Context, _ string, stdin string) model.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if res, ok := s.outputs[stdin]; ok {
		return res
	}
	return model.RunResult{Success: false, Output: "Execution Error"}
}

type broadcast struct {
	examID  string
	msgType string
	payload interface{}
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (b *recordingBroadcaster) BroadcastToExam(examID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcast{examID, msgType, payload})
}

func (b *recordingBroadcaster) messages() []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast(nil), b.sent...)
}

// env wires every service over in-memory repositories and miniredis
type env struct {
	mr          *miniredis.Miniredis
	users       *fakeUserRepo
	exams       *fakeExamRepo
	results     *fakeResultRepo
	runner      *stubRunner
	broadcaster *recordingBroadcaster

	proctorCache cache.ProctorCache
	leaderboard  cache.LeaderboardCache

	auth        *AuthService
	examSvc     *ExamService
	submissions *SubmissionService
	resultSvc   *ResultService
	students    *StudentService
	proctor     *ProctorService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	e := &env{
		mr:          mr,
		users:       newFakeUserRepo(),
		exams:       newFakeExamRepo(),
		results:     newFakeResultRepo(),
		runner:      &stubRunner{outputs: map[string]model.RunResult{}},
		broadcaster: &recordingBroadcaster{},
	}

	examCache := cache.NewExamCache(client, time.Minute)
	e.leaderboard = cache.NewLeaderboardCache(client)
	e.proctorCache = cache.NewProctorCache(client)

	e.auth = NewAuthService(e.users, "test-secret", "admin-key", time.Hour)
	e.auth.hashCost = 4 // bcrypt.MinCost
	e.examSvc = NewExamService(e.exams, e.results, examCache, e.leaderboard, e.proctorCache)
	e.submissions = NewSubmissionService(e.examSvc, e.results, grading.NewGrader(e.runner, 1), e.leaderboard, e.proctorCache)
	e.submissions.SetBroadcaster(e.broadcaster)
	e.resultSvc = NewResultService(e.results, e.users, e.exams, e.leaderboard)
	e.students = NewStudentService(e.users, e.results)
	e.proctor = NewProctorService(e.proctorCache)
	e.proctor.SetBroadcaster(e.broadcaster)
	return e
}

func (e *env) addStudent(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Role: model.RoleStudent}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

// mixedExam has one question of every type, 12 points in total
func mixedExam() *model.ExamInput {
	return &model.ExamInput{
		Title:        "Mixed",
		Duration:     30,
		PassingMarks: 6,
		Questions: []model.Question{
			{QuestionText: "Capital of France?", Type: model.QuestionTypeMCQ, Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris", Weightage: 2},
			{QuestionText: "Primes?", Type: model.QuestionTypeMSQ, Options: []string{"2", "3", "4"}, CorrectAnswers: []string{"2", "3"}, Weightage: 2},
			{QuestionText: "Echo", Type: model.QuestionTypeCoding, Weightage: 8, TestCases: []model.TestCase{
				{Input: "a", Output: "a", IsPublic: true},
				{Input: "b", Output: "b"},
				{Input: "c", Output: "c"},
				{Input: "d", Output: "d"},
			}},
		},
	}
}
