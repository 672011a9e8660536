package model

// RunRequest is the request body for POST /api/exams/run-code
type RunRequest struct {
	Code  string `json:"code"`
	Input string `json:"input"`
}

// RunResult is what the code sandbox reports for one execution
type RunResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}
