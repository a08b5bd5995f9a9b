package lesson

// submittedMsg carries the grading result of one answer.
type submittedMsg struct {
	Correct bool
	Err     error
}

// retriedMsg is sent when a failed load has been retried.
type retriedMsg struct {
	Err error
}
