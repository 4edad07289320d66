package model

// Sessionはポータル操作中のブラウザ状態を明示的に持ち回るための値です。
// 状態遷移はすべてこの値を参照渡しで受け取り、Stateを更新します。
type Session struct {
	State      SessionState
	CurrentURL string
	Task       CompanyTask
	JobNumber  string
	ReportPath string
}

func NewSession() *Session {
	return &Session{State: LoggedOut}
}

// Moveは状態とURLを更新します。
func (s *Session) Move(state SessionState, currentURL string) {
	s.State = state
	s.CurrentURL = currentURL
}

// BeginTaskはタスク固有の値をリセットして新しいタスクを設定します。
func (s *Session) BeginTask(task CompanyTask) {
	s.Task = task
	s.JobNumber = ""
	s.ReportPath = ""
}
