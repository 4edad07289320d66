package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskRunは1タスクの実行結果の記録です。
type TaskRun struct {
	ID        uuid.UUID     `json:"id"`
	UniqueID  string        `json:"unique_id"`
	CompanyID string        `json:"company_id"`
	JobNumber string        `json:"job_number"`
	Status    TaskRunStatus `json:"status"`
	Reason    string        `json:"reason"`
	At        time.Time     `json:"at"`
}

// Failureは失敗ログの1行です。
type Failure struct {
	CompanyID string
	JobNumber string
	Reason    string
	At        time.Time
}

// RunSummaryはバッチ全体の集計です。
type RunSummary struct {
	Processed int
	Skipped   int
	Failed    int
	Failures  []Failure
}
