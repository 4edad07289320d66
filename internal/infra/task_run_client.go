package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/repository"
	"github.com/redis/go-redis/v9"
)

type taskRunClient struct {
	redis *redis.Client
	now   func() time.Time
}

func NewTaskRunClient(rds *redis.Client) repository.TaskRunRepository {
	return &taskRunClient{
		redis: rds,
		now:   time.Now,
	}
}

// TaskRunRecordはRedisに保存するタスク実行記録です。
type TaskRunRecord struct {
	ID        string `json:"id"`
	UniqueID  string `json:"unique_id"`
	CompanyID string `json:"company_id"`
	JobNumber string `json:"job_number"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	At        string `json:"at"`
}

func toTaskRunRecord(run model.TaskRun) TaskRunRecord {
	return TaskRunRecord{
		ID:        run.ID.String(),
		UniqueID:  run.UniqueID,
		CompanyID: run.CompanyID,
		JobNumber: run.JobNumber,
		Status:    string(run.Status),
		Reason:    run.Reason,
		At:        run.At.Format(time.RFC3339),
	}
}

func (r TaskRunRecord) ToDomain() (model.TaskRun, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.TaskRun{}, fmt.Errorf("実行記録のIDが不正です: %w", err)
	}
	at, err := time.Parse(time.RFC3339, r.At)
	if err != nil {
		return model.TaskRun{}, fmt.Errorf("実行記録の日時が不正です: %w", err)
	}
	return model.TaskRun{
		ID:        id,
		UniqueID:  r.UniqueID,
		CompanyID: r.CompanyID,
		JobNumber: r.JobNumber,
		Status:    model.TaskRunStatus(r.Status),
		Reason:    r.Reason,
		At:        at,
	}, nil
}

// Saveは実行記録を保存します。同じタスクの古い状態のキーは削除します。
func (c *taskRunClient) Save(ctx context.Context, run model.TaskRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.At.IsZero() {
		run.At = c.now()
	}

	key, err := taskRunKey(run.Status, run.UniqueID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(toTaskRunRecord(run))
	if err != nil {
		return fmt.Errorf("実行記録のJSON変換に失敗しました: %w", err)
	}

	pipe := c.redis.TxPipeline()
	for _, status := range []model.TaskRunStatus{model.TaskRunStatusSuccess, model.TaskRunStatusSkipped, model.TaskRunStatusFailed} {
		if status == run.Status {
			continue
		}
		old, _ := taskRunKey(status, run.UniqueID)
		pipe.Del(ctx, old)
	}
	pipe.Set(ctx, key, data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("実行記録をRedisに保存できませんでした: %w", err)
	}
	return nil
}

func (c *taskRunClient) FindListByStatus(ctx context.Context, size int, status model.TaskRunStatus) ([]model.TaskRun, error) {
	pattern, err := taskRunKey(status, "*")
	if err != nil {
		return nil, err
	}

	var runs []model.TaskRun
	var cursor uint64
	for {
		var keys []string
		keys, cursor, err = c.redis.Scan(ctx, cursor, pattern, int64(size)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan error: %w", err)
		}

		for _, key := range keys {
			value, err := c.redis.Get(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("redis get error for key %s: %w", key, err)
			}

			var rec TaskRunRecord
			if err := json.Unmarshal([]byte(value), &rec); err != nil {
				return nil, fmt.Errorf("unmarshal error for key %s: %w", key, err)
			}
			run, err := rec.ToDomain()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			runs = append(runs, run)
		}

		if cursor == 0 {
			break
		}
	}

	return runs, nil
}

func taskRunKey(status model.TaskRunStatus, uniqueID string) (string, error) {
	switch status {
	case model.TaskRunStatusSuccess:
		return "success_task:" + uniqueID, nil
	case model.TaskRunStatusSkipped:
		return "skipped_task:" + uniqueID, nil
	case model.TaskRunStatusFailed:
		return "failed_task:" + uniqueID, nil
	default:
		return "", fmt.Errorf("unsupported task status: %s", status)
	}
}
