package repository

import (
	"context"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
)

type TaskRunRepository interface {
	Save(ctx context.Context, run model.TaskRun) error
	FindListByStatus(ctx context.Context, size int, status model.TaskRunStatus) ([]model.TaskRun, error)
}
