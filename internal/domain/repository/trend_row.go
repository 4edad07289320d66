package repository

import (
	"context"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
)

// TrendRowRepositoryは出力シートへの書き込みを表します。
type TrendRowRepository interface {
	ExistsUniqueID(ctx context.Context, category model.Category, uniqueID string) (bool, error)
	Append(ctx context.Context, row model.TrendRow) error
}

// CompanyTaskRepositoryは入力シートからタスクを読み出します。
type CompanyTaskRepository interface {
	FindAll(ctx context.Context) ([]model.CompanyTask, error)
}
