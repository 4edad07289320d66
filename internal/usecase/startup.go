package usecase

import (
	"context"
	"fmt"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/nrad-K/trend-crawler/internal/domain/repository"
	"golang.org/x/sync/errgroup"
)

// StartupDataは処理開始前に読み込む参照データです。
type StartupData struct {
	Taxonomy model.Taxonomy
	Tasks    []model.CompanyTask
}

// LoadStartupDataは分類マスタと入力シートのタスクを並行して読み込みます。
// どちらかが失敗した場合はエラーを返し、ブラウザの操作は始めません。
func LoadStartupData(ctx context.Context, loadTaxonomy func() (model.Taxonomy, error), tasks repository.CompanyTaskRepository) (StartupData, error) {
	var data StartupData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := loadTaxonomy()
		if err != nil {
			return fmt.Errorf("分類マスタの読み込みに失敗しました: %w", err)
		}
		data.Taxonomy = t
		return nil
	})

	g.Go(func() error {
		list, err := tasks.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("入力シートの読み込みに失敗しました: %w", err)
		}
		data.Tasks = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return StartupData{}, err
	}
	return data, nil
}
