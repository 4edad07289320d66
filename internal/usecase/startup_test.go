package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTaskSource struct {
	tasks []model.CompanyTask
	err   error
}

func (s stubTaskSource) FindAll(context.Context) ([]model.CompanyTask, error) {
	return s.tasks, s.err
}

func TestLoadStartupData(t *testing.T) {
	taxonomy := model.Taxonomy{Regions: []string{"関東"}}
	tasks := []model.CompanyTask{{CompanyID: "1001"}, {CompanyID: "1002"}}

	data, err := LoadStartupData(context.Background(), func() (model.Taxonomy, error) { return taxonomy, nil }, stubTaskSource{tasks: tasks})
	require.NoError(t, err)
	assert.Equal(t, taxonomy, data.Taxonomy)
	assert.Equal(t, tasks, data.Tasks)
}

func TestLoadStartupData_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := LoadStartupData(context.Background(), func() (model.Taxonomy, error) { return model.Taxonomy{}, boom }, stubTaskSource{})
	assert.ErrorIs(t, err, boom)

	_, err = LoadStartupData(context.Background(), func() (model.Taxonomy, error) { return model.Taxonomy{}, nil }, stubTaskSource{err: boom})
	assert.ErrorIs(t, err, boom)
}
