package usecase

import (
	"fmt"
	"strings"

	"github.com/nrad-K/trend-crawler/internal/domain/model"
)

// TaskSelectorは入力シートのタスクから処理対象を選びます。
type TaskSelector func(tasks []model.CompanyTask) ([]model.CompanyTask, error)

// AllTasksはすべてのタスクを対象にします。
func AllTasks() TaskSelector {
	return func(tasks []model.CompanyTask) ([]model.CompanyTask, error) {
		return tasks, nil
	}
}

// RowTaskはn番目(1始まり、見出し行を除く)のタスクだけを対象にします。
func RowTask(n int) TaskSelector {
	return func(tasks []model.CompanyTask) ([]model.CompanyTask, error) {
		if n < 1 || n > len(tasks) {
			return nil, fmt.Errorf("%d行目のタスクはありません(全%d件)", n, len(tasks))
		}
		return tasks[n-1 : n], nil
	}
}

// FirstRowsは先頭からn件のタスクを対象にします。
func FirstRows(n int) TaskSelector {
	return func(tasks []model.CompanyTask) ([]model.CompanyTask, error) {
		if n < 1 {
			return nil, fmt.Errorf("件数は1以上を指定してください: %d", n)
		}
		if n > len(tasks) {
			n = len(tasks)
		}
		return tasks[:n], nil
	}
}

// CompanyTasksは企業IDが一致するタスクを対象にします。
func CompanyTasks(companyID string) TaskSelector {
	return func(tasks []model.CompanyTask) ([]model.CompanyTask, error) {
		id := strings.TrimSpace(companyID)
		var selected []model.CompanyTask
		for _, t := range tasks {
			if t.CompanyID == id {
				selected = append(selected, t)
			}
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("企業ID %s のタスクはありません", id)
		}
		return selected, nil
	}
}
