package service

import (
	"math"

	"taskFlow/internal/repository"
)

const (
	MaxPageLimit = 1000
	maxOffset    = math.MaxInt32
)

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func newPagination(page repository.Page, total int) Pagination {
	pages := 0
	if page.Limit > 0 {
		pages = (total + page.Limit - 1) / page.Limit
	}
	return Pagination{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
		Pages: pages,
	}
}

// normalizePage подставляет значения по умолчанию вместо нулевых и отрицательных,
// ограничивает limit сверху и номер страницы так, чтобы смещение не переполнялось.
func normalizePage(page, limit, defaultLimit int) repository.Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if lastPage := maxOffset/limit + 1; page > lastPage {
		page = lastPage
	}
	return repository.Page{Page: page, Limit: limit}
}

// allMeansAny превращает значение фильтра "all" в пустой фильтр.
func allMeansAny(value string) string {
	if value == "all" {
		return ""
	}
	return value
}
