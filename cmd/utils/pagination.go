package utils

import (
    "net/http"
    "strconv"

    "gorm.io/gorm"
)

// PageSize is fixed for every feed in the app.
const PageSize = 10

type PageMeta struct {
    Page       int   `json:"page"`
    PageSize   int   `json:"page_size"`
    Total      int64 `json:"total"`
    TotalPages int64 `json:"total_pages"`
}

// PageParam reads ?page= from the request. Missing or malformed values
// mean page 1; clamping past the last page happens once the total is known.
func PageParam(r *http.Request) int {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    if page < 1 {
        page = 1
    }
    return page
}

// Paginate counts the query, clamps page into range and loads one page of
// results into out. Out-of-range pages return the last page rather than an
// error, matching standard paginator behavior.
func Paginate(query *gorm.DB, page int, out interface{}) (PageMeta, error) {
    var total int64
    if err := query.Count(&total).Error; err != nil {
        return PageMeta{}, err
    }

    meta := newPageMeta(page, total)
    err := query.Offset((meta.Page - 1) * PageSize).Limit(PageSize).Find(out).Error
    return meta, err
}

// PageBounds clamps page against a known total and returns the half-open
// slice range [start, end) for that page. Used for the cached global feed,
// where the whole result list is already in memory.
func PageBounds(page, total int) (int, int, PageMeta) {
    meta := newPageMeta(page, int64(total))
    start := (meta.Page - 1) * PageSize
    if start > total {
        start = total
    }
    end := start + PageSize
    if end > total {
        end = total
    }
    return start, end, meta
}

func newPageMeta(page int, total int64) PageMeta {
    totalPages := (total + PageSize - 1) / PageSize
    if totalPages < 1 {
        totalPages = 1
    }
    if page < 1 {
        page = 1
    }
    if int64(page) > totalPages {
        page = int(totalPages)
    }
    return PageMeta{
        Page:       page,
        PageSize:   PageSize,
        Total:      total,
        TotalPages: totalPages,
    }
}
