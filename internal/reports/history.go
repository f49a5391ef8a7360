package reports

import (
	"context"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

const invalidPageMessage = "Invalid pagination parameters. Page must be >= 1, limit must be between 1 and 50."

type HistoryQuery struct {
	Page     int
	PageSize int
	// Verdict is matched case-insensitively. Values outside the verdict set
	// are ignored rather than rejected.
	Verdict string
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	NextPage    *int  `json:"nextPage"`
	PrevPage    *int  `json:"prevPage"`
}

type Page struct {
	Items      []models.StoredReport `json:"items"`
	Pagination Pagination            `json:"pagination"`
}

type pageFinder interface {
	FindPage(ctx context.Context, verdict models.Verdict, page, pageSize int) ([]models.StoredReport, int64, error)
}

// HistoryService serves read-only, paginated views over stored reports.
type HistoryService struct {
	store pageFinder
}

func NewHistoryService(store *Store) *HistoryService {
	return &HistoryService{store: store}
}

func (h *HistoryService) List(ctx context.Context, q HistoryQuery) (Page, error) {
	if q.Page < 1 || q.PageSize < 1 || q.PageSize > MaxPageSize {
		return Page{}, apperrors.InvalidPageRequest(invalidPageMessage)
	}

	verdict, ok := models.ParseVerdict(q.Verdict)
	if !ok {
		verdict = ""
	}

	items, total, err := h.store.FindPage(ctx, verdict, q.Page, q.PageSize)
	if err != nil {
		return Page{}, err
	}

	return Page{Items: items, Pagination: paginate(q.Page, q.PageSize, total)}, nil
}

func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	p := Pagination{
		CurrentPage: page,
		Limit:       pageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}
