package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrDuplicateReportID = errors.New("duplicate report id")
	ErrReportNotFound    = errors.New("report not found")
)

const pgUniqueViolation = "23505"

// ReportFilter narrows FindPage. An empty Verdict matches every report.
type ReportFilter struct {
	Verdict string
}

type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Insert writes rec. A unique-key violation on report_id is returned as
// ErrDuplicateReportID so callers can retry with a fresh identifier.
func (r *ReportRepository) Insert(ctx context.Context, rec *ReportRecord) error {
	result := r.db.GORM().WithContext(ctx).Create(rec)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: %s", ErrDuplicateReportID, rec.ReportID)
		}
		return fmt.Errorf("failed to insert report: %w", result.Error)
	}
	return nil
}

func (r *ReportRepository) FindByReportID(ctx context.Context, reportID string) (*ReportRecord, error) {
	var rec ReportRecord
	result := r.db.GORM().WithContext(ctx).First(&rec, "report_id = ?", reportID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", result.Error)
	}
	return &rec, nil
}

// FindPage returns one page of reports, newest first, along with the total
// number of reports matching filter. Reports sharing a timestamp are ordered
// by insertion, later first.
func (r *ReportRepository) FindPage(ctx context.Context, filter ReportFilter, offset, limit int) ([]ReportRecord, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Verdict != "" {
			return db.Where("overall_verdict = ?", filter.Verdict)
		}
		return db
	}

	var total int64
	err := r.db.GORM().WithContext(ctx).
		Model(&ReportRecord{}).
		Scopes(scope).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	records := []ReportRecord{}
	if total > int64(offset) {
		err := r.db.GORM().WithContext(ctx).
			Scopes(scope).
			Order("created_at DESC").
			Order("id DESC").
			Offset(offset).
			Limit(limit).
			Find(&records).Error
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list reports: %w", err)
		}
	}
	return records, total, nil
}

type verdictCount struct {
	OverallVerdict string
	Count          int64
}

func (r *ReportRepository) CountByVerdict(ctx context.Context) (map[string]int64, error) {
	var rows []verdictCount
	err := r.db.GORM().WithContext(ctx).
		Model(&ReportRecord{}).
		Select("overall_verdict, COUNT(*) AS count").
		Group("overall_verdict").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by verdict: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.OverallVerdict] = row.Count
	}
	return counts, nil
}

// FindByFingerprint lists reports for identical content, newest first.
func (r *ReportRepository) FindByFingerprint(ctx context.Context, fingerprint string) ([]ReportRecord, error) {
	var records []ReportRecord
	err := r.db.GORM().WithContext(ctx).
		Where("content_fingerprint = ?", fingerprint).
		Order("created_at DESC").
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find reports by fingerprint: %w", err)
	}
	return records, nil
}

func (r *ReportRepository) Ping(ctx context.Context) error {
	return r.db.Health(ctx)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}
