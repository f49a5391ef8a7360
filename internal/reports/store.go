package reports

import (
	"context"
	"errors"
	"time"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/database"
	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/models"
)

// MaxSaveAttempts bounds inserts per Save, the first one included.
const MaxSaveAttempts = 3

// maxMintDraws bounds how often a fresh identifier is drawn when the minter
// keeps returning one that was already rejected.
const maxMintDraws = 8

type Repository interface {
	Insert(ctx context.Context, rec *database.ReportRecord) error
	FindByReportID(ctx context.Context, reportID string) (*database.ReportRecord, error)
	FindPage(ctx context.Context, filter database.ReportFilter, offset, limit int) ([]database.ReportRecord, int64, error)
	Ping(ctx context.Context) error
}

type IdentifierMinter interface {
	Mint() (string, error)
}

// RequestContext is the caller information captured alongside a report.
type RequestContext struct {
	IPAddress string
	UserAgent string
}

type Store struct {
	repo   Repository
	ids    IdentifierMinter
	now    func() time.Time
	logger *logger.Logger
}

func NewStore(repo Repository, ids IdentifierMinter, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{repo: repo, ids: ids, now: time.Now, logger: log}
}

// Save persists report. When the identifier collides with a stored one, a
// fresh identifier is minted and the insert retried, up to MaxSaveAttempts in
// total. Every error comes back with the last attempted StoredReport so the
// caller still holds the identifier that was tried.
//
// Exhausted retries yield PERSISTENCE_CONFLICT. Any other failure, including
// a cancelled context, yields PERSISTENCE_UNAVAILABLE without retrying.
func (s *Store) Save(ctx context.Context, report models.Report, rc RequestContext) (models.StoredReport, error) {
	createdAt := s.now().UTC().Truncate(time.Microsecond)
	candidate := report.WithIdentifier(report.ReportID)
	attempted := make(map[string]struct{}, MaxSaveAttempts)

	var stored models.StoredReport
	for attempt := 1; ; attempt++ {
		stored = models.StoredReport{
			Report:    candidate,
			IPAddress: rc.IPAddress,
			UserAgent: rc.UserAgent,
			CreatedAt: createdAt,
		}

		if err := ctx.Err(); err != nil {
			return stored, apperrors.PersistenceUnavailable(err)
		}

		attempted[candidate.ReportID] = struct{}{}
		err := s.repo.Insert(ctx, database.NewReportRecord(stored))
		if err == nil {
			if attempt > 1 {
				s.logger.Info("Report saved after identifier collision",
					"report_id", candidate.ReportID, "attempt", attempt)
			}
			return stored, nil
		}

		if !errors.Is(err, database.ErrDuplicateReportID) {
			return stored, apperrors.PersistenceUnavailable(err)
		}

		s.logger.Warn("Report identifier collision",
			"report_id", candidate.ReportID, "attempt", attempt, "error", err)

		if attempt >= MaxSaveAttempts {
			return stored, apperrors.PersistenceConflict(candidate.ReportID, attempt)
		}

		next, err := s.freshIdentifier(attempted)
		if err != nil {
			return stored, err
		}
		candidate = candidate.WithIdentifier(next)
	}
}

func (s *Store) freshIdentifier(attempted map[string]struct{}) (string, error) {
	for i := 0; i < maxMintDraws; i++ {
		id, err := s.ids.Mint()
		if err != nil {
			return "", apperrors.Internal(err, "failed to mint report identifier")
		}
		if _, seen := attempted[id]; !seen {
			return id, nil
		}
	}
	return "", apperrors.Internal(nil, "identifier source keeps returning rejected identifiers")
}

func (s *Store) FindByID(ctx context.Context, reportID string) (models.StoredReport, error) {
	rec, err := s.repo.FindByReportID(ctx, reportID)
	if err != nil {
		if errors.Is(err, database.ErrReportNotFound) {
			return models.StoredReport{}, apperrors.NotFound("report not found")
		}
		return models.StoredReport{}, apperrors.PersistenceUnavailable(err)
	}
	return rec.ToStoredReport(), nil
}

// FindPage returns pageSize reports starting at the 1-based page, newest
// first, and the total number matching verdict. An empty verdict matches
// all reports.
func (s *Store) FindPage(ctx context.Context, verdict models.Verdict, page, pageSize int) ([]models.StoredReport, int64, error) {
	offset := (page - 1) * pageSize
	records, total, err := s.repo.FindPage(ctx, database.ReportFilter{Verdict: string(verdict)}, offset, pageSize)
	if err != nil {
		return nil, 0, apperrors.PersistenceUnavailable(err)
	}

	items := make([]models.StoredReport, 0, len(records))
	for i := range records {
		items = append(items, records[i].ToStoredReport())
	}
	return items, total, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return apperrors.PersistenceUnavailable(err)
	}
	return nil
}
