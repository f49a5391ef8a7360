package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/detection"
	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/models"
	"github.com/kdimtricp/deepcheck/internal/render"
	"github.com/kdimtricp/deepcheck/internal/reports"
)

const (
	msgConfigError    = "API configuration error. Please check server configuration."
	msgHistoryFailed  = "Failed to fetch analysis history"
	msgNoReport       = "No report data provided"
	msgRenderFailed   = "Failed to generate PDF"
	multipartMemLimit = 32 << 20
)

type ReportFinder interface {
	FindByID(ctx context.Context, reportID string) (models.StoredReport, error)
	Ping(ctx context.Context) error
}

type DocumentRenderer interface {
	Render(report models.Report) ([]byte, error)
}

type StoredDocumentRenderer interface {
	RenderStored(ctx context.Context, stored models.StoredReport) ([]byte, error)
}

type App struct {
	Detection *detection.Service
	History   *reports.HistoryService
	Reports   ReportFinder
	Renderer  DocumentRenderer
	Documents StoredDocumentRenderer
	Logger    *logger.Logger
}

func (app *App) log() *logger.Logger {
	if app.Logger == nil {
		return logger.Nop()
	}
	return app.Logger
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type analysisMeta struct {
	Persisted bool       `json:"persisted"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Evidence  string     `json:"evidence,omitempty"`
}

func (app *App) DetectHandler(w http.ResponseWriter, r *http.Request) {
	maxSize := app.Detection.MaxUploadSize()
	// Leave room for multipart framing so oversize files reach ValidateUpload.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemLimit)

	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			app.fail(w, r, detection.ValidateUpload("upload", "", maxSize+1, maxSize), "")
			return
		}
		app.fail(w, r, detection.ValidateUpload("", "", 0, maxSize), "")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		app.fail(w, r, detection.ValidateUpload("", "", 0, maxSize), "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		app.fail(w, r, apperrors.InvalidInput("Failed to read uploaded file"), "")
		return
	}

	ip, ua := clientInfo(r)
	result, err := app.Detection.Analyze(r.Context(), detection.Upload{
		FileName: header.Filename,
		MimeType: detection.NormalizeMimeType(header.Header.Get("Content-Type"), data),
		Data:     data,
		Request:  reports.RequestContext{IPAddress: ip, UserAgent: ua},
	})
	if err != nil {
		app.failAnalysis(w, r, err)
		return
	}

	writeData(w, result.Report, analysisMeta{Persisted: result.Persisted, CreatedAt: result.CreatedAt, Evidence: result.Evidence})
}

func (app *App) failAnalysis(w http.ResponseWriter, r *http.Request, err error) {
	switch code := apperrors.CodeOf(err); code {
	case apperrors.CodeInvalidInput:
		app.fail(w, r, err, "")
	case apperrors.CodeCapabilityNotConfigured:
		writeError(w, r, app.log(), err, http.StatusInternalServerError, msgConfigError)
	default:
		msg := "An unexpected error occurred during analysis"
		if appErr, ok := apperrors.As(err); ok {
			msg = "Analysis failed: " + appErr.Message
		}
		writeError(w, r, app.log(), err, http.StatusInternalServerError, msg)
	}
}

func (app *App) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	writeError(w, r, app.log(), err, statusFor(err), message)
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := app.Detection.Health(r.Context())
	status := http.StatusOK
	if health.Status != "online" {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, health)
}

func (app *App) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseHistoryQuery(r)
	if err != nil {
		app.fail(w, r, err, "")
		return
	}

	page, err := app.History.List(r.Context(), q)
	if err != nil {
		message := ""
		if apperrors.Is(err, apperrors.CodePersistenceUnavailable) {
			message = msgHistoryFailed
		}
		app.fail(w, r, err, message)
		return
	}
	writeData(w, page, nil)
}

func parseHistoryQuery(r *http.Request) (reports.HistoryQuery, error) {
	values := r.URL.Query()
	q := reports.HistoryQuery{Page: 1, PageSize: reports.DefaultPageSize, Verdict: values.Get("verdict")}

	for _, p := range []struct {
		key string
		dst *int
	}{{"page", &q.Page}, {"limit", &q.PageSize}} {
		raw := values.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, apperrors.InvalidPageRequest("Invalid pagination parameters. Page must be >= 1, limit must be between 1 and 50.")
		}
		*p.dst = n
	}
	return q, nil
}

func (app *App) HistoryProbeHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Reports.Ping(r.Context()); err != nil {
		app.log().Warn("history probe failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (app *App) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	stored, err := app.Reports.FindByID(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		app.fail(w, r, err, "")
		return
	}
	writeData(w, stored, nil)
}

func (app *App) StoredReportPDFHandler(w http.ResponseWriter, r *http.Request) {
	stored, err := app.Reports.FindByID(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		app.fail(w, r, err, "")
		return
	}

	doc, err := app.Documents.RenderStored(r.Context(), stored)
	if err != nil {
		app.failRender(w, r, err)
		return
	}
	writePDF(w, render.FileName(stored.Report), doc)
}

type generatePDFRequest struct {
	Report *models.Report `json:"report"`
}

func (app *App) GeneratePDFHandler(w http.ResponseWriter, r *http.Request) {
	var req generatePDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Report == nil {
		app.fail(w, r, apperrors.InvalidInput(msgNoReport), "")
		return
	}

	doc, err := app.Renderer.Render(*req.Report)
	if err != nil {
		app.failRender(w, r, err)
		return
	}
	writePDF(w, render.FileName(*req.Report), doc)
}

func (app *App) failRender(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.Is(err, apperrors.CodeRenderInputIncomplete) {
		app.fail(w, r, err, "")
		return
	}
	writeError(w, r, app.log(), err, http.StatusInternalServerError, msgRenderFailed)
}

func (app *App) EvidenceHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := app.Detection.Evidence(r.Context(), name)
	if err != nil {
		app.fail(w, r, err, "")
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		writeError(w, r, app.log(), err, http.StatusInternalServerError, "Failed to read evidence")
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writePDF(w http.ResponseWriter, fileName string, doc []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}
