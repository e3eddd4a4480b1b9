package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/david/opportunity-sync/internal/auth"
	"github.com/david/opportunity-sync/internal/db"
	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/david/opportunity-sync/internal/logging"
	"github.com/david/opportunity-sync/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReadStore is the read side the handlers need.
type ReadStore interface {
	ListOpportunities(ctx context.Context, params db.ListParams) (*db.ListResult, error)
	GetOpportunity(ctx context.Context, key string) (*models.Opportunity, error)
	ListImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error)
}

type Options struct {
	CORSOrigins        []string
	ImportMaxFileBytes int64
	ImportMaxRows      int
}

type Server struct {
	Store    ReadStore
	Importer *ingest.Importer
	Auth     *auth.Service
	Echo     *echo.Echo
	Logger   zerolog.Logger
	opts     Options

	// one import at a time
	importMu sync.Mutex
}

func NewServer(store ReadStore, importer *ingest.Importer, authService *auth.Service, opts Options, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:4200"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, auth.AdminSecretHeader},
	}))

	s := &Server{
		Store:    store,
		Importer: importer,
		Auth:     authService,
		Echo:     e,
		Logger:   logger,
		opts:     opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/:key", s.handleGetOpportunity)

	admin := api.Group("")
	admin.Use(s.Auth.AdminMiddleware)
	admin.POST("/imports", s.handleImport)
	admin.GET("/imports", s.handleListImports)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	params := db.ListParams{
		Status: c.QueryParam("status"),
		SortBy: c.QueryParam("sort"),
		Limit:  20,
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		params.Offset = o
	}
	if v := c.QueryParam("min_value"); v != "" {
		minValue, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "min_value must be a number"})
		}
		params.MinValue = minValue
	}
	if status := strings.ToUpper(params.Status); status != "" && status != "ALL" &&
		status != string(ingest.StatusPending) && status != string(ingest.StatusWon) && status != string(ingest.StatusLost) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "status must be PENDING, WON, LOST or all"})
	}

	result, err := s.Store.ListOpportunities(c.Request().Context(), params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	key := c.Param("key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}
	opp, err := s.Store.GetOpportunity(c.Request().Context(), key)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Opportunity not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleListImports(c echo.Context) error {
	limit := 20
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 200 {
		limit = l
	}
	runs, err := s.Store.ListImportRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs})
}

// handleImport runs a full reconciliation over uploaded exports. Success and
// partial failure both answer 200 with the result body.
func (s *Server) handleImport(c echo.Context) error {
	if !s.importMu.TryLock() {
		return c.JSON(http.StatusConflict, map[string]string{"error": "An import is already running"})
	}
	defer s.importMu.Unlock()

	files := ingest.ImportFiles{}
	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()

	for _, field := range []ingest.SourceFile{ingest.FileQuotes, ingest.FileJobs, ingest.FileRequests} {
		upload, closer, err := s.openUpload(c, string(field))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		if upload == nil {
			continue
		}
		closers = append(closers, closer)
		switch field {
		case ingest.FileQuotes:
			files.Quotes = upload
		case ingest.FileJobs:
			files.Jobs = upload
		case ingest.FileRequests:
			files.Requests = upload
		}
	}
	if files.Quotes == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "quotes file is required"})
	}

	dryRun, _ := strconv.ParseBool(c.QueryParam("dry_run"))
	ctx := logging.WithRequestID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
	logging.FromContext(ctx).Info().
		Str("subject", auth.SubjectFromContext(c)).
		Str("quotes", files.Quotes.Name).
		Bool("dry_run", dryRun).
		Msg("import requested")

	result := s.Importer.Run(ctx, files, ingest.ImportOptions{
		DryRun:  dryRun,
		MaxRows: s.opts.ImportMaxRows,
		Source:  "api",
	})
	return c.JSON(http.StatusOK, result)
}

// openUpload returns nil when the form field is absent.
func (s *Server) openUpload(c echo.Context, field string) (*ingest.Upload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("invalid %s upload: %w", field, err)
	}
	if s.opts.ImportMaxFileBytes > 0 && fh.Size > s.opts.ImportMaxFileBytes {
		return nil, nil, fmt.Errorf("%s file exceeds %d bytes", field, s.opts.ImportMaxFileBytes)
	}

	var f multipart.File
	if f, err = fh.Open(); err != nil {
		return nil, nil, fmt.Errorf("open %s upload: %w", field, err)
	}
	return &ingest.Upload{Name: fh.Filename, Body: f}, f, nil
}
