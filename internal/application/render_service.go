package application

import (
	"context"
	"fmt"
	"time"

	routemapDomain "github.com/colectivo/service-routemap/internal/domain/routemap"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reasons a cycle ends before fetching any route.
const (
	SkipMissingAPIKey = "missing_api_key"
	SkipNoOptions     = "no_options"
	SkipNoBatches     = "no_batches"
)

// KeySource supplies the routing API credential. It is read once per render cycle.
type KeySource interface {
	APIKey() string
}

// KeySourceFunc adapts a function to KeySource.
type KeySourceFunc func() string

// APIKey calls f.
func (f KeySourceFunc) APIKey() string { return f() }

// Notifier tells the host application that a render cycle has finished.
// It is called exactly once per cycle, whatever the outcome.
type Notifier interface {
	MapRendered(ctx context.Context, report routemapDomain.CycleReport) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, report routemapDomain.CycleReport) error

// MapRendered calls f.
func (f NotifierFunc) MapRendered(ctx context.Context, report routemapDomain.CycleReport) error {
	return f(ctx, report)
}

// RenderOptions tunes the render cycle.
type RenderOptions struct {
	// Yield is the pause after raising the loading indicator.
	Yield time.Duration
	// Concurrency caps in-flight route fetches; 0 launches every fetch at once.
	Concurrency int
}

// SessionDTO is the API representation of a map session.
type SessionDTO struct {
	ID         uuid.UUID                   `json:"id"`
	Status     string                      `json:"status"`
	Loading    bool                        `json:"loading"`
	Viewport   routemapDomain.Viewport     `json:"viewport"`
	Markers    int                         `json:"markers"`
	Polylines  int                         `json:"polylines"`
	Cycles     int64                       `json:"cycles"`
	LastReport *routemapDomain.CycleReport `json:"last_report,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// RenderService is the application service drawing route options onto map sessions.
type RenderService struct {
	sessions routemapDomain.SessionRepository
	fetcher  routemapDomain.RouteFetcher
	keys     KeySource
	notifier Notifier
	opts     RenderOptions
	logger   *zap.Logger
}

// NewRenderService creates a new RenderService. notifier may be nil.
func NewRenderService(
	sessions routemapDomain.SessionRepository,
	fetcher routemapDomain.RouteFetcher,
	keys KeySource,
	notifier Notifier,
	opts RenderOptions,
	logger *zap.Logger,
) *RenderService {
	return &RenderService{
		sessions: sessions,
		fetcher:  fetcher,
		keys:     keys,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// CreateSession opens a new map session with an empty overlay.
func (s *RenderService) CreateSession(ctx context.Context) (*SessionDTO, error) {
	session := routemapDomain.NewSession()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.logger.Info("map session created", zap.String("session_id", session.ID().String()))
	return toSessionDTO(session), nil
}

// EnsureSession returns the session with the given ID, creating it when absent.
func (s *RenderService) EnsureSession(ctx context.Context, id uuid.UUID) (*SessionDTO, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err == nil {
		return toSessionDTO(session), nil
	}
	session = routemapDomain.NewSessionWithID(id)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return toSessionDTO(session), nil
}

// GetSession returns a session's state.
func (s *RenderService) GetSession(ctx context.Context, id uuid.UUID) (*SessionDTO, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionDTO(session), nil
}

// ListSessions returns every open session.
func (s *RenderService) ListSessions(ctx context.Context) ([]*SessionDTO, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	dtos := make([]*SessionDTO, len(sessions))
	for i, session := range sessions {
		dtos[i] = toSessionDTO(session)
	}
	return dtos, nil
}

// DeleteSession closes a session.
func (s *RenderService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return s.sessions.Delete(ctx, id)
}

// ClearOverlay removes every marker and route from a session's map. It waits
// for a running render cycle to finish first.
func (s *RenderService) ClearOverlay(ctx context.Context, id uuid.UUID) error {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return err
	}
	release := session.AcquireCycle()
	defer release()
	session.Overlay().Clear()
	return nil
}

// Overlay exports a session's map as GeoJSON.
func (s *RenderService) Overlay(ctx context.Context, id uuid.UUID) (*geojson.FeatureCollection, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.Overlay().FeatureCollection(), nil
}

// Render runs one render cycle for the JSON-encoded route options on the
// given session. Payload, credential and routing failures are logged and
// reflected in the returned report, never returned as errors; the only
// error is an unknown session. The loading indicator is always lowered and
// the notifier always called once the cycle ends.
func (s *RenderService) Render(ctx context.Context, sessionID uuid.UUID, payload string) (*routemapDomain.CycleReport, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	release := session.AcquireCycle()
	defer release()

	report := s.runCycle(ctx, session, payload)
	return &report, nil
}

func (s *RenderService) runCycle(ctx context.Context, session *routemapDomain.Session, payload string) (report routemapDomain.CycleReport) {
	log := s.logger.With(zap.String("session_id", session.ID().String()))
	report = routemapDomain.CycleReport{
		SessionID: session.ID(),
		StartedAt: time.Now().UTC(),
	}
	defer s.finishCycle(ctx, session, &report, log)

	s.transition(session, routemapDomain.StatusLoading, log)
	session.ShowLoading()
	s.yield(ctx)

	overlay := session.Overlay()
	overlay.Clear()

	options, err := ParseOptions(payload)
	if err != nil {
		log.Error("Error general al procesar rutas de colectivo", zap.Error(err))
		report.ParseError = err.Error()
		return report
	}
	report.OptionCount = len(options)

	apiKey := s.keys.APIKey()
	if apiKey == "" || len(options) == 0 {
		if apiKey == "" {
			log.Error("No se encontró GH_API_KEY.")
			report.Skipped = append(report.Skipped, SkipMissingAPIKey)
		}
		if len(options) == 0 {
			log.Info("No se encontraron opciones de ruta válidas.")
			report.Skipped = append(report.Skipped, SkipNoOptions)
		}
		return report
	}

	s.transition(session, routemapDomain.StatusRenderingMarkers, log)
	plotted := routemapDomain.DrawStopMarkers(overlay, options)
	report.MarkersDrawn = len(plotted)
	if len(plotted) > 0 {
		overlay.FitBounds(plotted)
	}

	batches := routemapDomain.BuildBatches(options)
	report.BatchesIssued = len(batches)
	if len(batches) == 0 {
		log.Info("No hay lotes de rutas para procesar.")
		report.Skipped = append(report.Skipped, SkipNoBatches)
		return report
	}

	s.transition(session, routemapDomain.StatusFetchingRoutes, log)
	results := s.fetchAll(ctx, batches, apiKey)

	s.transition(session, routemapDomain.StatusDrawingResults, log)
	for _, res := range results {
		if !res.OK() {
			reason := "Error desconocido"
			if res.Err != nil && res.Err.Error() != "" {
				reason = res.Err.Error()
			}
			log.Error(fmt.Sprintf("Lote de ruta fallido: %s", reason),
				zap.Int("option", res.Batch.Option),
				zap.Int("batch", res.Batch.Index),
			)
			report.RoutesFailed++
			report.Failures = append(report.Failures, reason)
			continue
		}
		overlay.AddPolyline(routemapDomain.Polyline{
			Coords:               res.Route.Coords,
			Style:                res.Route.Style,
			Option:               res.Batch.Option,
			Batch:                res.Batch.Index,
			DistanceKm:           res.Route.DistanceKm(),
			EstimatedDurationMin: res.Route.EstimatedDurationMin(),
		})
		report.RoutesDrawn++
	}

	return report
}

// fetchAll issues one request per batch and waits for every one to settle.
// A failing batch never cancels its siblings. Results come back in
// completion order.
func (s *RenderService) fetchAll(ctx context.Context, batches []routemapDomain.Batch, apiKey string) []routemapDomain.RouteResult {
	fetchCtx := context.WithoutCancel(ctx)
	settled := make(chan routemapDomain.RouteResult, len(batches))

	var g errgroup.Group
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}
	for _, batch := range batches {
		g.Go(func() error {
			settled <- s.fetchOne(fetchCtx, batch, apiKey)
			return nil
		})
	}
	_ = g.Wait()
	close(settled)

	results := make([]routemapDomain.RouteResult, 0, len(batches))
	for res := range settled {
		results = append(results, res)
	}
	return results
}

// fetchOne turns a panicking fetcher into a failed batch.
func (s *RenderService) fetchOne(ctx context.Context, batch routemapDomain.Batch, apiKey string) (res routemapDomain.RouteResult) {
	res.Batch = batch
	defer func() {
		if r := recover(); r != nil {
			res.Route = nil
			res.Err = fmt.Errorf("route fetch panicked: %v", r)
		}
	}()
	res.Route, res.Err = s.fetcher.FetchBatch(ctx, batch.Points, batch.Style, apiKey)
	return res
}

// finishCycle is the terminal step of every cycle, including one that panicked.
func (s *RenderService) finishCycle(ctx context.Context, session *routemapDomain.Session, report *routemapDomain.CycleReport, log *zap.Logger) {
	if r := recover(); r != nil {
		log.Error("Error general al procesar rutas de colectivo", zap.Any("panic", r))
		report.ParseError = fmt.Sprintf("unexpected failure: %v", r)
	}

	session.HideLoading()
	if session.Status() != routemapDomain.StatusIdle {
		s.transition(session, routemapDomain.StatusIdle, log)
	}

	report.FinishedAt = time.Now().UTC()
	session.RecordCycle(*report)

	log.Info("render cycle finished",
		zap.Int("markers", report.MarkersDrawn),
		zap.Int("batches", report.BatchesIssued),
		zap.Int("routes_drawn", report.RoutesDrawn),
		zap.Int("routes_failed", report.RoutesFailed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	if s.notifier == nil {
		return
	}
	if err := s.notifier.MapRendered(context.WithoutCancel(ctx), *report); err != nil {
		log.Warn("failed to notify host of finished render", zap.Error(err))
	}
}

func (s *RenderService) transition(session *routemapDomain.Session, target routemapDomain.RenderStatus, log *zap.Logger) {
	if err := session.TransitionTo(target); err != nil {
		log.Warn("unexpected render status change", zap.Error(err))
	}
}

func (s *RenderService) yield(ctx context.Context) {
	if s.opts.Yield <= 0 {
		return
	}
	timer := time.NewTimer(s.opts.Yield)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func toSessionDTO(session *routemapDomain.Session) *SessionDTO {
	overlay := session.Overlay()
	return &SessionDTO{
		ID:         session.ID(),
		Status:     session.Status().String(),
		Loading:    session.Loading(),
		Viewport:   overlay.Viewport(),
		Markers:    len(overlay.Markers()),
		Polylines:  len(overlay.Polylines()),
		Cycles:     session.Cycles(),
		LastReport: session.LastReport(),
		CreatedAt:  session.CreatedAt(),
		UpdatedAt:  session.UpdatedAt(),
	}
}
