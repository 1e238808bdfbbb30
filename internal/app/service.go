// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/talentscope/internal/adapters/csvio"
	jobqueue "github.com/okian/talentscope/internal/adapters/mq/queue"
	workerpool "github.com/okian/talentscope/internal/adapters/mq/worker"
	repository "github.com/okian/talentscope/internal/adapters/repository"
	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/dedupe"
	"github.com/okian/talentscope/internal/domain/derive"
	"github.com/okian/talentscope/internal/domain/development"
	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/internal/domain/progression"
	"github.com/okian/talentscope/internal/domain/rating"
	"github.com/okian/talentscope/internal/domain/scouting"
	"github.com/okian/talentscope/internal/domain/types"
	"github.com/okian/talentscope/pkg/logger"
	"github.com/okian/talentscope/pkg/metrics"
)

// Service wires storage, scoring, progression and the recalculation
// pipeline together.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Seasons
	ownsStore   bool
	leaderboard *repository.Leaderboard
	estimator   *development.Estimator
	scorer      *rating.Scorer
	engine      *progression.Engine
	tracker     dedupe.Tracker
	queue       *jobqueue.InMemoryQueue
	workerPool  *workerpool.Pool
	cancel      context.CancelFunc

	// Configuration
	workerCount        int
	queueSize          int
	pendingSize        int
	dbDriver           string
	dbDSN              string
	modelPath          string
	xgProxy            float64
	xaProxy            float64
	similarTopN        int
	progressionWorkers int
	clock              func() time.Time

	// State. Read lock-free by in-flight jobs.
	started atomic.Bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recalculation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the recalculation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPendingSize bounds how many seasons may wait for recalculation.
func WithPendingSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pendingSize = size
		}
	}
}

// WithDB selects the database driver and DSN opened on Start.
func WithDB(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.dbDriver = driver
		}
		if dsn != "" {
			s.dbDSN = dsn
		}
	}
}

// WithStore injects an already opened store. The service does not close it.
func WithStore(store repository.Seasons) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithModelPath loads a development model artifact on Start.
func WithModelPath(path string) Option {
	return func(s *Service) {
		s.modelPath = path
	}
}

// WithProxies sets the expected-goal and expected-assist multipliers used
// when a season has no measured xG or xA.
func WithProxies(xg, xa float64) Option {
	return func(s *Service) {
		if xg > 0 {
			s.xgProxy = xg
		}
		if xa > 0 {
			s.xaProxy = xa
		}
	}
}

// WithSimilarTopN sets the default number of similar players.
func WithSimilarTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.similarTopN = n
		}
	}
}

// WithProgressionWorkers bounds per-player parallelism of the progression engine.
func WithProgressionWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.progressionWorkers = n
		}
	}
}

// WithClock overrides the time stamped on rating bundles and jobs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU(),
		queueSize:          10_000,
		pendingSize:        50_000,
		dbDriver:           repository.DriverSQLite,
		dbDSN:              "talentscope.db",
		xgProxy:            0.85,
		xaProxy:            0.75,
		similarTopN:        scouting.DefaultTopN,
		progressionWorkers: runtime.NumCPU(),
		clock:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, builds the scoring pipeline, rebuilds the
// leaderboard from stored ratings and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting talentscope service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.dbDriver, s.dbDSN,
			repository.WithLogger(s.logger))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	estOpts := []development.Option{development.WithLogger(s.logger.Named("development"))}
	if s.modelPath != "" {
		artifact, err := development.LoadArtifact(s.modelPath)
		if err != nil {
			s.closeOwnedStore(ctx)
			return fmt.Errorf("load model: %w", err)
		}
		estOpts = append(estOpts, development.WithArtifact(artifact))
	}
	s.estimator = development.NewEstimator(estOpts...)
	s.scorer = rating.NewScorer(
		rating.WithTable(benchmark.Default(benchmark.WithExpectedProxy(s.xgProxy, s.xaProxy))),
		rating.WithDeveloper(s.estimator),
		rating.WithClock(s.clock),
	)

	engine, err := progression.New(
		progression.WithWorkers(s.progressionWorkers),
		progression.WithLogger(s.logger.Named("progression")),
	)
	if err != nil {
		s.closeOwnedStore(ctx)
		return fmt.Errorf("build progression engine: %w", err)
	}
	s.engine = engine

	s.leaderboard = repository.NewLeaderboard()
	if err := s.rebuildLeaderboard(ctx); err != nil {
		s.closeOwnedStore(ctx)
		return err
	}

	s.tracker = dedupe.NewTracker(dedupe.WithMaxSize(s.pendingSize))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))

	// Workers outlive the Start call; only Stop ends them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithLogger(s.logger.Named("worker")),
		workerpool.WithReleaser(s.tracker),
	)
	s.workerPool.Start(runCtx)

	s.started.Store(true)
	s.logger.Info(ctx, "talentscope service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("pendingSize", s.pendingSize),
		logger.Bool("model", s.estimator.HasModel()),
		logger.Int("leaderboard", s.leaderboard.Count(ctx)),
	)
	return nil
}

// Stop shuts the worker pool down and closes the store if the service
// opened it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Load() {
		return nil
	}
	s.logger.Info(ctx, "stopping talentscope service...")
	s.started.Store(false)

	var errs []error
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.logger.Info(ctx, "talentscope service stopped")
	return errors.Join(errs...)
}

func (s *Service) closeOwnedStore(ctx context.Context) {
	if !s.ownsStore {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "close store", logger.Error(err))
	}
	s.store = nil
	s.ownsStore = false
}

func (s *Service) running() error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	return nil
}

// ImportResult summarises an import.
type ImportResult struct {
	Accepted int      `json:"accepted"`
	Skipped  int      `json:"skipped"`
	Scored   int      `json:"scored"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCSV reads a CSV export and imports every parsable row. With
// replace set, previously stored seasons and ratings are discarded.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, opts csvio.Options, replace bool) (ImportResult, error) {
	res, err := csvio.Read(r, opts)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv: %w", err)
	}
	out, err := s.Import(ctx, derive.Seasons(res.Seasons), replace)
	if err != nil {
		return ImportResult{}, err
	}
	out.Skipped = res.Skipped
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	return out, nil
}

// Import stores seasons, scores them, refreshes progression over the whole
// population and rebuilds the leaderboard.
func (s *Service) Import(ctx context.Context, seasons []model.PlayerSeason, replace bool) (ImportResult, error) {
	if err := s.running(); err != nil {
		return ImportResult{}, err
	}

	var (
		ids []int64
		err error
	)
	if replace {
		ids, err = s.store.Replace(ctx, seasons)
	} else {
		ids, err = s.store.Insert(ctx, seasons)
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("store seasons: %w", err)
	}

	updates := make([]repository.RatingUpdate, len(seasons))
	for i, ps := range seasons {
		ps.ID = ids[i]
		updates[i] = repository.RatingUpdate{ID: ids[i], Rating: s.scorer.Score(ctx, ps)}
	}
	if err := s.store.SaveRatings(ctx, updates); err != nil {
		return ImportResult{}, fmt.Errorf("save ratings: %w", err)
	}
	if err := s.refresh(ctx); err != nil {
		return ImportResult{}, err
	}

	s.logger.Info(ctx, "seasons imported",
		logger.Int("accepted", len(seasons)),
		logger.Bool("replace", replace))
	return ImportResult{Accepted: len(seasons), Scored: len(updates)}, nil
}

// RecalculateAll rescores every stored season synchronously.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	if err := s.running(); err != nil {
		return 0, err
	}
	all, err := s.store.List(ctx, repository.ListOpts{})
	if err != nil {
		return 0, fmt.Errorf("list seasons: %w", err)
	}
	updates := make([]repository.RatingUpdate, len(all))
	for i := range all {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		updates[i] = repository.RatingUpdate{ID: all[i].ID, Rating: s.scorer.Score(ctx, all[i].PlayerSeason)}
	}
	if err := s.store.SaveRatings(ctx, updates); err != nil {
		return 0, fmt.Errorf("save ratings: %w", err)
	}
	if err := s.refresh(ctx); err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "all seasons recalculated", logger.Int("seasons", len(updates)))
	return len(updates), nil
}

// refresh recomputes progression, best-season flags and the leaderboard
// after a bulk rating change.
func (s *Service) refresh(ctx context.Context) error {
	if _, err := s.RunProgression(ctx); err != nil {
		return err
	}
	if err := s.store.RefreshBestSeasons(ctx); err != nil {
		return fmt.Errorf("refresh best seasons: %w", err)
	}
	return s.rebuildLeaderboard(ctx)
}

func (s *Service) rebuildLeaderboard(ctx context.Context) error {
	best, err := s.store.List(ctx, repository.ListOpts{BestOnly: true})
	if err != nil {
		return fmt.Errorf("load best seasons: %w", err)
	}
	entries := make([]types.Entry, 0, len(best))
	for _, p := range best {
		if p.Rating == nil {
			continue
		}
		entries = append(entries, repository.EntryFor(p))
	}
	s.leaderboard.Reset(ctx, entries)
	return nil
}

// Recalculate rescores one stored season, refreshes the player's best
// season and moves the player on the leaderboard. It is the job handler
// of the worker pool.
func (s *Service) Recalculate(ctx context.Context, seasonID int64) (model.RatedPlayer, error) {
	if err := s.running(); err != nil {
		return model.RatedPlayer{}, err
	}
	p, err := s.store.Get(ctx, seasonID)
	if err != nil {
		return model.RatedPlayer{}, err
	}
	b := s.scorer.Score(ctx, p.PlayerSeason)
	if err := s.store.SaveRatings(ctx, []repository.RatingUpdate{{ID: p.ID, Rating: b}}); err != nil {
		return model.RatedPlayer{}, fmt.Errorf("save rating: %w", err)
	}
	if err := s.store.RefreshBestSeasons(ctx, p.Name); err != nil {
		return model.RatedPlayer{}, fmt.Errorf("refresh best season: %w", err)
	}
	best, err := s.store.BestSeason(ctx, p.Name)
	if err != nil {
		return model.RatedPlayer{}, fmt.Errorf("best season: %w", err)
	}
	s.leaderboard.Upsert(ctx, repository.EntryFor(best))
	return s.store.Get(ctx, seasonID)
}

// EnqueueRecalculation queues an asynchronous rescore of one season and
// returns the job ID. A season that is already queued yields
// dedupe.ErrPending.
func (s *Service) EnqueueRecalculation(ctx context.Context, seasonID int64) (string, error) {
	if err := s.running(); err != nil {
		return "", err
	}
	if _, err := s.store.Get(ctx, seasonID); err != nil {
		return "", err
	}
	return s.enqueue(ctx, seasonID)
}

func (s *Service) enqueue(ctx context.Context, seasonID int64) (string, error) {
	if err := s.tracker.Claim(ctx, seasonID); err != nil {
		if errors.Is(err, dedupe.ErrPending) {
			metrics.RecordJobDuplicate()
		}
		return "", err
	}
	job := model.Job{ID: uuid.NewString(), SeasonID: seasonID, EnqueuedAt: s.clock()}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.tracker.Release(ctx, seasonID)
		return "", err
	}
	s.logger.Debug(ctx, "recalculation queued",
		logger.String("job_id", job.ID),
		logger.Int64("season_id", seasonID))
	return job.ID, nil
}

// EnqueueAll queues every stored season that is not already pending. It
// stops at the first backpressure error and reports how many were queued.
func (s *Service) EnqueueAll(ctx context.Context) (int, error) {
	if err := s.running(); err != nil {
		return 0, err
	}
	all, err := s.store.List(ctx, repository.ListOpts{})
	if err != nil {
		return 0, fmt.Errorf("list seasons: %w", err)
	}
	queued := 0
	for _, p := range all {
		_, err := s.enqueue(ctx, p.ID)
		if errors.Is(err, dedupe.ErrPending) {
			continue
		}
		if err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// Score rates a season without storing it.
func (s *Service) Score(ctx context.Context, ps model.PlayerSeason) (model.RatingBundle, error) {
	if err := s.running(); err != nil {
		return model.RatingBundle{}, err
	}
	return s.scorer.Score(ctx, ps), nil
}

// RunProgression recomputes the trajectories of every stored season and
// writes them back.
func (s *Service) RunProgression(ctx context.Context) ([]model.ProgressionRow, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	all, err := s.store.List(ctx, repository.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	seasons := make([]model.PlayerSeason, len(all))
	for i := range all {
		seasons[i] = all[i].PlayerSeason
	}
	rows, err := s.engine.Compute(ctx, seasons)
	if err != nil {
		return nil, fmt.Errorf("compute progression: %w", err)
	}
	if err := s.store.SaveTrajectories(ctx, rows); err != nil {
		return nil, fmt.Errorf("save trajectories: %w", err)
	}
	return rows, nil
}

// Player returns one stored season.
func (s *Service) Player(ctx context.Context, id int64) (model.RatedPlayer, error) {
	if err := s.running(); err != nil {
		return model.RatedPlayer{}, err
	}
	return s.store.Get(ctx, id)
}

// Players lists stored seasons.
func (s *Service) Players(ctx context.Context, opts repository.ListOpts) ([]model.RatedPlayer, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, opts)
}

// Progression returns every season of a player in play order.
func (s *Service) Progression(ctx context.Context, name string) ([]model.RatedPlayer, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	return s.store.Progression(ctx, name)
}

// Similar finds the n players most similar to a season among the best
// seasons of the same position. A non-positive n uses the configured default.
func (s *Service) Similar(ctx context.Context, id int64, n int) ([]model.SimilarPlayer, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	target, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.similar(ctx, target, n)
}

func (s *Service) similar(ctx context.Context, target model.RatedPlayer, n int) ([]model.SimilarPlayer, error) {
	if n <= 0 {
		n = s.similarTopN
	}
	pool, err := s.store.List(ctx, repository.ListOpts{Position: target.Position, BestOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load similarity pool: %w", err)
	}
	return scouting.Similar(target, pool, n), nil
}

// Report builds the scouting report of a season.
func (s *Service) Report(ctx context.Context, id int64) (scouting.Report, error) {
	if err := s.running(); err != nil {
		return scouting.Report{}, err
	}
	target, err := s.store.Get(ctx, id)
	if err != nil {
		return scouting.Report{}, err
	}
	history, err := s.store.Progression(ctx, target.Name)
	if err != nil {
		return scouting.Report{}, fmt.Errorf("load history: %w", err)
	}
	similar, err := s.similar(ctx, target, 0)
	if err != nil {
		return scouting.Report{}, err
	}
	return scouting.BuildReport(target, history, similar), nil
}

// TopN returns the top n leaderboard entries, optionally for one position.
func (s *Service) TopN(ctx context.Context, n int, position model.Position) ([]types.Entry, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.leaderboard.TopN(ctx, n, position)
}

// Rank returns the leaderboard entry of a player.
func (s *Service) Rank(ctx context.Context, name string) (types.Entry, error) {
	if err := s.running(); err != nil {
		return types.Entry{}, err
	}
	return s.leaderboard.Rank(ctx, name)
}

// Watchlist returns the watchlisted seasons.
func (s *Service) Watchlist(ctx context.Context) ([]repository.WatchItem, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.Watchlist(ctx)
}

// AddWatch watchlists a stored season. It reports false when the season
// was already on the list.
func (s *Service) AddWatch(ctx context.Context, id int64) (bool, error) {
	if err := s.running(); err != nil {
		return false, err
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return false, err
	}
	return s.store.AddWatch(ctx, id)
}

// RemoveWatch removes a season from the watchlist.
func (s *Service) RemoveWatch(ctx context.Context, id int64) (bool, error) {
	if err := s.running(); err != nil {
		return false, err
	}
	return s.store.RemoveWatch(ctx, id)
}

// Export writes the seasons matching opts as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer, opts repository.ListOpts) error {
	players, err := s.Players(ctx, opts)
	if err != nil {
		return err
	}
	if err := csvio.Write(w, players); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Stats is a snapshot of the service and the stored population.
type Stats struct {
	Started         bool              `json:"started"`
	Workers         int               `json:"worker_count"`
	QueueLength     int               `json:"queue_length"`
	QueueCapacity   int               `json:"queue_capacity"`
	Pending         int               `json:"pending"`
	Processed       int64             `json:"processed"`
	Failed          int64             `json:"failed"`
	LeaderboardSize int               `json:"leaderboard_size"`
	ModelLoaded     bool              `json:"model_loaded"`
	Model           string            `json:"model,omitempty"`
	Population      *repository.Stats `json:"population,omitempty"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Started: s.started.Load(), Workers: s.workerCount, QueueCapacity: s.queueSize}
	if !stats.Started {
		return stats, nil
	}

	stats.Workers = s.workerPool.Size()
	stats.QueueLength = s.queue.Len()
	stats.Pending = s.tracker.Size()
	stats.Processed, stats.Failed = s.workerPool.Stats()
	stats.LeaderboardSize = s.leaderboard.Count(ctx)
	stats.ModelLoaded = s.estimator.HasModel()
	stats.Model = s.estimator.ModelName()

	pop, err := s.store.Stats(ctx)
	if err != nil {
		return stats, fmt.Errorf("population stats: %w", err)
	}
	stats.Population = &pop

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	metrics.UpdateQueueSize(stats.QueueLength)
	metrics.UpdateLeaderboardPlayers(stats.LeaderboardSize)
	return stats, nil
}
