package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/Dosada05/bracket-engine/storage"
	"golang.org/x/sync/errgroup"
)

// NotifierFactory hands out the change-notification call-out for a session key.
// *brackets.Hub implements it.
type NotifierFactory interface {
	Notifier(roomID string, view func() *brackets.View) brackets.Notifier
}

// SessionSummary describes one in-memory tournament.
type SessionSummary struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Source    string `json:"source,omitempty"`
	Entrants  int    `json:"entrants"`
	Decided   int    `json:"decided"`
	CurrentID string `json:"current"`
	Complete  bool   `json:"complete"`
}

// TournamentService keeps named tournament sessions and serializes every mutation of a
// session. Loads replace a session only after the new tournament is fully built.
type TournamentService interface {
	Build(ctx context.Context, key, name string, entrants []string) (*brackets.View, error)
	Load(ctx context.Context, key, source string) (*brackets.View, error)
	Import(ctx context.Context, key string, kind storage.SourceKind, data []byte) (*brackets.View, error)
	Restore(ctx context.Context, key string) (*brackets.View, error)
	View(ctx context.Context, key string) (*brackets.View, error)
	Export(ctx context.Context, key string) ([]byte, error)
	RecordWinner(ctx context.Context, key string, entrantID int) (*brackets.View, error)
	Reset(ctx context.Context, key string) (*brackets.View, error)
	Save(ctx context.Context, key, destination string) error
	List(ctx context.Context) []SessionSummary
	ListSnapshots(ctx context.Context) ([]models.TournamentSnapshot, error)
	Delete(ctx context.Context, key string, purge bool) error
}

type session struct {
	mu         sync.Mutex
	source     string
	tournament *brackets.Tournament
}

type tournamentService struct {
	mu       sync.RWMutex
	sessions map[string]*session

	store     storage.DocumentStore
	snapshots repositories.SnapshotRepository
	notifiers NotifierFactory
	metrics   *Metrics
	logger    *slog.Logger
}

// NewTournamentService wires the service. snapshots and notifiers may be nil, which
// disables postgres snapshots and websocket notification respectively.
func NewTournamentService(
	store storage.DocumentStore,
	snapshots repositories.SnapshotRepository,
	notifiers NotifierFactory,
	metrics *Metrics,
	logger *slog.Logger,
) TournamentService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		sessions:  make(map[string]*session),
		store:     store,
		snapshots: snapshots,
		notifiers: notifiers,
		metrics:   metrics,
		logger:    logger,
	}
}

var sessionKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// reservedKeys collide with fixed routes under /tournaments.
var reservedKeys = map[string]bool{"snapshots": true}

func validateKey(key string) error {
	if !sessionKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: tournament key %q must be 1-64 letters, digits, '-' or '_'", ErrValidationFailed, key)
	}
	if reservedKeys[strings.ToLower(key)] {
		return fmt.Errorf("%w: tournament key %q is reserved", ErrValidationFailed, key)
	}
	return nil
}

func (s *tournamentService) Build(ctx context.Context, key, name string, entrants []string) (*brackets.View, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	names := make([]string, 0, len(entrants))
	for i, e := range entrants {
		e = strings.TrimSpace(e)
		if e == "" {
			return nil, fmt.Errorf("%w: entrant %d has an empty name", ErrValidationFailed, i+1)
		}
		names = append(names, e)
	}

	t, err := brackets.Build(name, brackets.RegistryFromNames(names))
	if err != nil {
		s.metrics.Loads.WithLabelValues("build", "error").Inc()
		return nil, err
	}
	s.metrics.Loads.WithLabelValues("build", "ok").Inc()
	return s.install(ctx, key, "", t), nil
}

func (s *tournamentService) Load(ctx context.Context, key, source string) (*brackets.View, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	t, err := storage.Load(ctx, s.store, source)
	if err != nil {
		s.metrics.Loads.WithLabelValues("store", "error").Inc()
		s.logger.Warn("tournament load failed", slog.String("key", key), slog.String("source", source), slog.Any("error", err))
		return nil, err
	}
	s.metrics.Loads.WithLabelValues("store", "ok").Inc()
	return s.install(ctx, key, source, t), nil
}

func (s *tournamentService) Import(ctx context.Context, key string, kind storage.SourceKind, data []byte) (*brackets.View, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	t, err := storage.Parse(kind, data)
	if err != nil {
		s.metrics.Loads.WithLabelValues("upload", "error").Inc()
		return nil, err
	}
	s.metrics.Loads.WithLabelValues("upload", "ok").Inc()
	return s.install(ctx, key, "", t), nil
}

// Restore reloads a session from its latest postgres snapshot.
func (s *tournamentService) Restore(ctx context.Context, key string) (*brackets.View, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if s.snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}
	snap, err := s.snapshots.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("%w: no snapshot for %q", ErrTournamentNotFound, key)
		}
		return nil, err
	}
	t, err := storage.Parse(storage.SourceDocument, snap.Document)
	if err != nil {
		s.metrics.Loads.WithLabelValues("snapshot", "error").Inc()
		return nil, err
	}
	s.metrics.Loads.WithLabelValues("snapshot", "ok").Inc()

	s.mu.RLock()
	source := ""
	if prev, ok := s.sessions[key]; ok {
		source = prev.source
	}
	s.mu.RUnlock()
	return s.install(ctx, key, source, t), nil
}

// install swaps the session's tournament for t, hooks up notification and announces the
// load. The previous tournament stays untouched.
func (s *tournamentService) install(ctx context.Context, key, source string, t *brackets.Tournament) *brackets.View {
	if s.notifiers != nil {
		t.SetNotifier(s.notifiers.Notifier(key, t.View))
	}

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{}
		s.sessions[key] = sess
		s.metrics.Sessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.tournament = t
	sess.source = source
	t.NotifyLoaded()
	s.snapshot(ctx, key, t)

	s.logger.Info("tournament loaded",
		slog.String("key", key),
		slog.String("name", t.Name),
		slog.Int("entrants", t.Registry().Len()),
		slog.String("current", t.Current().ID))
	return t.View()
}

func (s *tournamentService) session(key string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTournamentNotFound, key)
	}
	return sess, nil
}

func (s *tournamentService) View(ctx context.Context, key string) (*brackets.View, error) {
	sess, err := s.session(key)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.tournament.View(), nil
}

func (s *tournamentService) Export(ctx context.Context, key string) ([]byte, error) {
	sess, err := s.session(key)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return storage.Encode(sess.tournament)
}

func (s *tournamentService) RecordWinner(ctx context.Context, key string, entrantID int) (*brackets.View, error) {
	sess, err := s.session(key)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	t := sess.tournament
	cur := t.Current()
	if err := t.RecordWinner(entrantID); err != nil {
		if errors.Is(err, brackets.ErrContractViolation) {
			s.metrics.Violations.Inc()
		}
		return nil, err
	}
	s.metrics.Decisions.WithLabelValues(string(cur.Bracket)).Inc()
	s.logger.Info("match decided",
		slog.String("key", key),
		slog.String("match", cur.ID),
		slog.Int("winner", entrantID),
		slog.String("current", t.Current().ID),
		slog.Bool("complete", t.Complete()))

	s.snapshot(ctx, key, t)
	return t.View(), nil
}

func (s *tournamentService) Reset(ctx context.Context, key string) (*brackets.View, error) {
	sess, err := s.session(key)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.tournament.Reset()
	s.metrics.Resets.Inc()
	s.logger.Info("tournament reset", slog.String("key", key))

	s.snapshot(ctx, key, sess.tournament)
	return sess.tournament.View(), nil
}

// Save writes the session to destination and, when configured, to the snapshot table,
// concurrently. An empty destination saves nothing.
func (s *tournamentService) Save(ctx context.Context, key, destination string) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil
	}
	if err := storage.CheckSaveKey(destination); err != nil {
		return err
	}
	sess, err := s.session(key)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	data, err := storage.Encode(sess.tournament)
	snap := s.snapshotOf(key, sess.tournament, data)
	sess.mu.Unlock()
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.store.Put(gCtx, destination, data); err != nil {
			return fmt.Errorf("save %q to %s: %w", key, destination, err)
		}
		return nil
	})
	if s.snapshots != nil {
		g.Go(func() error {
			if err := s.snapshots.Save(gCtx, nil, snap); err != nil {
				return fmt.Errorf("snapshot %q: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("tournament save failed", slog.String("key", key), slog.String("destination", destination), slog.Any("error", err))
		return err
	}

	sess.mu.Lock()
	sess.source = destination
	sess.mu.Unlock()
	s.logger.Info("tournament saved", slog.String("key", key), slog.String("destination", destination))
	return nil
}

func (s *tournamentService) List(ctx context.Context) []SessionSummary {
	s.mu.RLock()
	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	out := make([]SessionSummary, 0, len(keys))
	for _, k := range keys {
		sess, err := s.session(k)
		if err != nil {
			continue
		}
		sess.mu.Lock()
		t := sess.tournament
		out = append(out, SessionSummary{
			Key:       k,
			Name:      t.Name,
			Source:    sess.source,
			Entrants:  t.Registry().Len(),
			Decided:   t.DecidedCount(),
			CurrentID: t.Current().ID,
			Complete:  t.Complete(),
		})
		sess.mu.Unlock()
	}
	return out
}

func (s *tournamentService) ListSnapshots(ctx context.Context) ([]models.TournamentSnapshot, error) {
	if s.snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}
	return s.snapshots.List(ctx)
}

// Delete drops the session and its postgres snapshot. With purge set, the document the
// session was last loaded from or saved to is removed from the store as well; seeds are
// never removed.
func (s *tournamentService) Delete(ctx context.Context, key string, purge bool) error {
	sess, err := s.session(key)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	source := sess.source
	sess.mu.Unlock()

	g, gCtx := errgroup.WithContext(ctx)
	if s.snapshots != nil {
		g.Go(func() error {
			err := s.snapshots.Delete(gCtx, key)
			if err != nil && !errors.Is(err, repositories.ErrSnapshotNotFound) {
				return fmt.Errorf("delete snapshot %q: %w", key, err)
			}
			return nil
		})
	}
	kind, err := storage.KindOf(source)
	purge = purge && err == nil && kind == storage.SourceDocument
	if purge {
		g.Go(func() error {
			err := s.store.Delete(gCtx, source)
			if err != nil && !errors.Is(err, storage.ErrSourceNotFound) {
				return fmt.Errorf("delete %q from %s: %w", key, source, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("tournament delete failed", slog.String("key", key), slog.Any("error", err))
		return err
	}

	s.mu.Lock()
	if s.sessions[key] == sess {
		delete(s.sessions, key)
	}
	s.metrics.Sessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	s.logger.Info("tournament deleted", slog.String("key", key), slog.Bool("purged", purge))
	return nil
}

// snapshot persists the session after a mutation. Failures are logged; the in-memory
// state is authoritative.
func (s *tournamentService) snapshot(ctx context.Context, key string, t *brackets.Tournament) {
	if s.snapshots == nil {
		return
	}
	data, err := storage.Encode(t)
	if err != nil {
		s.logger.Error("failed to encode snapshot", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := s.snapshots.Save(ctx, nil, s.snapshotOf(key, t, data)); err != nil {
		s.logger.Warn("failed to store snapshot", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *tournamentService) snapshotOf(key string, t *brackets.Tournament, data []byte) *models.TournamentSnapshot {
	return &models.TournamentSnapshot{
		Key:      key,
		Name:     t.Name,
		Document: data,
		Decided:  t.DecidedCount(),
		Complete: t.Complete(),
	}
}
