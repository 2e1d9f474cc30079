// Package finder runs cafe finder sessions: it owns the mutation entry
// points for the location flow and the shared selection, drives
// acquisitions in the background and publishes every visible change.
package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/cafefinder/internal/cafefinder"
	"github.com/playperu/cafefinder/internal/session"
)

var (
	ErrNoPendingRequest = errors.New("no pending locate request")
	ErrNoGeocoder       = errors.New("address lookup is not configured")
)

// Geocoder resolves a free-text address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (cafefinder.Position, error)
}

// Reporter is implemented by locators that wait for the page to answer.
type Reporter interface {
	Report(sessionID, token string, pos cafefinder.Position, err error) error
	Pending(sessionID string) (cafefinder.LocateRequest, bool)
}

type Options struct {
	Locate cafefinder.LocateOptions
	// Grace is added to Locate.Timeout before the service gives up on an
	// acquisition the platform never answered.
	Grace time.Duration
	Map   cafefinder.MapOptions
}

func DefaultOptions() Options {
	return Options{
		Locate: cafefinder.DefaultLocateOptions(),
		Grace:  5 * time.Second,
		Map:    cafefinder.DefaultMapOptions(),
	}
}

type Deps struct {
	Catalog  *cafefinder.Catalog
	Store    session.Store
	Locator  cafefinder.Locator
	Geocoder Geocoder
	Events   Publisher
	Logger   *slog.Logger
	Options  Options
}

type Service struct {
	catalog  *cafefinder.Catalog
	store    session.Store
	locator  cafefinder.Locator
	reporter Reporter
	geocoder Geocoder
	events   Publisher
	logger   *slog.Logger
	opts     Options
	now      func() time.Time

	locks *keyedMutex

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(d Deps) *Service {
	if d.Catalog == nil {
		d.Catalog = cafefinder.EmptyCatalog()
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Options == (Options{}) {
		d.Options = DefaultOptions()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		catalog:  d.Catalog,
		store:    d.Store,
		locator:  d.Locator,
		geocoder: d.Geocoder,
		events:   d.Events,
		logger:   d.Logger,
		opts:     d.Options,
		now:      time.Now,
		locks:    newKeyedMutex(),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	if r, ok := d.Locator.(Reporter); ok {
		s.reporter = r
	}
	return s
}

func (s *Service) Catalog() *cafefinder.Catalog { return s.catalog }

// Open starts a new session and renders it.
func (s *Service) Open(ctx context.Context) (View, error) {
	sess := cafefinder.NewSession(uuid.NewString(), s.now())
	sess.Location.Prompt()
	sess.Touch(s.now())

	if err := s.store.Put(ctx, sess); err != nil {
		return View{}, fmt.Errorf("creating session: %w", err)
	}
	s.logger.Info("session opened", "session_id", sess.ID)
	return s.view(sess), nil
}

// Render returns the session's view. The first render of a session with no
// position and no failure moves the location flow to prompting.
func (s *Service) Render(ctx context.Context, id string) (View, error) {
	sess, err := s.mutate(ctx, id, func(sess *cafefinder.Session) (bool, error) {
		return sess.Location.Prompt(), nil
	})
	if err != nil {
		return View{}, err
	}
	return s.view(sess), nil
}

// Accept starts the acquisition the user agreed to in the prompt.
func (s *Service) Accept(ctx context.Context, id string) (View, error) {
	return s.startAcquisition(ctx, id, (*cafefinder.LocationFlow).Accept, s.locate(id))
}

// Retry restarts acquisition after a retryable failure.
func (s *Service) Retry(ctx context.Context, id string) (View, error) {
	return s.startAcquisition(ctx, id, (*cafefinder.LocationFlow).Retry, s.locate(id))
}

// LocateAddress sets the reference position from a typed address instead
// of the device location.
func (s *Service) LocateAddress(ctx context.Context, id, address string) (View, error) {
	if s.geocoder == nil {
		return View{}, ErrNoGeocoder
	}
	return s.startAcquisition(ctx, id, (*cafefinder.LocationFlow).Relocate,
		func(ctx context.Context) (cafefinder.Position, error) {
			return s.geocoder.Geocode(ctx, address)
		})
}

// Report answers the page's outstanding geolocation request.
func (s *Service) Report(ctx context.Context, id, token string, pos cafefinder.Position, locErr error) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if s.reporter == nil {
		return ErrNoPendingRequest
	}
	if err := s.reporter.Report(id, token, pos, locErr); err != nil {
		s.logger.Warn("rejected location report", "session_id", id, "error", err)
		return fmt.Errorf("%w: %v", ErrNoPendingRequest, err)
	}
	return nil
}

// Select makes cafeID the shared selection for the list and the map.
func (s *Service) Select(ctx context.Context, id, cafeID string) (View, error) {
	changed := false
	sess, err := s.mutate(ctx, id, func(sess *cafefinder.Session) (bool, error) {
		prev := sess.SelectedID
		if err := sess.Select(s.catalog, cafeID); err != nil {
			return false, err
		}
		changed = prev != cafeID
		return changed, nil
	})
	if err != nil {
		return View{}, err
	}

	if changed {
		s.events.Publish(id, Event{Type: EventSelection, Revision: sess.Revision, CafeID: sess.SelectedID})
	}
	return s.view(sess), nil
}

// Wait blocks until in-flight acquisitions have completed.
func (s *Service) Wait() { s.wg.Wait() }

// Close abandons in-flight acquisitions and waits for them to finish.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

type acquireFunc func(ctx context.Context) (cafefinder.Position, error)

func (s *Service) locate(id string) acquireFunc {
	return func(ctx context.Context) (cafefinder.Position, error) {
		if s.locator == nil {
			return cafefinder.Position{}, cafefinder.ErrUnsupported
		}
		return s.locator.Locate(ctx, id, s.opts.Locate)
	}
}

func (s *Service) startAcquisition(
	ctx context.Context,
	id string,
	transition func(*cafefinder.LocationFlow) (uint64, error),
	run acquireFunc,
) (View, error) {
	var gen uint64
	sess, err := s.mutate(ctx, id, func(sess *cafefinder.Session) (bool, error) {
		g, err := transition(&sess.Location)
		if err != nil {
			return false, err
		}
		gen = g
		return true, nil
	})
	if err != nil {
		return View{}, err
	}

	s.events.Publish(id, Event{Type: EventLocation, Revision: sess.Revision, State: sess.Location.State})
	s.acquire(id, gen, run)
	return s.view(sess), nil
}

func (s *Service) acquire(id string, gen uint64, run acquireFunc) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.baseCtx, s.opts.Locate.Timeout+s.opts.Grace)
		pos, err := run(ctx)
		cancel()

		s.complete(id, gen, pos, err)
	}()
}

func (s *Service) complete(id string, gen uint64, pos cafefinder.Position, locErr error) {
	if locErr == nil && !pos.Valid() {
		locErr = fmt.Errorf("%w: invalid coordinates %v", cafefinder.ErrPositionUnavailable, pos)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	applied := false
	sess, err := s.mutate(ctx, id, func(sess *cafefinder.Session) (bool, error) {
		if locErr != nil {
			applied = sess.Location.Fail(gen, cafefinder.FailureKindOf(locErr))
		} else {
			applied = sess.Location.Succeed(gen, pos, s.now())
		}
		return applied, nil
	})
	if err != nil {
		s.logger.Error("storing location result", "session_id", id, "error", err)
		return
	}
	if !applied {
		s.logger.Debug("discarding stale location result", "session_id", id, "generation", gen)
		return
	}

	if locErr != nil {
		s.logger.Warn("location acquisition failed",
			"session_id", id,
			"kind", sess.Location.Failure,
			"error", locErr,
		)
	} else {
		s.logger.Info("location acquired", "session_id", id)
	}
	s.events.Publish(id, Event{Type: EventLocation, Revision: sess.Revision, State: sess.Location.State})
}

// mutate runs fn on the stored session under the session's lock and saves
// it when fn reports a change.
func (s *Service) mutate(ctx context.Context, id string, fn func(*cafefinder.Session) (bool, error)) (cafefinder.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return cafefinder.Session{}, err
	}

	changed, err := fn(&sess)
	if err != nil {
		return cafefinder.Session{}, err
	}
	if !changed {
		return sess, nil
	}

	sess.Touch(s.now())
	if err := s.store.Put(ctx, sess); err != nil {
		return cafefinder.Session{}, fmt.Errorf("saving session: %w", err)
	}
	return sess, nil
}
