// Package tracker owns the day/session state machine of the meditation ritual.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/rock/internal/audio"
	"github.com/verte-zerg/rock/internal/model"
	"github.com/verte-zerg/rock/internal/store"
)

const (
	statusTable   = "status"
	journalTable  = "journal"
	sessionsTable = "sessions"

	pointerID = 1
)

// Defaults used when Options leave a field zero.
const (
	DefaultCompletion         = 5 * time.Minute
	DefaultPulsePeriod        = time.Second
	DefaultSessionPulsePeriod = 5 * time.Second
)

// Table is one document table of the journal store.
type Table interface {
	Get(ctx context.Context, id int64) (store.Document, bool, error)
	Insert(ctx context.Context, doc store.Document) (int64, error)
	Upsert(ctx context.Context, doc store.Document, id int64) error
	Search(ctx context.Context, field string, value any) ([]store.Record, error)
}

// JournalStore is the durable store the tracker writes through to.
type JournalStore interface {
	Table(name string) Table
	DropTables(ctx context.Context) error
}

// Strip is the indicator strip as seen by the tracker.
type Strip interface {
	On(pos int) error
	Off(pos int) error
	Pulse(pos int, period time.Duration) error
	ClearAll() error
}

// Cue is the audio player as seen by the tracker.
type Cue interface {
	Play(dayNum int) error
	Stop() error
}

// Clock abstracts time to keep transitions deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Options tune the tracker. Zero values fall back to the defaults.
type Options struct {
	Completion         time.Duration
	PulsePeriod        time.Duration
	SessionPulsePeriod time.Duration
	Clock              Clock
	Logger             zerolog.Logger
}

// Snapshot is a read-only copy of the tracker state.
type Snapshot struct {
	Day        model.Day
	DayID      int64
	Session    *model.Session
	SessionID  int64
	Meditating bool
}

// Tracker coordinates inputs, outputs and the journal. All transitions are
// serialized by one mutex and run to completion.
type Tracker struct {
	mu sync.Mutex

	store  JournalStore
	strip  Strip
	cue    Cue
	clock  Clock
	logger zerolog.Logger

	completion         time.Duration
	pulsePeriod        time.Duration
	sessionPulsePeriod time.Duration

	day        model.Day
	dayID      int64
	session    *model.Session
	sessionID  int64
	meditating bool
}

// New constructs a tracker. LoadState must run before any other entry point.
func New(st JournalStore, strip Strip, cue Cue, opts Options) *Tracker {
	t := &Tracker{
		store:              st,
		strip:              strip,
		cue:                cue,
		clock:              opts.Clock,
		logger:             opts.Logger.With().Str("component", "tracker").Logger(),
		completion:         opts.Completion,
		pulsePeriod:        opts.PulsePeriod,
		sessionPulsePeriod: opts.SessionPulsePeriod,
	}
	if t.clock == nil {
		t.clock = systemClock{}
	}
	if t.completion <= 0 {
		t.completion = DefaultCompletion
	}
	if t.pulsePeriod <= 0 {
		t.pulsePeriod = DefaultPulsePeriod
	}
	if t.sessionPulsePeriod <= 0 {
		t.sessionPulsePeriod = DefaultSessionPulsePeriod
	}
	return t
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := Snapshot{
		Day:        t.day,
		DayID:      t.dayID,
		SessionID:  t.sessionID,
		Meditating: t.meditating,
	}
	snap.Day.Sessions = append([]int64{}, t.day.Sessions...)
	if t.session != nil {
		s := *t.session
		snap.Session = &s
	}
	return snap
}

// LoadState rebuilds the in-memory state from the journal, bootstrapping an
// empty store. Any error is fatal to the caller.
func (t *Tracker) LoadState(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = context.WithoutCancel(ctx)

	t.logger.Info().Msg("loading state")
	t.hardware("clear", t.strip.ClearAll())
	t.session = nil
	t.sessionID = 0
	t.meditating = false

	status := t.store.Table(statusTable)
	journal := t.store.Table(journalTable)

	pointer, ok, err := status.Get(ctx, pointerID)
	if err != nil {
		return storageErr("read status", err)
	}
	if !ok {
		if err := t.bootstrap(ctx); err != nil {
			return err
		}
		if pointer, _, err = status.Get(ctx, pointerID); err != nil {
			return storageErr("read status", err)
		}
	}
	dayID, ok := documentID(pointer["d_id"])
	if !ok {
		return fmt.Errorf("%w: status pointer has no day id", ErrInvalidDayState)
	}

	doc, ok, err := journal.Get(ctx, dayID)
	if err != nil {
		return storageErr("read day", err)
	}
	if !ok {
		return fmt.Errorf("%w: day %d not found", ErrInvalidDayState, dayID)
	}
	var day model.Day
	if err := store.Decode(doc, &day); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDayState, err)
	}
	if day.Sessions == nil {
		day.Sessions = []int64{}
	}

	week, err := journal.Search(ctx, "week_num", day.WeekNum)
	if err != nil {
		return storageErr("scan week", err)
	}
	var last model.Day
	var lastID int64
	for _, rec := range week {
		var d model.Day
		if err := store.Decode(rec.Doc, &d); err != nil {
			return fmt.Errorf("%w: day %d: %v", ErrInvalidDayState, rec.ID, err)
		}
		if d.Done {
			t.hardware("on", t.strip.On(d.DayNum))
		}
		last, lastID = d, rec.ID
	}
	// The last day of the week in insertion order is authoritative.
	if lastID != 0 {
		if lastID != dayID {
			t.logger.Warn().Int64("pointer", dayID).Int64("last", lastID).Msg("status pointer is not the latest day of its week")
		}
		day.DayNum = last.DayNum
		day.Done = last.Done
	}

	t.day = day
	t.dayID = dayID
	if !day.Done {
		t.hardware("pulse", t.strip.Pulse(day.DayNum, t.pulsePeriod))
	}
	t.logger.Info().Int("week", day.WeekNum).Int("day", day.DayNum).Bool("done", day.Done).Msg("ready")
	return nil
}

func (t *Tracker) bootstrap(ctx context.Context) error {
	t.logger.Info().Msg("empty journal, starting week 1")
	if err := t.store.DropTables(ctx); err != nil {
		return storageErr("drop tables", err)
	}
	day := t.newDay(1, 1)
	doc, err := store.Encode(day)
	if err != nil {
		return storageErr("encode day", err)
	}
	id, err := t.store.Table(journalTable).Insert(ctx, doc)
	if err != nil {
		return storageErr("insert day", err)
	}
	if err := t.store.Table(statusTable).Upsert(ctx, store.Document{"d_id": id}, pointerID); err != nil {
		return storageErr("write status", err)
	}
	return nil
}

// StartMeditation opens a session on the current day. It is a no-op while meditating.
func (t *Tracker) StartMeditation(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startLocked(context.WithoutCancel(ctx))
}

// StopMeditation closes the open session. It is a no-op while idle.
func (t *Tracker) StopMeditation(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopLocked(context.WithoutCancel(ctx))
}

// ToggleMeditation stops a running session or starts a new one.
func (t *Tracker) ToggleMeditation(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = context.WithoutCancel(ctx)
	if t.meditating {
		return t.stopLocked(ctx)
	}
	return t.startLocked(ctx)
}

// FinishMeditationForced marks the current day done and stops any session.
func (t *Tracker) FinishMeditationForced(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = context.WithoutCancel(ctx)

	t.day.Done = true
	t.logger.Info().Int("day", t.day.DayNum).Msg("meditation finished by hold")
	if t.meditating {
		return t.stopLocked(ctx)
	}
	t.hardware("on", t.strip.On(t.day.DayNum))
	return t.writeDay(ctx, store.Document{"done": true})
}

// CheckCompletion marks the day done once the open session reaches the
// completion threshold. It reports whether this call completed the day.
// The change is persisted by the next stop.
func (t *Tracker) CheckCompletion() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkLocked(t.clock.Now())
}

// Meditating reports whether a session is open.
func (t *Tracker) Meditating() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.meditating
}

// AdvanceDay retires the current day and starts the next one. An unfinished
// first day of a week is refused with ErrNotReady.
func (t *Tracker) AdvanceDay(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = context.WithoutCancel(ctx)

	var stopErr error
	if t.meditating {
		stopErr = t.stopLocked(ctx)
	}
	if t.day.DayNum == 1 && !t.day.Done {
		t.logger.Info().Msg("will not advance, first day of the week is not done")
		return errors.Join(stopErr, ErrNotReady)
	}

	if !t.day.Done {
		t.hardware("off", t.strip.Off(t.day.DayNum))
	}
	dayNum := t.day.DayNum + 1
	weekNum := t.day.WeekNum
	if dayNum > model.DaysPerWeek {
		dayNum = 1
		weekNum++
		t.hardware("clear", t.strip.ClearAll())
	}

	t.day = t.newDay(weekNum, dayNum)
	t.dayID = 0
	t.hardware("pulse", t.strip.Pulse(dayNum, t.pulsePeriod))
	t.logger.Info().Int("week", weekNum).Int("day", dayNum).Msg("next day")

	doc, err := store.Encode(t.day)
	if err != nil {
		return errors.Join(stopErr, storageErr("encode day", err))
	}
	id, err := t.store.Table(journalTable).Insert(ctx, doc)
	if err != nil {
		return errors.Join(stopErr, storageErr("insert day", err))
	}
	t.dayID = id
	if err := t.store.Table(statusTable).Upsert(ctx, store.Document{"d_id": id}, pointerID); err != nil {
		return errors.Join(stopErr, storageErr("write status", err))
	}
	return stopErr
}

// HandleInput runs the entry point an input event maps to.
func (t *Tracker) HandleInput(ctx context.Context, ev Event) error {
	t.logger.Debug().Stringer("event", ev).Msg("input")
	switch ActionFor(ev) {
	case ActionToggle:
		return t.ToggleMeditation(ctx)
	case ActionStart:
		return t.StartMeditation(ctx)
	case ActionStop:
		return t.StopMeditation(ctx)
	case ActionFinish:
		return t.FinishMeditationForced(ctx)
	case ActionAdvance:
		return t.AdvanceDay(ctx)
	default:
		return nil
	}
}

func (t *Tracker) startLocked(ctx context.Context) error {
	if t.meditating {
		return nil
	}
	now := t.clock.Now()
	t.meditating = true
	t.session = &model.Session{StartedAt: now}
	t.sessionID = 0

	t.hardware("play", t.cue.Play(t.day.DayNum))
	t.hardware("pulse", t.strip.Pulse(t.day.DayNum, t.sessionPulsePeriod))
	t.logger.Info().Time("started_at", now).Int("day", t.day.DayNum).Msg("meditation started")

	doc, err := store.Encode(t.session)
	if err != nil {
		return storageErr("encode session", err)
	}
	id, err := t.store.Table(sessionsTable).Insert(ctx, doc)
	if err != nil {
		return storageErr("insert session", err)
	}
	t.sessionID = id
	t.day.Sessions = append(t.day.Sessions, id)
	return t.writeDay(ctx, store.Document{"sessions": t.day.Sessions})
}

func (t *Tracker) stopLocked(ctx context.Context) error {
	if !t.meditating {
		return nil
	}
	now := t.clock.Now()
	t.checkLocked(now)
	t.meditating = false

	t.hardware("stop", t.cue.Stop())
	if t.day.Done {
		t.hardware("on", t.strip.On(t.day.DayNum))
	} else {
		t.hardware("pulse", t.strip.Pulse(t.day.DayNum, t.pulsePeriod))
	}

	session, sessionID := t.session, t.sessionID
	t.session = nil
	t.sessionID = 0
	duration := now.Sub(session.StartedAt).Seconds()
	session.Duration = &duration
	session.Done = t.day.Done
	t.logger.Info().Bool("done", t.day.Done).Float64("duration", duration).Msg("meditation stopped")

	dayErr := t.writeDay(ctx, store.Document{"done": t.day.Done})
	var sessionErr error
	if sessionID == 0 {
		sessionErr = fmt.Errorf("%w: session was never stored", ErrStorageUnavailable)
	} else if err := t.store.Table(sessionsTable).Upsert(ctx, store.Document{"done": session.Done, "duration": duration}, sessionID); err != nil {
		sessionErr = storageErr("write session", err)
	}
	return errors.Join(dayErr, sessionErr)
}

func (t *Tracker) checkLocked(now time.Time) bool {
	if !t.meditating || t.day.Done || t.session == nil {
		return false
	}
	if now.Sub(t.session.StartedAt) < t.completion {
		return false
	}
	t.day.Done = true
	t.logger.Info().Dur("threshold", t.completion).Msg("meditation done")
	return true
}

func (t *Tracker) writeDay(ctx context.Context, fields store.Document) error {
	if t.dayID == 0 {
		return fmt.Errorf("%w: current day was never stored", ErrStorageUnavailable)
	}
	if err := t.store.Table(journalTable).Upsert(ctx, fields, t.dayID); err != nil {
		return storageErr("write day", err)
	}
	return nil
}

func (t *Tracker) newDay(weekNum, dayNum int) model.Day {
	day := model.NewDay(t.clock.Now(), weekNum, dayNum)
	day.File = audio.File(dayNum)
	return day
}

func (t *Tracker) hardware(op string, err error) {
	if err == nil {
		return
	}
	t.logger.Error().Err(fmt.Errorf("%w: %s: %w", ErrHardwareCommand, op, err)).Msg("output command failed")
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStorageUnavailable, op, err)
}

// documentID reads an identifier decoded from JSON.
func documentID(v any) (int64, bool) {
	switch id := v.(type) {
	case float64:
		return int64(id), id > 0
	case int64:
		return id, id > 0
	case int:
		return int64(id), id > 0
	default:
		return 0, false
	}
}
