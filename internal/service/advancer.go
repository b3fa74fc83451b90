// Package service wraps the advancement engine for host processes: it
// serializes competing advancements per challenge, logs every attempt, and
// supports hot-swapping the rule catalog.
package service

import (
	"context"
	"log"
	"strings"
	"sync/atomic"

	"github.com/arenalabs/phaseflow/internal/advance"
	"github.com/arenalabs/phaseflow/internal/catalog"
	"github.com/arenalabs/phaseflow/internal/events"
	"github.com/arenalabs/phaseflow/internal/facts"
	"github.com/arenalabs/phaseflow/internal/lock"
	"github.com/arenalabs/phaseflow/internal/model"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ParseLogLevel maps a config string to a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Advancer is the host-facing facade over the advancement engine.
//
// The engine assumes at most one in-flight advancement per challenge; the
// Advancer enforces that with a per-challenge advisory lock. Callers sharing
// one Advancer get that guarantee for free; callers running multiple
// processes still need their own external exclusion.
type Advancer struct {
	cat       atomic.Pointer[catalog.Catalog]
	assembler *facts.Assembler
	clock     model.Clock
	locks     *lock.MutexMap
	logger    *log.Logger
	logLevel  LogLevel
	bus       *events.Bus
}

// NewAdvancer builds the facade over an initial catalog and the external
// challenge services.
func NewAdvancer(cat *catalog.Catalog, svc facts.Services, clock model.Clock, logger *log.Logger, logLevel LogLevel) *Advancer {
	a := &Advancer{
		assembler: facts.NewAssembler(clock, svc),
		clock:     clock,
		locks:     lock.NewMutexMap(),
		logger:    logger,
		logLevel:  logLevel,
	}
	a.cat.Store(cat)
	return a
}

// AttachBus wires an event bus; subsequent advancements publish their outcome
// to it. Passing nil detaches.
func (a *Advancer) AttachBus(bus *events.Bus) {
	a.bus = bus
}

// SwapCatalog atomically replaces the rule catalog. In-flight advancements
// finish against the catalog they started with.
func (a *Advancer) SwapCatalog(cat *catalog.Catalog) {
	a.cat.Store(cat)
	a.log(LogLevelInfo, "catalog_swapped version=%s rules=%d", cat.Version(), cat.RuleCount())
}

// Catalog returns the catalog currently in effect.
func (a *Advancer) Catalog() *catalog.Catalog {
	return a.cat.Load()
}

// Advance runs one phase advancement under the challenge's advisory lock.
func (a *Advancer) Advance(ctx context.Context, challengeID string, phases []model.PhaseInstance, op model.Operation, phaseName string) (*model.AdvancementResult, error) {
	a.locks.Lock(challengeID)
	defer a.locks.Unlock(challengeID)

	a.log(LogLevelDebug, "advance_start challenge=%s phase=%s op=%s", challengeID, phaseName, op)

	orch := advance.New(a.cat.Load(), a.assembler, a.clock)
	result, err := orch.Advance(ctx, challengeID, phases, op, phaseName)
	if err != nil {
		a.log(LogLevelError, "advance_error challenge=%s phase=%s op=%s error=%v", challengeID, phaseName, op, err)
		return nil, err
	}
	if !result.Success {
		a.log(LogLevelInfo, "advance_rejected challenge=%s phase=%s op=%s detail=%q", challengeID, phaseName, op, result.Detail)
		a.publish(events.EventAdvancementRejected, challengeID, phaseName, op, result.Detail)
		return result, nil
	}
	a.log(LogLevelInfo, "advance_ok challenge=%s phase=%s op=%s next_phases=%d", challengeID, phaseName, op, len(result.Next.Phases))
	eventType := events.EventPhaseOpened
	if op == model.OperationClose {
		eventType = events.EventPhaseClosed
	}
	a.publish(eventType, challengeID, phaseName, op, "")
	return result, nil
}

func (a *Advancer) publish(eventType events.EventType, challengeID, phaseName string, op model.Operation, detail string) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(events.Event{
		Type:        eventType,
		Timestamp:   a.clock.Now().UTC(),
		ChallengeID: challengeID,
		Phase:       phaseName,
		Operation:   string(op),
		Detail:      detail,
	})
}

func (a *Advancer) log(level LogLevel, format string, args ...any) {
	if level < a.logLevel || a.logger == nil {
		return
	}
	a.logger.Printf(format, args...)
}
