// Package execute applies validated intents to character state. Executors
// re-fetch the freshest record on every attempt and persist through
// compare-and-swap writes, so concurrent turns never clobber each other;
// stale writes are retried with backoff instead of locking.
package execute

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/louisbranch/turnforge/internal/catalog"
	"github.com/louisbranch/turnforge/internal/concurrency"
	"github.com/louisbranch/turnforge/internal/intent"
	"github.com/louisbranch/turnforge/internal/mechanics"
	"github.com/louisbranch/turnforge/internal/platform/id"
	"github.com/louisbranch/turnforge/internal/storage"
)

// Router dispatches validated intents to their domain executor.
type Router struct {
	characters  storage.CharacterStore
	audits      storage.AuditStore
	catalog     *catalog.Catalog
	clock       func() time.Time
	idGenerator func() (string, error)
}

// Option configures a Router.
type Option func(*Router)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(r *Router) { r.clock = clock }
}

// WithIDGenerator overrides audit row id generation.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(r *Router) { r.idGenerator = gen }
}

// NewRouter builds an executor router over the given stores.
func NewRouter(characters storage.CharacterStore, audits storage.AuditStore, cat *catalog.Catalog, opts ...Option) *Router {
	r := &Router{
		characters:  characters,
		audits:      audits,
		catalog:     cat,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute applies one validated intent. It is only called for intents whose
// validation passed; validation output rides along so executors never repeat
// catalog lookups or legality checks.
//
// The returned error is reserved for infrastructure failures. Mechanical
// failures discovered against fresher state (funds spent by a concurrent
// turn, say) come back inside the Result with Success=false.
func (r *Router) Execute(ctx context.Context, ci intent.Classified, v mechanics.Validation) (mechanics.Result, error) {
	switch ci.Type {
	case intent.TypePurchase, intent.TypeSell, intent.TypePay, intent.TypeSteal, intent.TypeTrade:
		return r.executeEconomic(ctx, ci, v)
	case intent.TypeCastSpell:
		return r.executeSpellcasting(ctx, ci, v)
	case intent.TypeAttack:
		return r.executeCombat(ctx, ci, v)
	case intent.TypeSkillCheck, intent.TypeSavingThrow:
		return r.executeCheck(ctx, ci)
	case intent.TypeShortRest, intent.TypeLongRest:
		return r.executeRest(ctx, ci, v)
	case intent.TypePickupItem, intent.TypeDropItem, intent.TypeGiveItem, intent.TypeUseItem:
		return r.executeInventory(ctx, ci, v)
	default:
		// Movement and roleplay mutate nothing.
		log.Printf("execute: no-op intent type=%s character=%s", ci.Type, ci.CharacterID)
		return mechanics.Result{
			Success:          true,
			Outcome:          mechanics.OutcomeSuccess,
			NarrativeContext: fmt.Sprintf("%s requires no state change", ci.Type),
		}, nil
	}
}

// mechanicalFailure is returned by mutation closures when the freshest state
// no longer supports the action. It aborts the retry loop without being
// reported as an infrastructure error.
type mechanicalFailure struct{ reason string }

func (f mechanicalFailure) Error() string { return f.reason }

func failMechanically(format string, args ...any) error {
	return mechanicalFailure{reason: fmt.Sprintf(format, args...)}
}

// mutateCharacter runs fn against the freshest character record and persists
// the mutated record via compare-and-swap, retrying stale writes. fn returns
// the state changes it made; returning none skips the write entirely. On
// success every change is paired with an audit row.
func (r *Router) mutateCharacter(ctx context.Context, characterID, reason string, fn func(ch *storage.CharacterRecord) ([]mechanics.StateChange, error)) ([]mechanics.StateChange, error) {
	var (
		changes    []mechanics.StateChange
		campaignID string
	)
	err := concurrency.Retry(ctx, func(ctx context.Context) error {
		ch, err := r.characters.GetCharacter(ctx, characterID)
		if err != nil {
			return err
		}
		cs, err := fn(&ch)
		if err != nil {
			return err
		}
		changes, campaignID = cs, ch.CampaignID
		if len(cs) == 0 {
			return nil
		}
		ch.UpdatedAt = r.clock()
		return r.characters.UpdateCharacter(ctx, ch, ch.Version)
	})
	if err != nil {
		return nil, err
	}
	r.appendAudits(ctx, campaignID, reason, changes)
	return changes, nil
}

// appendAudits writes one audit row per state change. Audit failures are
// logged, never fatal: the mutation already landed and the trail must not
// roll it back.
func (r *Router) appendAudits(ctx context.Context, campaignID, reason string, changes []mechanics.StateChange) {
	for _, change := range changes {
		recID, err := r.idGenerator()
		if err != nil {
			log.Printf("execute: audit id generation failed: %v", err)
			continue
		}
		rec := storage.AuditRecord{
			ID:          recID,
			CharacterID: change.CharacterID,
			CampaignID:  campaignID,
			ChangeType:  string(change.Type),
			Field:       change.Field,
			OldValue:    change.Before,
			NewValue:    change.After,
			Reason:      reason,
			CreatedAt:   r.clock(),
		}
		if err := r.audits.AppendAuditRecord(ctx, rec); err != nil {
			log.Printf("execute: audit append failed character=%s field=%s: %v", change.CharacterID, change.Field, err)
		}
	}
}

// resultFor folds a mutation outcome into an executor Result, converting
// mechanical failures into a failed-but-handled Result.
func resultFor(changes []mechanics.StateChange, narrative string, err error) (mechanics.Result, error) {
	if err != nil {
		if f, ok := err.(mechanicalFailure); ok {
			return mechanics.Result{
				Success: false,
				Outcome: mechanics.OutcomeFailure,
				Errors:  []string{f.reason},
			}, nil
		}
		return mechanics.Result{}, err
	}
	return mechanics.Result{
		Success:          true,
		Outcome:          mechanics.OutcomeSuccess,
		Changes:          changes,
		NarrativeContext: narrative,
	}, nil
}

func itoa(n int) string { return strconv.Itoa(n) }
