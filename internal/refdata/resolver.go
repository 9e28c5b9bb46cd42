// Package refdata implements the dynamic reference-data resolver behind
// autocomplete-with-create-on-the-fly fields (donor, supplier, group,
// subgroup). A Resolver coordinates search-as-you-type, inline creation
// and guarded deletion against a pluggable backing Store, keeping the
// caller interactive across transient store failures.
package refdata

import (
	"context"
	"sync"

	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// Option is an {id, name} pair from a backing collection.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store is the backing collection a Resolver is parameterized over.
// Implementations live with the master-data repositories.
type Store interface {
	Search(ctx context.Context, query string) ([]Option, error)
	Create(ctx context.Context, name string) (Option, error)
	GetAll(ctx context.Context) ([]Option, error)
	Delete(ctx context.Context, id string) error
	CheckUsage(ctx context.Context, id string) (bool, error)
}

// Result is the non-throwing outcome of a resolver operation. Store
// failures never propagate as errors: they surface here as a message
// while prior state is left unchanged.
type Result struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Stale   bool     `json:"stale,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Resolver holds the transient state of one combobox instance: the
// visible option list, the current selection, and the search sequence
// counter. Instances are independent; there is no cross-instance shared
// state.
type Resolver struct {
	store  Store
	logger *logger.Logger

	mu         sync.Mutex
	nextSeq    uint64
	appliedSeq uint64
	options    []Option
	selected   *Option
	open       bool
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store, log *logger.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: log.WithComponent("refdata"),
	}
}

// Load populates the option list from the full backing collection.
func (r *Resolver) Load(ctx context.Context) Result {
	opts, err := r.store.GetAll(ctx)
	if err != nil {
		return r.failure(ctx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = opts
	r.open = true
	return Result{Success: true, Options: r.optionsLocked()}
}

// Search issues a query against the store. Every search is tagged with
// a monotonically increasing sequence number at dispatch time; the
// response is applied to the visible option list only if its sequence
// is higher than the last one applied, so overlapping searches always
// settle on the most recently issued query. Stale responses are
// discarded and reported with Stale set.
func (r *Resolver) Search(ctx context.Context, query string) Result {
	r.mu.Lock()
	r.nextSeq++
	seq := r.nextSeq
	r.mu.Unlock()

	opts, err := r.store.Search(ctx, query)
	if err != nil {
		return r.failure(ctx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.appliedSeq {
		r.logger.Debug().
			Uint64("seq", seq).
			Uint64("applied_seq", r.appliedSeq).
			Str("query", query).
			Msg("discarding stale search response")
		return Result{Success: true, Stale: true, Options: r.optionsLocked()}
	}

	r.appliedSeq = seq
	r.options = opts
	r.open = true
	return Result{Success: true, Options: r.optionsLocked()}
}

// CreateNew creates an option inline. On success the new option is
// merged into the visible list and becomes the selection. On failure
// (duplicate name included) the message is surfaced and the list and
// selection stay as they were.
func (r *Resolver) CreateNew(ctx context.Context, name string) Result {
	created, err := r.store.Create(ctx, name)
	if err != nil {
		return r.failure(ctx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := false
	for i, opt := range r.options {
		if opt.ID == created.ID {
			r.options[i] = created
			merged = true
			break
		}
	}
	if !merged {
		r.options = append(r.options, created)
	}
	r.selected = &created
	r.open = false
	return Result{Success: true, Options: r.optionsLocked()}
}

// Delete removes an option after checking it is not referenced. The
// usage check always runs first: an in-use option is refused without
// the store delete ever being attempted, and the option list is left
// unchanged.
func (r *Resolver) Delete(ctx context.Context, id string) Result {
	used, err := r.store.CheckUsage(ctx, id)
	if err != nil {
		return r.failure(ctx, err)
	}
	if used {
		return r.failure(ctx, errors.ReferenceInUse(r.optionName(id)))
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return r.failure(ctx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.options[:0]
	for _, opt := range r.options {
		if opt.ID != id {
			kept = append(kept, opt)
		}
	}
	r.options = kept
	if r.selected != nil && r.selected.ID == id {
		r.selected = nil
	}
	return Result{Success: true, Options: r.optionsLocked()}
}

// Select sets the controlled value and closes the option list.
func (r *Resolver) Select(option Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = &option
	r.open = false
}

// Selected returns a copy of the current selection, or nil.
func (r *Resolver) Selected() *Option {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected == nil {
		return nil
	}
	selected := *r.selected
	return &selected
}

// Options returns a copy of the visible option list.
func (r *Resolver) Options() []Option {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.optionsLocked()
}

// IsOpen reports whether the option list is open.
func (r *Resolver) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

func (r *Resolver) optionsLocked() []Option {
	opts := make([]Option, len(r.options))
	copy(opts, r.options)
	return opts
}

func (r *Resolver) optionName(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, opt := range r.options {
		if opt.ID == id {
			return opt.Name
		}
	}
	return id
}

// failure converts a store error into a non-throwing result without
// touching resolver state.
func (r *Resolver) failure(ctx context.Context, err error) Result {
	var appErr *errors.AppError
	if !errors.As(err, &appErr) {
		appErr = errors.BackingCollection(err)
	}

	r.logger.Warn().Err(err).Msg("reference data operation failed")

	r.mu.Lock()
	defer r.mu.Unlock()
	return Result{Success: false, Message: appErr.Localize(ctx), Options: r.optionsLocked()}
}
