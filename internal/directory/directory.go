// Package directory keeps the issuer branding entries that labels are
// enriched with. Entries are keyed by digits-only tax id.
package directory

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"labelmaster/internal"
	"labelmaster/internal/util"
)

var (
	ErrInvalidIssuer  = errors.New("issuer requires a name and a tax id")
	ErrIssuerNotFound = errors.New("issuer not found")
)

// Store persists the full directory. SaveIssuers always receives every entry.
type Store interface {
	LoadIssuers(ctx context.Context) ([]internal.Issuer, error)
	SaveIssuers(ctx context.Context, issuers []internal.Issuer) error
}

// Directory is safe for concurrent readers; writers are serialized and swap
// the slice only after the store accepted it.
type Directory struct {
	mu      sync.RWMutex
	write   sync.Mutex
	issuers []internal.Issuer
	store   Store
}

// Open loads the directory from store once.
func Open(ctx context.Context, store Store) (*Directory, error) {
	issuers, err := store.LoadIssuers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load issuer directory")
	}
	for i := range issuers {
		issuers[i].TaxID = util.NormalizeTaxID(issuers[i].TaxID)
	}
	return &Directory{issuers: issuers, store: store}, nil
}

// New returns a directory that is not backed by any store.
func New(issuers ...internal.Issuer) *Directory {
	d := &Directory{}
	for _, issuer := range issuers {
		issuer.TaxID = util.NormalizeTaxID(issuer.TaxID)
		d.issuers = append(d.issuers, issuer)
	}
	return d
}

func (d *Directory) Add(ctx context.Context, issuer internal.Issuer) (internal.Issuer, error) {
	issuer.Name = strings.TrimSpace(issuer.Name)
	issuer.TaxID = util.NormalizeTaxID(issuer.TaxID)
	if issuer.Name == "" || issuer.TaxID == "" {
		return internal.Issuer{}, ErrInvalidIssuer
	}
	if issuer.ID == "" {
		issuer.ID = uuid.NewString()
	}

	d.write.Lock()
	defer d.write.Unlock()

	next := append(d.List(), issuer)
	if err := d.commit(ctx, next); err != nil {
		return internal.Issuer{}, err
	}
	return issuer, nil
}

func (d *Directory) Remove(ctx context.Context, id string) error {
	d.write.Lock()
	defer d.write.Unlock()

	current := d.List()
	next := lo.Reject(current, func(issuer internal.Issuer, _ int) bool { return issuer.ID == id })
	if len(next) == len(current) {
		return errors.Wrapf(ErrIssuerNotFound, "id=%s", id)
	}
	return d.commit(ctx, next)
}

// Lookup returns the first entry added for the tax id. Punctuation in taxID is
// ignored.
func (d *Directory) Lookup(taxID string) (internal.Issuer, bool) {
	key := util.NormalizeTaxID(taxID)
	if key == "" {
		return internal.Issuer{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.Find(d.issuers, func(issuer internal.Issuer) bool { return issuer.TaxID == key })
}

// List returns a copy in insertion order.
func (d *Directory) List() []internal.Issuer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]internal.Issuer, len(d.issuers))
	copy(out, d.issuers)
	return out
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.issuers)
}

func (d *Directory) commit(ctx context.Context, next []internal.Issuer) error {
	if d.store != nil {
		if err := d.store.SaveIssuers(ctx, next); err != nil {
			return errors.Wrap(err, "save issuer directory")
		}
	}
	d.mu.Lock()
	d.issuers = next
	d.mu.Unlock()
	return nil
}
