package financials

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bafcc/camp-admin/internal/restclient"
)

// Ledger is the CRUD surface shared by the deposit, donation and expense
// collections. T is the stored entry and In its create/update body.
type Ledger[T, In any] struct {
	rest        *restclient.Client
	name        string
	path        string
	entityParam string
}

func newLedger[T, In any](rest *restclient.Client, name, entityParam string) *Ledger[T, In] {
	return &Ledger[T, In]{
		rest:        rest,
		name:        name,
		path:        basePath + name + "/",
		entityParam: entityParam,
	}
}

func (l *Ledger[T, In]) List(ctx context.Context, f Filter) (*Page[T], error) {
	var out Page[T]
	if err := l.rest.Get(ctx, l.path, f.values(l.entityParam), &out); err != nil {
		return nil, fmt.Errorf("financials: list %s: %w", l.name, err)
	}
	return &out, nil
}

func (l *Ledger[T, In]) Create(ctx context.Context, in In) (*T, error) {
	var out T
	if err := l.rest.Post(ctx, l.path, in, &out); err != nil {
		return nil, fmt.Errorf("financials: create %s: %w", l.name, err)
	}
	return &out, nil
}

func (l *Ledger[T, In]) Update(ctx context.Context, id int, in In) (*T, error) {
	var out T
	if err := l.rest.Put(ctx, l.path+strconv.Itoa(id), in, &out); err != nil {
		return nil, fmt.Errorf("financials: update %s %d: %w", l.name, id, err)
	}
	return &out, nil
}

func (l *Ledger[T, In]) Delete(ctx context.Context, id int) error {
	if err := l.rest.Delete(ctx, l.path+strconv.Itoa(id)); err != nil {
		return fmt.Errorf("financials: delete %s %d: %w", l.name, id, err)
	}
	return nil
}
