package businessflow

import (
	"context"

	"github.com/amirphl/dentalcare/app/dto"
	"github.com/amirphl/dentalcare/app/services"
)

// CounterReader reads the last issued value of a scope without changing it
type CounterReader interface {
	Get(ctx context.Context, scope string) (int64, error)
}

// CounterAdminFlow exposes the code counters to back-office staff
type CounterAdminFlow interface {
	List(ctx context.Context) (*dto.ListCountersResponse, error)
}

type CounterAdminFlowImpl struct {
	backend     string
	reader      CounterReader
	collections map[services.CodeScope]services.CollectionCounter
}

// NewCounterAdminFlow creates the flow. A nil reader yields an empty list.
// collections supplies the record count of scopes that restart when empty;
// without one the next code is reported as if no reset happens.
func NewCounterAdminFlow(backend string, reader CounterReader, collections map[services.CodeScope]services.CollectionCounter) CounterAdminFlow {
	return &CounterAdminFlowImpl{backend: backend, reader: reader, collections: collections}
}

func (f *CounterAdminFlowImpl) List(ctx context.Context) (*dto.ListCountersResponse, error) {
	resp := &dto.ListCountersResponse{Backend: f.backend, Counters: []dto.CounterDTO{}}
	if f.reader == nil {
		return resp, nil
	}

	for _, p := range registeredScopes {
		value, err := f.reader.Get(ctx, string(p.scope))
		if err != nil {
			return nil, NewBusinessError("COUNTER_READ_FAILED", "Failed to read counter", err)
		}
		next, err := f.nextValue(ctx, p, value)
		if err != nil {
			return nil, NewBusinessError("COUNTER_READ_FAILED", "Failed to count records", err)
		}
		resp.Counters = append(resp.Counters, dto.CounterDTO{
			Scope:          string(p.scope),
			Prefix:         p.prefix,
			Value:          value,
			ResetWhenEmpty: p.resetWhenEmpty,
			NextCode:       services.FormatCode(p.prefix, next),
		})
	}
	return resp, nil
}

// nextValue mirrors the generator: an emptied collection restarts its scope at 1
func (f *CounterAdminFlowImpl) nextValue(ctx context.Context, p codePolicy, value int64) (int64, error) {
	if !p.resetWhenEmpty {
		return value + 1, nil
	}
	collection := f.collections[p.scope]
	if collection == nil {
		return value + 1, nil
	}
	n, err := collection.CountAll(ctx)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 1, nil
	}
	return value + 1, nil
}
