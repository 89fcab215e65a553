package service

import (
	"context"
	"sync"

	"guild-tracker/internal/domain"
	"guild-tracker/internal/notify"
)

// ------------------------
// Fake Observation Store
// ------------------------

type FakeStore struct {
	mu    sync.Mutex
	trace []string
	obs   []domain.Observation

	AppendFunc  func(ctx context.Context, obs domain.Observation) (domain.Observation, error)
	ListAllFunc func(ctx context.Context) ([]domain.Observation, error)
	RemoveFunc  func(ctx context.Context, id string) error
	ClearFunc   func(ctx context.Context) error
}

func (f *FakeStore) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeStore) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakeStore) Append(ctx context.Context, obs domain.Observation) (domain.Observation, error) {
	f.mu.Lock()
	f.record("Append")
	fn := f.AppendFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, obs)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if obs.ID == "" {
		obs.ID = "obs-" + string(rune('a'+len(f.obs)))
	}
	f.obs = append(f.obs, obs)
	return obs, nil
}

func (f *FakeStore) ListAll(ctx context.Context) ([]domain.Observation, error) {
	f.mu.Lock()
	f.record("ListAll")
	fn := f.ListAllFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Observation(nil), f.obs...), nil
}

func (f *FakeStore) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	f.record("Remove")
	fn := f.RemoveFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.obs[:0]
	for _, o := range f.obs {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	f.obs = kept
	return nil
}

func (f *FakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	f.record("Clear")
	fn := f.ClearFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = nil
	return nil
}

// ------------------------
// Fake Collaborators
// ------------------------

type FakeExtractor struct {
	ExtractFunc func(ctx context.Context, contentType string, image []byte) (domain.Extraction, error)
}

func (f *FakeExtractor) Extract(ctx context.Context, contentType string, image []byte) (domain.Extraction, error) {
	if f.ExtractFunc != nil {
		return f.ExtractFunc(ctx, contentType, image)
	}
	return domain.Extraction{}, nil
}

type FakeImageStore struct {
	PutFunc func(ctx context.Context, playerKey, contentType string, data []byte) (string, error)
}

func (f *FakeImageStore) Put(ctx context.Context, playerKey, contentType string, data []byte) (string, error) {
	if f.PutFunc != nil {
		return f.PutFunc(ctx, playerKey, contentType, data)
	}
	return "https://cdn.example/" + playerKey + ".png", nil
}

type FakePublisher struct {
	mu     sync.Mutex
	events []notify.DamageRecorded

	PublishFunc func(ctx context.Context, ev notify.DamageRecorded) error
}

func (f *FakePublisher) Publish(ctx context.Context, ev notify.DamageRecorded) error {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	if f.PublishFunc != nil {
		return f.PublishFunc(ctx, ev)
	}
	return nil
}

func (f *FakePublisher) Events() []notify.DamageRecorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.DamageRecorded(nil), f.events...)
}

type FakeResolver struct {
	MeFunc func(ctx context.Context, token string) (domain.Identity, error)
}

func (f *FakeResolver) Me(ctx context.Context, token string) (domain.Identity, error) {
	if f.MeFunc != nil {
		return f.MeFunc(ctx, token)
	}
	return domain.Identity{ID: "42", Username: "alice"}, nil
}
