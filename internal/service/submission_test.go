package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"guild-tracker/internal/api"
	"guild-tracker/internal/config"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/notify"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type submissionFixture struct {
	store     *FakeStore
	extractor *FakeExtractor
	images    *FakeImageStore
	publisher *FakePublisher
	svc       *SubmissionService
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		store:     &FakeStore{},
		extractor: &FakeExtractor{},
		images:    &FakeImageStore{},
		publisher: &FakePublisher{},
	}
	board := NewLeaderboardService(f.store, &config.Config{}, zerolog.Nop())
	board.now = func() time.Time { return testNow }
	f.svc = NewSubmissionService(f.extractor, f.images, f.store, board, f.publisher, zerolog.Nop())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func damagePtr(d domain.Damage) *domain.Damage { return &d }

var alice = domain.Identity{ID: "42", Username: "alice", Avatar: "hash"}

func TestManualSubmission(t *testing.T) {
	f := newSubmissionFixture()
	flow := NewFlow(alice)
	require.Equal(t, StateIdle, flow.State())

	require.NoError(t, flow.Edit(Fields{Guild: domain.GuildMain, Kind: domain.KindInitial, TotalDamage: 1_000_000}))
	assert.Equal(t, StateReadyToSubmit, flow.State())

	receipt, err := f.svc.Submit(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, StateDone, flow.State())
	assert.True(t, receipt.Queued)

	obs := receipt.Observation
	assert.Equal(t, "42", obs.PlayerKey)
	assert.Equal(t, "alice", obs.DisplayName)
	assert.Equal(t, "https://cdn.discordapp.com/avatars/42/hash.png", obs.AvatarURL)
	assert.Equal(t, domain.Damage(1_000_000), obs.TotalDamageAtCapture)
	assert.Zero(t, obs.TicketDamage)
	assert.Equal(t, testNow, obs.CapturedAt)
	assert.Empty(t, obs.ScreenshotRef)

	assert.Equal(t, domain.Damage(1_000_000), receipt.Stats.AccumulatedTotal)
	assert.Equal(t, 1, receipt.Stats.Rank)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, obs.ID, events[0].ObservationID)
	assert.Equal(t, domain.Damage(1_000_000), events[0].AccumulatedTotal)
}

func TestExtractionPrefillsFields(t *testing.T) {
	f := newSubmissionFixture()
	f.extractor.ExtractFunc = func(_ context.Context, contentType string, image []byte) (domain.Extraction, error) {
		assert.Equal(t, "image/png", contentType)
		assert.Equal(t, []byte("png"), image)
		return domain.Extraction{PlayerName: " Alice ", TicketDamage: damagePtr(50_000)}, nil
	}

	flow := NewFlow(alice)
	require.NoError(t, f.svc.Extract(context.Background(), flow, Image{ContentType: "image/png", Data: []byte("png")}))
	assert.Equal(t, StateReadyToSubmit, flow.State())
	assert.Empty(t, flow.DegradedReason())

	fields := flow.Fields()
	assert.Equal(t, "Alice", fields.PlayerName)
	assert.Equal(t, domain.KindIncremental, fields.Kind)
	assert.Equal(t, domain.Damage(50_000), fields.TicketDamage)

	fields.Guild = domain.GuildSub
	require.NoError(t, flow.Edit(fields))

	receipt, err := f.svc.Submit(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/42.png", receipt.Observation.ScreenshotRef)
	assert.Equal(t, "Alice", receipt.Observation.DisplayName)
	assert.Equal(t, domain.Damage(50_000), receipt.Observation.TicketDamage)
}

func TestExtractionOnlyTotalSuggestsInitial(t *testing.T) {
	f := newSubmissionFixture()
	f.extractor.ExtractFunc = func(context.Context, string, []byte) (domain.Extraction, error) {
		return domain.Extraction{TotalDamage: damagePtr(900)}, nil
	}
	flow := NewFlow(alice)
	require.NoError(t, f.svc.Extract(context.Background(), flow, Image{Data: []byte("x")}))
	assert.Equal(t, domain.KindInitial, flow.Fields().Kind)
	assert.Equal(t, "alice", flow.Fields().PlayerName)
}

func TestExtractionDegradesToManualEntry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		ext  domain.Extraction
	}{
		{name: "unavailable", err: api.ErrExtractionUnavailable},
		{name: "failed", err: fmt.Errorf("%w: status 500", api.ErrExtractionFailed)},
		{name: "empty", ext: domain.Extraction{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture()
			f.extractor.ExtractFunc = func(context.Context, string, []byte) (domain.Extraction, error) {
				return tt.ext, tt.err
			}

			flow := NewFlow(alice)
			require.NoError(t, f.svc.Extract(context.Background(), flow, Image{ContentType: "image/png", Data: []byte("x")}))
			assert.Equal(t, StateReadyToSubmit, flow.State())
			assert.NotEmpty(t, flow.DegradedReason())
			require.NotNil(t, flow.Image(), "the screenshot is kept for submission")
		})
	}
}

func TestPersistenceFailureKeepsFields(t *testing.T) {
	f := newSubmissionFixture()
	f.store.AppendFunc = func(context.Context, domain.Observation) (domain.Observation, error) {
		return domain.Observation{}, errors.New("remote unreachable")
	}

	flow := NewFlow(alice)
	fields := Fields{Guild: domain.GuildMain, Kind: domain.KindIncremental, TicketDamage: 50_000, PlayerName: "Alice"}
	require.NoError(t, flow.Edit(fields))

	_, err := f.svc.Submit(context.Background(), flow)
	require.ErrorIs(t, err, ErrPersistenceFailed)
	assert.Equal(t, StateReadyToSubmit, flow.State())
	assert.Equal(t, fields, flow.Fields())
	assert.Empty(t, f.publisher.Events(), "nothing is announced for an uncommitted observation")

	// Retrying once the store recovers succeeds with the same fields.
	f.store.AppendFunc = nil
	receipt, err := f.svc.Submit(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, domain.Damage(50_000), receipt.Observation.TicketDamage)
}

func TestRetryAfterPersistenceFailureReusesScreenshot(t *testing.T) {
	f := newSubmissionFixture()
	uploads := 0
	f.images.PutFunc = func(_ context.Context, playerKey, _ string, _ []byte) (string, error) {
		uploads++
		return fmt.Sprintf("https://cdn.example/%s-%d.png", playerKey, uploads), nil
	}
	f.store.AppendFunc = func(context.Context, domain.Observation) (domain.Observation, error) {
		return domain.Observation{}, errors.New("remote unreachable")
	}

	flow := NewFlow(alice)
	require.NoError(t, flow.AttachImage(Image{ContentType: "image/png", Data: []byte("x")}))
	require.NoError(t, flow.Edit(Fields{Guild: domain.GuildMain, Kind: domain.KindIncremental, TicketDamage: 5}))

	_, err := f.svc.Submit(context.Background(), flow)
	require.ErrorIs(t, err, ErrPersistenceFailed)
	_, err = f.svc.Submit(context.Background(), flow)
	require.ErrorIs(t, err, ErrPersistenceFailed)

	f.store.AppendFunc = nil
	receipt, err := f.svc.Submit(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, 1, uploads)
	assert.Equal(t, "https://cdn.example/42-1.png", receipt.Observation.ScreenshotRef)
}

func TestReattachingImageUploadsAgain(t *testing.T) {
	f := newSubmissionFixture()
	uploads := 0
	f.images.PutFunc = func(context.Context, string, string, []byte) (string, error) {
		uploads++
		return fmt.Sprintf("https://cdn.example/%d.png", uploads), nil
	}
	f.store.AppendFunc = func(context.Context, domain.Observation) (domain.Observation, error) {
		return domain.Observation{}, errors.New("remote unreachable")
	}

	flow := NewFlow(alice)
	require.NoError(t, flow.AttachImage(Image{ContentType: "image/png", Data: []byte("x")}))
	require.NoError(t, flow.Edit(Fields{Guild: domain.GuildMain, Kind: domain.KindIncremental, TicketDamage: 5}))
	_, err := f.svc.Submit(context.Background(), flow)
	require.ErrorIs(t, err, ErrPersistenceFailed)

	require.NoError(t, flow.AttachImage(Image{ContentType: "image/png", Data: []byte("y")}))
	f.store.AppendFunc = nil
	receipt, err := f.svc.Submit(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, 2, uploads)
	assert.Equal(t, "https://cdn.example/2.png", receipt.Observation.ScreenshotRef)
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	f := newSubmissionFixture()
	f.publisher.PublishFunc = func(context.Context, notify.DamageRecorded) error {
		return errors.New("queue closed")
	}

	flow := NewFlow(alice)
	require.NoError(t, flow.Edit(Fields{Guild: domain.GuildMain, Kind: domain.KindInitial, TotalDamage: 10}))

	receipt, err := f.svc.Submit(context.Background(), flow)
	require.NoError(t, err)
	assert.False(t, receipt.Queued)
	assert.Equal(t, StateDone, flow.State())

	stored, err := f.store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestScreenshotUploadFailureDropsImage(t *testing.T) {
	f := newSubmissionFixture()
	f.images.PutFunc = func(context.Context, string, string, []byte) (string, error) {
		return "", errors.New("bucket down")
	}

	flow := NewFlow(alice)
	require.NoError(t, flow.AttachImage(Image{ContentType: "image/png", Data: []byte("x")}))
	require.NoError(t, flow.Edit(Fields{Guild: domain.GuildMain, Kind: domain.KindIncremental, TicketDamage: 5}))

	receipt, err := f.svc.Submit(context.Background(), flow)
	require.NoError(t, err)
	assert.Empty(t, receipt.Observation.ScreenshotRef)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name     string
		identity domain.Identity
		fields   Fields
		want     error
	}{
		{name: "no identity", fields: Fields{Guild: domain.GuildMain, Kind: domain.KindInitial}, want: ErrIdentityRequired},
		{name: "bad guild", identity: alice, fields: Fields{Guild: "third", Kind: domain.KindInitial}, want: ErrInvalidGuild},
		{name: "bad kind", identity: alice, fields: Fields{Guild: domain.GuildSub, Kind: "BONUS"}, want: ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture()
			flow := NewFlow(tt.identity)
			require.NoError(t, flow.Edit(tt.fields))

			_, err := f.svc.Submit(context.Background(), flow)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, StateReadyToSubmit, flow.State())
			assert.NotContains(t, f.store.Trace(), "Append")
		})
	}
}

func TestFlowTransitions(t *testing.T) {
	f := newSubmissionFixture()

	flow := NewFlow(alice)
	_, err := f.svc.Submit(context.Background(), flow)
	assert.ErrorIs(t, err, ErrInvalidTransition, "idle flows cannot be submitted")

	require.NoError(t, flow.Edit(Fields{Guild: domain.GuildMain, Kind: domain.KindInitial}))
	err = f.svc.Extract(context.Background(), flow, Image{Data: []byte("x")})
	assert.ErrorIs(t, err, ErrInvalidTransition, "extraction only starts from idle")

	_, err = f.svc.Submit(context.Background(), flow)
	require.NoError(t, err)
	assert.ErrorIs(t, flow.Edit(Fields{}), ErrInvalidTransition, "done is terminal")
	_, err = f.svc.Submit(context.Background(), flow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
