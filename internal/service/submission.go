package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guild-tracker/internal/api"
	"guild-tracker/internal/blob"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/notify"
	"guild-tracker/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrIdentityRequired  = errors.New("a signed in discord identity is required")
	ErrInvalidGuild      = errors.New("invalid guild")
	ErrInvalidKind       = errors.New("invalid record type")
	ErrPersistenceFailed = errors.New("failed to persist observation")
	ErrInvalidTransition = errors.New("invalid submission state transition")
)

type State string

const (
	StateIdle               State = "idle"
	StateAwaitingExtraction State = "awaiting_extraction"
	StateReadyToSubmit      State = "ready_to_submit"
	StatePersisting         State = "persisting"
	StateNotifyingExternal  State = "notifying_external"
	StateDone               State = "done"
)

var transitions = map[State][]State{
	StateIdle:               {StateAwaitingExtraction, StateReadyToSubmit},
	StateAwaitingExtraction: {StateReadyToSubmit},
	StateReadyToSubmit:      {StateReadyToSubmit, StatePersisting},
	StatePersisting:         {StateReadyToSubmit, StateNotifyingExternal},
	StateNotifyingExternal:  {StateDone},
}

// Fields are the values a member confirms before submitting.
type Fields struct {
	Guild        domain.Guild
	Kind         domain.Kind
	PlayerName   string
	TotalDamage  domain.Damage
	TicketDamage domain.Damage
}

type Image struct {
	ContentType string
	Data        []byte
}

// Flow is one member's submission in progress. It is not safe for
// concurrent use.
type Flow struct {
	state    State
	identity domain.Identity
	fields   Fields
	image    *Image
	imageRef string
	reason   string
}

func NewFlow(identity domain.Identity) *Flow {
	return &Flow{state: StateIdle, identity: identity}
}

func (f *Flow) State() State              { return f.state }
func (f *Flow) Fields() Fields            { return f.fields }
func (f *Flow) Image() *Image             { return f.image }
func (f *Flow) Identity() domain.Identity { return f.identity }

// DegradedReason explains why extraction fell back to manual entry.
func (f *Flow) DegradedReason() string { return f.reason }

// AttachImage sets the screenshot without running extraction.
func (f *Flow) AttachImage(img Image) error {
	if f.state != StateIdle && f.state != StateReadyToSubmit {
		return fmt.Errorf("%w: attach image in %s", ErrInvalidTransition, f.state)
	}
	f.imageRef = ""
	if len(img.Data) == 0 {
		f.image = nil
		return nil
	}
	f.image = &img
	return nil
}

// Edit replaces the confirmed fields. From Idle this is manual entry.
func (f *Flow) Edit(fields Fields) error {
	if err := f.transition(StateReadyToSubmit); err != nil {
		return err
	}
	f.fields = fields
	return nil
}

func (f *Flow) transition(to State) error {
	for _, allowed := range transitions[f.state] {
		if allowed == to {
			f.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, to)
}

func (f *Flow) applyExtraction(ext domain.Extraction) {
	if ext.PlayerName != "" {
		f.fields.PlayerName = strings.TrimSpace(ext.PlayerName)
	}
	if ext.TotalDamage != nil {
		f.fields.TotalDamage = *ext.TotalDamage
	}
	if ext.TicketDamage != nil {
		f.fields.TicketDamage = *ext.TicketDamage
	}
	if f.fields.Kind == "" {
		if ext.TicketDamage == nil && ext.TotalDamage != nil {
			f.fields.Kind = domain.KindInitial
		} else {
			f.fields.Kind = domain.KindIncremental
		}
	}
}

type Extractor interface {
	Extract(ctx context.Context, contentType string, image []byte) (domain.Extraction, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev notify.DamageRecorded) error
}

// Receipt describes a committed submission.
type Receipt struct {
	Observation domain.Observation
	Stats       domain.PlayerSeasonStats
	Queued      bool
}

type SubmissionService struct {
	extractor   Extractor
	images      blob.ImageStore
	store       repository.ObservationStore
	leaderboard *LeaderboardService
	publisher   Publisher
	now         func() time.Time
	logger      zerolog.Logger
}

func NewSubmissionService(
	extractor Extractor,
	images blob.ImageStore,
	store repository.ObservationStore,
	leaderboard *LeaderboardService,
	publisher Publisher,
	logger zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		extractor:   extractor,
		images:      images,
		store:       store,
		leaderboard: leaderboard,
		publisher:   publisher,
		now:         time.Now,
		logger:      logger,
	}
}

// Extract runs the vision model over img and pre-fills the flow. It never
// fails on extraction problems: the flow moves to ReadyToSubmit either way
// and DegradedReason says why the fields are empty.
func (s *SubmissionService) Extract(ctx context.Context, f *Flow, img Image) error {
	if f.state != StateIdle {
		return fmt.Errorf("%w: extract in %s", ErrInvalidTransition, f.state)
	}
	if err := f.AttachImage(img); err != nil {
		return err
	}
	if err := f.transition(StateAwaitingExtraction); err != nil {
		return err
	}
	if f.fields.PlayerName == "" {
		f.fields.PlayerName = f.identity.Username
	}

	ctx, cancel := context.WithTimeout(ctx, constants.VisionAPITimeout)
	defer cancel()

	ext, err := s.extractor.Extract(ctx, img.ContentType, img.Data)
	switch {
	case errors.Is(err, api.ErrExtractionUnavailable):
		f.reason = "automatic extraction is not configured, enter the values manually"
		s.logger.Info().Msg("ExtractionUnavailable")
	case err != nil:
		f.reason = "the screenshot could not be read, enter the values manually"
		s.logger.Warn().Err(err).Msg("ExtractionFailed")
	case ext.Empty():
		f.reason = "no values were found on the screenshot"
	default:
		f.reason = ""
		f.applyExtraction(ext)
	}

	return f.transition(StateReadyToSubmit)
}

// Submit persists the flow's observation and queues the notification.
// A persistence failure leaves the flow in ReadyToSubmit with its fields
// untouched so the member can retry.
func (s *SubmissionService) Submit(ctx context.Context, f *Flow) (Receipt, error) {
	if f.state != StateReadyToSubmit {
		return Receipt{}, fmt.Errorf("%w: submit in %s", ErrInvalidTransition, f.state)
	}
	if err := validate(f); err != nil {
		return Receipt{}, err
	}
	if err := f.transition(StatePersisting); err != nil {
		return Receipt{}, err
	}

	obs := s.observation(f)
	obs.ScreenshotRef = s.storeImage(ctx, f)

	writeCtx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	stored, err := s.store.Append(writeCtx, obs)
	cancel()
	if err != nil {
		_ = f.transition(StateReadyToSubmit)
		s.logger.Error().Err(err).Str("player_key", obs.PlayerKey).Msg("PersistenceFailed")
		return Receipt{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	if err := f.transition(StateNotifyingExternal); err != nil {
		return Receipt{}, err
	}
	s.logger.Info().
		Str("id", stored.ID).
		Str("player_key", stored.PlayerKey).
		Str("kind", string(stored.Kind)).
		Str("guild", string(stored.Guild)).
		Msg("observation recorded")

	receipt := Receipt{Observation: stored}
	stats, err := s.leaderboard.Standing(ctx, stored.PlayerKey)
	if err != nil {
		s.logger.Warn().Err(err).Str("player_key", stored.PlayerKey).Msg("failed to recompute standing")
	} else {
		receipt.Stats = stats
	}

	if err := s.publisher.Publish(ctx, notify.EventFor(stored, receipt.Stats)); err != nil {
		s.logger.Warn().Err(err).Str("id", stored.ID).Msg("NotificationFailed")
	} else {
		receipt.Queued = true
	}

	if err := f.transition(StateDone); err != nil {
		return receipt, err
	}
	return receipt, nil
}

func validate(f *Flow) error {
	if f.identity.ID == "" {
		return ErrIdentityRequired
	}
	if !f.fields.Guild.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGuild, f.fields.Guild)
	}
	if !f.fields.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, f.fields.Kind)
	}
	return nil
}

func (s *SubmissionService) observation(f *Flow) domain.Observation {
	name := strings.TrimSpace(f.fields.PlayerName)
	if name == "" {
		name = f.identity.Username
	}

	obs := domain.Observation{
		PlayerKey:   f.identity.ID,
		DisplayName: name,
		AvatarURL:   f.identity.AvatarURL(),
		Guild:       f.fields.Guild,
		Kind:        f.fields.Kind,
		CapturedAt:  s.now().UTC(),
	}
	switch f.fields.Kind {
	case domain.KindInitial:
		obs.TotalDamageAtCapture = f.fields.TotalDamage
	case domain.KindIncremental:
		obs.TicketDamage = f.fields.TicketDamage
	}
	return obs
}

// storeImage uploads the screenshot once per attached image; a retried
// submit reuses the stored ref. Failures drop the image instead of blocking
// the submission.
func (s *SubmissionService) storeImage(ctx context.Context, f *Flow) string {
	if f.image == nil || s.images == nil {
		return ""
	}
	if f.imageRef != "" {
		return f.imageRef
	}
	ref, err := s.images.Put(ctx, f.identity.ID, f.image.ContentType, f.image.Data)
	if err != nil {
		s.logger.Warn().Err(err).Str("player_key", f.identity.ID).Msg("screenshot upload failed, submitting without image")
		return ""
	}
	f.imageRef = ref
	return ref
}
