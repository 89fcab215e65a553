package server

import (
	"context"
	"errors"
	"time"

	"guild-tracker/internal/auth"
	"guild-tracker/internal/blob"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
	"guild-tracker/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

type TrackerServer struct {
	leaderboardSvc *service.LeaderboardService
	submissionSvc  *service.SubmissionService
	identitySvc    *service.IdentityService
	settingsSvc    *service.SettingsService
	adminSvc       *service.AdminService
}

func NewTrackerServer(
	leaderboardSvc *service.LeaderboardService,
	submissionSvc *service.SubmissionService,
	identitySvc *service.IdentityService,
	settingsSvc *service.SettingsService,
	adminSvc *service.AdminService,
) *TrackerServer {
	return &TrackerServer{
		leaderboardSvc: leaderboardSvc,
		submissionSvc:  submissionSvc,
		identitySvc:    identitySvc,
		settingsSvc:    settingsSvc,
		adminSvc:       adminSvc,
	}
}

func (s *TrackerServer) GetLeaderboard(ctx context.Context, req *connect.Request[GetLeaderboardRequest]) (*connect.Response[GetLeaderboardResponse], error) {
	board, err := s.leaderboardSvc.Leaderboard(ctx, domain.Guild(req.Msg.Guild), req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(toLeaderboardResponse(board)), nil
}

func (s *TrackerServer) GetPlayerHistory(ctx context.Context, req *connect.Request[GetPlayerHistoryRequest]) (*connect.Response[GetPlayerHistoryResponse], error) {
	history, err := s.leaderboardSvc.PlayerHistory(ctx, req.Msg.PlayerKey)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&GetPlayerHistoryResponse{
		Stats:        toEntry(history.Stats),
		Observations: toObservations(history.Observations),
	}), nil
}

// ExtractScreenshot reads a screenshot for pre-filling the form. Signing in
// is optional here; the identity only supplies a default player name.
func (s *TrackerServer) ExtractScreenshot(ctx context.Context, req *connect.Request[ExtractScreenshotRequest]) (*connect.Response[ExtractScreenshotResponse], error) {
	if err := checkImage(req.Msg.Image); err != nil {
		return nil, toConnectError(ctx, err)
	}
	if len(req.Msg.Image) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("image is required"))
	}

	var identity domain.Identity
	if token := auth.BearerToken(req.Header().Get("Authorization")); token != "" {
		if id, err := s.identitySvc.Resolve(ctx, token); err == nil {
			identity = id
		}
	}

	flow := service.NewFlow(identity)
	if err := s.submissionSvc.Extract(ctx, flow, service.Image{ContentType: req.Msg.ContentType, Data: req.Msg.Image}); err != nil {
		return nil, toConnectError(ctx, err)
	}

	fields := flow.Fields()
	return connect.NewResponse(&ExtractScreenshotResponse{
		PlayerName:   fields.PlayerName,
		Kind:         string(fields.Kind),
		TotalDamage:  fields.TotalDamage.Int64(),
		TicketDamage: fields.TicketDamage.Int64(),
		Degraded:     flow.DegradedReason() != "",
		Reason:       flow.DegradedReason(),
	}), nil
}

func (s *TrackerServer) SubmitObservation(ctx context.Context, req *connect.Request[SubmitObservationRequest]) (*connect.Response[SubmitObservationResponse], error) {
	if err := checkImage(req.Msg.Image); err != nil {
		return nil, toConnectError(ctx, err)
	}

	identity, err := s.identitySvc.Resolve(ctx, auth.BearerToken(req.Header().Get("Authorization")))
	if err != nil {
		return nil, toConnectError(ctx, err)
	}

	flow := service.NewFlow(identity)
	if err := flow.AttachImage(service.Image{ContentType: req.Msg.ContentType, Data: req.Msg.Image}); err != nil {
		return nil, toConnectError(ctx, err)
	}
	if err := flow.Edit(service.Fields{
		Guild:        domain.Guild(req.Msg.Guild),
		Kind:         domain.Kind(req.Msg.Kind),
		PlayerName:   req.Msg.PlayerName,
		TotalDamage:  req.Msg.TotalDamage,
		TicketDamage: req.Msg.TicketDamage,
	}); err != nil {
		return nil, toConnectError(ctx, err)
	}

	receipt, err := s.submissionSvc.Submit(ctx, flow)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&SubmitObservationResponse{
		Observation: toObservation(receipt.Observation),
		Stats:       toEntry(receipt.Stats),
		Notified:    receipt.Queued,
	}), nil
}

func (s *TrackerServer) WhoAmI(ctx context.Context, req *connect.Request[WhoAmIRequest]) (*connect.Response[WhoAmIResponse], error) {
	identity, err := s.identitySvc.Resolve(ctx, auth.BearerToken(req.Header().Get("Authorization")))
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&WhoAmIResponse{
		ID:        identity.ID,
		Username:  identity.Username,
		AvatarURL: identity.AvatarURL(),
	}), nil
}

func (s *TrackerServer) GetSettings(ctx context.Context, req *connect.Request[GetSettingsRequest]) (*connect.Response[GetSettingsResponse], error) {
	return connect.NewResponse(toSettingsResponse(s.settingsSvc.Public(req.Msg.State))), nil
}

func (s *TrackerServer) AdminLogin(ctx context.Context, req *connect.Request[AdminLoginRequest]) (*connect.Response[AdminLoginResponse], error) {
	token, expiresAt, err := s.adminSvc.Login(req.Msg.Password)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&AdminLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}), nil
}

func (s *TrackerServer) DeleteObservation(ctx context.Context, req *connect.Request[DeleteObservationRequest]) (*connect.Response[DeleteObservationResponse], error) {
	token := auth.BearerToken(req.Header().Get("Authorization"))
	if err := s.adminSvc.DeleteObservation(ctx, token, req.Msg.ID); err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&DeleteObservationResponse{}), nil
}

func (s *TrackerServer) ClearSeason(ctx context.Context, req *connect.Request[ClearSeasonRequest]) (*connect.Response[ClearSeasonResponse], error) {
	if !req.Msg.Confirm {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("clearing the season must be confirmed"))
	}
	token := auth.BearerToken(req.Header().Get("Authorization"))
	if err := s.adminSvc.ClearSeason(ctx, token); err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&ClearSeasonResponse{}), nil
}

func checkImage(image []byte) error {
	if len(image) > constants.MaxScreenshotBytes {
		return blob.ErrTooLarge
	}
	return nil
}

func toConnectError(ctx context.Context, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, service.ErrIdentityRequired):
		code = connect.CodeUnauthenticated
	case errors.Is(err, service.ErrInvalidGuild),
		errors.Is(err, service.ErrInvalidKind),
		errors.Is(err, service.ErrMissingID),
		errors.Is(err, blob.ErrTooLarge):
		code = connect.CodeInvalidArgument
	case errors.Is(err, service.ErrInvalidTransition):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, service.ErrPersistenceFailed):
		code = connect.CodeUnavailable
	case errors.Is(err, service.ErrAdminRequired),
		errors.Is(err, auth.ErrInvalidCredentials):
		code = connect.CodePermissionDenied
	case errors.Is(err, auth.ErrAdminDisabled):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, service.ErrPlayerNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}

	if code == connect.CodeInternal {
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	}
	return connect.NewError(code, err)
}
