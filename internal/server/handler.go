package server

import (
	"net/http"

	"guild-tracker/internal/constants"

	"connectrpc.com/connect"
)

const (
	ServiceName = "guild.v1.DamageTracker"
	ServicePath = "/" + ServiceName + "/"

	GetLeaderboardProcedure    = ServicePath + "GetLeaderboard"
	GetPlayerHistoryProcedure  = ServicePath + "GetPlayerHistory"
	ExtractScreenshotProcedure = ServicePath + "ExtractScreenshot"
	SubmitObservationProcedure = ServicePath + "SubmitObservation"
	WhoAmIProcedure            = ServicePath + "WhoAmI"
	GetSettingsProcedure       = ServicePath + "GetSettings"
	AdminLoginProcedure        = ServicePath + "AdminLogin"
	DeleteObservationProcedure = ServicePath + "DeleteObservation"
	ClearSeasonProcedure       = ServicePath + "ClearSeason"
)

// NewHandler mounts every procedure of s and returns the path prefix to
// register it under.
func NewHandler(s *TrackerServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(JSONCodec),
		connect.WithCodec(jsonCharsetCodec),
		// base64 in JSON grows the payload by a third
		connect.WithReadMaxBytes(constants.MaxScreenshotBytes * 2),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetLeaderboardProcedure, connect.NewUnaryHandler(GetLeaderboardProcedure, s.GetLeaderboard, opts...))
	mux.Handle(GetPlayerHistoryProcedure, connect.NewUnaryHandler(GetPlayerHistoryProcedure, s.GetPlayerHistory, opts...))
	mux.Handle(ExtractScreenshotProcedure, connect.NewUnaryHandler(ExtractScreenshotProcedure, s.ExtractScreenshot, opts...))
	mux.Handle(SubmitObservationProcedure, connect.NewUnaryHandler(SubmitObservationProcedure, s.SubmitObservation, opts...))
	mux.Handle(WhoAmIProcedure, connect.NewUnaryHandler(WhoAmIProcedure, s.WhoAmI, opts...))
	mux.Handle(GetSettingsProcedure, connect.NewUnaryHandler(GetSettingsProcedure, s.GetSettings, opts...))
	mux.Handle(AdminLoginProcedure, connect.NewUnaryHandler(AdminLoginProcedure, s.AdminLogin, opts...))
	mux.Handle(DeleteObservationProcedure, connect.NewUnaryHandler(DeleteObservationProcedure, s.DeleteObservation, opts...))
	mux.Handle(ClearSeasonProcedure, connect.NewUnaryHandler(ClearSeasonProcedure, s.ClearSeason, opts...))
	return ServicePath, mux
}
