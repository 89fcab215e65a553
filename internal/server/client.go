package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls the tracker over connect's JSON protocol.
type Client struct {
	getLeaderboard    *connect.Client[GetLeaderboardRequest, GetLeaderboardResponse]
	getPlayerHistory  *connect.Client[GetPlayerHistoryRequest, GetPlayerHistoryResponse]
	submitObservation *connect.Client[SubmitObservationRequest, SubmitObservationResponse]
	getSettings       *connect.Client[GetSettingsRequest, GetSettingsResponse]
	adminLogin        *connect.Client[AdminLoginRequest, AdminLoginResponse]
	deleteObservation *connect.Client[DeleteObservationRequest, DeleteObservationResponse]
	clearSeason       *connect.Client[ClearSeasonRequest, ClearSeasonResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec)}, opts...)
	return &Client{
		getLeaderboard:    connect.NewClient[GetLeaderboardRequest, GetLeaderboardResponse](httpClient, baseURL+GetLeaderboardProcedure, opts...),
		getPlayerHistory:  connect.NewClient[GetPlayerHistoryRequest, GetPlayerHistoryResponse](httpClient, baseURL+GetPlayerHistoryProcedure, opts...),
		submitObservation: connect.NewClient[SubmitObservationRequest, SubmitObservationResponse](httpClient, baseURL+SubmitObservationProcedure, opts...),
		getSettings:       connect.NewClient[GetSettingsRequest, GetSettingsResponse](httpClient, baseURL+GetSettingsProcedure, opts...),
		adminLogin:        connect.NewClient[AdminLoginRequest, AdminLoginResponse](httpClient, baseURL+AdminLoginProcedure, opts...),
		deleteObservation: connect.NewClient[DeleteObservationRequest, DeleteObservationResponse](httpClient, baseURL+DeleteObservationProcedure, opts...),
		clearSeason:       connect.NewClient[ClearSeasonRequest, ClearSeasonResponse](httpClient, baseURL+ClearSeasonProcedure, opts...),
	}
}

func withBearer[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func (c *Client) GetLeaderboard(ctx context.Context, msg *GetLeaderboardRequest) (*GetLeaderboardResponse, error) {
	resp, err := c.getLeaderboard.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) GetPlayerHistory(ctx context.Context, msg *GetPlayerHistoryRequest) (*GetPlayerHistoryResponse, error) {
	resp, err := c.getPlayerHistory.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) SubmitObservation(ctx context.Context, token string, msg *SubmitObservationRequest) (*SubmitObservationResponse, error) {
	resp, err := c.submitObservation.CallUnary(ctx, withBearer(msg, token))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) GetSettings(ctx context.Context, msg *GetSettingsRequest) (*GetSettingsResponse, error) {
	resp, err := c.getSettings.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) AdminLogin(ctx context.Context, password string) (*AdminLoginResponse, error) {
	resp, err := c.adminLogin.CallUnary(ctx, connect.NewRequest(&AdminLoginRequest{Password: password}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) DeleteObservation(ctx context.Context, token, id string) error {
	_, err := c.deleteObservation.CallUnary(ctx, withBearer(&DeleteObservationRequest{ID: id}, token))
	return err
}

func (c *Client) ClearSeason(ctx context.Context, token string) error {
	_, err := c.clearSeason.CallUnary(ctx, withBearer(&ClearSeasonRequest{Confirm: true}, token))
	return err
}
