package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"guild-tracker/internal/config"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

var ErrInvalidIdentity = errors.New("discord token rejected")

type DiscordClient struct {
	baseURL     string
	clientID    string
	redirectURI string
	client      *fasthttp.Client
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
}

func NewDiscordClient(cfg *config.Config) *DiscordClient {
	return &DiscordClient{
		baseURL:     cfg.DiscordAPIBase,
		clientID:    cfg.DiscordClientID,
		redirectURI: cfg.DiscordRedirectURI,
		client:      newFastClient(constants.ExternalAPITimeout),
	}
}

// AuthorizeURL is the implicit-grant entry point; discord redirects back
// with the access token in the URL fragment. Empty when no client id is set.
func (c *DiscordClient) AuthorizeURL(state string) string {
	if c.clientID == "" {
		return ""
	}
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("response_type", "token")
	q.Set("scope", "identify")
	if c.redirectURI != "" {
		q.Set("redirect_uri", c.redirectURI)
	}
	if state != "" {
		q.Set("state", state)
	}
	return "https://discord.com/oauth2/authorize?" + q.Encode()
}

// Me resolves a bearer token to the discord account behind it.
func (c *DiscordClient) Me(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return domain.Identity{}, ErrInvalidIdentity
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/users/@me")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+token)

	if err := do(ctx, c.client, req, resp); err != nil {
		return domain.Identity{}, fmt.Errorf("failed to reach discord: %w", err)
	}
	if resp.StatusCode() == fasthttp.StatusUnauthorized || resp.StatusCode() == fasthttp.StatusForbidden {
		return domain.Identity{}, ErrInvalidIdentity
	}
	if err := checkStatus("discord", resp, fasthttp.StatusOK); err != nil {
		return domain.Identity{}, err
	}

	user, err := decodeJSON[discordUser](resp)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to decode discord user: %w", err)
	}
	if user.ID == "" {
		return domain.Identity{}, ErrInvalidIdentity
	}

	name := user.GlobalName
	if name == "" {
		name = user.Username
	}
	return domain.Identity{ID: user.ID, Username: name, Avatar: user.Avatar}, nil
}
