package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"guild-tracker/internal/config"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

var (
	ErrExtractionUnavailable = errors.New("screenshot extraction is not configured")
	ErrExtractionFailed      = errors.New("screenshot extraction failed")
)

const extractionPrompt = `You are reading a battle result screenshot from a mobile game.
Return only a JSON object with these keys:
  "playerName": the player's in-game name, or null
  "totalDamage": the cumulative season damage shown, as an integer, or null
  "ticketDamage": the damage dealt in this battle, as an integer, or null
Do not guess values that are not visible.`

// VisionClient asks a generative model to read damage figures off a
// screenshot.
type VisionClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *fasthttp.Client
}

func NewVisionClient(cfg *config.Config) *VisionClient {
	return &VisionClient{
		apiKey:  cfg.VisionAPIKey,
		model:   cfg.VisionModel,
		baseURL: cfg.VisionBaseURL,
		client:  newFastClient(constants.VisionAPITimeout),
	}
}

func (c *VisionClient) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type extractionPayload struct {
	PlayerName   *string        `json:"playerName"`
	TotalDamage  *domain.Damage `json:"totalDamage"`
	TicketDamage *domain.Damage `json:"ticketDamage"`
}

// Extract returns whatever the model could read. Callers must treat every
// field as untrusted. All failures wrap ErrExtractionUnavailable or
// ErrExtractionFailed.
func (c *VisionClient) Extract(ctx context.Context, contentType string, image []byte) (domain.Extraction, error) {
	if !c.Configured() {
		return domain.Extraction{}, ErrExtractionUnavailable
	}
	if len(image) == 0 {
		return domain.Extraction{}, fmt.Errorf("%w: empty image", ErrExtractionFailed)
	}
	if contentType == "" {
		contentType = "image/png"
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{
			{Text: extractionPrompt},
			{InlineData: &inlineData{MimeType: contentType, Data: base64.StdEncoding.EncodeToString(image)}},
		}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	uri := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := do(ctx, c.client, req, resp); err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if err := checkStatus("vision", resp, fasthttp.StatusOK); err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	gen, err := decodeJSON[generateResponse](resp)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	var text strings.Builder
	for _, cand := range gen.Candidates {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}

	ext, err := ParseExtraction(text.String())
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return ext, nil
}

// ParseExtraction reads the model's reply. Models often wrap JSON in a
// markdown fence or add prose around it, so only the outermost object is
// decoded.
func ParseExtraction(text string) (domain.Extraction, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return domain.Extraction{}, errors.New("no json object in reply")
	}

	var p extractionPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return domain.Extraction{}, fmt.Errorf("malformed reply: %w", err)
	}

	var ext domain.Extraction
	if p.PlayerName != nil {
		ext.PlayerName = strings.TrimSpace(*p.PlayerName)
	}
	ext.TotalDamage = p.TotalDamage
	ext.TicketDamage = p.TicketDamage
	return ext, nil
}
