package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"guild-tracker/internal/constants"

	"github.com/valyala/fasthttp"
)

type WebhookMessage struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content,omitempty"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Thumbnail   *EmbedImage  `json:"thumbnail,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// Attachment is a file uploaded alongside the message. Embeds can point at it
// with attachment://<Filename>.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type WebhookClient struct {
	client *fasthttp.Client
}

func NewWebhookClient() *WebhookClient {
	return &WebhookClient{client: newFastClient(constants.NotifyTimeout)}
}

func (c *WebhookClient) Post(ctx context.Context, webhookURL string, msg WebhookMessage, file *Attachment) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode webhook message: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(webhookURL)
	req.Header.SetMethod(fasthttp.MethodPost)

	if file == nil || len(file.Data) == 0 {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	} else {
		body, contentType, err := multipartBody(payload, file)
		if err != nil {
			return err
		}
		req.Header.SetContentType(contentType)
		req.SetBody(body)
	}

	if err := do(ctx, c.client, req, resp); err != nil {
		return err
	}
	return checkStatus("webhook", resp, fasthttp.StatusOK, fasthttp.StatusNoContent)
}

func multipartBody(payload []byte, file *Attachment) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("payload_json", string(payload)); err != nil {
		return nil, "", fmt.Errorf("failed to write payload field: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[0]"; filename=%q`, file.Filename))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
