package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// StatusError is returned when an upstream answers with an unexpected
// status code.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: %d", e.Service, e.Code)
	}
	return fmt.Sprintf("%s API error: %d: %s", e.Service, e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError carrying code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func newFastClient(timeout time.Duration) *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}
}

// do runs req honouring the context deadline, since fasthttp has no
// context support of its own.
func do(ctx context.Context, client *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		return client.DoDeadline(req, resp, deadline)
	}
	return client.Do(req, resp)
}

func checkStatus(service string, resp *fasthttp.Response, ok ...int) error {
	code := resp.StatusCode()
	for _, c := range ok {
		if code == c {
			return nil
		}
	}
	body := resp.Body()
	if len(body) > 512 {
		body = body[:512]
	}
	return &StatusError{Service: service, Code: code, Body: string(body)}
}

func decodeJSON[T any](resp *fasthttp.Response) (*T, error) {
	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
