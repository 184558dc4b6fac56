package httpx

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout         = 5 * time.Second
	DefaultMaxConnsPerHost = 64
)

type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// FastHTTPClient adapts a fasthttp client to the net/http request shape used
// by the reporting transports.
type FastHTTPClient struct {
	client    *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

func NewFastHTTPClient(timeout time.Duration, userAgent string) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FastHTTPClient{
		client: &fasthttp.Client{
			MaxConnsPerHost:     DefaultMaxConnsPerHost,
			MaxIdleConnDuration: 10 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
		timeout:   timeout,
		userAgent: userAgent,
	}
}

func (c *FastHTTPClient) Do(req *http.Request) (*http.Response, error) {
	fastReq := fasthttp.AcquireRequest()
	fastResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(fastReq)
	defer fasthttp.ReleaseResponse(fastResp)

	fastReq.SetRequestURI(req.URL.String())
	fastReq.Header.SetMethod(req.Method)
	for key, values := range req.Header {
		for _, value := range values {
			fastReq.Header.Add(key, value)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		fastReq.Header.SetUserAgent(c.userAgent)
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		fastReq.SetBodyRaw(body)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := req.Context().Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(fastReq, fastResp, deadline); err != nil {
		return nil, err
	}

	body := append([]byte(nil), fastResp.Body()...)
	headers := make(http.Header)
	fastResp.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	status := fastResp.StatusCode()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}
