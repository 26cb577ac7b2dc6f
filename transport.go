package hkpair

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/hkontrol/hkpair/log"
)

// Transport sends one pairing request and returns the raw response body.
// Errors it returns are passed to callers untouched.
type Transport interface {
	Post(ctx context.Context, baseURL, path, contentType string, body []byte) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, baseURL, path, contentType string, body []byte) ([]byte, error)

func (f TransportFunc) Post(ctx context.Context, baseURL, path, contentType string, body []byte) ([]byte, error) {
	return f(ctx, baseURL, path, contentType, body)
}

// HTTPTransport posts over plain HTTP. The status code is not interpreted:
// accessories report pairing failures inside the TLV body.
type HTTPTransport struct {
	Client *http.Client
}

func (t *HTTPTransport) Post(ctx context.Context, baseURL, path, contentType string, body []byte) ([]byte, error) {
	url := strings.TrimSuffix(baseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	all, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	log.Debug.Printf("POST %s -> %d, %d bytes", url, res.StatusCode, len(all))

	return all, nil
}
