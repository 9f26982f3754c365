// Package httpclient provides basic http functions
package httpclient

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// GetBytes pulls the body bytes from url with a request timeout
func GetBytes(url string, timeout time.Duration) ([]byte, error) {
	client := http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetBytesWithRetry calls GetBytes up to attempts times with increasing backoff
// between attempts, returning the last error when every attempt fails
func GetBytesWithRetry(url string, timeout time.Duration, attempts int, backoff time.Duration) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := GetBytes(url, timeout)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if attempt < attempts {
			time.Sleep(time.Duration(attempt) * backoff)
		}
	}
	return nil, lastErr
}
