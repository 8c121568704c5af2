package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func postJSON(t *testing.T, client *http.Client, url string, v interface{}) *http.Response {
	t.Helper()
	return do(t, client, http.MethodPost, url, v)
}

// do sends a request with an optional JSON body.
func do(t *testing.T, client *http.Client, method, url string, body interface{}) *http.Response {
	t.Helper()

	var req *http.Request
	var err error
	if body != nil {
		data, mErr := json.Marshal(body)
		require.NoError(t, mErr)
		req, err = http.NewRequest(method, url, bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, url, nil)
		require.NoError(t, err)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}
