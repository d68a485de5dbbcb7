package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte("GET / HTTP/1.1\r\nHost: www.google.com\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/", req.URI)
	assert.Equal(t, "HTTP/1.1", req.Version)
	assert.Equal(t, "www.google.com", req.Headers["host"])
}

func TestParseRequestHeaders(t *testing.T) {
	raw := strings.Join([]string{
		"HEAD  /a.png   HTTP/1.1",
		"IF-MODIFIED-SINCE: Mon, 01 Jan 2024 00:00:00",
		"not a header line",
		"X-Dup: first",
		"x-dup:   last  ",
		"",
		"ignored: after blank line",
	}, "\n")
	req, err := ParseRequest([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "HEAD", req.Method)
	assert.Equal(t, "/a.png", req.URI)
	assert.Equal(t, "last", req.Headers["x-dup"])
	assert.NotContains(t, req.Headers, "ignored")
	assert.Len(t, req.Headers, 2)

	since, ok := req.IfModifiedSince()
	assert.True(t, ok)
	assert.Equal(t, "Mon, 01 Jan 2024 00:00:00", since)
}

func TestParseRequestTruncated(t *testing.T) {
	req, err := ParseRequest([]byte("GET /index.html HTTP/1.1\r\nHost: loc"))
	require.NoError(t, err)
	assert.Equal(t, "/index.html", req.URI)
	assert.Equal(t, "loc", req.Headers["host"])

	_, ok := req.IfModifiedSince()
	assert.False(t, ok)
}

func TestParseRequestMalformed(t *testing.T) {
	for _, raw := range []string{"", "\r\n", "GET\r\n\r\n", "   \r\nHost: x\r\n\r\n"} {
		_, err := ParseRequest([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedRequest, "%q", raw)
	}
}

func TestRequestTarget(t *testing.T) {
	tests := map[string]string{
		"/":                    "/",
		"/index.html":          "/index.html",
		"/index.html?v=1":      "/index.html",
		"/a.png#top":           "/a.png",
		"/a.png?x=1#frag":      "/a.png",
		"/dir/page.html?a?b=c": "/dir/page.html",
	}
	for uri, want := range tests {
		req := &Request{URI: uri}
		assert.Equal(t, want, req.Target(), uri)
	}
}

func TestReadResponseHeader(t *testing.T) {
	r := strings.NewReader("HTTP/1.1 404 File Not Found\r\nContent-Type: N/A\r\nConnection: keep-alive\r\n\r\n")
	res, err := ReadResponseHeader(r)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1", res.Version)
	assert.Equal(t, 404, res.Status)
	assert.Equal(t, "File Not Found", res.Phrase)
	assert.Equal(t, "N/A", res.ContentType)
	assert.Equal(t, KeepAlive, res.Connection)
}

func TestReadResponseHeaderErrors(t *testing.T) {
	for _, raw := range []string{
		"",
		"HTTP/1.1 200\r\n\r\n",
		"HTTP/1.1 abc OK\r\n\r\n",
		"HTTP/1.1 700 Odd\r\n\r\n",
		"HTTP/1.1 200 OK\r\nDate: x\r\n",
	} {
		_, err := ReadResponseHeader(strings.NewReader(raw))
		assert.Error(t, err, "%q", raw)
	}
}
