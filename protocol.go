package main

import (
	"errors"
	"strings"
	"time"
)

// Not map[string][]string, unlike http.Header. Keys are lower-cased.
type HTTPHeader map[string]string

type Request struct {
	Method  string
	URI     string
	Version string
	Headers HTTPHeader
}

// IfModifiedSince returns the raw If-Modified-Since value, if any.
func (r *Request) IfModifiedSince() (string, bool) {
	v, ok := r.Headers["if-modified-since"]
	return v, ok && v != ""
}

// Target is the URI without query and fragment.
func (r *Request) Target() string {
	uri := r.URI
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	return uri
}

type Status int

const (
	StatusOK          Status = 200
	StatusNotModified Status = 304
	StatusBadRequest  Status = 400
	StatusNotFound    Status = 404
)

var reasonPhrases = map[Status]string{
	StatusOK:          "OK",
	StatusNotModified: "Not Modified",
	StatusBadRequest:  "Bad Request",
	StatusNotFound:    "File Not Found",
}

func (s Status) Phrase() string {
	return reasonPhrases[s]
}

type ConnectionMode string

const (
	KeepAlive ConnectionMode = "keep-alive"
	Close     ConnectionMode = "close"
)

type ContentType int

const (
	TypeUnsupported ContentType = iota
	TypeHTML
	TypeJPEG
	TypePNG
)

// NotApplicable fills Content-Type and Last-Modified when they have no value.
const NotApplicable = "N/A"

func (c ContentType) String() string {
	switch c {
	case TypeHTML:
		return "text/html"
	case TypeJPEG:
		return "image/jpeg"
	case TypePNG:
		return "image/png"
	}
	return NotApplicable
}

// Timestamp layout for Date, Last-Modified and If-Modified-Since, in the
// server's location, without a zone.
const TimeLayout = "Mon, 02 Jan 2006 15:04:05"

// Keep-Alive parameters advertised on every response.
const (
	keepAliveTimeout = 10 * time.Second
	keepAliveMax     = 100
)

type Response struct {
	Version      string
	Status       int
	Phrase       string
	Date         string
	Connection   ConnectionMode
	KeepAlive    string
	LastModified string
	ContentType  string
}

var (
	ErrMalformedRequest  = errors.New("malformed request line")
	ErrUnsupportedMethod = errors.New("unsupported method")
	ErrResourceMissing   = errors.New("resource missing")
	ErrNotModified       = errors.New("not modified since")
)
