package main

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var keepAliveParams = fmt.Sprintf("timeout=%d, max=%d", int(keepAliveTimeout/time.Second), keepAliveMax)

// BuildResponseHeader renders the header block, fields in fixed order. now is
// written as the Date field and should already be in the server's location.
func BuildResponseHeader(status Status, contentType, lastModified string, mode ConnectionMode, now time.Time) (string, error) {
	phrase := status.Phrase()
	if phrase == "" {
		return "", fmt.Errorf("unsupported status code: %d", status)
	}
	if status == StatusNotFound || status == StatusBadRequest {
		contentType = NotApplicable
	}
	if contentType == "" {
		contentType = NotApplicable
	}
	if lastModified == "" {
		lastModified = NotApplicable
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, phrase)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(TimeLayout))
	fmt.Fprintf(&b, "Connection: %s\r\n", mode)
	fmt.Fprintf(&b, "Keep-Alive: %s\r\n", keepAliveParams)
	fmt.Fprintf(&b, "Last-Modified: %s\r\n", lastModified)
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	b.WriteString("\r\n")
	return b.String(), nil
}

// WriteResponseHeader sends the whole header block in one write.
func WriteResponseHeader(w io.Writer, header string) error {
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("failed to write response header: %w", err)
	}
	return nil
}

func WriteRequest(w io.Writer, req *Request) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\r\n", req.Method, req.URI, req.Version)
	for k, v := range req.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", capitalizeHeader(k), v)
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func capitalizeHeader(h string) string {
	ret := []rune(h)
	cap := true
	for i, r := range ret {
		if cap && r >= 'a' && r <= 'z' {
			ret[i] = r - 'a' + 'A'
		}
		cap = r == '-'
	}
	return string(ret)
}
