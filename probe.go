package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
)

// ProbeResult is what one GET against a running server returned.
type ProbeResult struct {
	Response *Response
	BodySize int64
}

// Probe sends a single GET for target to addr, with since as
// If-Modified-Since when non-empty. The server closes the connection after
// the response in its default mode, so the body runs to EOF.
func Probe(ctx context.Context, addr, target, since string) (*ProbeResult, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	req := &Request{
		Method:  "GET",
		URI:     target,
		Version: "HTTP/1.1",
		Headers: HTTPHeader{"connection": string(Close)},
	}
	if since != "" {
		req.Headers["if-modified-since"] = since
	}
	if err := WriteRequest(conn, req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	br := bufio.NewReader(conn)
	res, err := ReadResponseHeader(br)
	if err != nil {
		return nil, err
	}
	n, err := io.Copy(io.Discard, br)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return &ProbeResult{Response: res, BodySize: n}, nil
}

func (p *ProbeResult) String() string {
	return fmt.Sprintf("%s %d %s\nLast-Modified: %s\nContent-Type: %s\nBody: %d bytes",
		p.Response.Version, p.Response.Status, p.Response.Phrase,
		p.Response.LastModified, p.Response.ContentType, p.BodySize)
}
