package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type baseReader struct {
	r *bufio.Reader
}

func newBaseReader(r io.Reader) baseReader {
	if casted, ok := r.(*bufio.Reader); ok {
		return baseReader{casted}
	}
	return baseReader{bufio.NewReader(r)}
}

// similar to readLineSlice() in net/textproto/reader.go
func (r *baseReader) readLine() (string, error) {
	var line []byte
	for {
		l, more, err := r.r.ReadLine()
		if err != nil {
			return "", err
		}
		if line == nil && !more {
			return string(l), nil
		}
		line = append(line, l...)
		if !more {
			break
		}
	}
	return string(line), nil
}

// readHeaders reads "Name: Value" lines up to the first blank line. Lines
// without a colon are skipped. With lenient set, running out of input ends
// the block instead of failing.
func (r *baseReader) readHeaders(lenient bool) (HTTPHeader, error) {
	headers := make(HTTPHeader)
	for {
		line, err := r.readLine()
		if err != nil {
			if lenient && err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read headers: %w", err)
		}
		if len(line) == 0 {
			break
		}
		fs := strings.SplitN(line, ":", 2)
		if len(fs) != 2 {
			continue
		}
		hdr := strings.ToLower(strings.TrimSpace(fs[0]))
		headers[hdr] = strings.TrimSpace(fs[1])
	}
	return headers, nil
}

// RequestReader reads one request header out of a received block.
type RequestReader struct {
	baseReader
}

func NewRequestReader(r io.Reader) *RequestReader {
	return &RequestReader{newBaseReader(r)}
}

func (r *RequestReader) Read() (*Request, error) {
	req := &Request{}
	if err := r.readRequestLine(req); err != nil {
		return nil, err
	}
	headers, err := r.readHeaders(true)
	if err != nil {
		return nil, err
	}
	req.Headers = headers
	return req, nil
}

func (r *RequestReader) readRequestLine(req *Request) error {
	rl, err := r.readLine()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	fields := strings.Fields(rl)
	if len(fields) < 2 {
		return fmt.Errorf("%w: %q", ErrMalformedRequest, rl)
	}
	req.Method = fields[0]
	req.URI = fields[1]
	if len(fields) > 2 {
		req.Version = fields[2]
	}
	return nil
}

// ParseRequest parses the bytes of a single receive.
func ParseRequest(b []byte) (*Request, error) {
	return NewRequestReader(bytes.NewReader(b)).Read()
}

// ResponseReader reads an HTTP response header block.
type ResponseReader struct {
	baseReader
}

func NewResponseReader(r io.Reader) *ResponseReader {
	return &ResponseReader{newBaseReader(r)}
}

func parseStatusCode(ss string) (int, error) {
	status, err := strconv.Atoi(ss)
	first := status / 100
	if err != nil || (first < 1 || first > 5) {
		return 0, fmt.Errorf("invalid status code: %s", ss)
	}
	return status, nil
}

func (r *ResponseReader) Read() (*Response, error) {
	res := &Response{}
	if err := r.readStatusLine(res); err != nil {
		return nil, err
	}
	headers, err := r.readHeaders(false)
	if err != nil {
		return nil, err
	}
	res.Date = headers["date"]
	res.Connection = ConnectionMode(headers["connection"])
	res.KeepAlive = headers["keep-alive"]
	res.LastModified = headers["last-modified"]
	res.ContentType = headers["content-type"]
	return res, nil
}

func (r *ResponseReader) readStatusLine(res *Response) error {
	sl, err := r.readLine()
	if err != nil {
		return fmt.Errorf("failed to read status line: %w", err)
	}
	fields := strings.SplitN(sl, " ", 3)
	if len(fields) < 3 {
		return fmt.Errorf("invalid status line: %s", sl)
	}
	res.Version = fields[0]
	res.Status, err = parseStatusCode(fields[1])
	if err != nil {
		return err
	}
	res.Phrase = fields[2]
	return nil
}

// ReadResponseHeader parses a header block as produced by BuildResponseHeader.
func ReadResponseHeader(r io.Reader) (*Response, error) {
	return NewResponseReader(r).Read()
}
