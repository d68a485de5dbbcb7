package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultReadBufferSize = 1024

// Handler holds what every Worker needs. It carries no per-connection state
// and is safe to share between goroutines.
type Handler struct {
	resolver       *Resolver
	headerLog      *HeaderLog
	logger         zerolog.Logger
	now            func() time.Time
	location       *time.Location
	readBufferSize int
	persistent     bool
}

func NewHandler(config Config) (*Handler, error) {
	config = config.withDefaults()
	resolver, err := NewResolver(config.DocumentRoot, config.Location)
	if err != nil {
		return nil, err
	}
	return &Handler{
		resolver:       resolver,
		headerLog:      NewHeaderLog(config.LogFile),
		logger:         config.Logger,
		now:            config.Now,
		location:       config.Location,
		readBufferSize: config.ReadBufferSize,
		persistent:     config.Persistent,
	}, nil
}

// Serve runs a Worker on conn. The Worker takes ownership of conn.
func (h *Handler) Serve(id int64, conn net.Conn) {
	NewWorker(h, id).Start(conn)
}

// Worker handles the requests of one connection.
type Worker struct {
	h      *Handler
	id     int64
	conn   net.Conn
	logger zerolog.Logger
	buf    []byte

	req     *Request
	res     *Resource
	outcome error
	mode    ConnectionMode
	served  int
}

type stateFunc func(*Worker) stateFunc

func NewWorker(h *Handler, id int64) *Worker {
	return &Worker{
		h:      h,
		id:     id,
		logger: h.logger.With().Int64("conn_id", id).Logger(),
		buf:    make([]byte, h.readBufferSize),
		mode:   KeepAlive,
	}
}

func (w *Worker) Start(conn net.Conn) {
	w.conn = conn
	if addr := conn.RemoteAddr(); addr != nil {
		w.logger = w.logger.With().Str("remote", addr.String()).Logger()
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Interface("panic", r).Msg("worker panicked")
			w.conn.Close()
		}
	}()

	for state := waitForRequest; state != nil; {
		state = state(w)
	}
}

func (w *Worker) fail(err error) stateFunc {
	w.logger.Error().Err(err).Msg("error handling request")
	return finishWorker
}

// sendHeader builds, writes and logs one response header.
func (w *Worker) sendHeader(status Status, contentType, lastModified string) error {
	if w.h.persistent && w.served+1 >= keepAliveMax {
		w.mode = Close
	}
	header, err := BuildResponseHeader(status, contentType, lastModified, w.mode, w.h.now().In(w.h.location))
	if err != nil {
		return err
	}
	if err := WriteResponseHeader(w.conn, header); err != nil {
		return err
	}
	w.served++

	w.logger.Info().
		Err(w.outcome).
		Str("method", w.req.Method).
		Str("uri", w.req.URI).
		Int("status", int(status)).
		Msg("response sent")
	w.logger.Debug().Str("header", header).Msg("response header")
	if err := w.h.headerLog.Append(header); err != nil {
		w.logger.Error().Err(err).Str("file", w.h.headerLog.Path()).Msg("failed to log response header")
	}
	return nil
}

func (w *Worker) readRequest() (*Request, error) {
	if w.h.persistent {
		if err := w.conn.SetReadDeadline(time.Now().Add(keepAliveTimeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}
	n, err := w.conn.Read(w.buf)
	if n == 0 && err != nil {
		return nil, err
	}
	return ParseRequest(w.buf[:n])
}

// state funcs

func waitForRequest(w *Worker) stateFunc {
	req, err := w.readRequest()
	switch {
	case err == nil:
		return w.requestReceived(req)
	case errors.Is(err, ErrMalformedRequest):
		w.logger.Info().Err(err).Msg("closing connection without response")
		return finishWorker
	case errors.Is(err, io.EOF), errors.Is(err, os.ErrDeadlineExceeded):
		if w.served == 0 {
			w.logger.Info().Msg("client closed connection before sending a request")
		}
		return finishWorker
	}
	return w.fail(fmt.Errorf("failed to read request: %w", err))
}

func (w *Worker) requestReceived(req *Request) stateFunc {
	w.req = req
	w.res = nil
	w.outcome = nil
	w.logger.Debug().Str("method", req.Method).Str("uri", req.URI).Msg("request received")
	if w.h.persistent && strings.EqualFold(req.Headers["connection"], string(Close)) {
		w.mode = Close
	}

	if req.Method != "GET" && req.Method != "HEAD" {
		w.outcome = ErrUnsupportedMethod
		return rejectMethod
	}
	return resolveResource
}

func rejectMethod(w *Worker) stateFunc {
	if err := w.sendHeader(StatusBadRequest, NotApplicable, NotApplicable); err != nil {
		return w.fail(err)
	}
	return nextRequest
}

func resolveResource(w *Worker) stateFunc {
	res, err := w.h.resolver.Resolve(w.req.Target())
	if err != nil {
		return w.fail(err)
	}
	w.res = res
	if !res.Exists {
		w.outcome = ErrResourceMissing
		return sendNotFound
	}
	return checkConditional
}

func sendNotFound(w *Worker) stateFunc {
	if err := w.sendHeader(StatusNotFound, NotApplicable, NotApplicable); err != nil {
		return w.fail(err)
	}
	return nextRequest
}

func checkConditional(w *Worker) stateFunc {
	value, ok := w.req.IfModifiedSince()
	if !ok {
		return checkContentType
	}
	since, err := w.h.resolver.ParseTime(value)
	if err != nil {
		w.logger.Warn().Str("if_modified_since", value).Msg("ignoring unparseable If-Modified-Since")
		return checkContentType
	}
	if w.h.resolver.NotModifiedSince(w.res, since) {
		w.outcome = ErrNotModified
		return sendNotModified
	}
	return checkContentType
}

// 304 always says text/html, whatever the resource is.
func sendNotModified(w *Worker) stateFunc {
	if err := w.sendHeader(StatusNotModified, TypeHTML.String(), w.res.LastModified); err != nil {
		return w.fail(err)
	}
	return nextRequest
}

func checkContentType(w *Worker) stateFunc {
	if w.res.Type == TypeUnsupported {
		w.outcome = ErrResourceMissing
		return sendNotFound
	}
	return sendContent
}

func sendContent(w *Worker) stateFunc {
	var body []byte
	if w.req.Method != "HEAD" {
		var err error
		body, err = os.ReadFile(w.res.Path)
		if err != nil {
			return w.fail(fmt.Errorf("failed to read %s: %w", w.res.Path, err))
		}
	}
	if err := w.sendHeader(StatusOK, w.res.Type.String(), w.res.LastModified); err != nil {
		return w.fail(err)
	}
	if len(body) > 0 {
		if _, err := w.conn.Write(body); err != nil {
			return w.fail(fmt.Errorf("failed to write body: %w", err))
		}
	}
	return nextRequest
}

func nextRequest(w *Worker) stateFunc {
	if !w.h.persistent || w.mode == Close {
		return finishWorker
	}
	return waitForRequest
}

func finishWorker(w *Worker) stateFunc {
	if w.conn != nil {
		if err := w.conn.Close(); err != nil {
			w.logger.Debug().Err(err).Msg("error closing connection")
		}
	}
	return nil
}
