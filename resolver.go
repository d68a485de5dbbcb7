package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const indexPath = "/index.html"

// Resource is what a URL path maps to under the document root.
type Resource struct {
	Exists       bool
	Path         string
	Type         ContentType
	ModTime      time.Time
	LastModified string
}

// Resolver maps URL paths onto files under a document root. It holds no
// per-request state; every Resolve stats the filesystem again.
type Resolver struct {
	root     string
	realRoot string // root with symlinks evaluated
	location *time.Location
}

func NewResolver(root string, location *time.Location) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid document root %q: %w", root, err)
	}
	if location == nil {
		location = time.Local
	}
	realRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		realRoot = abs
	}
	return &Resolver{root: abs, realRoot: realRoot, location: location}, nil
}

func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns Exists=false for anything that is not a regular file inside
// the root, including paths the filesystem refuses to stat (too long, NUL
// bytes, symlink loops) and symlinks pointing outside the root.
func (r *Resolver) Resolve(urlPath string) (*Resource, error) {
	if urlPath == "/" {
		urlPath = indexPath
	}
	res := &Resource{Type: classify(urlPath)}

	abs, ok := r.contain(urlPath)
	if !ok {
		return res, nil
	}
	res.Path = abs

	fi, err := os.Stat(abs)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return res, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !fi.Mode().IsRegular() || !r.insideRealRoot(abs) {
		return res, nil
	}
	res.Exists = true
	res.ModTime = fi.ModTime()
	res.LastModified = r.Format(res.ModTime)
	return res, nil
}

// contain joins urlPath onto the root, refusing anything that escapes it.
func (r *Resolver) contain(urlPath string) (string, bool) {
	cleaned := path.Clean("/" + urlPath)
	abs := filepath.Join(r.root, filepath.FromSlash(cleaned))
	if !within(r.root, abs) {
		return "", false
	}
	return abs, true
}

// insideRealRoot follows symlinks in abs and checks the target is still
// under the root.
func (r *Resolver) insideRealRoot(abs string) bool {
	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return false
	}
	return within(r.realRoot, target)
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (r *Resolver) Format(t time.Time) string {
	return t.In(r.location).Format(TimeLayout)
}

// ParseTime accepts the server's own layout in its location, and RFC 1123
// with GMT as browsers send it.
func (r *Resolver) ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(TimeLayout, s, r.location); err == nil {
		return t, nil
	}
	return time.Parse(http.TimeFormat, s)
}

// NotModifiedSince reports whether since is at or after the resource's
// modification time, compared in whole seconds.
func (r *Resolver) NotModifiedSince(res *Resource, since time.Time) bool {
	return !since.Before(res.ModTime.Truncate(time.Second))
}

func classify(p string) ContentType {
	switch {
	case strings.HasSuffix(p, ".html"):
		return TypeHTML
	case strings.HasSuffix(p, ".jpg"), strings.HasSuffix(p, ".jpeg"):
		return TypeJPEG
	case strings.HasSuffix(p, ".png"):
		return TypePNG
	}
	return TypeUnsupported
}
