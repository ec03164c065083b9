// Package media stores uploaded photos and voice recordings and turns the
// content references kept on memories into URLs a client can fetch.
//
// References take three forms:
//
//	https://host/path     passed through unchanged
//	media://<name>        a file in the local media directory
//	storage://<bucket>/<path>  an object in Supabase Storage, served via a signed URL
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrUnsupported = errors.New("unsupported media type")
	ErrTooLarge    = errors.New("media file too large")
	ErrBadRef      = errors.New("invalid media reference")
)

// Kind is the memory type an upload is for.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVoice Kind = "voice"
)

const (
	schemeLocal   = "media://"
	schemeStorage = "storage://"

	// DefaultMaxBytes is the upload limit when none is configured.
	DefaultMaxBytes int64 = 20 << 20
)

// Signer issues time-limited URLs for objects in a storage bucket.
type Signer interface {
	SignedURL(ctx context.Context, bucket, path string) (string, error)
}

// Library saves uploads to a directory and resolves references.
type Library struct {
	dir        string
	publicBase string
	maxBytes   int64
	signer     Signer
}

// Options configure a Library. Signer may be nil, in which case storage://
// references fail to resolve.
type Options struct {
	Dir           string
	PublicBaseURL string
	MaxBytes      int64
	Signer        Signer
}

func New(opts Options) (*Library, error) {
	if opts.Dir == "" {
		return nil, errors.New("media dir is empty")
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Library{
		dir:        opts.Dir,
		publicBase: strings.TrimRight(opts.PublicBaseURL, "/"),
		maxBytes:   opts.MaxBytes,
		signer:     opts.Signer,
	}, nil
}

// Dir is where local media files live.
func (l *Library) Dir() string { return l.dir }

// MaxBytes is the largest upload Save accepts.
func (l *Library) MaxBytes() int64 { return l.maxBytes }

// Saved describes a stored upload.
type Saved struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Save reads r, checks its content matches kind, and writes it under a new
// random name keeping the detected extension.
func (l *Library) Save(ctx context.Context, r io.Reader, kind Kind) (Saved, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return Saved{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return Saved{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, l.maxBytes)
	}
	if len(data) == 0 {
		return Saved{}, fmt.Errorf("%w: empty file", ErrUnsupported)
	}

	mt := mimetype.Detect(data)
	if !accepts(kind, mt) {
		return Saved{}, fmt.Errorf("%w: %s is not a %s", ErrUnsupported, mt.String(), kind)
	}

	name := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0644); err != nil {
		return Saved{}, fmt.Errorf("write media: %w", err)
	}

	ref := schemeLocal + name
	u, err := l.Resolve(ctx, ref)
	if err != nil {
		return Saved{}, err
	}
	return Saved{Ref: ref, Name: name, MIME: mt.String(), Size: int64(len(data)), URL: u}, nil
}

func accepts(kind Kind, mt *mimetype.MIME) bool {
	var prefix string
	switch kind {
	case KindPhoto:
		prefix = "image/"
	case KindVoice:
		prefix = "audio/"
	default:
		return false
	}
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), prefix) {
			return true
		}
	}
	// Some containers (webm, ogg) are detected as video or application.
	return kind == KindVoice && (mt.Is("video/webm") || mt.Is("application/ogg"))
}

// Resolve turns a content reference into a fetchable URL.
func (l *Library) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref, nil
	case strings.HasPrefix(ref, schemeLocal):
		name := strings.TrimPrefix(ref, schemeLocal)
		if !validName(name) {
			return "", fmt.Errorf("%w: %q", ErrBadRef, ref)
		}
		return l.publicBase + "/media/" + url.PathEscape(name), nil
	case strings.HasPrefix(ref, schemeStorage):
		bucket, path, ok := strings.Cut(strings.TrimPrefix(ref, schemeStorage), "/")
		if !ok || bucket == "" || path == "" {
			return "", fmt.Errorf("%w: %q", ErrBadRef, ref)
		}
		if l.signer == nil {
			return "", fmt.Errorf("%w: storage is not configured", ErrBadRef)
		}
		return l.signer.SignedURL(ctx, bucket, path)
	default:
		return "", fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
}

// IsRef reports whether s looks like a content reference rather than inline
// text.
func IsRef(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range []string{"http://", "https://", schemeLocal, schemeStorage} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// validName rejects anything that could escape the media directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
