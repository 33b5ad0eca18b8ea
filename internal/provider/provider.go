package provider

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher retrieves one raw market page from an upstream source.
//
//go:generate mockgen -package=presenter_test -destination=../presenter/mock_fetcher_test.go -source=provider.go Fetcher
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// Kind classifies a FetchError.
type Kind int

const (
	KindInvalidURL Kind = iota + 1
	KindNetwork
	KindEmptyBody
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindNetwork:
		return "network"
	case KindEmptyBody:
		return "empty_body"
	case KindStatus:
		return "status"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is against a *FetchError of the matching kind.
var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNetwork    = errors.New("network failure")
	ErrEmptyBody  = errors.New("empty response body")
	ErrStatus     = errors.New("unexpected status code")
)

// FetchError is returned by every Fetcher in this module.
type FetchError struct {
	Kind Kind
	// StatusCode is set for KindStatus.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch: unexpected status code: %d", e.StatusCode)
	case KindEmptyBody:
		return "fetch: empty response body"
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch: %s: %v", e.Kind, e.Err)
	}
	return "fetch: " + e.Kind.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrInvalidURL:
		return e.Kind == KindInvalidURL
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrEmptyBody:
		return e.Kind == KindEmptyBody
	case ErrStatus:
		return e.Kind == KindStatus
	}
	return false
}

func InvalidURL(err error) error { return &FetchError{Kind: KindInvalidURL, Err: err} }

func Network(err error) error { return &FetchError{Kind: KindNetwork, Err: err} }

func EmptyBody() error { return &FetchError{Kind: KindEmptyBody} }

func Status(code int) error { return &FetchError{Kind: KindStatus, StatusCode: code} }
