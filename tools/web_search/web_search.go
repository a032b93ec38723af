package web_search

import (
	"context"
	"errors"

	"github.com/ganesh1082/query-to-pdf-sub000/tools/web_search/brave"
	"github.com/ganesh1082/query-to-pdf-sub000/tools/web_search/models"
	"github.com/ganesh1082/query-to-pdf-sub000/tools/web_search/serper"
)

type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// IsTransient reports whether err is a retryable backend failure such
// as a rate-limit response or a transient server error.
func IsTransient(err error) bool {
	var status models.ErrStatus
	return errors.As(err, &status) && status.Transient()
}
