package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"

	"github.com/memobloom/memobloom/internal/store"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string // sqlite (default), postgres or supabase
	DB          *store.DB
	DatabaseURL string
	Supabase    *supabase.Client
}

// NewStore creates the store named by opts.Driver.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "sqlite":
		if opts.DB == nil {
			return nil, errors.New("sqlite memory store: no database")
		}
		return NewSQLiteStore(opts.DB), nil
	case "postgres":
		if strings.TrimSpace(opts.DatabaseURL) == "" {
			return nil, errors.New("postgres memory store: database url is empty")
		}
		return NewPostgresStore(ctx, opts.DatabaseURL)
	case "supabase":
		if opts.Supabase == nil {
			return nil, errors.New("supabase memory store: no client")
		}
		return NewSupabaseStore(opts.Supabase), nil
	default:
		return nil, fmt.Errorf("unknown memory store driver %q", opts.Driver)
	}
}
