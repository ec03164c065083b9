package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/supabase-community/supabase-go"

	"github.com/memobloom/memobloom/internal/config"
	"github.com/memobloom/memobloom/internal/memory"
	"github.com/memobloom/memobloom/internal/store"
)

// loadConfig reads --config and applies --db.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if cfg.Database.Path == "" {
		if p := os.Getenv("MEMOBLOOM_DB"); p != "" {
			cfg.Database.Path = p
		} else {
			p, err := store.DefaultDBPath()
			if err != nil {
				return config.Config{}, fmt.Errorf("resolve db path: %w", err)
			}
			cfg.Database.Path = p
		}
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = filepath.Join(filepath.Dir(cfg.Database.Path), "media")
	}
	return cfg, nil
}

// openDB opens the local database named by the config.
func openDB(cfg config.Config) (*store.DB, error) {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// supabaseClient returns nil when no project is configured.
func supabaseClient(cfg config.Config) (*supabase.Client, error) {
	if !cfg.Supabase.Enabled() {
		return nil, nil
	}
	client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return client, nil
}

func openMemories(ctx context.Context, cfg config.Config, db *store.DB, sb *supabase.Client) (memory.Store, error) {
	return memory.NewStore(ctx, memory.Options{
		Driver:      cfg.Database.Driver,
		DB:          db,
		DatabaseURL: cfg.Database.URL,
		Supabase:    sb,
	})
}

// ownerOf resolves an account email to the patient whose memories it works
// on.
func ownerOf(db *store.DB, email string) (*store.Account, error) {
	if email == "" {
		return nil, fmt.Errorf("--user is required")
	}
	a, err := db.GetAccountByEmail(email)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("no account for %s", email)
	}
	return a, nil
}
