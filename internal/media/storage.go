package media

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"
)

// StorageSigner signs object URLs with Supabase Storage.
type StorageSigner struct {
	client *supabase.Client
	ttl    time.Duration
}

func NewStorageSigner(client *supabase.Client, ttl time.Duration) *StorageSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StorageSigner{client: client, ttl: ttl}
}

func (s *StorageSigner) SignedURL(_ context.Context, bucket, path string) (string, error) {
	resp, err := s.client.Storage.CreateSignedUrl(bucket, path, int(s.ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("sign storage url %s/%s: %w", bucket, path, err)
	}
	return resp.SignedURL, nil
}
