package config

import (
	"fmt"

	supa "github.com/supabase-community/supabase-go"
)

var SupabaseClient *supa.Client

// InitSupabase initializes the shared Supabase client. The service key is
// required: the gateway writes annotations, and row-level security blocks
// anonymous writes to turntagged.
func InitSupabase(url, serviceKey string) error {
	if url == "" || serviceKey == "" {
		return fmt.Errorf("supabase url and service key must be configured (SUPABASE_URL, SUPABASE_SERVICE_KEY)")
	}

	client, err := supa.NewClient(url, serviceKey, nil)
	if err != nil {
		return fmt.Errorf("initialize supabase client: %w", err)
	}

	SupabaseClient = client
	return nil
}
