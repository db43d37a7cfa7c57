// Package diagnostics builds the human-readable status report served by /test.
package diagnostics

import (
	"context"
	"fmt"
	"time"

	"otikaapi/internal/config"
	"otikaapi/internal/repository"
)

const (
	maxCollections = 10
	maxErrorChars  = 50
	listTimeout    = 3 * time.Second
)

// Report is the diagnostics payload. Every field is always populated.
type Report struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

// Run inspects store and reports what it finds. store may be nil. Failures are
// folded into the report instead of being returned.
func Run(ctx context.Context, store repository.DocumentStore, c config.DatabaseConfig) Report {
	r := Report{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		ConnectionStatus: "Not Connected",
		Collections:      []string{},
	}

	if store == nil {
		if c.Configured() {
			r.Database = "⚠️  Available but not initialized"
		}
	} else {
		r.Database = "✅ Available"
		r.ConnectionStatus = "Connected"
		inspect(ctx, store, &r)
	}

	r.DatabaseURL = presence(c.URL)
	r.DatabaseName = presence(c.Name)
	return r
}

func inspect(ctx context.Context, store repository.DocumentStore, r *Report) {
	defer func() {
		if p := recover(); p != nil {
			r.Database = "❌ Error: " + truncate(fmt.Sprint(p))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	names, err := store.CollectionNames(ctx)
	if err != nil {
		r.Database = "⚠️  Connected but Error: " + truncate(err.Error())
		return
	}
	if len(names) > maxCollections {
		names = names[:maxCollections]
	}
	r.Collections = names
	r.Database = "✅ Connected & Working"
}

func presence(v string) string {
	if v != "" {
		return "✅ Set"
	}
	return "❌ Not Set"
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > maxErrorChars {
		return string(r[:maxErrorChars])
	}
	return s
}
