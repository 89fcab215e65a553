package repository

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"guild-tracker/internal/api"
	"guild-tracker/internal/config"
	"guild-tracker/internal/database"
	"guild-tracker/internal/db"
	"guild-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *LocalStore {
	t.Helper()
	sqlDB, err := database.Open(filepath.Join(t.TempDir(), "mirror.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewLocalStore(sqlDB, db.New(sqlDB), zerolog.Nop())
}

// fakeTable is a minimal PostgREST stand-in keeping rows in memory.
type fakeTable struct {
	mu      sync.Mutex
	rows    []map[string]any
	failing bool
}

func (f *fakeTable) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = v
}

func (f *fakeTable) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeTable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		var rows []map[string]any
		if err := json.Unmarshal(body, &rows); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, rows...)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rows)
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(f.rows)
	case http.MethodDelete:
		filter := r.URL.Query().Get("id")
		if filter == "not.is.null" {
			f.rows = nil
		} else {
			id := strings.TrimPrefix(filter, "eq.")
			kept := f.rows[:0]
			for _, row := range f.rows {
				if row["id"] != id {
					kept = append(kept, row)
				}
			}
			f.rows = kept
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestRemote(t *testing.T) (*RemoteStore, *fakeTable) {
	t.Helper()
	table := &fakeTable{}
	srv := httptest.NewServer(table)
	t.Cleanup(srv.Close)
	client := api.NewSupabaseClient(&config.Config{RemoteURL: srv.URL, RemoteKey: "k", RemoteTable: "damage_records"})
	return NewRemoteStore(client, zerolog.Nop()), table
}

func obsAt(id, player string, kind domain.Kind, dmg domain.Damage, ms int64) domain.Observation {
	o := domain.Observation{
		ID:          id,
		PlayerKey:   player,
		DisplayName: "name-" + player,
		Guild:       domain.GuildMain,
		Kind:        kind,
		CapturedAt:  time.UnixMilli(ms).UTC(),
	}
	if kind == domain.KindInitial {
		o.TotalDamageAtCapture = dmg
	} else {
		o.TicketDamage = dmg
	}
	return o
}
