package data

import (
	"database/sql"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	_ "github.com/lib/pq"
	"github.com/supabase-community/supabase-go"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/conf"
)

const (
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"

	entriesTable  = "stress_entries"
	settingsTable = "user_settings"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stress_entries (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		text TEXT NOT NULL,
		stress_score INTEGER NOT NULL,
		stress_factors TEXT[] NOT NULL DEFAULT '{}',
		wellness_tips TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS stress_entries_user_created_idx ON stress_entries (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_settings (
		user_id TEXT PRIMARY KEY,
		language TEXT NOT NULL DEFAULT 'en',
		notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		reminder_time TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Data 存储资源：直连 Postgres 或 Supabase 客户端，二者至少其一
type Data struct {
	db       *sql.DB
	supabase *supabase.Client
}

func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	d := &Data{}
	helper := log.NewHelper(logger)

	if c.Supabase != nil && c.Supabase.Url != "" {
		client, err := supabase.NewClient(c.Supabase.Url, c.Supabase.Key, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create supabase client: %w", err)
		}
		d.supabase = client
	}

	driver := DriverPostgres
	if c.Database != nil && c.Database.Driver != "" {
		driver = c.Database.Driver
	}

	switch driver {
	case DriverPostgres:
		if c.Database == nil || c.Database.Source == "" {
			return nil, nil, fmt.Errorf("database source is missing")
		}
		db, err := sql.Open(DriverPostgres, c.Database.Source)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		for _, stmt := range schema {
			if _, err := db.Exec(stmt); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("failed to init schema: %w", err)
			}
		}
		d.db = db

	case DriverSupabase:
		if d.supabase == nil {
			return nil, nil, fmt.Errorf("supabase url is missing")
		}

	default:
		return nil, nil, fmt.Errorf("unknown database driver: %s", driver)
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		if d.db != nil {
			d.db.Close()
		}
	}
	return d, cleanup, nil
}

// Supabase 返回 Supabase 客户端，未配置时为 nil
func (d *Data) Supabase() *supabase.Client {
	return d.supabase
}
