package data

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/lib/pq"
	"github.com/supabase-community/postgrest-go"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/domain"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/repo"
)

// NewEntryRepo 有直连数据库时使用 Postgres，否则使用 Supabase
func NewEntryRepo(data *Data, logger log.Logger) repo.EntryRepo {
	helper := log.NewHelper(logger)
	if data.db != nil {
		return &entryRepo{data: data, log: helper}
	}
	return &supabaseEntryRepo{data: data, log: helper}
}

type entryRepo struct {
	data *Data
	log  *log.Helper
}

func (r *entryRepo) SaveEntry(ctx context.Context, e *domain.StressEntry) error {
	_, err := r.data.db.ExecContext(ctx,
		`INSERT INTO stress_entries (id, user_id, text, stress_score, stress_factors, wellness_tips, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, sanitizeText(e.Text), e.StressScore,
		pq.Array(sanitizeAll(e.StressFactors)), pq.Array(sanitizeAll(e.WellnessTips)), e.CreatedAt,
	)
	return err
}

func (r *entryRepo) ListEntries(ctx context.Context, userID string, limit int) ([]*domain.StressEntry, error) {
	query := `SELECT id, user_id, text, stress_score, stress_factors, wellness_tips, created_at
		FROM stress_entries WHERE user_id = $1 ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.data.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.StressEntry, 0)
	for rows.Next() {
		e := &domain.StressEntry{}
		var factors, tips []string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Text, &e.StressScore, pq.Array(&factors), pq.Array(&tips), &e.CreatedAt); err != nil {
			return nil, err
		}
		e.StressFactors = nonNil(factors)
		e.WellnessTips = nonNil(tips)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *entryRepo) DeleteEntries(ctx context.Context, userID string) (int, error) {
	res, err := r.data.db.ExecContext(ctx, `DELETE FROM stress_entries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type supabaseEntryRepo struct {
	data *Data
	log  *log.Helper
}

func (r *supabaseEntryRepo) SaveEntry(ctx context.Context, e *domain.StressEntry) error {
	_, _, err := r.data.supabase.From(entriesTable).
		Insert(e, false, "", "minimal", "").
		Execute()
	return err
}

func (r *supabaseEntryRepo) ListEntries(ctx context.Context, userID string, limit int) ([]*domain.StressEntry, error) {
	q := r.data.supabase.From(entriesTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		q = q.Limit(limit, "")
	}

	entries := make([]*domain.StressEntry, 0)
	if _, err := q.ExecuteTo(&entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.StressFactors = nonNil(e.StressFactors)
		e.WellnessTips = nonNil(e.WellnessTips)
	}
	return entries, nil
}

// DeleteEntries 删除数以 Content-Range 中的精确计数为准
func (r *supabaseEntryRepo) DeleteEntries(ctx context.Context, userID string) (int, error) {
	_, count, err := r.data.supabase.From(entriesTable).
		Delete("minimal", "exact").
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// sanitizeText 移除无效的 UTF-8 与 NULL 字符，PostgreSQL 文本字段不支持 NULL 字节
func sanitizeText(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}

func sanitizeAll(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = sanitizeText(s)
	}
	return out
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
