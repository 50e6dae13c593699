package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SoulxxMerchant/New/internal/entities"
)

// PostgresQuotaRepository keeps quota records in a user_quotas table. Used
// instead of the flat file when DATABASE_URL is configured.
type PostgresQuotaRepository struct {
	db *pgxpool.Pool
}

func NewPostgresQuotaRepository(db *pgxpool.Pool) *PostgresQuotaRepository {
	return &PostgresQuotaRepository{db: db}
}

func (r *PostgresQuotaRepository) Get(userID string) (*entities.UserQuota, bool, error) {
	var q entities.UserQuota
	err := r.db.QueryRow(context.Background(), `
		SELECT is_banned, is_premium, messages_today, last_reset_day
		FROM user_quotas WHERE user_id = $1
	`, userID).Scan(&q.IsBanned, &q.IsPremium, &q.MessagesToday, &q.LastResetDay)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &q, true, nil
}

func (r *PostgresQuotaRepository) Save(userID string, q *entities.UserQuota) error {
	_, err := r.db.Exec(context.Background(), `
		INSERT INTO user_quotas (user_id, is_banned, is_premium, messages_today, last_reset_day)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET is_banned = $2, is_premium = $3, messages_today = $4, last_reset_day = $5
	`, userID, q.IsBanned, q.IsPremium, q.MessagesToday, q.LastResetDay)
	return err
}

func (r *PostgresQuotaRepository) List() (map[string]*entities.UserQuota, error) {
	rows, err := r.db.Query(context.Background(), `
		SELECT user_id, is_banned, is_premium, messages_today, last_reset_day
		FROM user_quotas
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]*entities.UserQuota{}
	for rows.Next() {
		var id string
		var q entities.UserQuota
		if err := rows.Scan(&id, &q.IsBanned, &q.IsPremium, &q.MessagesToday, &q.LastResetDay); err != nil {
			return nil, err
		}
		out[id] = &q
	}
	return out, rows.Err()
}
