package db

import (
	"context"

	"github.com/tableflow/llm-backend/internal/models"
)

func (s *Store) LogAccess(ctx context.Context, entry *models.AccessLog) error {
	query := `
        INSERT INTO access_logs (key_hash, endpoint, method, status_code, response_time_ms, request_size, response_size, intent)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	_, err := s.Pool.Exec(ctx, query,
		entry.KeyHash,
		entry.Endpoint,
		entry.Method,
		entry.StatusCode,
		entry.ResponseTimeMs,
		entry.RequestSize,
		entry.ResponseSize,
		entry.Intent,
	)

	return err
}

func (s *Store) RecentLogs(ctx context.Context, limit int) ([]models.AccessLog, error) {
	query := `
        SELECT id, key_hash, endpoint, method, status_code, response_time_ms, request_size, response_size, intent, timestamp
        FROM access_logs
        ORDER BY timestamp DESC
        LIMIT $1
    `

	rows, err := s.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AccessLog
	for rows.Next() {
		var entry models.AccessLog
		if err := rows.Scan(
			&entry.ID,
			&entry.KeyHash,
			&entry.Endpoint,
			&entry.Method,
			&entry.StatusCode,
			&entry.ResponseTimeMs,
			&entry.RequestSize,
			&entry.ResponseSize,
			&entry.Intent,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

func (s *Store) UsageStats(ctx context.Context, from, to string) ([]models.UsageStat, error) {
	query := `
        SELECT
            DATE_TRUNC('day', timestamp) AS day,
            COUNT(*) AS requests,
            COUNT(*) FILTER (WHERE status_code >= 400) AS errors,
            COALESCE(AVG(response_time_ms), 0) AS avg_latency_ms
        FROM access_logs
        WHERE ($1 = '' OR timestamp >= $1::timestamptz)
          AND ($2 = '' OR timestamp < $2::timestamptz)
        GROUP BY day
        ORDER BY day DESC
    `

	rows, err := s.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.UsageStat
	for rows.Next() {
		var stat models.UsageStat
		if err := rows.Scan(&stat.Day, &stat.Requests, &stat.Errors, &stat.AvgLatencyMs); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}
