package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

var searchColumns = []string{
	"id", "user_id", "name", "location", "location_lat", "location_lng", "radius_km",
	"max_price", "min_rooms", "min_area", "near_bus", "near_train", "condition",
	"priority_hlm", "is_active", "created_at",
}

// PostgresAccountRepository reads saved searches and alert settings and records deliveries.
type PostgresAccountRepository struct {
	db *sql.DB
}

var (
	_ ports.SearchRepository = (*PostgresAccountRepository)(nil)
	_ ports.AlertRepository  = (*PostgresAccountRepository)(nil)
)

// NewPostgresAccountRepository wires a sql.DB implementation.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// ActiveSearches returns the user's active saved searches.
func (r *PostgresAccountRepository) ActiveSearches(ctx context.Context, userID string) ([]domain.SavedSearch, error) {
	query, args, err := psql.Select(searchColumns...).
		From("saved_searches").
		Where(sq.Eq{"user_id": userID, "is_active": true}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build searches query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", classify(err))
	}

	var out []domain.SavedSearch
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, s)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", classify(rowsErr))
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return out, nil
}

// SearchByID loads one saved search regardless of its active flag.
func (r *PostgresAccountRepository) SearchByID(ctx context.Context, id int64) (domain.SavedSearch, error) {
	query, args, err := psql.Select(searchColumns...).
		From("saved_searches").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.SavedSearch{}, fmt.Errorf("build search query: %w", err)
	}

	s, err := scanSearch(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SavedSearch{}, ports.ErrNotFound
	}
	return s, err
}

// ActiveAlerts returns one active alert setting per user at frequency.
func (r *PostgresAccountRepository) ActiveAlerts(ctx context.Context, frequency domain.Frequency) ([]domain.AlertSetting, error) {
	query, args, err := psql.Select("user_id", "email", "frequency", "is_active", "last_sent_at").
		Options("DISTINCT ON (user_id)").
		From("alert_settings").
		Where(sq.Eq{"frequency": string(frequency), "is_active": true}).
		OrderBy("user_id", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build alerts query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", classify(err))
	}

	var out []domain.AlertSetting
	for rows.Next() {
		var a domain.AlertSetting
		var freq string
		if err := rows.Scan(&a.UserID, &a.Email, &freq, &a.IsActive, &a.LastSentAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Frequency = domain.Frequency(freq)
		out = append(out, a)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", classify(rowsErr))
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return out, nil
}

// MarkSent records the time of the user's last completed delivery.
func (r *PostgresAccountRepository) MarkSent(ctx context.Context, userID string, at time.Time) error {
	query, args, err := psql.Update("alert_settings").
		Set("last_sent_at", at).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark sent: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark sent for %s: %w", userID, classify(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearch(row rowScanner) (domain.SavedSearch, error) {
	var (
		s         domain.SavedSearch
		lat, lng  sql.NullFloat64
		condition sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Location, &lat, &lng, &s.RadiusKm,
		&s.MaxPrice, &s.MinRooms, &s.MinArea, &s.NearBus, &s.NearTrain, &condition,
		&s.PriorityHLM, &s.IsActive, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SavedSearch{}, err
		}
		return domain.SavedSearch{}, fmt.Errorf("scan search: %w", classify(err))
	}

	if lat.Valid && lng.Valid {
		s.Anchor = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	s.Condition = domain.Condition(condition.String)
	return s, nil
}
