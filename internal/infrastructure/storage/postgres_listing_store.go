package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

const haversineKm = `(2 * 6371 * asin(least(1, sqrt(power(sin(radians(latitude - ?) / 2), 2) + ` +
	`cos(radians(?)) * cos(radians(latitude)) * power(sin(radians(longitude - ?) / 2), 2)))))`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var listingColumns = []string{
	"external_id", "source", "title", "price", "rooms", "area", "address",
	"postal_code", "city", "listing_url", "latitude", "longitude",
	"is_new", "is_renovated", "is_hlm", "near_bus", "near_train",
	"is_active", "first_seen_at", "last_seen_at",
}

// PostgresListingStore persists listings into Postgres.
type PostgresListingStore struct {
	db *sql.DB
}

var _ ports.ListingStore = (*PostgresListingStore)(nil)

// NewPostgresListingStore wires a sql.DB implementation.
func NewPostgresListingStore(db *sql.DB) *PostgresListingStore {
	return &PostgresListingStore{db: db}
}

// Upsert inserts a listing or refreshes the row with the same external id.
func (s *PostgresListingStore) Upsert(ctx context.Context, listing domain.Listing) (domain.UpsertResult, error) {
	if err := listing.Validate(); err != nil {
		return "", err
	}

	query, args, err := upsertQuery(listing).ToSql()
	if err != nil {
		return "", fmt.Errorf("build upsert: %w", err)
	}

	var inserted bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&inserted); err != nil {
		return "", fmt.Errorf("upsert listing %s: %w", listing.ExternalID, classify(err))
	}

	if inserted {
		return domain.UpsertCreated, nil
	}
	return domain.UpsertUpdated, nil
}

// MarkStaleInactive retires active listings not seen within olderThan.
func (s *PostgresListingStore) MarkStaleInactive(ctx context.Context, olderThan time.Duration) (int64, error) {
	query, args, err := retireQuery(olderThan).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build retire: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retire listings: %w", classify(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("retired rows: %w", err)
	}
	return affected, nil
}

// QueryActive returns active listings matching filter, ordered as the filter requires.
func (s *PostgresListingStore) QueryActive(ctx context.Context, filter domain.MatchFilter) ([]domain.Match, error) {
	query, args, err := matchQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build match query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", classify(err))
	}

	var out []domain.Match
	for rows.Next() {
		var m domain.Match
		l := &m.Listing
		if err := rows.Scan(
			&l.ExternalID, &l.Source, &l.Title, &l.Price, &l.Rooms, &l.Area, &l.Address,
			&l.PostalCode, &l.City, &l.ListingURL, &l.Latitude, &l.Longitude,
			&l.IsNew, &l.IsRenovated, &l.IsHLM, &l.NearBus, &l.NearTrain,
			&l.IsActive, &l.FirstSeenAt, &l.LastSeenAt,
			&m.DistanceKm,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, m)
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

func upsertQuery(l domain.Listing) sq.InsertBuilder {
	return psql.Insert("listings").
		Columns(
			"external_id", "source", "title", "price", "rooms", "area", "address",
			"postal_code", "city", "listing_url", "latitude", "longitude",
			"is_new", "is_renovated", "is_hlm", "near_bus", "near_train", "is_active",
		).
		Values(
			l.ExternalID, l.Source, l.Title, l.Price, l.Rooms, l.Area, l.Address,
			l.PostalCode, l.City, l.ListingURL, l.Latitude, l.Longitude,
			l.IsNew, l.IsRenovated, l.IsHLM, l.NearBus, l.NearTrain, true,
		).
		Suffix(`ON CONFLICT (external_id) DO UPDATE SET
			price = EXCLUDED.price,
			title = EXCLUDED.title,
			rooms = EXCLUDED.rooms,
			area = EXCLUDED.area,
			latitude = COALESCE(EXCLUDED.latitude, listings.latitude),
			longitude = COALESCE(EXCLUDED.longitude, listings.longitude),
			last_seen_at = NOW(),
			is_active = true
		RETURNING (xmax = 0) AS inserted`)
}

func retireQuery(olderThan time.Duration) sq.UpdateBuilder {
	return psql.Update("listings").
		Set("is_active", false).
		Where(sq.Eq{"is_active": true}).
		Where("last_seen_at < NOW() - make_interval(secs => ?)", olderThan.Seconds())
}

func matchQuery(f domain.MatchFilter) sq.SelectBuilder {
	q := psql.Select(listingColumns...).From("listings").Where(sq.Eq{"is_active": true})

	if f.Anchor != nil {
		q = q.Column(sq.Alias(sq.Expr(haversineKm, f.Anchor.Lat, f.Anchor.Lat, f.Anchor.Lng), "distance_km"))
	} else {
		q = q.Column("NULL::double precision AS distance_km")
	}

	if f.MaxPrice != nil {
		q = q.Where(sq.LtOrEq{"price": *f.MaxPrice})
	}
	if f.MinRooms != nil {
		q = q.Where(sq.GtOrEq{"rooms": *f.MinRooms})
	}
	if f.MinArea != nil {
		q = q.Where(sq.GtOrEq{"area": *f.MinArea})
	}
	if f.RadiusKm != nil && f.Anchor != nil {
		q = q.Where(sq.NotEq{"latitude": nil, "longitude": nil}).
			Where(haversineKm+" <= ?", f.Anchor.Lat, f.Anchor.Lat, f.Anchor.Lng, *f.RadiusKm)
	}

	switch f.Condition {
	case domain.ConditionNew:
		q = q.Where("is_new")
	case domain.ConditionRenovated:
		q = q.Where("is_renovated")
	case domain.ConditionNewOrRenovated:
		q = q.Where("(is_new OR is_renovated)")
	}
	if f.NearBus {
		q = q.Where("near_bus")
	}
	if f.NearTrain {
		q = q.Where("near_train")
	}

	if f.PriorityHLM {
		q = q.OrderBy("is_hlm DESC NULLS LAST")
	}
	q = q.OrderBy("price ASC", "distance_km ASC NULLS LAST", "external_id ASC")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}
