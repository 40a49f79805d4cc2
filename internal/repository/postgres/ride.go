package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridematch/internal/domain"
	"ridematch/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `
	id, initiator_id, counterpart_id, initiator_role,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	payment_method, status, fare, fare_settled,
	created_at, updated_at, cancelled_at, cancel_reason,
	initiator_rating, initiator_comment, initiator_rated_at,
	counterpart_rating, counterpart_comment, counterpart_rated_at
`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	args := []any{
		ride.ID,
		ride.InitiatorID,
		nullString(ride.CounterpartID),
		ride.InitiatorRole,
		ride.PickupLat,
		ride.PickupLng,
		ride.DropoffLat,
		ride.DropoffLng,
		ride.PaymentMethod,
		ride.Status,
		ride.Fare,
		ride.FareSettled,
		ride.CreatedAt,
		ride.UpdatedAt,
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
	}
	args = append(args, ratingArgs(ride.InitiatorRating)...)
	args = append(args, ratingArgs(ride.CounterpartRating)...)

	_, err := r.q.ExecContext(ctx, query, args...)
	return wrapErr(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// ListByAccount retrieves rides where the account participates, newest first.
func (r *RideRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Ride, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + rideColumns + `
		FROM rides
		WHERE initiator_id = $1 OR counterpart_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, wrapErr(rows.Err())
}

// AcceptIfMatchable atomically claims a still-matchable ride. The WHERE
// clause is the exclusivity protocol: of any number of concurrent acceptors
// exactly one sees a row affected.
func (r *RideRepository) AcceptIfMatchable(ctx context.Context, rideID, counterpartID string, now time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, counterpart_id = $2, updated_at = $3
		WHERE id = $4 AND status IN ($5, $6)
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusAccepted,
		counterpartID,
		now,
		rideID,
		domain.RideStatusRequested,
		domain.RideStatusOffered,
	)
	if err != nil {
		return false, wrapErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, wrapErr(err)
	}
	return affected == 1, nil
}

// UpdateIfStatus rewrites the ride only if its stored status still matches.
func (r *RideRepository) UpdateIfStatus(ctx context.Context, ride *domain.Ride, expect domain.RideStatus) (bool, error) {
	args := append(updateArgs(ride), expect)
	result, err := r.q.ExecContext(ctx, updateQuery("id = $1 AND status = $17"), args...)
	if err != nil {
		return false, wrapErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, wrapErr(err)
	}
	return affected == 1, nil
}

// SetFareSettled flips the settlement flag only if it currently equals
// expect. Same rows-affected protocol as AcceptIfMatchable: of any number of
// concurrent settlement claims exactly one wins.
func (r *RideRepository) SetFareSettled(ctx context.Context, rideID string, settled, expect bool, now time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET fare_settled = $1, updated_at = $2
		WHERE id = $3 AND fare_settled = $4
	`

	result, err := r.q.ExecContext(ctx, query, settled, now, rideID, expect)
	if err != nil {
		return false, wrapErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, wrapErr(err)
	}
	return affected == 1, nil
}

// ApplyRating stores one side's rating only if that side's slot is still
// NULL. Writing only the rater's columns keeps concurrent ratings from the
// two sides from clobbering each other.
func (r *RideRepository) ApplyRating(ctx context.Context, rideID string, initiator bool, rating *domain.Rating, now time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET counterpart_rating = $1, counterpart_comment = $2, counterpart_rated_at = $3, updated_at = $4
		WHERE id = $5 AND counterpart_rating IS NULL
	`
	if initiator {
		query = `
		UPDATE rides
		SET initiator_rating = $1, initiator_comment = $2, initiator_rated_at = $3, updated_at = $4
		WHERE id = $5 AND initiator_rating IS NULL
	`
	}

	args := append(ratingArgs(rating), now, rideID)
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, wrapErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, wrapErr(err)
	}
	return affected == 1, nil
}

func updateQuery(where string) string {
	return `
		UPDATE rides
		SET counterpart_id = $2, status = $3, fare = $4, fare_settled = $5,
		    updated_at = $6, cancelled_at = $7, cancel_reason = $8,
		    initiator_rating = $9, initiator_comment = $10, initiator_rated_at = $11,
		    counterpart_rating = $12, counterpart_comment = $13, counterpart_rated_at = $14,
		    payment_method = $15, initiator_role = $16
		WHERE ` + where
}

func updateArgs(ride *domain.Ride) []any {
	args := []any{
		ride.ID,
		nullString(ride.CounterpartID),
		ride.Status,
		ride.Fare,
		ride.FareSettled,
		ride.UpdatedAt,
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
	}
	args = append(args, ratingArgs(ride.InitiatorRating)...)
	args = append(args, ratingArgs(ride.CounterpartRating)...)
	return append(args, ride.PaymentMethod, ride.InitiatorRole)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapErr(err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var counterpartID, cancelReason sql.NullString
	var cancelledAt sql.NullTime
	var initStars, ctrStars sql.NullInt64
	var initComment, ctrComment sql.NullString
	var initRatedAt, ctrRatedAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.InitiatorID,
		&counterpartID,
		&ride.InitiatorRole,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DropoffLat,
		&ride.DropoffLng,
		&ride.PaymentMethod,
		&ride.Status,
		&ride.Fare,
		&ride.FareSettled,
		&ride.CreatedAt,
		&ride.UpdatedAt,
		&cancelledAt,
		&cancelReason,
		&initStars,
		&initComment,
		&initRatedAt,
		&ctrStars,
		&ctrComment,
		&ctrRatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr(err)
	}

	if counterpartID.Valid {
		ride.CounterpartID = counterpartID.String
	}
	if cancelledAt.Valid {
		ride.CancelledAt = cancelledAt.Time
	}
	if cancelReason.Valid {
		ride.CancelReason = cancelReason.String
	}
	ride.InitiatorRating = scanRating(initStars, initComment, initRatedAt)
	ride.CounterpartRating = scanRating(ctrStars, ctrComment, ctrRatedAt)

	return &ride, nil
}

func scanRating(stars sql.NullInt64, comment sql.NullString, ratedAt sql.NullTime) *domain.Rating {
	if !stars.Valid {
		return nil
	}
	return &domain.Rating{
		Stars:   int(stars.Int64),
		Comment: comment.String,
		RatedAt: ratedAt.Time,
	}
}

func ratingArgs(rating *domain.Rating) []any {
	if rating == nil {
		return []any{sql.NullInt64{}, sql.NullString{}, sql.NullTime{}}
	}
	return []any{
		sql.NullInt64{Int64: int64(rating.Stars), Valid: true},
		sql.NullString{String: rating.Comment, Valid: true},
		sql.NullTime{Time: rating.RatedAt, Valid: true},
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
