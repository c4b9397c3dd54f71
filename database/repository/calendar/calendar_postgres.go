package calendarRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shutterbook/database"
	"shutterbook/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// schema relies on an exclusion constraint: no two confirmed bookings of the
// same resource may hold overlapping buffered ranges.
const schema = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS bookings (
	id                      TEXT PRIMARY KEY,
	user_id                 TEXT NOT NULL,
	resource_id             TEXT NOT NULL,
	start_time              TIMESTAMPTZ NOT NULL,
	end_time                TIMESTAMPTZ NOT NULL,
	buffered                TSTZRANGE NOT NULL,
	session_type            TEXT NOT NULL,
	client_name             TEXT NOT NULL,
	client_email            TEXT NOT NULL,
	client_notes            TEXT NOT NULL DEFAULT '',
	price_modifier          DOUBLE PRECISION NOT NULL DEFAULT 1,
	status                  TEXT NOT NULL,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	confirmation_email_sent BOOLEAN NOT NULL DEFAULT false,
	calendar_event_id       TEXT NOT NULL DEFAULT '',
	video_call_link         TEXT NOT NULL DEFAULT '',
	cancelled_at            TIMESTAMPTZ,
	cancel_reason           TEXT NOT NULL DEFAULT '',
	CONSTRAINT bookings_no_overlap EXCLUDE USING gist (resource_id WITH =, buffered WITH &&)
		WHERE (status = 'confirmed')
);

CREATE INDEX IF NOT EXISTS bookings_user_created_idx ON bookings (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS calendar_blocks (
	id          TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL,
	period      TSTZRANGE NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	removed     BOOLEAN NOT NULL DEFAULT false,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS calendar_blocks_period_idx ON calendar_blocks USING gist (resource_id, period)
	WHERE NOT removed;
`

const bookingColumns = `id, user_id, resource_id, start_time, end_time, lower(buffered), upper(buffered),
	session_type, client_name, client_email, client_notes, price_modifier, status, created_at,
	confirmation_email_sent, calendar_event_id, video_call_link, cancelled_at, cancel_reason`

// PostgresCalendarStore implements CalendarStore on Postgres.
type PostgresCalendarStore struct {
	pool *database.Pool
}

func NewPostgresCalendarStore(pool *database.Pool) *PostgresCalendarStore {
	return &PostgresCalendarStore{pool: pool}
}

// EnsureSchema creates the tables and constraints if they do not exist.
func (r *PostgresCalendarStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply calendar schema: %w", err)
	}
	return nil
}

func (r *PostgresCalendarStore) ReadBusyIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]models.BusyInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lower(buffered), upper(buffered), 'booking', id
		FROM bookings
		WHERE resource_id = $1 AND status = 'confirmed' AND buffered && tstzrange($2, $3, '[)')
		UNION ALL
		SELECT lower(period), upper(period), 'block', id
		FROM calendar_blocks
		WHERE resource_id = $1 AND NOT removed AND period && tstzrange($2, $3, '[)')
		ORDER BY 1
	`, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var busy []models.BusyInterval
	for rows.Next() {
		bi := models.BusyInterval{ResourceID: resourceID}
		if err := rows.Scan(&bi.Start, &bi.End, &bi.Source, &bi.SourceID); err != nil {
			return nil, err
		}
		busy = append(busy, bi)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return busy, nil
}

// ReserveIfFree serializes reservations per resource with a transaction-scoped
// advisory lock (shared with CreateBlock) and lets the exclusion constraint
// reject overlapping bookings.
func (r *PostgresCalendarStore) ReserveIfFree(ctx context.Context, booking *models.Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockResource(ctx, tx, booking.ResourceID); err != nil {
		return err
	}

	var blocked bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM calendar_blocks
			WHERE resource_id = $1 AND NOT removed AND period && tstzrange($2, $3, '[)')
		)
	`, booking.ResourceID, booking.BufferedStart, booking.BufferedEnd).Scan(&blocked)
	if err != nil {
		return err
	}
	if blocked {
		return ErrReservationConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings
			(id, user_id, resource_id, start_time, end_time, buffered, session_type, client_name,
			 client_email, client_notes, price_modifier, status, created_at, confirmation_email_sent,
			 calendar_event_id, video_call_link)
		VALUES ($1, $2, $3, $4, $5, tstzrange($6, $7, '[)'), $8, $9, $10, $11, $12, 'confirmed', $13, false, $14, $15)
	`, booking.ID, booking.UserID, booking.ResourceID, booking.StartTime, booking.EndTime,
		booking.BufferedStart, booking.BufferedEnd, string(booking.SessionType), booking.ClientName,
		booking.ClientEmail, booking.ClientNotes, booking.PriceModifier, booking.CreatedAt,
		booking.ExternalRefs.CalendarEventID, booking.ExternalRefs.VideoCallLink)
	if err != nil {
		if IsExclusionViolation(err) {
			return ErrReservationConflict
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if IsExclusionViolation(err) {
			return ErrReservationConflict
		}
		return err
	}
	booking.Status = models.BookingConfirmed
	return nil
}

func (r *PostgresCalendarStore) MarkConfirmationSent(ctx context.Context, bookingID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE bookings SET confirmation_email_sent = true WHERE id = $1`, bookingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresCalendarStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PostgresCalendarStore) ListBookingsByUser(ctx context.Context, userID string, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

func (r *PostgresCalendarStore) CancelBooking(ctx context.Context, bookingID string, from models.BookingStatus, reason string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = $3,
			cancel_reason = $4
		WHERE id = $1 AND status = $2
	`, bookingID, string(from), at, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, bookingID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleStatus
}

func (r *PostgresCalendarStore) CreateBlock(ctx context.Context, block *models.Blocked) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockResource(ctx, tx, block.ResourceID); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO calendar_blocks (id, resource_id, period, reason, removed, created_at)
		VALUES ($1, $2, tstzrange($3, $4, '[)'), $5, false, $6)
	`, block.ID, block.ResourceID, block.Start, block.End, block.Reason, block.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresCalendarStore) RemoveBlock(ctx context.Context, blockID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE calendar_blocks SET removed = true WHERE id = $1 AND NOT removed`, blockID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsExclusionViolation reports whether err is Postgres SQLSTATE 23P01.
func IsExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func lockResource(ctx context.Context, tx pgx.Tx, resourceID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, resourceID)
	return err
}

func scanBooking(row pgx.Row) (models.Booking, error) {
	var b models.Booking
	var sessionType, status string
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.ResourceID,
		&b.StartTime,
		&b.EndTime,
		&b.BufferedStart,
		&b.BufferedEnd,
		&sessionType,
		&b.ClientName,
		&b.ClientEmail,
		&b.ClientNotes,
		&b.PriceModifier,
		&status,
		&b.CreatedAt,
		&b.ConfirmationEmailSent,
		&b.ExternalRefs.CalendarEventID,
		&b.ExternalRefs.VideoCallLink,
		&b.CancelledAt,
		&b.CancelReason,
	)
	b.SessionType = models.SessionType(sessionType)
	b.Status = models.BookingStatus(status)
	return b, err
}
