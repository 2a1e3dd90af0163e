package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same scan code
// serves plain reads and reads inside a transaction.
type querier interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReservationRepo provides persistence for reservations.  Writes happen
// only inside a transaction opened by Store; the plain read methods are
// exposed to billing, dashboards and the HTTP handlers.  Dates are DATE
// columns read back as UTC midnight.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, room_id, guest_id, check_in, check_out, guest_count, total_price_cents, status, special_requests, created_at, updated_at`

// GetByID returns a reservation, or nil when it does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    return getReservation(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
}

// ListByGuest returns a guest's reservations, newest first.
func (r *ReservationRepo) ListByGuest(ctx context.Context, guestID uint64) ([]model.Reservation, error) {
    return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
        WHERE guest_id = ?
        ORDER BY created_at DESC, id DESC`, guestID)
}

// ListByRoom returns the reservations of a room, latest check-in first.
func (r *ReservationRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Reservation, error) {
    return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
        WHERE room_id = ?
        ORDER BY check_in DESC, id DESC`, roomID)
}

// ListByDateRange returns every reservation whose stay touches the
// inclusive date range [from, to], earliest check-in first.
func (r *ReservationRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
    return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
        WHERE check_in <= ? AND check_out >= ?
        ORDER BY check_in, id`, to, from)
}

// ListUpcoming returns non-cancelled reservations arriving on or after
// today, earliest first.
func (r *ReservationRepo) ListUpcoming(ctx context.Context, today time.Time) ([]model.Reservation, error) {
    return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations
        WHERE status <> 'CANCELLED' AND check_in >= ?
        ORDER BY check_in, id`, today)
}

// HasOverlap reports whether an active reservation other than excludeID
// occupies the room on any night of [checkIn, checkOut).
func (r *ReservationRepo) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
    return hasOverlap(ctx, r.db, overlapQuery, roomID, checkIn, checkOut, excludeID)
}

// GetByIDForUpdateTx reads a reservation inside tx and locks its row.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
    return getReservation(ctx, tx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
}

// HasOverlapTx is the locking form of HasOverlap.  The overlapping rows
// it finds stay locked until the transaction ends.
func (r *ReservationRepo) HasOverlapTx(ctx context.Context, tx *sql.Tx, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
    return hasOverlap(ctx, tx, overlapQuery+` FOR UPDATE`, roomID, checkIn, checkOut, excludeID)
}

// CreateTx inserts a reservation and returns its generated id.  The
// caller must commit or roll back tx.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) (uint64, error) {
    const q = `INSERT INTO reservations
        (room_id, guest_id, check_in, check_out, guest_count, total_price_cents, status, special_requests, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q,
        res.RoomID, res.GuestID, res.CheckIn, res.CheckOut, res.GuestCount,
        res.TotalPriceCents, res.Status.String(), res.SpecialRequests, res.CreatedAt,
    )
    if err != nil {
        return 0, err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// UpdateTx writes every mutable column of res back to its row.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `UPDATE reservations
        SET check_in = ?, check_out = ?, guest_count = ?, total_price_cents = ?,
            status = ?, special_requests = ?, updated_at = ?
        WHERE id = ?`
    result, err := tx.ExecContext(ctx, q,
        res.CheckIn, res.CheckOut, res.GuestCount, res.TotalPriceCents,
        res.Status.String(), res.SpecialRequests, res.UpdatedAt, res.ID,
    )
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

const overlapQuery = `SELECT id FROM reservations
        WHERE room_id = ?
          AND status <> 'CANCELLED'
          AND id <> ?
          AND check_in < ?
          AND ? < check_out
        LIMIT 1`

func hasOverlap(ctx context.Context, q querier, query string, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
    var id uint64
    err := q.QueryRowContext(ctx, query, roomID, excludeID, checkOut, checkIn).Scan(&id)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

func getReservation(ctx context.Context, q querier, query string, id uint64) (*model.Reservation, error) {
    res, err := scanReservation(q.QueryRowContext(ctx, query, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    return res, err
}

type scanner interface {
    Scan(dest ...any) error
}

func scanReservation(s scanner) (*model.Reservation, error) {
    var (
        res       model.Reservation
        status    string
        requests  sql.NullString
        updatedAt sql.NullTime
    )
    err := s.Scan(
        &res.ID, &res.RoomID, &res.GuestID, &res.CheckIn, &res.CheckOut, &res.GuestCount,
        &res.TotalPriceCents, &status, &requests, &res.CreatedAt, &updatedAt,
    )
    if err != nil {
        return nil, err
    }
    if res.Status, err = model.ParseStatus(status); err != nil {
        return nil, err
    }
    res.CheckIn = res.CheckIn.UTC()
    res.CheckOut = res.CheckOut.UTC()
    if requests.Valid {
        v := requests.String
        res.SpecialRequests = &v
    }
    if updatedAt.Valid {
        v := updatedAt.Time
        res.UpdatedAt = &v
    }
    return &res, nil
}
