package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// RoomRepo reads the room catalog.  Rooms are maintained outside this
// service; nothing here writes to the rooms table.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, room_number, room_type, capacity, nightly_price_cents, is_bookable, floor, description`

// GetByID returns the room with the given id, or nil when it does not
// exist.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
    return getRoom(ctx, r.db, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
}

// GetByIDForUpdateTx reads the room inside tx and locks its row until
// the transaction ends.  Every writer of a room's reservations takes
// this lock first.
func (r *RoomRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
    return getRoom(ctx, tx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id)
}

// List returns the whole catalog ordered by room number.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY room_number`)
    if err != nil {
        return nil, err
    }
    return scanRooms(rows)
}

// SearchAvailable returns bookable rooms that match f and have no
// active reservation overlapping [f.CheckIn, f.CheckOut).
func (r *RoomRepo) SearchAvailable(ctx context.Context, f model.RoomFilter) ([]model.Room, error) {
    where := []string{"r.is_bookable = 1"}
    args := []any{}

    if f.MinCapacity > 0 {
        where = append(where, "r.capacity >= ?")
        args = append(args, f.MinCapacity)
    }
    if f.MaxPriceCents > 0 {
        where = append(where, "r.nightly_price_cents <= ?")
        args = append(args, f.MaxPriceCents)
    }
    if t := strings.TrimSpace(f.Type); t != "" {
        where = append(where, "UPPER(r.room_type) = ?")
        args = append(args, strings.ToUpper(t))
    }
    where = append(where, `NOT EXISTS (
            SELECT 1 FROM reservations x
            WHERE x.room_id = r.id
              AND x.status <> 'CANCELLED'
              AND x.check_in < ?
              AND ? < x.check_out)`)
    args = append(args, f.CheckOut, f.CheckIn)

    q := `SELECT r.id, r.room_number, r.room_type, r.capacity, r.nightly_price_cents, r.is_bookable, r.floor, r.description
        FROM rooms r
        WHERE ` + strings.Join(where, " AND ") + `
        ORDER BY r.room_number`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    return scanRooms(rows)
}

func getRoom(ctx context.Context, q querier, query string, id uint64) (*model.Room, error) {
    var rm model.Room
    var desc sql.NullString
    err := q.QueryRowContext(ctx, query, id).Scan(
        &rm.ID, &rm.Number, &rm.Type, &rm.Capacity, &rm.NightlyPriceCents, &rm.IsBookable, &rm.Floor, &desc,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    if desc.Valid {
        d := desc.String
        rm.Description = &d
    }
    return &rm, nil
}

func scanRooms(rows *sql.Rows) ([]model.Room, error) {
    defer rows.Close()
    out := make([]model.Room, 0)
    for rows.Next() {
        var rm model.Room
        var desc sql.NullString
        if err := rows.Scan(&rm.ID, &rm.Number, &rm.Type, &rm.Capacity, &rm.NightlyPriceCents, &rm.IsBookable, &rm.Floor, &desc); err != nil {
            return nil, err
        }
        if desc.Valid {
            d := desc.String
            rm.Description = &d
        }
        out = append(out, rm)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
