package repository

import (
    "context"
    "database/sql"
    "database/sql/driver"
    "errors"
    "fmt"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

// MySQL error numbers the gateway classifies.
const (
    errDupEntry        = 1062
    errLockWaitTimeout = 1205
    errDeadlock        = 1213
    errSignal          = 1644 // SIGNAL SQLSTATE '45000' from the overlap trigger
    errCheckViolation  = 3819
)

// Store is the MySQL reservation gateway.  Write transactions run at
// REPEATABLE READ; inside them the room row is locked before any
// reservation row and the overlap query is a locking read.
type Store struct {
    db    *sql.DB
    Rooms *RoomRepo
    Res   *ReservationRepo
}

// NewStore wires the room and reservation repositories into a gateway.
func NewStore(db *sql.DB) *Store {
    return &Store{db: db, Rooms: NewRoomRepo(db), Res: NewReservationRepo(db)}
}

var _ reservation.Gateway = (*Store)(nil)

func (s *Store) FindRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
    room, err := s.Rooms.GetByID(ctx, roomID)
    return room, classifyMySQL(err)
}

func (s *Store) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    res, err := s.Res.GetByID(ctx, id)
    return res, classifyMySQL(err)
}

func (s *Store) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
    ok, err := s.Res.HasOverlap(ctx, roomID, checkIn, checkOut, excludeID)
    return ok, classifyMySQL(err)
}

// Begin opens a write transaction.
func (s *Store) Begin(ctx context.Context) (reservation.Tx, error) {
    tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
    if err != nil {
        return nil, classifyMySQL(err)
    }
    return &storeTx{tx: tx, s: s}, nil
}

type storeTx struct {
    tx *sql.Tx
    s  *Store
}

func (t *storeTx) FindRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
    room, err := t.s.Rooms.GetByIDForUpdateTx(ctx, t.tx, roomID)
    return room, classifyMySQL(err)
}

func (t *storeTx) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    res, err := t.s.Res.GetByIDForUpdateTx(ctx, t.tx, id)
    return res, classifyMySQL(err)
}

func (t *storeTx) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
    ok, err := t.s.Res.HasOverlapTx(ctx, t.tx, roomID, checkIn, checkOut, excludeID)
    return ok, classifyMySQL(err)
}

func (t *storeTx) Insert(ctx context.Context, r *model.Reservation) (uint64, error) {
    id, err := t.s.Res.CreateTx(ctx, t.tx, r)
    return id, classifyMySQL(err)
}

func (t *storeTx) Update(ctx context.Context, r *model.Reservation) error {
    return classifyMySQL(t.s.Res.UpdateTx(ctx, t.tx, r))
}

func (t *storeTx) Commit() error { return classifyMySQL(t.tx.Commit()) }

func (t *storeTx) Rollback() error {
    err := t.tx.Rollback()
    if errors.Is(err, sql.ErrTxDone) {
        return nil
    }
    return err
}

// classifyMySQL tags driver errors with the gateway sentinels the
// reservation manager understands.  Other errors pass through.
func classifyMySQL(err error) error {
    if err == nil {
        return nil
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        switch me.Number {
        case errDupEntry, errSignal, errCheckViolation:
            return fmt.Errorf("%w: %w", reservation.ErrWriteConflict, err)
        case errDeadlock, errLockWaitTimeout:
            return fmt.Errorf("%w: %w", reservation.ErrTransient, err)
        }
        return err
    }
    switch {
    case errors.Is(err, mysql.ErrInvalidConn),
        errors.Is(err, driver.ErrBadConn),
        errors.Is(err, context.DeadlineExceeded):
        return fmt.Errorf("%w: %w", reservation.ErrTransient, err)
    }
    return err
}
