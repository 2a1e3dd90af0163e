// Package service holds the collaborators the reservation manager
// notifies after a change commits: the RabbitMQ event publisher and the
// availability cache purger.
package service

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "sync"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/hotel-reservation/internal/queue"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

// RabbitPublisher publishes lifecycle events as persistent JSON messages
// to a durable queue on the default exchange.  It keeps one connection
// and channel open across publishes and redials after a failure.
type RabbitPublisher struct {
    URL   string
    Queue string

    mu   sync.Mutex
    sess *amqpSession
    dial func(ctx context.Context) (*amqpSession, error)
}

// amqpSession is an open connection with its publishing channel.
type amqpSession struct {
    conn brokerConn
    ch   publishChannel
}

type brokerConn interface {
    IsClosed() bool
    Close() error
}

type publishChannel interface {
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

const dialTimeout = 3 * time.Second

// NewRabbitPublisher returns a publisher for the given broker and queue.
// Nothing is dialed until the first event.
func NewRabbitPublisher(url, queueName string) *RabbitPublisher {
    p := &RabbitPublisher{URL: url, Queue: queueName}
    p.dial = p.dialBroker
    return p
}

var _ reservation.Notifier = (*RabbitPublisher)(nil)

// Notify implements reservation.Notifier.
func (p *RabbitPublisher) Notify(ctx context.Context, ev reservation.Event) error {
    body, err := json.Marshal(ToMessage(ev, uuid.NewString()))
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal event: %w", err)
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    ev.OccurredAt,
        Type:         string(ev.Type),
        Body:         body,
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    sess, err := p.session(ctx)
    if err != nil {
        return err
    }
    if err := sess.ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
        p.reset()
        return fmt.Errorf("rabbitmq: publish: %w", err)
    }
    return nil
}

// Close shuts the open connection, if any.
func (p *RabbitPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.sess == nil {
        return nil
    }
    err := p.sess.conn.Close()
    p.sess = nil
    return err
}

// session returns the open session, dialing when there is none or the
// broker dropped the connection.  Callers hold p.mu.
func (p *RabbitPublisher) session(ctx context.Context) (*amqpSession, error) {
    if p.sess != nil && !p.sess.conn.IsClosed() {
        return p.sess, nil
    }
    p.reset()
    sess, err := p.dial(ctx)
    if err != nil {
        return nil, err
    }
    p.sess = sess
    return sess, nil
}

func (p *RabbitPublisher) reset() {
    if p.sess != nil {
        _ = p.sess.conn.Close()
        p.sess = nil
    }
}

func (p *RabbitPublisher) dialBroker(ctx context.Context) (*amqpSession, error) {
    timeout := dialTimeout
    if dl, ok := ctx.Deadline(); ok {
        timeout = min(timeout, time.Until(dl))
    }
    conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(timeout)})
    if err != nil {
        return nil, fmt.Errorf("rabbitmq: dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
    }
    if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
    }
    return &amqpSession{conn: conn, ch: ch}, nil
}

// ToMessage converts an engine event into the wire payload.
func ToMessage(ev reservation.Event, eventID string) queue.ReservationEvent {
    r := ev.Reservation
    msg := queue.ReservationEvent{
        EventID:         eventID,
        Type:            string(ev.Type),
        ReservationID:   r.ID,
        RoomID:          r.RoomID,
        GuestID:         r.GuestID,
        CheckIn:         reservation.FormatDate(r.CheckIn),
        CheckOut:        reservation.FormatDate(r.CheckOut),
        GuestCount:      r.GuestCount,
        TotalPriceCents: r.TotalPriceCents,
        Status:          r.Status.String(),
        OccurredAt:      ev.OccurredAt.UTC().Format(time.RFC3339),
    }
    if ev.Type != reservation.EventCreated {
        msg.PreviousStatus = ev.PreviousStatus.String()
    }
    return msg
}

// Fanout delivers each event to every notifier in order and joins their
// errors.  Nil entries are skipped.
type Fanout []reservation.Notifier

func (f Fanout) Notify(ctx context.Context, ev reservation.Event) error {
    var errs []error
    for _, n := range f {
        if n == nil {
            continue
        }
        if err := n.Notify(ctx, ev); err != nil {
            errs = append(errs, err)
        }
    }
    return errors.Join(errs...)
}

// LogNotifier writes a line per event.  It stands in for the publisher
// when events are disabled.
type LogNotifier struct{ Logger *log.Logger }

func (l LogNotifier) Notify(_ context.Context, ev reservation.Event) error {
    logger := l.Logger
    if logger == nil {
        logger = log.Default()
    }
    prev := ""
    if ev.Reservation.Status != ev.PreviousStatus && ev.Type != reservation.EventCreated {
        prev = " from " + ev.PreviousStatus.String()
    }
    logger.Printf("reservation-events: %s reservation=%d room=%d status=%s%s",
        ev.Type, ev.Reservation.ID, ev.Reservation.RoomID, ev.Reservation.Status, prev)
    return nil
}
