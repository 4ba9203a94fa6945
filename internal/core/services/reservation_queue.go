package services

import (
	"context"
	"log"
	"time"

	"library-loanhub/internal/adapters/persistence/models"
	"library-loanhub/internal/adapters/persistence/repositories"
	"library-loanhub/internal/config"
	"library-loanhub/internal/core/domain"
	"library-loanhub/internal/pkg/clock"

	"github.com/pkg/errors"
)

// outbox collects events inside a transaction; they are published after commit
type outbox []SSEEvent

func (o *outbox) add(e SSEEvent) { *o = append(*o, e) }

// ReservationQueue keeps one FIFO queue per book. Every method that touches
// queue positions runs under the book row lock.
type ReservationQueue struct {
	store    *repositories.Store
	clock    clock.Clock
	policy   config.CirculationConfig
	copies   *CopyRegistry
	notifier Notifier
	metrics  MetricsRecorder
}

// NewReservationQueue creates a new reservation queue
func NewReservationQueue(
	store *repositories.Store,
	clk clock.Clock,
	policy config.CirculationConfig,
	copies *CopyRegistry,
	notifier Notifier,
	metrics MetricsRecorder,
) *ReservationQueue {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &ReservationQueue{
		store:    store,
		clock:    clk,
		policy:   policy,
		copies:   copies,
		notifier: notifier,
		metrics:  metrics,
	}
}

// ============================================================
// Public operations
// ============================================================

// Enqueue appends the client to the book's queue
func (q *ReservationQueue) Enqueue(ctx context.Context, input CreateReservationInput) (res *models.Reservation, err error) {
	defer observe(q.metrics, "enqueue_reservation", time.Now(), &err)

	if input.ClientID == 0 || input.BookID == 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "client_id and book_id are required")
	}

	var events outbox
	err = q.store.Transaction(ctx, func(tx *repositories.Store) error {
		// 1. Client in good standing
		ok, err := tx.Clients.IsActiveAndUnblocked(ctx, input.ClientID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(domain.ErrClientBlocked, "client %d", input.ClientID)
		}

		// 2. Lock the book so position reads and inserts cannot interleave
		book, err := tx.Books.Lock(ctx, input.BookID)
		if err != nil {
			return err
		}
		if !book.IsActive {
			return errors.Wrapf(domain.ErrBookInactive, "book %d", input.BookID)
		}

		// 3. One pending reservation per client and book
		existing, err := tx.Reservations.FindPendingByClientBook(ctx, input.ClientID, input.BookID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.Wrapf(domain.ErrDuplicateReservation, "client %d, book %d", input.ClientID, input.BookID)
		}

		// 4. Append at N+1
		count, err := tx.Reservations.CountPending(ctx, input.BookID)
		if err != nil {
			return err
		}
		res = &models.Reservation{
			ClientID:      input.ClientID,
			BookID:        input.BookID,
			State:         domain.ReservationPending,
			QueuePosition: int(count) + 1,
			CreatedAt:     q.clock.Now(),
		}
		if err := tx.Reservations.Create(ctx, res); err != nil {
			return err
		}

		events.add(queueUpdate(input.BookID, "enqueued", res))
		return nil
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	q.notifier.Publish(events...)
	log.Printf("✅ Reservation %d queued: client %d, book %d, position %d", res.ID, res.ClientID, res.BookID, res.QueuePosition)
	return res, nil
}

// Cancel withdraws a pending reservation and closes the gap it leaves
func (q *ReservationQueue) Cancel(ctx context.Context, reservationID uint) (res *models.Reservation, err error) {
	defer observe(q.metrics, "cancel_reservation", time.Now(), &err)

	var events outbox
	err = q.store.Transaction(ctx, func(tx *repositories.Store) error {
		current, err := tx.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if _, err := tx.Books.Lock(ctx, current.BookID); err != nil {
			return err
		}
		res, err = tx.Reservations.Lock(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.State != domain.ReservationPending {
			return errors.Wrapf(domain.ErrReservationNotActive, "reservation %d is %s", res.ID, res.State)
		}
		return q.close(ctx, tx, res, domain.ReservationCancelled, 0, &events)
	})
	if err != nil {
		return nil, domain.Storage(err)
	}

	q.notifier.Publish(events...)
	log.Printf("✅ Reservation %d cancelled", res.ID)
	return res, nil
}

// HasPendingFor reports whether anyone is queued for the book
func (q *ReservationQueue) HasPendingFor(ctx context.Context, bookID uint) (bool, error) {
	pending, err := q.hasPendingFor(ctx, q.store, bookID)
	return pending, domain.Storage(err)
}

// ListPending returns the book's queue in position order
func (q *ReservationQueue) ListPending(ctx context.Context, bookID uint) ([]models.Reservation, error) {
	if _, err := q.store.Books.GetByID(ctx, bookID); err != nil {
		return nil, domain.Storage(err)
	}
	list, err := q.store.Reservations.ListPending(ctx, bookID)
	return list, domain.Storage(err)
}

// ListByClient returns every reservation a client has made, newest first
func (q *ReservationQueue) ListByClient(ctx context.Context, clientID uint) ([]models.Reservation, error) {
	if _, err := q.store.Clients.GetByID(ctx, clientID); err != nil {
		return nil, domain.Storage(err)
	}
	list, err := q.store.Reservations.ListByClient(ctx, clientID)
	return list, domain.Storage(err)
}

// GetReservation returns a reservation by ID
func (q *ReservationQueue) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := q.store.Reservations.GetByID(ctx, id)
	return res, domain.Storage(err)
}

// ExpireHolds closes held reservations whose pickup deadline has passed and
// passes each freed copy on. Each reservation expires in its own transaction.
func (q *ReservationQueue) ExpireHolds(ctx context.Context) (expired int, err error) {
	defer observe(q.metrics, "expire_holds", time.Now(), &err)

	now := q.clock.Now()
	holding, err := q.store.Reservations.ListHolding(ctx)
	if err != nil {
		return 0, domain.Storage(err)
	}

	var firstErr error
	for _, candidate := range holding {
		if !holdLapsed(&candidate, now) {
			continue
		}

		var events outbox
		closed := false
		txErr := q.store.Transaction(ctx, func(tx *repositories.Store) error {
			if _, err := tx.Books.Lock(ctx, candidate.BookID); err != nil {
				return err
			}
			res, err := tx.Reservations.Lock(ctx, candidate.ID)
			if err != nil {
				return err
			}
			// picked up or cancelled since the scan
			if !holdLapsed(res, now) {
				return nil
			}
			events.add(SSEEvent{
				Event:    EventHoldExpired,
				ClientID: res.ClientID,
				Data:     map[string]interface{}{"reservation_id": res.ID, "book_id": res.BookID},
			})
			closed = true
			return q.close(ctx, tx, res, domain.ReservationExpired, 0, &events)
		})
		if txErr != nil {
			log.Printf("❌ Expire hold %d error: %v", candidate.ID, txErr)
			if firstErr == nil {
				firstErr = domain.Storage(txErr)
			}
			continue
		}
		if closed {
			expired++
			q.notifier.Publish(events...)
		}
	}

	if expired > 0 {
		log.Printf("🗑️ Expired %d uncollected holds", expired)
	}
	return expired, firstErr
}

// ============================================================
// In-transaction helpers (caller holds the book lock)
// ============================================================

func (q *ReservationQueue) hasPendingFor(ctx context.Context, tx *repositories.Store, bookID uint) (bool, error) {
	count, err := tx.Reservations.CountPending(ctx, bookID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// hasWaiting reports whether a pending reservation is still without a copy
func (q *ReservationQueue) hasWaiting(ctx context.Context, tx *repositories.Store, bookID uint) (bool, error) {
	next, err := tx.Reservations.NextWaiting(ctx, bookID)
	if err != nil {
		return false, err
	}
	return next != nil, nil
}

// promoteHead sets copyID aside for the first reservation without a held
// copy. The reservation stays PENDING until the patron borrows. Returns nil
// when nobody is waiting.
func (q *ReservationQueue) promoteHead(ctx context.Context, tx *repositories.Store, bookID, copyID uint, events *outbox) (*models.Reservation, error) {
	head, err := tx.Reservations.NextWaiting(ctx, bookID)
	if err != nil || head == nil {
		return nil, err
	}

	now := q.clock.Now()
	deadline := now.AddDate(0, 0, q.policy.HoldPickupDays)
	head.HeldCopyID = &copyID
	head.ReadyAt = &now
	head.PickupDeadline = &deadline
	if err := tx.Reservations.Save(ctx, head); err != nil {
		return nil, err
	}

	events.add(SSEEvent{
		Event:    EventHoldReady,
		ClientID: head.ClientID,
		Data: map[string]interface{}{
			"reservation_id":  head.ID,
			"book_id":         bookID,
			"copy_id":         copyID,
			"pickup_deadline": deadline,
		},
	})
	return head, nil
}

// fulfill closes the client's reservation once they borrow loanedCopyID
func (q *ReservationQueue) fulfill(ctx context.Context, tx *repositories.Store, res *models.Reservation, loanedCopyID uint, events *outbox) error {
	return q.close(ctx, tx, res, domain.ReservationFulfilled, loanedCopyID, events)
}

// close ends a pending reservation, compacts the queue and passes on any
// copy it was holding, except keepCopyID which the caller has already taken.
func (q *ReservationQueue) close(ctx context.Context, tx *repositories.Store, res *models.Reservation, state domain.ReservationState, keepCopyID uint, events *outbox) error {
	now := q.clock.Now()
	heldCopyID := res.HeldCopyID

	res.State = state
	res.ClosedAt = &now
	if err := tx.Reservations.Save(ctx, res); err != nil {
		return err
	}

	if err := q.compact(ctx, tx, res.BookID); err != nil {
		return err
	}

	if heldCopyID != nil && *heldCopyID != keepCopyID {
		if err := q.handOff(ctx, tx, res.BookID, *heldCopyID, events); err != nil {
			return err
		}
	}

	events.add(queueUpdate(res.BookID, string(state), res))
	return nil
}

// compact renumbers PENDING reservations to 1..N in their current order
func (q *ReservationQueue) compact(ctx context.Context, tx *repositories.Store, bookID uint) error {
	pending, err := tx.Reservations.ListPending(ctx, bookID)
	if err != nil {
		return err
	}
	for i := range pending {
		want := i + 1
		if pending[i].QueuePosition == want {
			continue
		}
		if err := tx.Reservations.UpdatePosition(ctx, pending[i].ID, want); err != nil {
			return err
		}
	}
	return nil
}

// handOff gives a freed RESERVED copy to the next waiting patron, or puts
// it back on the shelf
func (q *ReservationQueue) handOff(ctx context.Context, tx *repositories.Store, bookID, copyID uint, events *outbox) error {
	c, err := tx.Copies.Lock(ctx, copyID)
	if err != nil {
		return err
	}
	next, err := q.promoteHead(ctx, tx, bookID, c.ID, events)
	if err != nil {
		return err
	}
	if next != nil {
		return nil
	}
	return q.copies.releaseHold(ctx, tx, c)
}

func holdLapsed(res *models.Reservation, now time.Time) bool {
	return res.IsHolding() && res.PickupDeadline != nil && now.After(*res.PickupDeadline)
}

func queueUpdate(bookID uint, action string, res *models.Reservation) SSEEvent {
	return SSEEvent{
		Event:  EventQueueUpdate,
		BookID: bookID,
		Data: map[string]interface{}{
			"action":         action,
			"reservation_id": res.ID,
			"client_id":      res.ClientID,
		},
	}
}
