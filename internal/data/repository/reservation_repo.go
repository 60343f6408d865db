package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"table-booking/internal/data/entity"
	"table-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// StatusChange describes one guarded status write. Rows whose current status
// is not in From are left alone, so a stale caller cannot overwrite a newer
// decision.
type StatusChange struct {
	From    []entity.ReservationStatus
	To      entity.ReservationStatus
	Reason  *string
	Trigger entity.Trigger
	ActorID *string
}

type ReservationRepository interface {
	// Insert stores the reservation unless the id is taken; false means collision.
	Insert(ctx context.Context, reservation *entity.Reservation, actorID *string) (bool, error)
	FindByID(ctx context.Context, id string) (*entity.Reservation, error)
	Find(ctx context.Context, q entity.ReservationQuery) ([]*entity.Reservation, error)
	// UpdateStatus applies change to one reservation. It returns nil when the
	// row does not exist or its status is not in change.From.
	UpdateStatus(ctx context.Context, id string, change StatusChange) (*entity.Reservation, error)
	// UpdateStatusBatch applies change to every listed id atomically and
	// returns the rows that actually moved.
	UpdateStatusBatch(ctx context.Context, ids []string, change StatusChange) ([]*entity.Reservation, error)
	History(ctx context.Context, id string) ([]*entity.ReservationStatusEvent, error)
	// Watch opens a live query that re-delivers the matching set on every change.
	Watch(ctx context.Context, q entity.ReservationQuery) (*Subscription, error)
}

const reservationColumns = `id, user_id, branch, restaurant, date_of_arrival, guests,
	booking_name, message, status, rejection_reason, created_at, updated_at`

type reservationRepository struct {
	db   database.PgxIface
	feed ChangeFeed
	log  *zap.Logger
}

func NewReservationRepository(db database.PgxIface, feed ChangeFeed, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:   db,
		feed: feed,
		log:  log.With(zap.String("repository", "reservation")),
	}
}

func (r *reservationRepository) Insert(ctx context.Context, reservation *entity.Reservation, actorID *string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, storeErr("begin insert reservation", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := tx.Exec(ctx, query,
		reservation.ID,
		reservation.UserID,
		int16(reservation.Branch),
		nullableCode(reservation.Restaurant),
		reservation.DateOfArrival,
		reservation.Guests,
		reservation.BookingName,
		reservation.Message,
		int16(reservation.Status),
		reservation.RejectionReason,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert reservation",
			zap.Error(err),
			zap.String("reservation_id", reservation.ID),
			zap.String("user_id", reservation.UserID),
		)
		return false, storeErr("insert reservation "+reservation.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	event := `
		INSERT INTO reservation_status_events
			(reservation_id, from_status, to_status, reason, trigger, actor_id, created_at)
		VALUES ($1, NULL, $2, NULL, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, event,
		reservation.ID,
		int16(reservation.Status),
		"create",
		actorID,
		reservation.CreatedAt,
	); err != nil {
		return false, storeErr("record creation of "+reservation.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, storeErr("commit reservation "+reservation.ID, err)
	}

	r.publish(ctx, reservation.Branch, []*entity.Reservation{reservation})
	return true, nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id),
		)
		return nil, storeErr("find reservation "+id, err)
	}

	return reservation, nil
}

func (r *reservationRepository) Find(ctx context.Context, q entity.ReservationQuery) ([]*entity.Reservation, error) {
	where, args := buildWhere(q)

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if where != "" {
		query += " WHERE " + where
	}
	if q.Sort == entity.SortArrivalDesc {
		query += " ORDER BY date_of_arrival DESC, created_at DESC"
	} else {
		query += " ORDER BY date_of_arrival ASC, created_at ASC"
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query reservations", zap.Error(err), zap.String("where", where))
		return nil, storeErr("query reservations", err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, storeErr("scan reservation row", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate reservations", err)
	}

	return reservations, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id string, change StatusChange) (*entity.Reservation, error) {
	updated, err := r.UpdateStatusBatch(ctx, []string{id}, change)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, nil
	}
	return updated[0], nil
}

func (r *reservationRepository) UpdateStatusBatch(ctx context.Context, ids []string, change StatusChange) ([]*entity.Reservation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	// rejection_reason follows the status so the row constraint always holds
	var rejection *string
	if change.To == entity.StatusRejected {
		rejection = change.Reason
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin status update", err)
	}
	defer tx.Rollback(ctx)

	query := `
		WITH prev AS (
			SELECT id, status FROM reservations
			WHERE id = ANY($1) AND status = ANY($2)
			FOR UPDATE
		)
		UPDATE reservations AS r
		SET status = $3, rejection_reason = $4, updated_at = $5
		FROM prev
		WHERE r.id = prev.id
		RETURNING r.id, r.user_id, r.branch, r.restaurant, r.date_of_arrival, r.guests,
			r.booking_name, r.message, r.status, r.rejection_reason, r.created_at, r.updated_at,
			prev.status
	`

	now := time.Now()
	rows, err := tx.Query(ctx, query, ids, statusCodes(change.From), int16(change.To), rejection, now)
	if err != nil {
		r.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.Int("ids", len(ids)),
			zap.Stringer("to", change.To),
		)
		return nil, storeErr("update reservation status", err)
	}

	var (
		updated []*entity.Reservation
		events  [][]any
	)
	for rows.Next() {
		var (
			res  entity.Reservation
			from int16
		)
		if err := rows.Scan(
			&res.ID,
			&res.UserID,
			&res.Branch,
			&res.Restaurant,
			&res.DateOfArrival,
			&res.Guests,
			&res.BookingName,
			&res.Message,
			&res.Status,
			&res.RejectionReason,
			&res.CreatedAt,
			&res.UpdatedAt,
			&from,
		); err != nil {
			rows.Close()
			return nil, storeErr("scan updated reservation", err)
		}
		updated = append(updated, &res)
		events = append(events, []any{
			res.ID, &from, int16(change.To), change.Reason, change.Trigger.String(), change.ActorID, now,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeErr("update reservation status", err)
	}

	if len(events) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"reservation_status_events"},
			[]string{"reservation_id", "from_status", "to_status", "reason", "trigger", "actor_id", "created_at"},
			pgx.CopyFromRows(events),
		); err != nil {
			return nil, storeErr("record status events", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit status update", err)
	}

	r.publishGrouped(ctx, updated)
	return updated, nil
}

func (r *reservationRepository) History(ctx context.Context, id string) ([]*entity.ReservationStatusEvent, error) {
	query := `
		SELECT id, reservation_id, from_status, to_status, reason, trigger, actor_id, created_at
		FROM reservation_status_events
		WHERE reservation_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to load status history", zap.Error(err), zap.String("reservation_id", id))
		return nil, storeErr("load history of "+id, err)
	}
	defer rows.Close()

	var events []*entity.ReservationStatusEvent
	for rows.Next() {
		var e entity.ReservationStatusEvent
		if err := rows.Scan(
			&e.ID,
			&e.ReservationID,
			&e.FromStatus,
			&e.ToStatus,
			&e.Reason,
			&e.Trigger,
			&e.ActorID,
			&e.CreatedAt,
		); err != nil {
			return nil, storeErr("scan status event", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate status events", err)
	}

	return events, nil
}

func (r *reservationRepository) Watch(ctx context.Context, q entity.ReservationQuery) (*Subscription, error) {
	if r.feed == nil {
		return nil, fmt.Errorf("watch reservations: %w: no change feed configured", entity.ErrStoreUnavailable)
	}

	changes, stop, err := r.feed.Listen(ctx)
	if err != nil {
		return nil, storeErr("listen for reservation changes", err)
	}

	return newSubscription(ctx, q, r.Find, changes, stop, r.log), nil
}

// publishGrouped emits one change per branch touched by a write.
func (r *reservationRepository) publishGrouped(ctx context.Context, updated []*entity.Reservation) {
	byBranch := make(map[entity.Branch][]*entity.Reservation)
	for _, res := range updated {
		byBranch[res.Branch] = append(byBranch[res.Branch], res)
	}
	for branch, list := range byBranch {
		r.publish(ctx, branch, list)
	}
}

// publish is best effort: the write is already committed.
func (r *reservationRepository) publish(ctx context.Context, branch entity.Branch, list []*entity.Reservation) {
	if r.feed == nil {
		return
	}

	change := ReservationChange{Branch: branch}
	for _, res := range list {
		change.IDs = append(change.IDs, res.ID)
		change.UserIDs = append(change.UserIDs, res.UserID)
	}

	if err := r.feed.Publish(context.WithoutCancel(ctx), change); err != nil {
		r.log.Warn("Failed to publish reservation change",
			zap.Error(err),
			zap.Int("branch", int(branch)),
			zap.Int("count", len(list)),
		)
	}
}

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.Branch,
		&res.Restaurant,
		&res.DateOfArrival,
		&res.Guests,
		&res.BookingName,
		&res.Message,
		&res.Status,
		&res.RejectionReason,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// buildWhere renders the query predicate as positional SQL.
func buildWhere(q entity.ReservationQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.UserID != nil {
		add("user_id = $%d", *q.UserID)
	}
	if q.Branch != nil {
		add("branch = $%d", int16(*q.Branch))
	}
	if q.Restaurant != nil {
		add("restaurant = $%d", int16(*q.Restaurant))
	}
	if len(q.Statuses) > 0 {
		add("status = ANY($%d)", statusCodes(q.Statuses))
	}
	if len(q.ExcludeStatuses) > 0 {
		add("NOT (status = ANY($%d))", statusCodes(q.ExcludeStatuses))
	}
	if q.ArrivalAfter != nil {
		add("date_of_arrival > $%d", *q.ArrivalAfter)
	}

	return strings.Join(clauses, " AND "), args
}

// nullableCode narrows an optional catalogue code to the smallint column.
func nullableCode[T ~int](v *T) *int16 {
	if v == nil {
		return nil
	}
	code := int16(*v)
	return &code
}

func statusCodes(statuses []entity.ReservationStatus) []int16 {
	codes := make([]int16, len(statuses))
	for i, s := range statuses {
		codes[i] = int16(s)
	}
	return codes
}
