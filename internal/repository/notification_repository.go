package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/spa-booking-deposits/internal/model"
)

// NotificationRepo stores dashboard notifications.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts n and fills its ID and CreatedAt.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	n.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (recipient_id, recipient_type, type, title, message, urgent, booking_id, is_read, created_at)
		 VALUES (?,?,?,?,?,?,?,0,?)`,
		n.RecipientID, n.RecipientType, n.Type, n.Title, n.Message, n.Urgent, n.BookingID, n.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListForRecipient returns up to limit notifications, newest first.
func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipientType string, recipientID uint64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := `SELECT id, recipient_id, recipient_type, type, title, message, urgent, booking_id, is_read, created_at
		FROM notifications WHERE recipient_type = ? AND recipient_id = ?`
	if unreadOnly {
		q += ` AND is_read = 0`
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, recipientType, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.RecipientType, &n.Type, &n.Title, &n.Message,
			&n.Urgent, &n.BookingID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one notification of the recipient as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64, recipientType string, recipientID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_type = ? AND recipient_id = ?`,
		id, recipientType, recipientID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM notifications WHERE id = ? AND recipient_type = ? AND recipient_id = ?`,
			id, recipientType, recipientID).Scan(&one)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}
