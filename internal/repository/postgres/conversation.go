package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/chatstation-server/internal/model"
)

var _ model.ConversationStore = (*ConversationRepository)(nil)

type ConversationRepository struct {
	db    *Connection
	users *UserRepository
}

func NewConversationRepository(db *Connection) *ConversationRepository {
	return &ConversationRepository{
		db:    db,
		users: NewUserRepository(db),
	}
}

func (r *ConversationRepository) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.users.GetByEmail(ctx, email)
}

func (r *ConversationRepository) InsertMessage(ctx context.Context, msg model.Message) (uuid.UUID, error) {
	query := `INSERT INTO messages (
				sender_id, sender_name, sender_email,
				receiver_id, receiver_name, receiver_email,
				iv, cipher_text, is_read, created_at
			  ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		msg.Sender.ID, msg.Sender.Name, msg.Sender.Email,
		msg.Receiver.ID, msg.Receiver.Name, msg.Receiver.Email,
		msg.Body.IV, msg.Body.CipherText, msg.IsRead, msg.CreatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return id, nil
}

func (r *ConversationRepository) FindMessagesBetween(ctx context.Context, userA, userB uuid.UUID, page, pageSize int) ([]model.Message, error) {
	offset, ok := model.PageOffset(page, pageSize)
	if !ok {
		return []model.Message{}, nil
	}

	query := `
		SELECT id, seq, sender_id, sender_name, sender_email,
		       receiver_id, receiver_name, receiver_email,
		       iv, cipher_text, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC, seq DESC
		OFFSET $3 LIMIT $4`

	rows, err := r.db.Query(ctx, query, userA, userB, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, pageSize)
	for rows.Next() {
		var m model.Message
		err := rows.Scan(
			&m.ID, &m.Seq, &m.Sender.ID, &m.Sender.Name, &m.Sender.Email,
			&m.Receiver.ID, &m.Receiver.Name, &m.Receiver.Email,
			&m.Body.IV, &m.Body.CipherText, &m.IsRead, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

func (r *ConversationRepository) MarkMessagesRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	// only rows that are still unread count, so concurrent fetches of the
	// same page split the flips between them
	const query = `UPDATE messages SET is_read = TRUE
				   WHERE id = ANY($1::uuid[]) AND receiver_id = $2 AND is_read = FALSE`

	cmd, err := r.db.Exec(ctx, query, ids, receiverID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	return int(cmd.RowsAffected()), nil
}

func (r *ConversationRepository) AdjustUnreadCounter(ctx context.Context, ownerID, contactID uuid.UUID, delta int) error {
	const query = `UPDATE contacts SET unread_messages = unread_messages + $3
				   WHERE owner_id = $1 AND contact_id = $2`

	if _, err := r.db.Exec(ctx, query, ownerID, contactID, delta); err != nil {
		return fmt.Errorf("failed to adjust unread counter: %w", err)
	}
	return nil
}
