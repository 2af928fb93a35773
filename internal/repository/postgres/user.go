package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/chatstation-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE email = $1`

	return r.getUser(ctx, query, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE id = $1`

	return r.getUser(ctx, query, id)
}

// Create inserts a user. Registration belongs to the identity provider; this
// exists for provisioning and tests.
func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, email, name, created_at)
			  VALUES ($1, $2, $3, COALESCE($4, NOW()))
			  RETURNING id, email, name, created_at`

	createdAt := &user.CreatedAt
	if user.CreatedAt.IsZero() {
		createdAt = nil
	}

	var saved model.User
	err := r.db.QueryRow(ctx, query, user.ID, user.Email, user.Name, createdAt).Scan(
		&saved.ID, &saved.Email, &saved.Name, &saved.CreatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

// AddContact appends a contact entry to the owner's list. Existing entries are left untouched.
func (r *UserRepository) AddContact(ctx context.Context, ownerID uuid.UUID, contact model.ContactEntry) error {
	query := `INSERT INTO contacts (owner_id, contact_id, email, name, unread_messages)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (owner_id, contact_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, ownerID, contact.ContactUserID, contact.Email, contact.Name, contact.UnreadMessages)
	if err != nil {
		return fmt.Errorf("failed to add contact: %w", err)
	}
	return nil
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg any) (model.User, error) {
	var user model.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	contacts, err := r.getContacts(ctx, user.ID)
	if err != nil {
		return model.User{}, err
	}
	user.Contacts = contacts

	return user, nil
}

func (r *UserRepository) getContacts(ctx context.Context, ownerID uuid.UUID) ([]model.ContactEntry, error) {
	query := `SELECT contact_id, email, name, unread_messages
			  FROM contacts WHERE owner_id = $1
			  ORDER BY position ASC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	defer rows.Close()

	contacts := []model.ContactEntry{}
	for rows.Next() {
		var c model.ContactEntry
		if err := rows.Scan(&c.ContactUserID, &c.Email, &c.Name, &c.UnreadMessages); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	return contacts, nil
}
