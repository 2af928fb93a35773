package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/dtroode/chatstation-server/internal/model"
)

var (
	_ model.UserStore         = (*Store)(nil)
	_ model.ConversationStore = (*Store)(nil)
)

// maxConflictRetries bounds how often a read-modify-write transaction is
// replayed after losing a commit race.
const maxConflictRetries = 64

const (
	userIDPrefix    = "user:id:"
	userEmailPrefix = "user:email:"
	messagePrefix   = "msg:"
	messageIDPrefix = "msgid:"
	sequenceKey     = "seq:messages"
)

// Options configures the embedded store.
type Options struct {
	Dir      string
	InMemory bool
}

// Store keeps users, contact lists and messages in an embedded Badger database.
//
// Layout:
//
//	user:id:{uuid}                      -> userDoc with embedded contacts
//	user:email:{email}                  -> user id
//	msg:{low}:{high}:{nanos}:{seq}      -> messageDoc
//	msgid:{uuid}                        -> msg key
//
// low and high are the two participant ids in lexical order, so both
// directions of a conversation share one key range. The zero padded
// timestamp and sequence keep the range sorted oldest first.
type Store struct {
	db  *badgerdb.DB
	seq *badgerdb.Sequence
	now func() time.Time
}

func Open(opts Options) (*Store, error) {
	badgerOpts := badgerdb.DefaultOptions(opts.Dir).WithLoggingLevel(badgerdb.ERROR)
	if opts.InMemory {
		badgerOpts = badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badgerdb.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), 128)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to lease message sequence: %w", err)
	}

	return &Store{db: db, seq: seq, now: time.Now}, nil
}

func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to release message sequence: %w", err)
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return s.db.View(func(*badgerdb.Txn) error { return nil })
}

func (s *Store) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var doc userDoc
	err := s.db.View(func(txn *badgerdb.Txn) error {
		id, err := lookupEmail(txn, email)
		if err != nil {
			return err
		}
		doc, err = getUserDoc(txn, id)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	return doc.toUser(), nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var doc userDoc
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		doc, err = getUserDoc(txn, id)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	return doc.toUser(), nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.GetByEmail(ctx, email)
}

// Create inserts a user. Registration belongs to the identity provider; this
// exists for provisioning and tests.
func (s *Store) Create(ctx context.Context, user model.User) (model.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	doc := fromUser(user)

	err := s.update(ctx, func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(userEmailPrefix + user.Email))
		if err == nil {
			return fmt.Errorf("user with email %s already exists", user.Email)
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		if err := putUserDoc(txn, doc); err != nil {
			return err
		}
		return txn.Set([]byte(userEmailPrefix+user.Email), []byte(user.ID.String()))
	})
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return doc.toUser(), nil
}

// AddContact appends a contact entry to the owner's list. Existing entries are left untouched.
func (s *Store) AddContact(ctx context.Context, ownerID uuid.UUID, contact model.ContactEntry) error {
	err := s.update(ctx, func(txn *badgerdb.Txn) error {
		doc, err := getUserDoc(txn, ownerID)
		if err != nil {
			return err
		}
		for _, c := range doc.Contacts {
			if c.ContactID == contact.ContactUserID {
				return nil
			}
		}
		doc.Contacts = append(doc.Contacts, contactDoc{
			ContactID: contact.ContactUserID,
			Email:     contact.Email,
			Name:      contact.Name,
			Unread:    contact.UnreadMessages,
		})
		return putUserDoc(txn, doc)
	})
	if err != nil {
		return fmt.Errorf("failed to add contact: %w", err)
	}
	return nil
}

func (s *Store) InsertMessage(ctx context.Context, msg model.Message) (uuid.UUID, error) {
	next, err := s.seq.Next()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to allocate message sequence: %w", err)
	}

	msg.ID = uuid.New()
	msg.Seq = int64(next) + 1
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	data, err := marshal(fromMessage(msg))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode message: %w", err)
	}
	key := messageKey(msg)

	err = s.update(ctx, func(txn *badgerdb.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(messageIDPrefix+msg.ID.String()), key)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return msg.ID, nil
}

func (s *Store) FindMessagesBetween(ctx context.Context, userA, userB uuid.UUID, page, pageSize int) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	skip, ok := model.PageOffset(page, pageSize)
	if !ok {
		return []model.Message{}, nil
	}
	prefix := []byte(conversationPrefix(userA, userB))
	messages := make([]model.Message, 0, pageSize)

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// 0xFF sorts after every digit, so the seek lands on the newest key
		for it.Seek(append(append([]byte{}, prefix...), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if skip > 0 {
				skip--
				continue
			}
			if len(messages) == pageSize {
				break
			}

			var doc messageDoc
			err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &doc)
			})
			if err != nil {
				return fmt.Errorf("failed to decode message: %w", err)
			}
			messages = append(messages, doc.toMessage())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}

	return messages, nil
}

func (s *Store) MarkMessagesRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var flipped int
	err := s.update(ctx, func(txn *badgerdb.Txn) error {
		flipped = 0
		for _, id := range ids {
			item, err := txn.Get([]byte(messageIDPrefix + id.String()))
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			key, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			var doc messageDoc
			if err := getDoc(txn, key, &doc); err != nil {
				return err
			}
			if doc.Receiver.ID != receiverID || doc.IsRead {
				continue
			}

			doc.IsRead = true
			data, err := marshal(doc)
			if err != nil {
				return err
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
			flipped++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	return flipped, nil
}

func (s *Store) AdjustUnreadCounter(ctx context.Context, ownerID, contactID uuid.UUID, delta int) error {
	err := s.update(ctx, func(txn *badgerdb.Txn) error {
		doc, err := getUserDoc(txn, ownerID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		for i := range doc.Contacts {
			if doc.Contacts[i].ContactID == contactID {
				doc.Contacts[i].Unread += delta
				return putUserDoc(txn, doc)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to adjust unread counter: %w", err)
	}
	return nil
}

// update runs fn in a read-write transaction, replaying it when another
// writer committed a key fn read.
func (s *Store) update(ctx context.Context, fn func(txn *badgerdb.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badgerdb.ErrConflict) || attempt == maxConflictRetries {
			return err
		}
	}
}

func lookupEmail(txn *badgerdb.Txn, email string) (uuid.UUID, error) {
	item, err := txn.Get([]byte(userEmailPrefix + email))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return uuid.Nil, model.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = item.Value(func(val []byte) error {
		var err error
		id, err = uuid.ParseBytes(val)
		return err
	})
	return id, err
}

func getUserDoc(txn *badgerdb.Txn, id uuid.UUID) (userDoc, error) {
	var doc userDoc
	if err := getDoc(txn, []byte(userIDPrefix+id.String()), &doc); err != nil {
		return userDoc{}, err
	}
	return doc, nil
}

func putUserDoc(txn *badgerdb.Txn, doc userDoc) error {
	data, err := marshal(doc)
	if err != nil {
		return err
	}
	return txn.Set([]byte(userIDPrefix+doc.ID.String()), data)
}

func getDoc(txn *badgerdb.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshal(val, v)
	})
}

func conversationPrefix(a, b uuid.UUID) string {
	low, high := a.String(), b.String()
	if high < low {
		low, high = high, low
	}
	return fmt.Sprintf("%s%s:%s:", messagePrefix, low, high)
}

func messageKey(msg model.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%019d",
		conversationPrefix(msg.Sender.ID, msg.Receiver.ID),
		msg.CreatedAt.UnixNano(),
		msg.Seq,
	))
}
