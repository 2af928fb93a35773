package badger

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/chatstation-server/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedPair(t *testing.T, s *Store) (model.User, model.User) {
	t.Helper()
	ctx := context.Background()

	alice, err := s.Create(ctx, model.User{Email: "alice@x.com", Name: "Alice"})
	require.NoError(t, err)
	bob, err := s.Create(ctx, model.User{Email: "bob@x.com", Name: "Bob"})
	require.NoError(t, err)

	require.NoError(t, s.AddContact(ctx, alice.ID, model.ContactEntry{ContactUserID: bob.ID, Email: bob.Email, Name: bob.Name}))
	require.NoError(t, s.AddContact(ctx, bob.ID, model.ContactEntry{ContactUserID: alice.ID, Email: alice.Email, Name: alice.Name}))

	return alice, bob
}

func newMessage(from, to model.User, at time.Time) model.Message {
	return model.Message{
		Sender:    from.Participant(),
		Receiver:  to.Participant(),
		Body:      model.EncryptedBody{IV: []byte("0123456789ab"), CipherText: []byte("sealed")},
		CreatedAt: at,
	}
}

func unread(t *testing.T, s *Store, owner, contact uuid.UUID) int {
	t.Helper()
	u, err := s.GetByID(context.Background(), owner)
	require.NoError(t, err)
	entry, ok := u.Contact(contact)
	require.True(t, ok)
	return entry.UnreadMessages
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, bob := seedPair(t, s)

	got, err := s.FindUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
	require.Len(t, got.Contacts, 1)
	assert.Equal(t, bob.ID, got.Contacts[0].ContactUserID)
	assert.Zero(t, got.Contacts[0].UnreadMessages)

	// adding the same contact twice keeps one entry
	require.NoError(t, s.AddContact(ctx, alice.ID, model.ContactEntry{ContactUserID: bob.ID, Email: bob.Email, Name: bob.Name}))
	got, err = s.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, got.Contacts, 1)

	_, err = s.Create(ctx, model.User{Email: "alice@x.com", Name: "Impostor"})
	assert.Error(t, err)

	tests := []struct {
		name string
		call func() error
	}{
		{
			name: "unknown email",
			call: func() error { _, err := s.GetByEmail(ctx, "nobody@x.com"); return err },
		},
		{
			name: "unknown id",
			call: func() error { _, err := s.GetByID(ctx, uuid.New()); return err },
		},
		{
			name: "contact for unknown owner",
			call: func() error { return s.AddContact(ctx, uuid.New(), model.ContactEntry{ContactUserID: bob.ID}) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), model.ErrNotFound)
		})
	}
}

func TestStore_FindMessagesBetween(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, bob := seedPair(t, s)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, 0, 20)
	for i := 0; i < 20; i++ {
		from, to := alice, bob
		if i%2 == 1 {
			from, to = bob, alice
		}
		id, err := s.InsertMessage(ctx, newMessage(from, to, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	tests := []struct {
		name    string
		a, b    uuid.UUID
		page    int
		wantIDs []uuid.UUID
	}{
		{
			name:    "first page newest first",
			a:       bob.ID,
			b:       alice.ID,
			page:    0,
			wantIDs: []uuid.UUID{ids[19], ids[18], ids[17], ids[16], ids[15], ids[14], ids[13], ids[12], ids[11], ids[10], ids[9], ids[8], ids[7], ids[6], ids[5]},
		},
		{
			name:    "second page holds the remainder",
			a:       alice.ID,
			b:       bob.ID,
			page:    1,
			wantIDs: []uuid.UUID{ids[4], ids[3], ids[2], ids[1], ids[0]},
		},
		{
			name:    "past the end",
			a:       alice.ID,
			b:       bob.ID,
			page:    2,
			wantIDs: []uuid.UUID{},
		},
		{
			name:    "offset overflows",
			a:       alice.ID,
			b:       bob.ID,
			page:    math.MaxInt/15 + 1,
			wantIDs: []uuid.UUID{},
		},
		{
			name:    "no conversation",
			a:       alice.ID,
			b:       uuid.New(),
			page:    0,
			wantIDs: []uuid.UUID{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindMessagesBetween(ctx, tt.a, tt.b, tt.page, model.DefaultPageSize)
			require.NoError(t, err)
			gotIDs := make([]uuid.UUID, 0, len(got))
			for _, m := range got {
				gotIDs = append(gotIDs, m.ID)
			}
			assert.Equal(t, tt.wantIDs, gotIDs)
		})
	}
}

func TestStore_MessageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, bob := seedPair(t, s)

	at := time.Date(2024, 1, 1, 12, 0, 0, 123456789, time.UTC)
	id, err := s.InsertMessage(ctx, newMessage(alice, bob, at))
	require.NoError(t, err)

	got, err := s.FindMessagesBetween(ctx, alice.ID, bob.ID, 0, model.DefaultPageSize)
	require.NoError(t, err)
	require.Len(t, got, 1)

	m := got[0]
	assert.Equal(t, id, m.ID)
	assert.Positive(t, m.Seq)
	assert.Equal(t, alice.Participant(), m.Sender)
	assert.Equal(t, bob.Participant(), m.Receiver)
	assert.Equal(t, []byte("0123456789ab"), m.Body.IV)
	assert.Equal(t, []byte("sealed"), m.Body.CipherText)
	assert.False(t, m.IsRead)
	assert.True(t, at.Equal(m.CreatedAt))
}

func TestStore_SameTimestampOrderedByInsertion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, bob := seedPair(t, s)

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	first, err := s.InsertMessage(ctx, newMessage(alice, bob, at))
	require.NoError(t, err)
	second, err := s.InsertMessage(ctx, newMessage(bob, alice, at))
	require.NoError(t, err)

	got, err := s.FindMessagesBetween(ctx, alice.ID, bob.ID, 0, model.DefaultPageSize)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second, got[0].ID)
	assert.Equal(t, first, got[1].ID)
}

func TestStore_MarkMessagesRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, bob := seedPair(t, s)

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	toBob1, err := s.InsertMessage(ctx, newMessage(alice, bob, at))
	require.NoError(t, err)
	toBob2, err := s.InsertMessage(ctx, newMessage(alice, bob, at.Add(time.Second)))
	require.NoError(t, err)
	toAlice, err := s.InsertMessage(ctx, newMessage(bob, alice, at.Add(2*time.Second)))
	require.NoError(t, err)

	all := []uuid.UUID{toBob1, toBob2, toAlice, uuid.New()}

	flipped, err := s.MarkMessagesRead(ctx, bob.ID, all)
	require.NoError(t, err)
	assert.Equal(t, 2, flipped)

	flipped, err = s.MarkMessagesRead(ctx, bob.ID, all)
	require.NoError(t, err)
	assert.Zero(t, flipped)

	flipped, err = s.MarkMessagesRead(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, flipped)

	got, err := s.FindMessagesBetween(ctx, alice.ID, bob.ID, 0, model.DefaultPageSize)
	require.NoError(t, err)
	for _, m := range got {
		assert.Equal(t, m.Receiver.ID == bob.ID, m.IsRead, "message %s", m.ID)
	}
}

func TestStore_AdjustUnreadCounter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, bob := seedPair(t, s)

	tests := []struct {
		name  string
		owner uuid.UUID
		other uuid.UUID
		delta int
		want  int
	}{
		{name: "increment", owner: bob.ID, other: alice.ID, delta: 3, want: 3},
		{name: "decrement", owner: bob.ID, other: alice.ID, delta: -1, want: 2},
		{name: "back to zero", owner: bob.ID, other: alice.ID, delta: -2, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.AdjustUnreadCounter(ctx, tt.owner, tt.other, tt.delta))
			assert.Equal(t, tt.want, unread(t, s, tt.owner, tt.other))
		})
	}

	t.Run("missing entry is ignored", func(t *testing.T) {
		require.NoError(t, s.AdjustUnreadCounter(ctx, bob.ID, uuid.New(), 1))
		require.NoError(t, s.AdjustUnreadCounter(ctx, uuid.New(), alice.ID, 1))
		assert.Zero(t, unread(t, s, alice.ID, bob.ID))
	})
}

func TestStore_ConcurrentCounterUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, bob := seedPair(t, s)

	const writers = 40
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AdjustUnreadCounter(ctx, bob.ID, alice.ID, 1))
		}()
	}
	wg.Wait()
	assert.Equal(t, writers, unread(t, s, bob.ID, alice.ID))

	// concurrent readers of the same page split the flips between them
	ids := make([]uuid.UUID, 0, 10)
	for i := 0; i < 10; i++ {
		id, err := s.InsertMessage(ctx, newMessage(alice, bob, time.Now()))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	var (
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.MarkMessagesRead(ctx, bob.ID, ids)
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, len(ids), total)
}

func TestStore_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	alice, bob := seedPair(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.AdjustUnreadCounter(ctx, bob.ID, alice.ID, 1), context.Canceled)
	_, err := s.FindMessagesBetween(ctx, alice.ID, bob.ID, 0, model.DefaultPageSize)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
	assert.NoError(t, s.Ping(context.Background()))
}
