package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/residencia-api/internal/domain/event"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/domain/user"
	"github.com/gravadigital/residencia-api/internal/storage/memory"
)

type mockPublisher struct {
	mock.Mock
}

func newMockPublisher() *mockPublisher {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return()
	return p
}

func (m *mockPublisher) Publish(ctx context.Context, topic event.Topic, payload any) {
	m.Called(ctx, topic, payload)
}

// published returns the payloads sent on topic, in order
func (m *mockPublisher) published(topic event.Topic) []any {
	var out []any
	for _, call := range m.Calls {
		if call.Method == "Publish" && call.Arguments.Get(1) == topic {
			out = append(out, call.Arguments.Get(2))
		}
	}
	return out
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, dst any) bool {
	return m.Called(ctx, key, dst).Bool(0)
}

func (m *mockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) {
	m.Called(ctx, keys)
}

func (m *mockCache) Close() error {
	return m.Called().Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, r, size, contentType).Error(0)
}

func (m *mockStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

// people seeds one account per role plus a second resident
type people struct {
	resident user.Caller
	neighbor user.Caller
	manager  user.Caller
	admin    user.Caller
}

func seedPeople(t *testing.T, c *memory.Container) people {
	t.Helper()
	ctx := context.Background()

	mk := func(email string, role user.Role) user.Caller {
		u := &user.User{Email: email, PasswordHash: "x", Role: role, IsActive: true}
		require.NoError(t, c.Users().Create(ctx, u))
		return user.Caller{UserID: u.ID, Role: role}
	}

	p := people{
		resident: mk("resident@example.com", user.RoleResident),
		neighbor: mk("neighbor@example.com", user.RoleResident),
		manager:  mk("manager@abc-apartment.com", user.RoleManager),
		admin:    mk("admin@abc-apartment.com", user.RoleAdmin),
	}

	profiles := []*resident.Resident{
		{UserID: p.resident.UserID, FirstName: "John", LastName: "Doe", Apartment: "A101", Building: "Building A", Floor: 1},
		{UserID: p.neighbor.UserID, FirstName: "Mary", LastName: "Roe", Apartment: "B202", Building: "Building B", Floor: 2},
	}
	for _, r := range profiles {
		require.NoError(t, c.Residents().Create(ctx, r))
	}
	return p
}
