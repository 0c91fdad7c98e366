package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/repository/memory"
	"github.com/HelloTanvir/devcamper-api/internal/platform/mailer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*model.Location, error) {
	args := m.Called(ctx, address)
	if v := args.Get(0); v != nil {
		return v.(*model.Location), args.Error(1)
	}
	return nil, args.Error(1)
}

type memPhotoStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *memPhotoStore) Save(name string, r io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = buf.Bytes()
	return nil
}

func location(lat, lng float64, city string) *model.Location {
	return &model.Location{Latitude: &lat, Longitude: &lng, City: &city}
}

// seedUser stores a user directly, bypassing password hashing.
func seedUser(t *testing.T, store *memory.Store, role string) *model.User {
	t.Helper()
	u := &model.User{
		ID:             uuid.NewString(),
		Name:           role + " user",
		Email:          uuid.NewString()[:8] + "@example.com",
		Role:           role,
		HashedPassword: "unused",
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func seedBootcamp(t *testing.T, store *memory.Store, owner *model.User, name string) *model.Bootcamp {
	t.Helper()
	b := &model.Bootcamp{
		ID:          uuid.NewString(),
		UserID:      owner.ID,
		Name:        name,
		Slug:        name,
		Description: "A bootcamp",
		Careers:     model.StringList{"Web Development"},
	}
	require.NoError(t, store.Bootcamps().Create(context.Background(), b))
	return b
}
