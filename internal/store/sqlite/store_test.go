package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlovans/stepform/pkg/member"
	"github.com/dlovans/stepform/pkg/stepform"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, stepform.Payload{"nombre": "Ana", "montoCuota": float64(1500)})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Ana", got.Values["nombre"])
	assert.Equal(t, float64(1500), got.Values["montoCuota"])
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateMergesPayload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	id, err := s.Create(ctx, stepform.Payload{"nombre": "Ana", "password": "abc123", "telefono": ""})
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, s.Update(ctx, id, stepform.Payload{"nombre": "Ana María", "telefono": "555"}))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.Values["nombre"])
	assert.Equal(t, "555", got.Values["telefono"])
	assert.Equal(t, "abc123", got.Values["password"], "fields absent from the edit payload are kept")
	assert.True(t, base.Equal(got.CreatedAt))
	assert.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))
}

func TestStore_UpdateMissing(t *testing.T) {
	s := newTestStore(t)
	err := s.Update(context.Background(), "ghost", stepform.Payload{"nombre": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Update(context.Background(), "", stepform.Payload{"nombre": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		id, err := s.Create(ctx, stepform.Payload{"n": float64(i)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, rec := range list {
		assert.Equal(t, ids[i], rec.ID)
	}

	require.NoError(t, s.Delete(ctx, ids[1]))
	assert.ErrorIs(t, s.Delete(ctx, ids[1]), ErrNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStore_PersistRejectsUnknownMode(t *testing.T) {
	s := newTestStore(t)
	err := s.Persist(context.Background(), stepform.Submission{Mode: "archive"})
	assert.Error(t, err)
}

func TestStore_SurvivesReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()

	s, err := NewStore(dsn)
	require.NoError(t, err)
	id, err := s.Create(ctx, stepform.Payload{"nombre": "Ana"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(dsn)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Values["nombre"])
}

// A member created through the wizard and later edited keeps its password.
func TestStore_MemberWizardRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, err := stepform.NewWizard(member.Schema(), s, stepform.WithDebounce(time.Hour))
	require.NoError(t, err)

	require.NoError(t, w.Open(stepform.ModeCreate, nil))
	require.NoError(t, w.SetFieldValue(member.FieldNombre, "Ana García"))
	require.True(t, w.AdvanceStep())
	require.NoError(t, w.SetFieldValue(member.FieldEmail, "ana@x.com"))
	require.True(t, w.AdvanceStep())
	require.True(t, w.AdvanceStep())
	require.NoError(t, w.SetFieldValue(member.FieldPassword, "abc123"))
	require.NoError(t, w.SetFieldValue(member.FieldConfirmPassword, "abc123"))
	ok, err := w.Submit(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	stored := list[0]
	assert.Equal(t, "abc123", stored.Values[member.FieldPassword])

	require.NoError(t, w.Open(stepform.ModeEdit, &stored.Record))
	require.NoError(t, w.SetFieldValue(member.FieldNombre, "Ana María García"))
	require.True(t, w.AdvanceStep())
	require.True(t, w.AdvanceStep())
	ok, err = w.Submit(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María García", got.Values[member.FieldNombre])
	assert.Equal(t, "abc123", got.Values[member.FieldPassword])
	assert.NotContains(t, got.Values, member.FieldConfirmPassword)
}
