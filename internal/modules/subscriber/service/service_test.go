package service

import (
	"context"
	"errors"
	"testing"

	"github.com/reshetovitsme/modwatch/internal/modules/subscriber/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	subs map[int64]domain.Subscriber
	err  error
}

func (m *memoryRepo) Save(_ context.Context, sub *domain.Subscriber) error {
	m.subs[sub.ChatID] = *sub
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, chatID int64) (bool, error) {
	_, ok := m.subs[chatID]
	delete(m.subs, chatID)
	return ok, nil
}

func (m *memoryRepo) All(_ context.Context) ([]domain.Subscriber, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Subscriber
	for _, s := range m.subs {
		out = append(out, s)
	}
	return out, nil
}

func TestChatIDs(t *testing.T) {
	repo := &memoryRepo{subs: map[int64]domain.Subscriber{}}
	svc := New(repo)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, 7, "alice"))
	require.NoError(t, svc.Subscribe(ctx, 9, "bob"))

	ids, err := svc.ChatIDs(ctx, 0, 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{7, 9}, ids)

	removed, err := svc.Unsubscribe(ctx, 9)
	require.NoError(t, err)
	assert.True(t, removed)

	repo.err = errors.New("locked")
	_, err = svc.ChatIDs(ctx)
	assert.Error(t, err)
}

func TestIsAuthorized(t *testing.T) {
	svc := New(&memoryRepo{})

	assert.True(t, svc.IsAuthorized(1, nil))
	assert.True(t, svc.IsAuthorized(1, []int64{1, 2}))
	assert.False(t, svc.IsAuthorized(3, []int64{1, 2}))
}
