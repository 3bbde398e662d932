package descache

import (
	"context"
	"os"
	"testing"
	"time"

	"cardtracker/internal/collection"
	"cardtracker/internal/memstore"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	*memstore.Store
	descriptorCalls int
	setCalls        int
}

func (s *countingSource) ItemDescriptors(ctx context.Context, ids []string) (map[string]collection.ItemDescriptor, error) {
	s.descriptorCalls++
	return s.Store.ItemDescriptors(ctx, ids)
}

func (s *countingSource) SetReference(ctx context.Context, id string) (collection.SetReference, bool, error) {
	s.setCalls++
	return s.Store.SetReference(ctx, id)
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis tests")
	}
	rdb, err := Dial(context.Background(), addr, "")
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestItemDescriptors_ReadThrough(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	src := &countingSource{Store: memstore.New()}
	src.PutDescriptor(collection.ItemDescriptor{ItemID: "t-sv1-025", DisplayName: "Pikachu", CategoryTags: []string{"lightning"}})
	c := New(src, rdb, time.Minute, nil)
	require.NoError(t, c.Invalidate(ctx, []string{"t-sv1-025", "t-sv1-999"}, nil))

	got, err := c.ItemDescriptors(ctx, []string{"t-sv1-025", "t-sv1-999"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "Pikachu", got["t-sv1-025"].DisplayName)
	assert.Equal(t, 1, src.descriptorCalls)

	got, err = c.ItemDescriptors(ctx, []string{"t-sv1-025"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lightning"}, got["t-sv1-025"].CategoryTags)
	assert.Equal(t, 1, src.descriptorCalls, "second lookup is served from redis")
}

func TestSetReference_ReadThrough(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	src := &countingSource{Store: memstore.New()}
	src.PutSet(collection.SetReference{SetID: "t-sv1", DisplayName: "Scarlet & Violet", TotalItemCount: 198})
	c := New(src, rdb, time.Minute, nil)
	require.NoError(t, c.Invalidate(ctx, nil, []string{"t-sv1", "t-none"}))

	for i := 0; i < 2; i++ {
		ref, ok, err := c.SetReference(ctx, "t-sv1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 198, ref.TotalItemCount)
	}
	assert.Equal(t, 1, src.setCalls)

	_, ok, err := c.SetReference(ctx, "t-none")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnreachableRedisFallsBack(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	src := &countingSource{Store: memstore.New()}
	src.PutDescriptor(collection.ItemDescriptor{ItemID: "sv1-001", DisplayName: "Sprigatito"})
	src.PutSet(collection.SetReference{SetID: "sv1", TotalItemCount: 198})
	c := New(src, rdb, time.Minute, nil)
	ctx := context.Background()

	got, err := c.ItemDescriptors(ctx, []string{"sv1-001"})
	require.NoError(t, err)
	assert.Equal(t, "Sprigatito", got["sv1-001"].DisplayName)

	ref, ok, err := c.SetReference(ctx, "sv1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 198, ref.TotalItemCount)
}
