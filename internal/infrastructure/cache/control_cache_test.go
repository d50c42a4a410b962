package cache

import (
	"context"
	"testing"
	"time"

	appcustomer "github.com/customers/backend/internal/application/customer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisControlCache_StagesUntilCommit(t *testing.T) {
	mr, client := newTestRedis(t)
	factory := NewRedisControlCache(client, "")
	ctx := context.Background()

	session := factory.NewSession()
	require.NoError(t, session.Set(ctx, "ada@example.com", "processing", time.Minute))

	assert.False(t, mr.Exists("customer:control:ada@example.com"), "set must wait for commit")
	held, err := session.Exists(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.False(t, held)

	require.NoError(t, session.Commit(ctx))

	got, err := mr.Get("customer:control:ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "processing", got)
	assert.Equal(t, time.Minute, mr.TTL("customer:control:ada@example.com"))

	val, found, err := factory.NewSession().Get(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "processing", val)
}

func TestRedisControlCache_RollbackDiscards(t *testing.T) {
	mr, client := newTestRedis(t)
	factory := NewRedisControlCache(client, "ctl:")
	ctx := context.Background()

	session := factory.NewSession()
	require.NoError(t, session.Set(ctx, "a@example.com", "processing", time.Minute))
	require.NoError(t, session.Rollback(ctx))
	require.NoError(t, session.Commit(ctx))

	assert.Empty(t, mr.Keys())
}

func TestRedisControlCache_DeleteAndExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	factory := NewRedisControlCache(client, "")
	ctx := context.Background()

	require.NoError(t, mr.Set("customer:control:gone@example.com", "processing"))
	require.NoError(t, mr.Set("customer:control:short@example.com", "processing"))
	mr.SetTTL("customer:control:short@example.com", time.Second)

	session := factory.NewSession()
	require.NoError(t, session.Delete(ctx, "gone@example.com"))
	assert.True(t, mr.Exists("customer:control:gone@example.com"))
	require.NoError(t, session.Commit(ctx))
	assert.False(t, mr.Exists("customer:control:gone@example.com"))

	mr.FastForward(2 * time.Second)
	_, found, err := factory.NewSession().Get(ctx, "short@example.com")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisControlCache_ReportsConnectionErrors(t *testing.T) {
	mr, client := newTestRedis(t)
	session := NewRedisControlCache(client, "").NewSession()
	ctx := context.Background()
	mr.Close()

	_, err := session.Exists(ctx, "x@example.com")
	assert.ErrorContains(t, err, "check control key")

	require.NoError(t, session.Set(ctx, "x@example.com", "processing", time.Minute))
	assert.ErrorContains(t, session.Commit(ctx), "commit control keys")
}

func TestInMemoryControlCache(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		steps func(t *testing.T, c *InMemoryControlCache)
		want  map[string]bool
	}{
		{
			name: "commit applies staged writes",
			steps: func(t *testing.T, c *InMemoryControlCache) {
				s := c.NewSession()
				require.NoError(t, s.Set(ctx, "a", "processing", time.Minute))
				require.NoError(t, s.Commit(ctx))
			},
			want: map[string]bool{"a": true},
		},
		{
			name: "rollback drops staged writes",
			steps: func(t *testing.T, c *InMemoryControlCache) {
				s := c.NewSession()
				require.NoError(t, s.Set(ctx, "a", "processing", time.Minute))
				require.NoError(t, s.Rollback(ctx))
				require.NoError(t, s.Commit(ctx))
			},
			want: map[string]bool{"a": false},
		},
		{
			name: "delete removes committed key",
			steps: func(t *testing.T, c *InMemoryControlCache) {
				s := c.NewSession()
				require.NoError(t, s.Set(ctx, "a", "processing", time.Minute))
				require.NoError(t, s.Set(ctx, "b", "processing", time.Minute))
				require.NoError(t, s.Commit(ctx))

				s = c.NewSession()
				require.NoError(t, s.Delete(ctx, "a"))
				require.NoError(t, s.Commit(ctx))
			},
			want: map[string]bool{"a": false, "b": true},
		},
		{
			name: "expired keys are absent",
			steps: func(t *testing.T, c *InMemoryControlCache) {
				s := c.NewSession()
				require.NoError(t, s.Set(ctx, "a", "processing", time.Second))
				require.NoError(t, s.Commit(ctx))
				now := time.Now().Add(time.Hour)
				c.now = func() time.Time { return now }
			},
			want: map[string]bool{"a": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewInMemoryControlCache()
			tt.steps(t, c)

			live := 0
			for key, want := range tt.want {
				held, err := c.NewSession().Exists(ctx, key)
				require.NoError(t, err)
				assert.Equal(t, want, held, key)
				if want {
					live++
				}
			}
			assert.Equal(t, live, c.Len())
		})
	}
}

func TestControlCaches_DriveCacheCheckHandler(t *testing.T) {
	_, client := newTestRedis(t)
	factories := map[string]appcustomer.CacheSessionFactory{
		"redis":  NewRedisControlCache(client, ""),
		"memory": NewInMemoryControlCache(),
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			req := appcustomer.CreateCustomerRequest{Name: "Ada", Email: "ada@example.com"}

			first := factory.NewSession()
			_, err := appcustomer.NewCacheCheckHandler(first, time.Minute).
				Handle(ctx, &appcustomer.RegistrationContext{Request: req})
			require.NoError(t, err)
			require.NoError(t, first.Commit(ctx))

			second := factory.NewSession()
			_, err = appcustomer.NewCacheCheckHandler(second, time.Minute).
				Handle(ctx, &appcustomer.RegistrationContext{Request: req})
			assert.ErrorContains(t, err, "already exists")
		})
	}
}
