package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, client redis.Scripter, config RateLimiterConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(client, config, zaptest.NewLogger(t))
	rl.now = clock.Now
	return rl, clock
}

// mockHandler is a simple handler that returns a fixed response
func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

func peerContext(ip string) context.Context {
	addr, _ := net.ResolveTCPAddr("tcp", ip)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: addr})
}

var listInfo = &grpc.UnaryServerInfo{FullMethod: "/users.v1.UsersService/ListUsers"}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 10, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, listInfo, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 5, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	// Burst capacity is available immediately
	for i := 0; i < 5; i++ {
		_, err := interceptor(ctx, nil, listInfo, mockHandler)
		require.NoError(t, err)
	}

	resp, err := interceptor(ctx, nil, listInfo, mockHandler)
	require.Error(t, err)
	assert.Nil(t, resp)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Contains(t, st.Message(), "rate limit exceeded")
}

func TestRateLimiter_Refill(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, clock := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := rl.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Half a second buys one token at 2 req/s
	clock.Advance(500 * time.Millisecond)
	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Refill never exceeds the burst capacity
	clock.Advance(time.Minute)
	for i := 0; i < 2; i++ {
		allowed, err = rl.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: false})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	for i := 0; i < 10; i++ {
		resp, err := interceptor(ctx, nil, listInfo, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_NilIsDisabled(t *testing.T) {
	var rl *RateLimiter
	assert.False(t, rl.Enabled())

	resp, err := rl.UnaryInterceptor()(context.Background(), nil, listInfo, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	mr.Close()

	for i := 0; i < 3; i++ {
		resp, err := interceptor(peerContext("127.0.0.1:12345"), nil, listInfo, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 2, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	ctx1 := peerContext("192.168.1.1:12345")
	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx1, nil, listInfo, mockHandler)
		require.NoError(t, err)
	}
	_, err := interceptor(ctx1, nil, listInfo, mockHandler)
	require.Error(t, err)

	// IP 2 has its own bucket
	resp, err := interceptor(peerContext("192.168.1.2:12345"), nil, listInfo, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	md := metadata.Pairs("x-forwarded-for", "203.0.113.1")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	_, err := interceptor(ctx, nil, listInfo, mockHandler)
	require.NoError(t, err)
	assert.True(t, mr.Exists(KeyPrefix+listInfo.FullMethod+":203.0.113.1"))
}

func TestRateLimiter_DifferentMethods(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	_, err := interceptor(ctx, nil, listInfo, mockHandler)
	require.NoError(t, err)
	_, err = interceptor(ctx, nil, listInfo, mockHandler)
	require.Error(t, err)

	createInfo := &grpc.UnaryServerInfo{FullMethod: "/users.v1.UsersService/CreateUsers"}
	resp, err := interceptor(ctx, nil, createInfo, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_BucketExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 4, Enabled: true})

	_, err := rl.Allow(context.Background(), "k")
	require.NoError(t, err)

	ttl := mr.TTL(KeyPrefix + "k")
	assert.Equal(t, 3*time.Second, ttl)

	mr.FastForward(4 * time.Second)
	assert.False(t, mr.Exists(KeyPrefix+"k"))
}
