package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator(t *testing.T) {
	v, err := NewJWTValidator("s3cret", "ideabox")
	require.NoError(t, err)
	other, err := NewJWTValidator("other", "ideabox")
	require.NoError(t, err)

	valid, err := v.Sign("alice", []string{"admin"}, time.Hour)
	require.NoError(t, err)
	expired, err := v.Sign("alice", nil, -time.Minute)
	require.NoError(t, err)
	forged, err := other.Sign("alice", []string{"admin"}, time.Hour)
	require.NoError(t, err)
	nameOnly, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": "bob", "roles": "moderator,unknown", "iss": "ideabox",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		wantErr   error
		wantUser  string
		wantRoles RoleClaim
	}{
		{name: "valid", token: "Bearer " + valid, wantUser: "alice", wantRoles: RoleClaim{"admin"}},
		{name: "name claim and joined roles", token: nameOnly, wantUser: "bob", wantRoles: RoleClaim{"moderator", "unknown"}},
		{name: "empty", token: "", wantErr: ErrMissingToken},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "wrong key", token: forged, wantErr: ErrInvalidSignature},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.ValidateToken(tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, claims.UserID())
			assert.Equal(t, tt.wantRoles, claims.Roles)
		})
	}
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator("", "")
	assert.Error(t, err)
}

func TestTokenBucketLimiter(t *testing.T) {
	// Arrange
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	l := NewTokenBucketLimiter(60, 2)
	defer l.Close()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	// Act / Assert
	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "alice")
	assert.False(t, ok, "burst spent")

	ok, _ = l.Allow(ctx, "bob")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Second)
	ok, _ = l.Allow(ctx, "alice")
	assert.True(t, ok, "one token per second refills")

	now = now.Add(2 * time.Hour)
	l.evictIdle(time.Hour)
	assert.Empty(t, l.buckets)
}

type fakeCounter struct {
	err   error
	input *dynamodb.UpdateItemInput
}

func (f *fakeCounter) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.input = in
	return &dynamodb.UpdateItemOutput{}, f.err
}

func TestDistributedRateLimiter(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		allowed bool
		wantErr bool
	}{
		{name: "under limit", allowed: true},
		{name: "at limit", err: &types.ConditionalCheckFailedException{}, allowed: false},
		{name: "store down fails open", err: errors.New("timeout"), allowed: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCounter{err: tt.err}
			l := NewDistributedRateLimiter(store, "ideabox", 10, time.Minute)
			l.now = func() time.Time { return time.Unix(1_800_000_030, 0) }

			ok, err := l.Allow(context.Background(), "alice")

			assert.Equal(t, tt.allowed, ok)
			assert.Equal(t, tt.wantErr, err != nil)
			pk := store.input.Key["PK"].(*types.AttributeValueMemberS).Value
			assert.Equal(t, "RATELIMIT#alice#1800000000", pk)
		})
	}
}
