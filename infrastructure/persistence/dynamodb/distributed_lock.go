package dynamodb

import (
	"context"
	"sync"
	"time"

	pkgerrors "ideabox/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLockLease   = 10 * time.Second
	defaultLockWait    = 3 * time.Second
	lockReleaseTimeout = 2 * time.Second
)

// DistributedLock serializes title checks across instances using conditional
// writes on a lock table. An expired lease may be taken over.
type DistributedLock struct {
	client    Client
	tableName string
	owner     string
	lease     time.Duration
	wait      time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// LockRecord represents a lock record in DynamoDB
type LockRecord struct {
	PK         string `dynamodbav:"PK"` // LOCK#<key>
	SK         string `dynamodbav:"SK"` // LOCK
	LockID     string `dynamodbav:"LockID"`
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// NewDistributedLock creates a lock bound to one table. Every instance gets
// its own owner id.
func NewDistributedLock(client Client, tableName string, logger *zap.Logger) *DistributedLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		owner:     uuid.NewString(),
		lease:     defaultLockLease,
		wait:      defaultLockWait,
		now:       time.Now,
		logger:    logger,
	}
}

// WithTimings overrides the lease length and the maximum wait.
func (dl *DistributedLock) WithTimings(lease, wait time.Duration) *DistributedLock {
	dl.lease = lease
	dl.wait = wait
	return dl
}

// Acquire retries until key is free, the wait runs out, or ctx is done.
// Running out of wait is a LockNotAcquired conflict.
func (dl *DistributedLock) Acquire(ctx context.Context, key string) (func(), error) {
	deadline := dl.now().Add(dl.wait)
	retryInterval := 50 * time.Millisecond

	for {
		lockID, err := dl.tryAcquire(ctx, key)
		if err == nil {
			return dl.releaser(key, lockID), nil
		}
		if !pkgerrors.HasCode(err, pkgerrors.CodeLockNotAcquired) {
			return nil, err
		}
		if !dl.now().Before(deadline) {
			dl.logger.Debug("Lock wait exhausted", zap.String("key", key))
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
			if retryInterval < 500*time.Millisecond {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

func (dl *DistributedLock) tryAcquire(ctx context.Context, key string) (string, error) {
	now := dl.now().UTC()
	expiresAt := now.Add(dl.lease)
	lockID := uuid.NewString()

	item, err := attributevalue.MarshalMap(LockRecord{
		PK:         lockPK(key),
		SK:         "LOCK",
		LockID:     lockID,
		Owner:      dl.owner,
		AcquiredAt: now.Format(time.RFC3339Nano),
		ExpiresAt:  expiresAt.UnixMilli(),
		TTL:        expiresAt.Add(time.Hour).Unix(),
	})
	if err != nil {
		return "", storageError("marshal lock", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.UnixMilli())))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return "", storageError("build lock condition", err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(dl.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return "", pkgerrors.NewLockNotAcquiredError(key)
		}
		return "", storageError("acquire lock", err)
	}

	dl.logger.Debug("Lock acquired", zap.String("key", key), zap.String("lockID", lockID))
	return lockID, nil
}

// releaser deletes the lock only if it still carries our lock id. Release
// runs detached from the request context so a cancelled request still frees it.
func (dl *DistributedLock) releaser(key, lockID string) func() {
	var once sync.Once
	return func() { once.Do(func() { dl.release(key, lockID) }) }
}

func (dl *DistributedLock) release(key, lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
	defer cancel()

	cond := expression.Name("LockID").Equal(expression.Value(lockID))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		dl.logger.Warn("Failed to build release condition", zap.String("key", key), zap.Error(err))
		return
	}

	_, err = dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPK(key)},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	switch {
	case err == nil:
		dl.logger.Debug("Lock released", zap.String("key", key))
	case isConditionFailed(err):
		// lease expired and someone else holds it now
		dl.logger.Warn("Lock already taken over", zap.String("key", key), zap.String("lockID", lockID))
	default:
		dl.logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
	}
}

func lockPK(key string) string {
	return "LOCK#" + key
}
