package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	connectionTTL       = 24 * time.Hour
	connectionUserIndex = "UserIndex"
)

// Connection is one open websocket connection.
type Connection struct {
	PK           string `dynamodbav:"PK"` // CONNECTION#<id>
	SK           string `dynamodbav:"SK"` // METADATA
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	UserPK       string `dynamodbav:"UserPK"` // USER#<id>
	Endpoint     string `dynamodbav:"Endpoint"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	TTL          int64  `dynamodbav:"TTL"`
}

// ConnectionStore tracks websocket connections per user.
type ConnectionStore struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

func NewConnectionStore(client Client, tableName string, logger *zap.Logger) *ConnectionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionStore{client: client, tableName: tableName, logger: logger}
}

// Save registers a connection; it expires after a day.
func (s *ConnectionStore) Save(ctx context.Context, connectionID, userID, endpoint string, at time.Time) error {
	item, err := attributevalue.MarshalMap(Connection{
		PK:           connectionPK(connectionID),
		SK:           "METADATA",
		ConnectionID: connectionID,
		UserID:       userID,
		UserPK:       "USER#" + userID,
		Endpoint:     endpoint,
		ConnectedAt:  at.UTC().Format(time.RFC3339),
		TTL:          at.Add(connectionTTL).Unix(),
	})
	if err != nil {
		return storageError("marshal connection", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return storageError("save connection", err)
	}
	s.logger.Debug("Stored connection", zap.String("connectionID", connectionID), zap.String("userID", userID))
	return nil
}

// ForUser lists the open connections of one user.
func (s *ConnectionStore) ForUser(ctx context.Context, userID string) ([]Connection, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("UserPK").Equal(expression.Value("USER#" + userID))).
		Build()
	if err != nil {
		return nil, storageError("build connection query", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(connectionUserIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var out []Connection
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storageError("query connections", err)
		}
		var conns []Connection
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &conns); err != nil {
			return nil, storageError("unmarshal connections", err)
		}
		out = append(out, conns...)
	}
	return out, nil
}

// Delete drops a connection. Deleting an unknown connection is not an error.
func (s *ConnectionStore) Delete(ctx context.Context, connectionID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: connectionPK(connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return storageError("delete connection", err)
	}
	return nil
}

func connectionPK(id string) string {
	return "CONNECTION#" + id
}
