package dynamodb

import (
	"context"

	"ideabox/domain/core/entities"
	pkgerrors "ideabox/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// StatusChoiceRepository keeps all status choices in one partition, sorted by code.
type StatusChoiceRepository struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

func NewStatusChoiceRepository(client Client, tableName string, logger *zap.Logger) *StatusChoiceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusChoiceRepository{client: client, tableName: tableName, logger: logger}
}

func (r *StatusChoiceRepository) List(ctx context.Context) ([]entities.StatusChoice, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(choicePK))).
		Build()
	if err != nil {
		return nil, storageError("build choice query", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	choices := []entities.StatusChoice{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storageError("list status choices", err)
		}
		var items []choiceItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, storageError("unmarshal status choices", err)
		}
		for _, item := range items {
			choices = append(choices, item.toChoice())
		}
	}
	return choices, nil
}

// Create writes a choice unless its code is already taken.
func (r *StatusChoiceRepository) Create(ctx context.Context, choice entities.StatusChoice) error {
	item, err := attributevalue.MarshalMap(toChoiceItem(choice))
	if err != nil {
		return storageError("marshal status choice", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return storageError("build choice condition", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return pkgerrors.NewStatusCodeTakenError(choice.Code)
		}
		return storageError("create status choice", err)
	}
	r.logger.Info("Status choice created", zap.String("code", choice.Code))
	return nil
}

// Seed writes the given choices, leaving existing codes untouched.
func (r *StatusChoiceRepository) Seed(ctx context.Context, choices []entities.StatusChoice) error {
	for _, c := range choices {
		if err := r.Create(ctx, c); err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeStatusCodeTaken) {
			return err
		}
	}
	return nil
}
