package dynamodb

import (
	"context"
	"errors"
	"sync"
	"time"

	"ideabox/domain/config"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/listing"
	"ideabox/domain/core/valueobjects"
	pkgerrors "ideabox/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errUnprocessedKeys = errors.New("unprocessed keys remain after retries")

const (
	batchGetLimit      = 100
	batchGetMaxRetries = 5
	batchGetFanOut     = 4
)

// IdeaRepository stores each idea as one item. Saves are conditional on the
// stored Version, so concurrent writers cannot overwrite each other.
type IdeaRepository struct {
	client      Client
	tableName   string
	activeIndex string
	logger      *zap.Logger
}

// NewIdeaRepository creates a DynamoDB idea repository. activeIndex names
// the sparse GSI keyed by ActivePK/ActiveSK.
func NewIdeaRepository(client Client, tableName, activeIndex string, logger *zap.Logger) *IdeaRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdeaRepository{
		client:      client,
		tableName:   tableName,
		activeIndex: activeIndex,
		logger:      logger,
	}
}

// Load returns the idea whether or not it is tombstoned.
func (r *IdeaRepository) Load(ctx context.Context, id valueobjects.IdeaID) (*aggregates.Idea, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            ideaKey(id.String()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageError("load idea", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewIdeaNotFoundError(id.String())
	}

	var item ideaItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, storageError("unmarshal idea", err)
	}
	return item.toIdea()
}

// Save puts the whole item when the stored Version equals the version the
// aggregate was loaded at. A new idea must not exist yet.
func (r *IdeaRepository) Save(ctx context.Context, idea *aggregates.Idea) error {
	item, err := attributevalue.MarshalMap(toIdeaItem(idea))
	if err != nil {
		return storageError("marshal idea", err)
	}

	cond := expression.Name("Version").Equal(expression.Value(idea.PersistedVersion()))
	if idea.IsNew() {
		cond = expression.AttributeNotExists(expression.Name("PK"))
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return storageError("build save condition", err)
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
			r.logger.Debug("Stale idea version rejected",
				zap.String("ideaID", idea.ID().String()),
				zap.Int("persistedVersion", idea.PersistedVersion()),
			)
			return pkgerrors.NewVersionConflictError(idea.ID().String(), idea.PersistedVersion())
		}
		return storageError("save idea", err)
	}
	return nil
}

// LoadMany fetches ideas in BatchGetItem chunks, a few chunks at a time.
// Unknown ids are skipped; the result follows the order of ids.
func (r *IdeaRepository) LoadMany(ctx context.Context, ids []valueobjects.IdeaID) ([]*aggregates.Idea, error) {
	if len(ids) == 0 {
		return []*aggregates.Idea{}, nil
	}

	var (
		mu    sync.Mutex
		found = make(map[string]*aggregates.Idea, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchGetFanOut)

	for _, chunk := range chunkIDs(uniqueIDs(ids), batchGetLimit) {
		chunk := chunk
		g.Go(func() error {
			ideas, err := r.batchGet(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, idea := range ideas {
				found[idea.ID().String()] = idea
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*aggregates.Idea, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, id := range ids {
		key := id.String()
		if idea, ok := found[key]; ok && !seen[key] {
			out = append(out, idea)
			seen[key] = true
		}
	}
	return out, nil
}

func (r *IdeaRepository) batchGet(ctx context.Context, ids []string) ([]*aggregates.Idea, error) {
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ideaKey(id))
	}
	request := map[string]types.KeysAndAttributes{
		r.tableName: {Keys: keys, ConsistentRead: aws.Bool(true)},
	}

	var ideas []*aggregates.Idea
	backoff := 50 * time.Millisecond
	for attempt := 0; len(request) > 0; attempt++ {
		if attempt > batchGetMaxRetries {
			return nil, pkgerrors.NewStorageError("load ideas", errUnprocessedKeys).
				WithDetail("unprocessed", len(request[r.tableName].Keys))
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, storageError("load ideas", err)
		}
		for _, raw := range out.Responses[r.tableName] {
			var item ideaItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, storageError("unmarshal idea", err)
			}
			idea, err := item.toIdea()
			if err != nil {
				return nil, err
			}
			ideas = append(ideas, idea)
		}
		request = out.UnprocessedKeys
	}
	return ideas, nil
}

// ListActive queries the active index newest first. The favourites filter
// and contains-search run server side; listing.Apply settles the rest.
func (r *IdeaRepository) ListActive(ctx context.Context, filter listing.Filter, order listing.SortOrder) ([]*aggregates.Idea, error) {
	items, err := r.queryActive(ctx, filter, nil)
	if err != nil {
		return nil, err
	}

	ideas := make([]*aggregates.Idea, 0, len(items))
	for _, raw := range items {
		var item ideaItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, storageError("unmarshal idea", err)
		}
		idea, err := item.toIdea()
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	return listing.Apply(ideas, filter, order), nil
}

// ActiveTitles projects only the folded titles of active ideas.
func (r *IdeaRepository) ActiveTitles(ctx context.Context) ([]string, error) {
	projection := expression.NamesList(expression.Name("TitleFolded"))
	items, err := r.queryActive(ctx, listing.Filter{}, &projection)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(items))
	for _, raw := range items {
		var row struct {
			TitleFolded string `dynamodbav:"TitleFolded"`
		}
		if err := attributevalue.UnmarshalMap(raw, &row); err != nil {
			return nil, storageError("unmarshal title", err)
		}
		titles = append(titles, row.TitleFolded)
	}
	return titles, nil
}

// LoadHistory reads only the journal attribute.
func (r *IdeaRepository) LoadHistory(ctx context.Context, id valueobjects.IdeaID) ([]entities.HistoryEntry, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name("ID"), expression.Name("History"))).
		Build()
	if err != nil {
		return nil, storageError("build history projection", err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      ideaKey(id.String()),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return nil, storageError("load history", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewIdeaNotFoundError(id.String())
	}

	var row struct {
		History []historyRecord `dynamodbav:"History"`
	}
	if err := attributevalue.UnmarshalMap(out.Item, &row); err != nil {
		return nil, storageError("unmarshal history", err)
	}
	return historyFromRecords(row.History), nil
}

func (r *IdeaRepository) queryActive(ctx context.Context, filter listing.Filter, projection *expression.ProjectionBuilder) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("ActivePK").Equal(expression.Value(activePKValue))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if f, ok := activeFilter(filter); ok {
		builder = builder.WithFilter(f)
	}
	if projection != nil {
		builder = builder.WithProjection(*projection)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, storageError("build active query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.activeIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storageError("query active ideas", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// activeFilter translates what DynamoDB can evaluate. Suffix search has no
// server-side operator and is left to listing.Apply.
func activeFilter(filter listing.Filter) (expression.ConditionBuilder, bool) {
	var conds []expression.ConditionBuilder
	if filter.IsFavourites() {
		conds = append(conds, expression.Contains(expression.Name("Voters"), filter.FavouritesOf))
	}
	if s := filter.NormalizedSearch(); s != "" && filter.SearchMode != config.TitleMatchSuffix {
		conds = append(conds, expression.Contains(expression.Name("TitleFolded"), s))
	}

	switch len(conds) {
	case 0:
		return expression.ConditionBuilder{}, false
	case 1:
		return conds[0], true
	default:
		return expression.And(conds[0], conds[1], conds[2:]...), true
	}
}

func ideaKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: ideaPK(id)},
		"SK": &types.AttributeValueMemberS{Value: ideaSK},
	}
}

func uniqueIDs(ids []valueobjects.IdeaID) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if s := id.String(); !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
