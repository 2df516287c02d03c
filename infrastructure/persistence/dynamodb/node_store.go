package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"nodetree/application/ports"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	pkgerrors "nodetree/pkg/errors"
)

const (
	entityTypeNode = "NODE"
	metadataSK     = "METADATA"
	rootParentKey  = "PARENT#ROOT"

	// Fixed width so that sort keys order chronologically
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// DBClient defines the DynamoDB operations the store needs, making it testable.
// *dynamodb.Client satisfies it.
type DBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// NodeStore implements ports.NodeStore on a single DynamoDB table.
//
// Each node is one item keyed by PK=NODE#<id>, SK=METADATA. A global
// secondary index on ParentKey/OrderKey serves child lookups in creation
// order; roots share the ParentKey PARENT#ROOT.
type NodeStore struct {
	client      DBClient
	tableName   string
	parentIndex string
	logger      *zap.Logger
	now         func() time.Time
}

// NewNodeStore creates a new DynamoDB backed store
func NewNodeStore(client DBClient, tableName, parentIndex string, logger *zap.Logger) *NodeStore {
	return &NodeStore{
		client:      client,
		tableName:   tableName,
		parentIndex: parentIndex,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// nodeItem represents the DynamoDB item structure for a node
type nodeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	NodeID     string `dynamodbav:"NodeID"`
	Name       string `dynamodbav:"Name"`
	ParentID   string `dynamodbav:"ParentID,omitempty"`
	ParentKey  string `dynamodbav:"ParentKey"`
	OrderKey   string `dynamodbav:"OrderKey"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func nodePK(id string) string {
	return "NODE#" + id
}

func parentKey(parent valueobjects.NodeID) string {
	if parent.IsZero() {
		return rootParentKey
	}
	return "PARENT#" + parent.String()
}

func nodeKey(id valueobjects.NodeID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: nodePK(id.String())},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

func (item nodeItem) toEntity() (*entities.Node, error) {
	createdAt, err := time.Parse(timeLayout, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt %q on node %s: %w", item.CreatedAt, item.NodeID, err)
	}
	id, err := valueobjects.NodeIDFromString(item.NodeID)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructNode(id, item.Name, valueobjects.OptionalNodeID(item.ParentID), createdAt)
}

// Create persists a new node with a generated id
func (s *NodeStore) Create(ctx context.Context, name string, parent valueobjects.NodeID) (*entities.Node, error) {
	id := valueobjects.NewNodeID()
	createdAt := s.now()
	stamp := createdAt.Format(timeLayout)

	item := nodeItem{
		PK:         nodePK(id.String()),
		SK:         metadataSK,
		EntityType: entityTypeNode,
		NodeID:     id.String(),
		Name:       name,
		ParentID:   parent.String(),
		ParentKey:  parentKey(parent),
		OrderKey:   stamp + "#" + id.String(),
		CreatedAt:  stamp,
	}

	node, err := item.toEntity()
	if err != nil {
		return nil, err
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("PutItem", err)
	}

	s.logger.Debug("Node saved to DynamoDB",
		zap.String("nodeID", id.String()),
		zap.String("parentKey", item.ParentKey),
	)

	return node, nil
}

// FindAll scans the table for node items and returns them in creation order
func (s *NodeStore) FindAll(ctx context.Context) ([]*entities.Node, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("EntityType").Equal(expression.Value(entityTypeNode))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var items []nodeItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("Scan", err)
		}
		var pageItems []nodeItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
		}
		items = append(items, pageItems...)
	}

	// Scan order is hash order
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].OrderKey < items[j].OrderKey
	})

	return s.toEntities(items)
}

// FindByID loads a single node
func (s *NodeStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       nodeKey(id),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("GetItem", err)
	}
	if len(out.Item) == 0 {
		return nil, ports.ErrNodeNotFound
	}

	var item nodeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return item.toEntity()
}

// FindChildren queries the parent index for direct children
func (s *NodeStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	keyCond := expression.Key("ParentKey").Equal(expression.Value(parentKey(parentID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.parentIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})

	var items []nodeItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("Query", err)
		}
		var pageItems []nodeItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal children: %w", err)
		}
		items = append(items, pageItems...)
	}

	return s.toEntities(items)
}

// DeleteByID removes a node item. Deleting a missing item succeeds.
func (s *NodeStore) DeleteByID(ctx context.Context, id valueobjects.NodeID) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       nodeKey(id),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("DeleteItem", err)
	}
	return nil
}

// Rename updates the Name attribute of an existing node
func (s *NodeStore) Rename(ctx context.Context, id valueobjects.NodeID, name string) (*entities.Node, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("Name"), expression.Value(name))).
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       nodeKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return nil, ports.ErrNodeNotFound
		}
		return nil, pkgerrors.NewDatabaseError("UpdateItem", err)
	}

	var item nodeItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return item.toEntity()
}

// Ping checks that the table is reachable
func (s *NodeStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("DescribeTable", err)
	}
	return nil
}

func (s *NodeStore) toEntities(items []nodeItem) ([]*entities.Node, error) {
	nodes := make([]*entities.Node, 0, len(items))
	for _, item := range items {
		node, err := item.toEntity()
		if err != nil {
			s.logger.Error("Malformed node item",
				zap.String("nodeID", item.NodeID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: item %q: %v", ports.ErrMalformedNode, item.PK, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

var (
	_ ports.NodeStore     = (*NodeStore)(nil)
	_ ports.HealthChecker = (*NodeStore)(nil)
)
