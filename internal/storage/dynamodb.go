package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config Config
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg Config, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == ModeDynamoLocal {
		// Build the client directly: LoadDefaultConfig probes the EC2 IMDS
		// endpoint, which hangs on EC2 hosts when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger.With().Str("component", "dynamodb_store").Logger(),
	}

	if cfg.Mode == ModeDynamoLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Str("table", cfg.RolesTable).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) ListRoleAssignments(ctx context.Context) ([]types.RoleAssignment, error) {
	var all []types.RoleAssignment
	for _, role := range []types.Role{types.RoleAdmin, types.RoleUser} {
		keyCond := expression.Key(rolesPartitionKey).Equal(expression.Value(string(role)))
		expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}

		paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.RolesTable),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to query %s assignments: %w", role, err)
			}
			var items []types.RoleAssignment
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
				return nil, fmt.Errorf("failed to unmarshal role assignments: %w", err)
			}
			all = append(all, items...)
		}
	}
	return all, nil
}

func (s *DynamoDBStore) PutRoleAssignment(ctx context.Context, a types.RoleAssignment) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("failed to marshal role assignment: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.RolesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save role assignment: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) DeleteRoleAssignment(ctx context.Context, a types.RoleAssignment) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.RolesTable),
		Key:       assignmentKey(a),
	})
	if err != nil {
		return fmt.Errorf("failed to delete role assignment: %w", err)
	}
	return nil
}

// ReplaceRoleAssignments truncates the table (scan + batch delete) and then
// batch writes all
func (s *DynamoDBStore) ReplaceRoleAssignments(ctx context.Context, all []types.RoleAssignment) error {
	if err := s.truncateTable(ctx); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", s.config.RolesTable, err)
	}

	for i := 0; i < len(all); i += 25 {
		end := i + 25
		if end > len(all) {
			end = len(all)
		}

		requests := make([]dbtypes.WriteRequest, 0, end-i)
		for _, a := range all[i:end] {
			item, err := attributevalue.MarshalMap(a)
			if err != nil {
				return fmt.Errorf("failed to marshal role assignment: %w", err)
			}
			requests = append(requests, dbtypes.WriteRequest{
				PutRequest: &dbtypes.PutRequest{Item: item},
			})
		}

		if err := writeBatch(ctx, s.client, s.config.RolesTable, requests, batchRetryBackoff); err != nil {
			return fmt.Errorf("failed to write role assignments: %w", err)
		}
	}
	return nil
}

func (s *DynamoDBStore) Close() error {
	return nil
}

func (s *DynamoDBStore) truncateTable(ctx context.Context) error {
	var lastKey map[string]dbtypes.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:            aws.String(s.config.RolesTable),
			ProjectionExpression: aws.String("#pk, #sk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": rolesPartitionKey,
				"#sk": rolesSortKey,
			},
			Limit: aws.Int32(500),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return err
		}

		// Batch delete in groups of 25
		for i := 0; i < len(result.Items); i += 25 {
			end := i + 25
			if end > len(result.Items) {
				end = len(result.Items)
			}

			requests := make([]dbtypes.WriteRequest, 0, end-i)
			for _, item := range result.Items[i:end] {
				requests = append(requests, dbtypes.WriteRequest{
					DeleteRequest: &dbtypes.DeleteRequest{
						Key: map[string]dbtypes.AttributeValue{
							rolesPartitionKey: item[rolesPartitionKey],
							rolesSortKey:      item[rolesSortKey],
						},
					},
				})
			}

			if err := writeBatch(ctx, s.client, s.config.RolesTable, requests, batchRetryBackoff); err != nil {
				return err
			}
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	s.logger.Info().Str("table", s.config.RolesTable).Msg("table truncated")
	return nil
}

const (
	maxBatchAttempts  = 5
	batchRetryBackoff = 50 * time.Millisecond
)

type batchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// writeBatch sends requests and resends whatever DynamoDB reports as
// unprocessed, doubling backoff between attempts
func writeBatch(ctx context.Context, client batchWriter, table string, requests []dbtypes.WriteRequest, backoff time.Duration) error {
	pending := requests
	for attempt := 1; len(pending) > 0; attempt++ {
		out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]dbtypes.WriteRequest{table: pending},
		})
		if err != nil {
			return err
		}
		pending = out.UnprocessedItems[table]
		if len(pending) == 0 {
			return nil
		}
		if attempt == maxBatchAttempts {
			return fmt.Errorf("%d items still unprocessed after %d attempts", len(pending), attempt)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil
}

func assignmentKey(a types.RoleAssignment) map[string]dbtypes.AttributeValue {
	return map[string]dbtypes.AttributeValue{
		rolesPartitionKey: &dbtypes.AttributeValueMemberS{Value: string(a.Role)},
		rolesSortKey:      &dbtypes.AttributeValueMemberS{Value: a.Email},
	}
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Mode {
	case ModeDynamoLocal, ModeDynamoAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	case ModeSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath, logger)
	default:
		logger.Info().Msg("role persistence disabled (STORE_MODE=none)")
		return NewNoopStore(), nil
	}
}
