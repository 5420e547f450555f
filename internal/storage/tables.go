package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

const (
	rolesPartitionKey = "Role"
	rolesSortKey      = "Email"
)

// CreateTablesIfNotExist creates the role assignment table for local development
func CreateTablesIfNotExist(ctx context.Context, client *dynamodb.Client, config Config, logger zerolog.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(config.RolesTable),
	})
	if err == nil {
		logger.Info().Str("table", config.RolesTable).Msg("table already exists")
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(config.RolesTable),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String(rolesPartitionKey), KeyType: dbtypes.KeyTypeHash},
			{AttributeName: aws.String(rolesSortKey), KeyType: dbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String(rolesPartitionKey), AttributeType: dbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String(rolesSortKey), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", config.RolesTable, err)
	}
	logger.Info().Str("table", config.RolesTable).Msg("table created")
	return nil
}
