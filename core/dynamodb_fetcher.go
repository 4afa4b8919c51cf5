package core

import (
	"context"
	"fmt"
	"strings"

	"xlreport/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBClient defines the interface needed for scanning.
type DynamoDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBDataFetcher implements DataFetcher using AWS DynamoDB.
type DynamoDBDataFetcher struct {
	Client DynamoDBClient
}

// NewDynamoDBDataFetcher creates a new fetcher with the given AWS config.
func NewDynamoDBDataFetcher(cfg aws.Config) *DynamoDBDataFetcher {
	return &DynamoDBDataFetcher{
		Client: dynamodb.NewFromConfig(cfg),
	}
}

// Fetch scans the whole DynamoDB table. Configured columns become a
// projection and fix the column order; otherwise columns are the sorted
// union of item attributes.
func (f *DynamoDBDataFetcher) Fetch(ctx context.Context, table *config.TableConfig) (*Table, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(table.Table),
	}
	if len(table.Columns) > 0 {
		// #c placeholders avoid reserved word conflicts
		names := make(map[string]string, len(table.Columns))
		refs := make([]string, len(table.Columns))
		for i, c := range table.Columns {
			ref := fmt.Sprintf("#c%d", i)
			names[ref] = c
			refs[i] = ref
		}
		input.ProjectionExpression = aws.String(strings.Join(refs, ", "))
		input.ExpressionAttributeNames = names
	}

	paginator := dynamodb.NewScanPaginator(f.Client, input)
	var items []map[string]any

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", table.Table, err)
		}

		var pageItems []map[string]any
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		items = append(items, pageItems...)
	}

	return NewTableFromMaps(table.Name, table.Columns, items), nil
}
