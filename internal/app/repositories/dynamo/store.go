// Package dynamo stores semester results and branch summaries in a single DynamoDB table.
//
// Layout:
//
//	PK = SEMESTER#<collection>  SK = ROLL#<roll>            student record
//	PK = SEMESTER#<collection>  SK = BRANCH_PERFORMANCE     branch summary
package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
)

const (
	rollPrefix           = "ROLL#"
	branchPerformanceKey = "BRANCH_PERFORMANCE"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// StudentItem is the DynamoDB record for one student in one semester.
type StudentItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	models.StudentRecord
}

// BranchPerformanceItem is the DynamoDB record for a semester's branch summary.
type BranchPerformanceItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	models.BranchPerformanceRecord
}

// Store handles DynamoDB operations for results.
type Store struct {
	client    API
	tableName string
}

// NewStore creates a DynamoDB store.
func NewStore(client API, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// NewClient builds a DynamoDB client from the default AWS credential chain.
// endpoint overrides the service URL, e.g. for DynamoDB Local.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func partitionKey(semester ingestion.Semester) string {
	return "SEMESTER#" + semester.Collection()
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// FindByRoll retrieves a student's record for a semester.
func (s *Store) FindByRoll(ctx context.Context, semester ingestion.Semester, roll string) (*models.StudentRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.tableName,
		Key:            key(partitionKey(semester), rollPrefix+roll),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get student %s: %w", roll, err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s in %s", apperrors.ErrStudentNotFound, roll, semester.Collection())
	}

	var item StudentItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal student item: %w", err)
	}
	rec := item.StudentRecord
	return &rec, nil
}

// Upsert writes the full record, replacing any previous item for the roll.
func (s *Store) Upsert(ctx context.Context, semester ingestion.Semester, record *models.StudentRecord) error {
	item := StudentItem{
		PK:            partitionKey(semester),
		SK:            rollPrefix + record.Roll,
		StudentRecord: *record,
	}
	if item.Subjects == nil {
		item.Subjects = []models.SubjectRecord{}
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal student item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &s.tableName, Item: av}); err != nil {
		return fmt.Errorf("put student item: %w", err)
	}
	return nil
}

// ListRolls returns every roll stored for a semester.
func (s *Store) ListRolls(ctx context.Context, semester ingestion.Semester) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: partitionKey(semester)},
			":prefix": &types.AttributeValueMemberS{Value: rollPrefix},
		},
		ProjectionExpression: aws.String("SK"),
	}

	rolls := []string{}
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list rolls: %w", err)
		}
		for _, it := range result.Items {
			if sk, ok := it["SK"].(*types.AttributeValueMemberS); ok {
				rolls = append(rolls, strings.TrimPrefix(sk.Value, rollPrefix))
			}
		}
		if len(result.LastEvaluatedKey) == 0 {
			return rolls, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// UpsertBranchPerformance replaces the semester's branch summary.
func (s *Store) UpsertBranchPerformance(ctx context.Context, record *models.BranchPerformanceRecord) error {
	sem, err := ingestion.ParseSemester(record.Semester)
	if err != nil {
		return err
	}
	item := BranchPerformanceItem{
		PK:                      partitionKey(sem),
		SK:                      branchPerformanceKey,
		BranchPerformanceRecord: *record,
	}
	if item.LastUpdated.IsZero() {
		item.LastUpdated = time.Now().UTC()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal branch performance item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &s.tableName, Item: av}); err != nil {
		return fmt.Errorf("put branch performance item: %w", err)
	}
	return nil
}

// GetBranchPerformance retrieves the branch summary of a semester.
func (s *Store) GetBranchPerformance(ctx context.Context, semester ingestion.Semester) (*models.BranchPerformanceRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       key(partitionKey(semester), branchPerformanceKey),
	})
	if err != nil {
		return nil, fmt.Errorf("get branch performance: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBranchPerformanceNotFound, semester)
	}

	var item BranchPerformanceItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal branch performance item: %w", err)
	}
	rec := item.BranchPerformanceRecord
	return &rec, nil
}
