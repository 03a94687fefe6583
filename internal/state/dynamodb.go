package state

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"

	"agent-blueprint/internal/llm"
)

const (
	attrUserID = "user_id"
	attrState  = "state"
)

// DynamoDBAPI is the subset of the DynamoDB client used by DynamoDBStore.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBStore keeps one item per user in a table whose hash key is
// user_id. The transcript lives in the string attribute state.
type DynamoDBStore struct {
	api   DynamoDBAPI
	table string
}

func NewDynamoDBStore(api DynamoDBAPI, table string) *DynamoDBStore {
	return &DynamoDBStore{api: api, table: table}
}

// NewDynamoDBClient loads the default AWS credential chain for region.
// endpoint overrides the service URL, e.g. for DynamoDB Local.
func NewDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (s *DynamoDBStore) Restore(ctx context.Context, userID string) ([]llm.Message, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrUserID: &types.AttributeValueMemberS{Value: userID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "dynamodb get item")
	}
	if len(out.Item) == 0 {
		return []llm.Message{}, nil
	}
	attr, ok := out.Item[attrState].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.Wrap(ErrCorruptState, "state attribute missing or not a string")
	}
	return DecodeTranscript(attr.Value)
}

func (s *DynamoDBStore) Save(ctx context.Context, userID string, transcript []llm.Message) error {
	payload, err := EncodeTranscript(transcript)
	if err != nil {
		return err
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			attrUserID: &types.AttributeValueMemberS{Value: userID},
			attrState:  &types.AttributeValueMemberS{Value: payload},
		},
	})
	return errors.Wrap(err, "dynamodb put item")
}

func (s *DynamoDBStore) Close() error { return nil }
