package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dynamoClient defines the subset of the DynamoDB client used by dynamoStore.
type dynamoClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// dynamoStore implements Store on a DynamoDB table keyed by id.
type dynamoStore struct {
	table  string
	client dynamoClient
}

func openDynamo(ctx context.Context, opts Options) (Store, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{}
	if region := strings.TrimSpace(opts.AWSRegion); region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(region))
	}
	if opts.AWSAccessKeyID != "" && opts.AWSSecretAccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AWSAccessKeyID, opts.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(opts.DynamoDBEndpoint)
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return newDynamoStore(client, opts.Table), nil
}

func newDynamoStore(client dynamoClient, table string) *dynamoStore {
	return &dynamoStore{table: table, client: client}
}

func (d *dynamoStore) Close() error { return nil }

// ScanAll pages through the whole table.
func (d *dynamoStore) ScanAll(ctx context.Context) ([]domain.Promo, error) {
	var out []domain.Promo

	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName: aws.String(d.table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", d.table, err)
		}
		for _, item := range page.Items {
			rec, err := recordFromItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, rec.Promo())
		}
	}
	return out, nil
}

// Put writes the record; an existing item with the same id is left untouched.
func (d *dynamoStore) Put(ctx context.Context, p domain.Promo) error {
	if err := checkPutable(p); err != nil {
		return err
	}

	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                itemFromRecord(domain.RecordFromPromo(p)),
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var exists *types.ConditionalCheckFailedException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("put %s into %s: %w", p.ID, d.table, err)
	}
	return nil
}

func itemFromRecord(rec domain.Record) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"id":         &types.AttributeValueMemberS{Value: rec.ID},
		"title":      &types.AttributeValueMemberS{Value: rec.Title},
		"created_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.CreatedAt, 10)},
		"link":       &types.AttributeValueMemberS{Value: rec.Link},
	}
	// empty optional attributes are omitted, not stored as ""
	if rec.Temp != "" {
		item["temp"] = &types.AttributeValueMemberS{Value: rec.Temp}
	}
	if rec.Price != "" {
		item["price"] = &types.AttributeValueMemberS{Value: rec.Price}
	}
	return item
}

func recordFromItem(item map[string]types.AttributeValue) (domain.Record, error) {
	rec := domain.Record{
		ID:    attrString(item["id"]),
		Title: attrString(item["title"]),
		Temp:  attrString(item["temp"]),
		Link:  attrString(item["link"]),
		Price: attrString(item["price"]),
	}
	if rec.ID == "" {
		return domain.Record{}, fmt.Errorf("dynamodb item without id")
	}
	if raw := attrString(item["created_at"]); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Record{}, fmt.Errorf("item %s created_at %q: %w", rec.ID, raw, err)
		}
		rec.CreatedAt = ms
	}
	return rec, nil
}

// attrString flattens scalar attributes; temp and price may be stored as numbers.
func attrString(v types.AttributeValue) string {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	default:
		return ""
	}
}
