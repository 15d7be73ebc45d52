// Package dynamorepo is the cloud Repository adapter. Two tables back it:
// ShortLinks{slug:S, original_url:S, created_at:S, created_by:S} and
// Counters{name:S, value:N}. Conditional writes on ShortLinks and an
// atomic ADD UpdateItem on Counters give the uniqueness and monotone-
// counter guarantees the in-memory and SQLite adapters get from a mutex
// or a transaction.
package dynamorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sundayezeilo/urlshortener/internal/domain"
	"github.com/sundayezeilo/urlshortener/internal/errx"
)

// api is the narrow slice of *dynamodb.Client this adapter needs,
// abstracted the way the teacher's querier interface abstracts
// *db.Queries — so tests supply an in-process fake instead of hitting AWS.
type api interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Repository implements repo.Repository over DynamoDB.
type Repository struct {
	client          api
	shortLinksTable string
	countersTable   string
}

// New builds a Repository against the given client and table names.
func New(client *dynamodb.Client, shortLinksTable, countersTable string) *Repository {
	return &Repository{client: client, shortLinksTable: shortLinksTable, countersTable: countersTable}
}

type shortLinkItem struct {
	Slug        string `dynamodbav:"slug"`
	OriginalURL string `dynamodbav:"original_url"`
	CreatedAt   string `dynamodbav:"created_at"`
	CreatedBy   string `dynamodbav:"created_by"`
}

// Get performs a GetItem lookup by slug.
func (r *Repository) Get(ctx context.Context, slug domain.Slug) (*domain.ShortLink, error) {
	const op = "dynamorepo.Get"

	key, err := attributevalue.MarshalMap(map[string]string{"slug": slug.String()})
	if err != nil {
		return nil, errx.E(op, errx.Internal, err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.shortLinksTable),
		Key:       key,
	})
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var item shortLinkItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, errx.E(op, errx.Internal, err)
	}

	link, err := toDomainLink(item)
	if err != nil {
		return nil, errx.E(op, errx.Internal, err)
	}
	return &link, nil
}

// Put issues a conditional PutItem, mapping a failed condition
// (attribute_not_exists(slug)) to Conflict.
func (r *Repository) Put(ctx context.Context, link domain.ShortLink) error {
	const op = "dynamorepo.Put"

	item, err := attributevalue.MarshalMap(shortLinkItem{
		Slug:        link.Slug.String(),
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		CreatedBy:   link.CreatedBy.String(),
	})
	if err != nil {
		return errx.E(op, errx.Internal, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.shortLinksTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(slug)"),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return errx.E(op, errx.Conflict, err)
		}
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

// List performs a Scan with Limit=limit. The port does not promise
// ordering; malformed items are skipped rather than aborting the whole
// scan, and no warning is logged for them.
func (r *Repository) List(ctx context.Context, limit int) ([]domain.ShortLink, error) {
	const op = "dynamorepo.List"

	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.shortLinksTable),
		Limit:     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}

	links := make([]domain.ShortLink, 0, len(out.Items))
	for _, raw := range out.Items {
		var item shortLinkItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue // malformed item: drop per §4.8
		}
		link, err := toDomainLink(item)
		if err != nil {
			continue
		}
		links = append(links, link)
	}
	return links, nil
}

// IncrementCounter issues an UpdateItem with "ADD #v :one", which both
// creates the item at value 1 on first use and atomically increments it
// thereafter. No condition expression: concurrent callers serialize at
// the partition.
func (r *Repository) IncrementCounter(ctx context.Context, name string) (uint64, error) {
	const op = "dynamorepo.IncrementCounter"

	key, err := attributevalue.MarshalMap(map[string]string{"name": name})
	if err != nil {
		return 0, errx.E(op, errx.Internal, err)
	}
	values, err := attributevalue.MarshalMap(map[string]int{":one": 1})
	if err != nil {
		return 0, errx.E(op, errx.Internal, err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.countersTable),
		Key:                       key,
		UpdateExpression:          aws.String("ADD #v :one"),
		ExpressionAttributeNames:  map[string]string{"#v": "value"},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}

	var result struct {
		Value uint64 `dynamodbav:"value"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &result); err != nil {
		return 0, errx.E(op, errx.Internal, err)
	}
	return result.Value, nil
}

func toDomainLink(item shortLinkItem) (domain.ShortLink, error) {
	slug, err := domain.NewSlug(item.Slug)
	if err != nil {
		return domain.ShortLink{}, fmt.Errorf("stored slug %q failed validation: %w", item.Slug, err)
	}
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return domain.ShortLink{}, fmt.Errorf("stored created_at %q unparsable: %w", item.CreatedAt, err)
	}
	email, err := domain.NewUserEmail(item.CreatedBy)
	if err != nil {
		return domain.ShortLink{}, fmt.Errorf("stored created_by %q failed validation: %w", item.CreatedBy, err)
	}
	return domain.ShortLink{
		Slug:        slug,
		OriginalURL: item.OriginalURL,
		CreatedAt:   createdAt,
		CreatedBy:   email,
	}, nil
}
