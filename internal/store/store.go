// Package store is the typed adapter over the schemaless document store
// (DynamoDB single-table design), generalizing mcpserver.Store's
// PutItem/UpdateItem/GetItem/Query idioms into a generic get/set/merge/scan
// API plus one typed method set per persisted collection.
package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightfeed/newsbrief/internal/errs"
)

// Adapter is the single-table document store. PK/SK addressing mirrors the
// teacher's PODCAST#{id}/METADATA convention, generalized to one PK per
// user ("USER#{user_id}") and one SK per logical collection.
type Adapter struct {
	client    *dynamodb.Client
	tableName string
}

func New(client *dynamodb.Client, tableName string) *Adapter {
	return &Adapter{client: client, tableName: tableName}
}

// Get reads one item by (pk, sk) into out. Returns false if absent.
func (a *Adapter) Get(ctx context.Context, pk, sk string, out any) (bool, error) {
	result, err := a.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &a.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return false, errs.New(errs.ProviderTransient, "get item", err)
	}
	if result.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, errs.New(errs.ProviderTransient, "unmarshal item", err)
	}
	return true, nil
}

// Set overwrites the item at (pk, sk) with the marshaled value of item. The
// caller's struct must carry "PK" and "SK" fields (dynamodbav-tagged) that
// are already set.
func (a *Adapter) Set(ctx context.Context, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errs.New(errs.InvalidInput, "marshal item", err)
	}
	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &a.tableName,
		Item:      av,
	})
	if err != nil {
		return errs.New(errs.ProviderTransient, "put item", err)
	}
	return nil
}

// SetIfAbsent is the idempotent-insert primitive used by the scheduler's
// idempotency window: if an item already exists at (pk, sk) it returns the
// SDK's ConditionalCheckFailedException unwrapped. PutItem errors are
// likewise returned unwrapped; only a marshal failure is classified
// (InvalidInput).
func (a *Adapter) SetIfAbsent(ctx context.Context, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errs.New(errs.InvalidInput, "marshal item", err)
	}
	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &a.tableName,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return err // caller checks for a ConditionalCheckFailedException via errors.As
	}
	return nil
}

// Merge applies a partial SET update-expression over the given field/value
// pairs, building the expression dynamically the way auth.go's
// CreateAPIKey/RevokeAPIKey family does.
func (a *Adapter) Merge(ctx context.Context, pk, sk string, fields map[string]types.AttributeValue) error {
	if len(fields) == 0 {
		return nil
	}
	expr := "SET "
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	i := 0
	for field, v := range fields {
		if i > 0 {
			expr += ", "
		}
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		expr += nameKey + " = " + valueKey
		names[nameKey] = field
		values[valueKey] = v
		i++
	}

	_, err := a.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &a.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return errs.New(errs.ProviderTransient, "merge item", err)
	}
	return nil
}

// ScanCollection returns every item whose SK has the given prefix as a raw
// attribute map, keeping only items for which predicate (if non-nil) returns
// true; decoding is left to the caller — the
// "collection-scan by predicate" operation components like the scheduler use
// to enumerate all users' scheduling preferences.
func (a *Adapter) ScanCollection(ctx context.Context, skPrefix string, predicate func(item map[string]types.AttributeValue) bool) ([]map[string]types.AttributeValue, error) {
	var out []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:        &a.tableName,
			FilterExpression: aws.String("begins_with(SK, :skpfx)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":skpfx": &types.AttributeValueMemberS{Value: skPrefix},
			},
			ExclusiveStartKey: startKey,
		}
		result, err := a.client.Scan(ctx, input)
		if err != nil {
			return nil, errs.New(errs.ProviderTransient, "scan collection", err)
		}
		for _, item := range result.Items {
			if predicate == nil || predicate(item) {
				out = append(out, item)
			}
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return out, nil
}

// Query runs a GSI1 query for a given partition, mirroring
// mcpserver.Store.ListPodcasts' cursor-paginated Query call.
func (a *Adapter) Query(ctx context.Context, indexName, pkValue string, limit int32, exclusiveStart map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              &a.tableName,
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkValue},
		},
		ScanIndexForward:  aws.Bool(false),
		Limit:             aws.Int32(limit),
		ExclusiveStartKey: exclusiveStart,
	}
	result, err := a.client.Query(ctx, input)
	if err != nil {
		return nil, nil, errs.New(errs.ProviderTransient, "query", err)
	}
	return result.Items, result.LastEvaluatedKey, nil
}
