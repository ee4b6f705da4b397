// Command backfill-gsi1 repairs GSI1PK/GSI1SK on podcast-run items
// (SK begins_with "AUDIO_CONN#") written before the per-user podcast index
// existed, or left stale by a direct table edit. It recomputes both
// attributes from the run's own user_id/created_at/run_id fields using the
// same convention internal/store.PutPodcastRun writes, and rewrites only the
// items that differ.
//
// Usage:
//
//	go run ./scripts/backfill-gsi1 --dry-run
//	go run ./scripts/backfill-gsi1 --table newsbrief-prod
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func main() {
	tableName := flag.String("table", "newsbrief-prod", "DynamoDB table name")
	region := flag.String("region", "us-east-1", "AWS region")
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing")
	flag.Parse()

	ctx := context.Background()
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(*region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	client := dynamodb.NewFromConfig(cfg)

	fmt.Printf("Table: %s | Dry run: %v\n", *tableName, *dryRun)

	scanned, fixed := 0, 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        tableName,
			FilterExpression: aws.String("begins_with(SK, :pfx)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pfx": &types.AttributeValueMemberS{Value: "AUDIO_CONN#"},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			log.Fatalf("scan: %v", err)
		}

		for _, item := range out.Items {
			scanned++
			pk, userID, runID, createdAt, ok := podcastRunFields(item)
			if !ok {
				continue
			}
			wantGSI1PK := pk + "#PODCASTS"
			wantGSI1SK := createdAt + "#" + runID

			if current, hasIt := stringAttr(item, "GSI1PK"); hasIt && current == wantGSI1PK {
				if currentSK, hasSK := stringAttr(item, "GSI1SK"); hasSK && currentSK == wantGSI1SK {
					continue
				}
			}

			fmt.Printf("user=%s run=%s: GSI1PK=%s GSI1SK=%s\n", userID, runID, wantGSI1PK, wantGSI1SK)
			fixed++
			if *dryRun {
				continue
			}
			_, err := client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
				TableName: tableName,
				Key: map[string]types.AttributeValue{
					"PK": item["PK"],
					"SK": item["SK"],
				},
				UpdateExpression: aws.String("SET GSI1PK = :pk, GSI1SK = :sk"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pk": &types.AttributeValueMemberS{Value: wantGSI1PK},
					":sk": &types.AttributeValueMemberS{Value: wantGSI1SK},
				},
			})
			if err != nil {
				log.Printf("update failed for user=%s run=%s: %v", userID, runID, err)
			}
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	fmt.Printf("Scanned %d podcast-run items, %d needed a GSI1 fix\n", scanned, fixed)
}

func podcastRunFields(item map[string]types.AttributeValue) (pk, userID, runID, createdAt string, ok bool) {
	pk, hasPK := stringAttr(item, "PK")
	sk, hasSK := stringAttr(item, "SK")
	userID, hasUser := stringAttr(item, "user_id")
	createdAtVal, hasCreated := stringAttr(item, "created_at")
	if !hasPK || !hasSK || !hasUser || !hasCreated {
		return "", "", "", "", false
	}
	runID = sk[len("AUDIO_CONN#"):]
	createdAt, err := normalizeTimestamp(createdAtVal)
	if err != nil {
		return "", "", "", "", false
	}
	return pk, userID, runID, createdAt, true
}

func normalizeTimestamp(raw string) (string, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(time.RFC3339), nil
}

func stringAttr(item map[string]types.AttributeValue, key string) (string, bool) {
	v, ok := item[key]
	if !ok {
		return "", false
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}
