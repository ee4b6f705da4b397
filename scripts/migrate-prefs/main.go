// Command migrate-prefs eagerly migrates every stored preferences document to
// internal/prefs.CurrentFormatVersion instead of waiting for each user's next
// read. internal/prefs.Store.Get already performs this migration on read and
// persists the result back (see prefs.go's migrate), so this script does
// nothing but drive that same path across every user up front — useful
// before a release that assumes the v3.0 shape everywhere, or to confirm a
// migration is safe before it ships.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightfeed/newsbrief/internal/prefs"
	"github.com/brightfeed/newsbrief/internal/store"
)

func main() {
	var (
		tableName = flag.String("table", "newsbrief-prod", "DynamoDB table name")
		region    = flag.String("region", "us-east-1", "AWS region")
		dryRun    = flag.Bool("dry-run", false, "Scan and report without writing")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(*region))
	if err != nil {
		logger.Error("load aws config", "error", err)
		os.Exit(1)
	}

	docStore := store.New(dynamodb.NewFromConfig(awsCfg), *tableName)
	prefsStore := prefs.New(docStore)

	userIDs, err := scanPrefsUserIDs(ctx, docStore)
	if err != nil {
		logger.Error("scan preferences collection", "error", err)
		os.Exit(1)
	}
	logger.Info("found preferences documents", "count", len(userIDs))

	migrated, skipped := 0, 0
	for _, userID := range userIDs {
		if *dryRun {
			logger.Info("dry-run: would migrate", "user_id", userID)
			continue
		}
		if _, err := prefsStore.Get(ctx, userID); err != nil {
			logger.Error("migrate preferences failed", "user_id", userID, "error", err)
			skipped++
			continue
		}
		migrated++
	}
	logger.Info("done", "migrated", migrated, "skipped", skipped, "dry_run", *dryRun)
}

// scanPrefsUserIDs walks the PREFS collection directly (bypassing
// internal/prefs, since a bulk scan of every user has no per-user caller to
// go through) and pulls user_id out of each raw item.
func scanPrefsUserIDs(ctx context.Context, docStore *store.Adapter) ([]string, error) {
	items, err := docStore.ScanCollection(ctx, "PREFS", nil)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id, ok := item["user_id"]
		if !ok {
			continue
		}
		s, ok := id.(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		ids = append(ids, s.Value)
	}
	return ids, nil
}
