package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"strangerchat/backend/internal/config"
	"strangerchat/backend/internal/models"
	"strangerchat/backend/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("config: %v", err)
	}
	db, err := storage.OpenDB(cfg.DBDriver, cfg.DSN)
	if err != nil {
		fatalf("failed to connect database: %v", err)
	}
	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	ctx := context.Background()
	switch os.Args[1] {
	case "recent":
		limit := cfg.AuditPageDefault
		if len(os.Args) > 2 {
			limit, err = strconv.Atoi(os.Args[2])
			if err != nil || limit <= 0 {
				fatalf("Invalid limit. Please provide a positive integer.")
			}
		}
		if err := printRecent(ctx, storageSvc, limit); err != nil {
			fatalf("Error listing audit records: %v", err)
		}
	case "prune":
		if len(os.Args) != 3 {
			fatalf("Usage: admin prune <days>")
		}
		days, err := strconv.Atoi(os.Args[2])
		if err != nil || days < 0 {
			fatalf("Invalid days. Please provide a non-negative integer.")
		}
		n, err := prune(ctx, storageSvc, days)
		if err != nil {
			fatalf("Error pruning audit records: %v", err)
		}
		fmt.Printf("Deleted %d audit records older than %d days.\n", n, days)
	case "tail":
		rdb, err := storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fatalf("failed to connect redis: %v", err)
		}
		if rdb == nil {
			fatalf("tail needs REDIS_ADDR")
		}
		defer rdb.Close()
		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := tail(sigCtx, storage.NewStorageService(db, rdb), os.Stdout); err != nil {
			fatalf("Error following audit records: %v", err)
		}
	default:
		usage()
	}
}

func printRecent(ctx context.Context, s storage.Storage, limit int) error {
	records, err := s.RecentAuditRecords(ctx, limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tCONNECTION\tPARTNER\tDETAIL")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format(time.RFC3339), r.Action, r.ConnectionID, r.PartnerID, r.Detail)
	}
	return w.Flush()
}

func prune(ctx context.Context, s storage.Storage, days int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.PruneAuditRecords(ctx, cutoff)
}

// tail prints audit records to w as the server publishes them, until ctx ends.
func tail(ctx context.Context, s *storage.Service, w io.Writer) error {
	pubsub, err := s.SubscribeAudit(ctx)
	if err != nil {
		return err
	}
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", storage.AuditChannel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var rec models.AuditRecord
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				fmt.Fprintf(os.Stderr, "skipping malformed record: %v\n", err)
				continue
			}
			fmt.Fprintf(w, "%s %-10s %s %s %s\n",
				rec.CreatedAt.Format(time.RFC3339), rec.Action, rec.ConnectionID, rec.PartnerID, rec.Detail)
		}
	}
}

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("  recent [limit]   list the newest audit records")
	fmt.Println("  prune <days>     delete audit records older than days")
	fmt.Println("  tail             follow audit records published on redis")
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
