// Minimal end-to-end check of a running govmeet API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/govmeet/src/webclient"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8080")
	secret   = getenv("API_JWT_SECRET", "")
	redisURL = getenv("REDIS_URL", "")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if secret == "" {
		log.Fatal("API_JWT_SECRET is required")
	}
	client := webclient.New(baseURL, mustToken())
	channel := "smoke-" + uuid.NewString()[:8]

	var lastID string
	var rdb *redis.Client
	if redisURL != "" {
		rdb = mustRedis()
		defer rdb.Close()
		lastID = streamTail(ctx, rdb)
	}

	mustRun(ctx, client, channel, "prepare Smoke test", "Meeting initialised")
	mustRun(ctx, client, channel, "agenda add Check the API", "Agenda item 1 added")
	mustRun(ctx, client, channel, "start", "The meeting has started")
	mustRun(ctx, client, channel, "motion add Ship it", "Motion 1 added")
	mustRun(ctx, client, channel, "motion decide carried 3 0", "Motion carries, votes 3:0")

	var motions struct {
		Motions []struct {
			State string `json:"state"`
		} `json:"motions"`
	}
	if err := client.Get(ctx, channel, "motions", &motions); err != nil {
		log.Fatalf("motions: %v", err)
	}
	if len(motions.Motions) != 1 || motions.Motions[0].State != "carried" {
		log.Fatalf("motions: unexpected %+v", motions.Motions)
	}

	mustRun(ctx, client, channel, "adjourn", "The meeting has adjourned")

	if rdb != nil {
		checkNotifications(ctx, rdb, lastID, channel)
	}
	fmt.Println("✓ all endpoints passed on channel", channel)
}

func mustToken() string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "smoke-test",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	return signed
}

func mustRun(ctx context.Context, c *webclient.Client, channel, line, want string) {
	reply, err := c.Command(ctx, channel, line)
	if err != nil {
		log.Fatalf("%s: %v", line, err)
	}
	text := strings.Join(reply.Lines, "\n")
	if reply.Error || !strings.Contains(text, want) {
		log.Fatalf("%s: want %q got %q", line, want, text)
	}
}

// ----------------------------- notifications

const stream = "govmeet.notifications"

func mustRedis() *redis.Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	return redis.NewClient(opt)
}

func streamTail(ctx context.Context, rdb *redis.Client) string {
	msgs, err := rdb.XRevRangeN(ctx, stream, "+", "-", 1).Result()
	if err != nil || len(msgs) == 0 {
		return "0-0"
	}
	return msgs[0].ID
}

// checkNotifications expects the start and adjourn topic changes for channel.
func checkNotifications(ctx context.Context, rdb *redis.Client, since, channel string) {
	res, err := rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, since},
		Count:   100,
		Block:   2 * time.Second,
	}).Result()
	if err != nil {
		log.Fatalf("redis xread: %v", err)
	}
	seen := 0
	for _, s := range res {
		for _, m := range s.Messages {
			if m.Values["channel"] == channel {
				seen++
			}
		}
	}
	if seen < 2 {
		log.Fatalf("notifications: want 2 for %s, got %d (is MEETING_NOTIFY_STREAM enabled?)", channel, seen)
	}
}
