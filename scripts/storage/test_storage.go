// Runs a scripted meeting against the shared MySQL store and prints the replies.
package main

import (
	"context"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/stake-plus/govmeet/src/data"
	"github.com/stake-plus/govmeet/src/meeting/commands"
	"github.com/stake-plus/govmeet/src/meeting/engine"
	"github.com/stake-plus/govmeet/src/meeting/store"
)

func main() {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		log.Fatal("MYSQL_DSN is required")
	}
	db, err := data.ConnectMySQL(dsn)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	ctx := context.Background()
	d := commands.NewDispatcher(engine.New(store.NewSharedProvider(db, nil), nil), "script")
	channel := "storage-" + uuid.NewString()[:8]

	for _, line := range []string{
		"prepare Storage check",
		"agenda add First item",
		"agenda add Second item",
		"agenda delete 1",
		"agenda list",
		"motion add Keep the data",
		"motion decide carried 2 1",
		"motion list",
		"meetings",
	} {
		reply := d.Handle(ctx, channel, line)
		log.Printf("> %s", line)
		for _, l := range reply.Lines {
			log.Printf("  %s", l)
		}
		if reply.Error {
			log.Fatalf("command failed: %s", line)
		}
	}
	log.Printf("Channel %s left in place for inspection", channel)
}
