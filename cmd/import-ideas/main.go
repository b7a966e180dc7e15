package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"ideacentral/backend/internal/config"
	"ideacentral/backend/internal/database"
	"ideacentral/backend/internal/importer"
	"ideacentral/backend/internal/repository"
)

func main() {
	file := flag.String("file", "Ideas.csv", "path to the legacy ideas CSV export")
	encoding := flag.String("encoding", importer.EncodingLatin1, "input encoding: latin1 or utf8")
	password := flag.String("password", importer.DefaultPlaceholderPassword, "placeholder password for users the import creates")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != config.StoreMongo {
		log.Fatalf("import needs STORE_DRIVER=%s, got %s", config.StoreMongo, cfg.StoreDriver)
	}

	ctx := context.Background()
	store, err := database.ConnectDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close(context.Background())

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open %s: %v", *file, err)
	}
	defer f.Close()

	im := importer.New(repository.NewUserRepository(store), repository.NewIdeaRepository(store), *password)
	res, err := im.Run(ctx, f, *encoding)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("✅ CSV data successfully uploaded\n")
	fmt.Printf("   Users created:  %d\n", res.UsersCreated)
	fmt.Printf("   Ideas inserted: %d\n", res.IdeasInserted)
	fmt.Printf("   Rows skipped:   %d\n", res.RowsSkipped)
}
