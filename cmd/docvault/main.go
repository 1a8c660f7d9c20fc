// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docvault"
	"github.com/poiesic/docvault/ai"
	"github.com/poiesic/docvault/core"
	"github.com/poiesic/docvault/index"
	"github.com/poiesic/docvault/search"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docvault",
		Usage: "Multi-format document ingestion and semantic search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data directory",
				Value:   "./docvault-data",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "Embedding service API key",
				Value: "none",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a file or every supported file under a directory",
				ArgsUsage: "<path>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent documents during directory ingestion",
						Value: 4,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the indexed corpus",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultTopK,
					},
					&cli.StringSliceFlag{
						Name:  "types",
						Usage: "Restrict to content types (text, table, equation, image, slide, video, audio)",
					},
					&cli.StringFlag{
						Name:  "doc",
						Usage: "Restrict to a single document id",
					},
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Hydrate full chunk content from the metadata store",
					},
				},
			},
			{
				Name:   "documents",
				Usage:  "List ingested documents",
				Action: documentsCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document, its chunks and its vectors",
				ArgsUsage: "<document-id>",
				Action:    deleteCommand,
			},
			{
				Name:   "backends",
				Usage:  "Report parser backend availability",
				Action: backendsCommand,
			},
		},
	}
}

func openService(c *cli.Context, extra ...docvault.Option) (*docvault.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, err
	}

	opts := append([]docvault.Option{docvault.WithAIConfig(aiConfig)}, extra...)
	return docvault.New(c.String("data"), opts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one path argument")
	}
	path := c.Args().First()

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	svc, err := openService(c, docvault.WithWorkers(c.Int("workers")))
	if err != nil {
		return err
	}
	defer svc.Close()
	ctx := context.Background()

	if info.IsDir() {
		report, err := svc.IngestDir(ctx, path, os.Stderr)
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d, failed %d, skipped %d\n",
			report.Ingested, report.Failed, report.Skipped)
		return nil
	}

	doc, err := svc.Ingest(ctx, path)
	if err != nil {
		return err
	}
	fmt.Printf("Document %s: %s (%d chunks, %d/%d vectors stored)\n",
		doc.ID, doc.Status, doc.ChunkCount, doc.StoredCount, doc.AttemptedCount)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a query argument")
	}
	query := strings.Join(c.Args().Slice(), " ")

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	filter := index.Filter{DocID: c.String("doc")}
	for _, t := range c.StringSlice("types") {
		blockType := core.BlockType(strings.ToLower(t))
		if err := core.ValidateBlockType(blockType); err != nil {
			return err
		}
		filter.ContentTypes = append(filter.ContentTypes, blockType)
	}

	results, err := svc.Search(context.Background(), query, search.Options{
		TopK:    c.Int("top-k"),
		Filter:  filter,
		Hydrate: c.Bool("full"),
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s (score %.3f)\n", i+1, r.ID, r.Score)
		if r.Chunk != nil {
			fmt.Printf("   %s\n", r.Chunk.Text)
		} else if text := r.Metadata[core.MetaText]; text != "" {
			fmt.Printf("   %s\n", text)
		}
	}
	return nil
}

func documentsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	docs, err := svc.Documents(context.Background())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tTYPE\tSTATUS\tCHUNKS\tSTORED\tERROR")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d/%d\t%s\n",
			d.ID, d.Filename, d.FileType, d.Status,
			d.ChunkCount, d.StoredCount, d.AttemptedCount, d.Error)
	}
	return w.Flush()
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one document id argument")
	}
	id := c.Args().First()

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.DeleteDocument(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted document %s\n", id)
	return nil
}

func backendsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tAVAILABLE")
	for _, b := range svc.Backends() {
		fmt.Fprintf(w, "%s\t%t\n", b.Name, b.Available)
	}
	return w.Flush()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
