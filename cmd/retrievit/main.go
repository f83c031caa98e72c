// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
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
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/provider"
)

func main() {
	app := &cli.App{
		Name:  "retrievit",
		Usage: "Priority-scheduled retrieval coordinator with web and vector search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Submit a retrieval task and wait for its result",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Path to the vector index directory (in-memory if omitted)",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Retrieval mode (web-search, vector-search, hybrid-search)",
						Value: string(core.TaskTypeHybridSearch),
					},
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Task priority (low, medium, high, critical)",
						Value: "medium",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of fused results",
						Value: core.DefaultMaxResults,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "search-host",
						Usage: "Web search service host URL",
						Value: "http://localhost:8888",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Maximum time to wait for the task to finish",
						Value: 60 * time.Second,
					},
				},
			},
			{
				Name:      "seed",
				Usage:     "Index text files into the vector index",
				ArgsUsage: "<file> [<file> ...]",
				Action:    seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Path to the vector index directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "search-host",
						Usage: "Web search service host URL",
						Value: "http://localhost:8888",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	taskType := core.TaskType(c.String("type"))
	if err := core.ValidateTaskType(taskType); err != nil {
		return err
	}

	priority, err := core.ParsePriority(c.String("priority"))
	if err != nil {
		return fmt.Errorf("invalid priority %q: must be one of low, medium, high, critical", c.String("priority"))
	}

	coordinator, err := newCoordinator(c)
	if err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}
	defer coordinator.Close()

	task, err := coordinator.SubmitTask(taskType, core.SearchPayload{
		Query:      query,
		MaxResults: c.Int("max-results"),
	}, priority)
	if err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}

	task, err = awaitTask(coordinator, task.Id, c.Duration("timeout"))
	if err != nil {
		return err
	}

	if task.Status == core.TaskStatusFailed {
		return fmt.Errorf("task failed: %s", task.Error)
	}

	printResult(task.Result)
	return nil
}

func seedCommand(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	coordinator, err := newCoordinator(c)
	if err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}
	defer coordinator.Close()

	ctx := context.Background()
	for _, path := range c.Args().Slice() {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		docs, err := coordinator.IndexDocuments(ctx, &core.Document{
			Title:   filepath.Base(path),
			Content: string(content),
			Metadata: map[string]string{
				"source": path,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "indexed %s (id=%d)\n", path, docs[0].Id)
	}

	// Embedding runs asynchronously; wait for it before closing.
	coordinator.FlushIndex()
	return nil
}

func newCoordinator(c *cli.Context) (*retrievit.Coordinator, error) {
	config := provider.NewConfig(
		provider.WithEmbeddingHost(c.String("embedding-host")),
		provider.WithEmbeddingModel(c.String("embedding-model")),
		provider.WithSearchHost(c.String("search-host")),
	)

	return retrievit.NewCoordinator(
		retrievit.WithIndexPath(c.String("index")),
		retrievit.WithProviderConfig(config),
	)
}

// awaitTask polls the coordinator until the task reaches a terminal state.
func awaitTask(coordinator *retrievit.Coordinator, id string, timeout time.Duration) (*core.Task, error) {
	deadline := time.Now().Add(timeout)
	for {
		task, err := coordinator.GetTask(id)
		if err != nil {
			return nil, err
		}
		if task.Status.Terminal() {
			return task, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for task %s (status %s)", id, task.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func printResult(result *core.TaskResult) {
	if result == nil || !result.Found {
		fmt.Println("no information found")
		return
	}

	fmt.Printf("Found %d results (confidence %.2f)\n", len(result.Results), result.Confidence)
	for i, hit := range result.Results {
		fmt.Printf("%d: [%s][%0.3f] %s\n", i+1, hit.SourceType, hit.RelevanceScore, hit.Title)
		if hit.URL != "" {
			fmt.Printf("   %s\n", hit.URL)
		}
		if hit.Snippet != "" {
			fmt.Printf("   %s\n", hit.Snippet)
		}
	}
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
