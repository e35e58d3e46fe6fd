package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ken/internmatch/internal/config"
	"github.com/ken/internmatch/internal/logger"
	"github.com/ken/internmatch/pkg/catalog"
	"github.com/ken/internmatch/pkg/recommend"
)

// handleRecommend processes the recommend command
// Usage:
//
//	internmatch recommend --skills "machine learning,python" --interests AI [--json]
func handleRecommend(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	skills := fs.String("skills", "", "Comma-separated skills")
	interests := fs.String("interests", "", "Comma-separated interests")
	topK := fs.Int("k", cfg.Recommend.TopK, "Number of recommendations")
	asJSON := fs.Bool("json", false, "Print the response body as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	engine, store, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	svc := recommend.NewService(engine, store,
		recommend.WithTopK(*topK),
		recommend.WithPrecision(cfg.Recommend.Precision),
	)

	req := recommend.Request{
		Skills:    splitList(*skills),
		Interests: splitList(*interests),
	}
	logger.Debug("Profile text: %q", recommend.Profile(req))

	result, err := svc.Recommend(ctx, req)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printRecommendations(os.Stdout, svc, result)
	return nil
}

// printRecommendations writes result as a numbered list
func printRecommendations(w io.Writer, svc *recommend.Service, result *recommend.Result) {
	fmt.Fprintf(w, "Found %d recommendations (top %d requested):\n", len(result.Recommendations), svc.TopK())
	for i, r := range result.Recommendations {
		fmt.Fprintf(w, "%d. %s (score: %.3f)\n   %s\n", i+1, r.Title, r.Score, r.Description)
	}
}

// handleCatalog lists the configured catalog, optionally writing it to a
// YAML file that can be edited and fed back through catalog.path
func handleCatalog(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	export := fs.String("export", "", "Write the catalog to this YAML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := catalogRecords(cfg)
	if err != nil {
		return err
	}

	if *export != "" {
		if err := catalog.SaveRecordsFile(records, *export); err != nil {
			return err
		}
		fmt.Printf("Wrote %d internships to %s\n", len(records), *export)
		return nil
	}

	fmt.Printf("Found %d internships:\n", len(records))
	for i, r := range records {
		fmt.Printf("%d. %s\n   %s\n", i+1, r.Title, r.Description)
	}
	return nil
}

// splitList splits a comma-separated flag value, trimming spaces. An empty
// value is an empty list.
func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
