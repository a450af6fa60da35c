package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"coursecrawler/internal/core/crawl"
	"coursecrawler/internal/core/job"
	"coursecrawler/internal/platform/browser"
	"coursecrawler/internal/platform/store"

	"github.com/spf13/cobra"
)

var (
	crawlTerm    string
	crawlSubject string
	crawlQuery   string
	crawlHeadful bool
)

var crawlCommand = &cobra.Command{
	Use:   "crawl",
	Short: "Run one catalog crawl in the foreground",
	Long: `Records a crawl job and runs it to completion in this process, then prints the final job as JSON.

Filters left empty are not applied on the search form.`,
	RunE: runCrawl,
}

func init() {
	crawlCommand.Flags().StringVar(&crawlTerm, "term", "", "Term label to select, e.g. \"Fall 2025\"")
	crawlCommand.Flags().StringVar(&crawlSubject, "subject", "", "Subject label to select, e.g. \"EECS\"")
	crawlCommand.Flags().StringVarP(&crawlQuery, "query", "q", "", "Free-text search query")
	crawlCommand.Flags().BoolVar(&crawlHeadful, "headful", false, "Show the browser window")
	rootCmd.AddCommand(crawlCommand)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if crawlHeadful {
		cfg.Catalog.Headless = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer st.Close()

	launcher := browser.NewLauncher(browser.Options{
		Headless:        cfg.Catalog.Headless,
		UserAgent:       cfg.Catalog.UserAgent,
		NavTimeout:      cfg.Catalog.NavTimeout(),
		SelectorTimeout: cfg.Catalog.SelectorTimeout(),
	})
	jobs := job.NewJobService(st, nil)
	svc := crawl.NewCrawlService(jobs, st, launcher, nil, cfg.Catalog)

	j, err := svc.CrawlNow(ctx, crawl.Params{
		Term:    optional(crawlTerm),
		Subject: optional(crawlSubject),
		Query:   optional(crawlQuery),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(j)
}
