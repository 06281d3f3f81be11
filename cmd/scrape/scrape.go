package scrape

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dreamerjackson/shopcrawler/cmd/app"
	"github.com/dreamerjackson/shopcrawler/config"
	"github.com/dreamerjackson/shopcrawler/engine"
	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ScrapeCmd = &cobra.Command{
	Use:   "scrape [keyword page_count retries fields]",
	Short: "search a site and stream matching products.",
	Long: "search a site and stream matching products as JSON lines on stdout.\n" +
		"The positional form is kept for older controllers.",
	Args: cobra.MaximumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := flags
		if err := f.positional(args); err != nil {
			return err
		}
		return Run(cmd.Context(), cmd, f)
	},
}

// Flags is everything scrape reads from the command line.
type Flags struct {
	Config    string
	Site      string
	Query     string
	Fields    string
	MaxItems  int
	MaxPages  int
	Retries   int
	JobID     string
	SessionID string
	Output    string
	Fetcher   string
	Headless  bool

	headlessSet bool
}

var flags Flags

func init() {
	fs := ScrapeCmd.Flags()
	fs.StringVar(&flags.Config, "config", "", "config file, config.toml when present")
	fs.StringVar(&flags.Site, "site", "amazon", "site to search")
	fs.StringVar(&flags.Query, "query", "", "search keyword")
	fs.StringVar(&flags.Fields, "fields", "", "comma separated fields, all supported when empty")
	fs.IntVar(&flags.MaxItems, "max-items", 0, "stop after this many products")
	fs.IntVar(&flags.MaxPages, "max-pages", 0, "stop after this many listing pages")
	fs.IntVar(&flags.Retries, "retries", 0, "page fetch attempts, config value when 0")
	fs.StringVar(&flags.JobID, "job-id", "", "job id used in logs, random when empty")
	fs.StringVar(&flags.SessionID, "session-id", "", "resume a run suspended on a challenge")
	fs.StringVar(&flags.Output, "output", "", "output directory")
	fs.StringVar(&flags.Fetcher, "fetcher", "", "browser or http")
	fs.BoolVar(&flags.Headless, "headless", true, "run the browser headless")

	ScrapeCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		flags.headlessSet = cmd.Flags().Changed("headless")
	}
}

// positional reads the legacy `<keyword> <page_count> <retries> <fields>` form.
func (f *Flags) positional(args []string) error {
	if len(args) == 0 {
		return nil
	}
	f.Query = args[0]

	ints := []struct {
		name string
		dst  *int
	}{
		{"page_count", &f.MaxPages},
		{"retries", &f.Retries},
	}
	for i, in := range ints {
		if len(args) <= i+1 {
			break
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", in.name, args[i+1])
		}
		*in.dst = n
	}
	if len(args) == 4 {
		f.Fields = args[3]
	}
	return nil
}

func (f Flags) overrides(cfg *config.Config) {
	if f.Output != "" {
		cfg.Output.Dir = f.Output
	}
	if f.Fetcher != "" {
		cfg.Fetcher.Type = f.Fetcher
	}
	if f.headlessSet {
		cfg.Fetcher.Headless = f.Headless
	}
}

// job checks the request against site before anything is started.
func (f Flags) job(site *engine.Site, resume *session.Session) (engine.Job, error) {
	query, fields := f.Query, f.Fields
	if resume != nil {
		if query == "" {
			query = resume.Query
		}
		if fields == "" {
			fields = strings.Join(resume.Fields, ",")
		}
	}
	if strings.TrimSpace(query) == "" {
		return engine.Job{}, errors.New("a search keyword is required")
	}
	if f.MaxItems < 0 || f.MaxPages < 0 || f.Retries < 0 {
		return engine.Job{}, errors.New("max-items, max-pages and retries must not be negative")
	}

	names, err := field.Parse(fields, site.Supported())
	if err != nil {
		return engine.Job{}, err
	}

	quota := engine.Quota{MaxItems: f.MaxItems, MaxPages: f.MaxPages}
	if quota.MaxItems == 0 {
		per := site.ItemsPerPage
		if per <= 0 {
			per = 20
		}
		pages := quota.MaxPages
		if pages == 0 {
			pages = 1
		}
		quota.MaxItems = pages * per
	}

	id := f.JobID
	if id == "" {
		id = uuid.New().String()
	}

	return engine.Job{ID: id, Query: query, Fields: names, Quota: quota, Resume: resume}, nil
}

func Run(ctx context.Context, cmd *cobra.Command, f Flags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(f.Config, cmd.OutOrStdout(), cmd.ErrOrStderr(), f.overrides)
	if err != nil {
		return err
	}
	defer a.Close()

	site, err := a.Config.Site(f.Site)
	if err != nil {
		return a.Fail(err)
	}

	var resume *session.Session
	if f.SessionID != "" {
		store, err := a.Sessions()
		if err != nil {
			return a.Fail(err)
		}
		if resume, err = store.Load(ctx, f.SessionID); err != nil {
			return a.Fail(fmt.Errorf("session %s: %w", f.SessionID, err))
		}
		if resume.Site != "" && resume.Site != site.Name {
			return a.Fail(fmt.Errorf("session %s belongs to site %s", f.SessionID, resume.Site))
		}
	}

	job, err := f.job(site, resume)
	if err != nil {
		return a.Fail(err)
	}

	logger := a.Logger.With(zap.String("job_id", job.ID), zap.String("site", site.Name), zap.String("query", job.Query))
	logger.Info("scrape start",
		zap.Strings("fields", field.Names(job.Fields)),
		zap.Int("maxItems", job.Quota.MaxItems),
		zap.Int("maxPages", job.Quota.MaxPages))

	fetcher, err := a.Fetcher(ctx)
	if err != nil {
		return a.Fail(err)
	}

	c, err := a.Crawler(ctx, site, fetcher, f.Retries)
	if err != nil {
		return a.Fail(err)
	}

	res, runErr := c.Run(ctx, job)
	for _, m := range res.Messages {
		logger.Warn(m)
	}
	if res.Suspended != nil {
		logger.Info("scrape suspended", zap.String("session", res.Suspended.SessionID))
		return nil
	}

	file, err := a.Sink.Finalize(job.Query, site.Name, res.Records, res.Skipped)
	if runErr != nil {
		if err != nil {
			logger.Error("persist partial results", zap.Error(err))
		}
		return a.Fail(runErr)
	}
	if err != nil {
		return a.Fail(err)
	}

	logger.Info("scrape done", zap.Int("scraped", len(res.Records)), zap.Int("pages", res.Pages), zap.String("file", file))
	return nil
}
