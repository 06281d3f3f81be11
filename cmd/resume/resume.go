package resume

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dreamerjackson/shopcrawler/cmd/app"
	"github.com/dreamerjackson/shopcrawler/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "submit a captcha answer for a suspended run.",
	Long: "resume reloads the page a run was suspended on with the saved cookies,\n" +
		"submits the answer and reports {\"valid\":bool,\"message\":string}.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(cmd.Context(), cmd, flags)
	},
}

type Flags struct {
	Config    string
	SessionID string
	Input     string
	Site      string
}

var flags Flags

func init() {
	fs := ResumeCmd.Flags()
	fs.StringVar(&flags.Config, "config", "", "config file, config.toml when present")
	fs.StringVar(&flags.SessionID, "session-id", "", "session id from the captcha_required message")
	fs.StringVar(&flags.Input, "input", "", "captcha answer, empty for interactive challenges solved elsewhere")
	fs.StringVar(&flags.Site, "site", "", "site of the session, read from the saved session when empty")
	_ = ResumeCmd.MarkFlagRequired("session-id")
}

// siteOf reads the site from a `<site>_<id>` session id.
func siteOf(sessionID string) string {
	i := strings.LastIndex(sessionID, "_")
	if i <= 0 {
		return ""
	}
	return sessionID[:i]
}

// notFound is the answer for ids that do not name a live session.
const notFound = "session not found or expired"

func Run(ctx context.Context, cmd *cobra.Command, f Flags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(f.Config, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.Sessions()
	if err != nil {
		return a.Fail(err)
	}

	logger := a.Logger.With(zap.String("session", f.SessionID))

	if !session.ValidID(f.SessionID) {
		logger.Info("resume: invalid session id")
		return a.Sink.Validation(false, notFound)
	}
	s, err := store.Load(ctx, f.SessionID)
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidID) {
		logger.Info("resume: unknown session")
		return a.Sink.Validation(false, notFound)
	}
	if err != nil {
		logger.Error("resume: load session failed", zap.Error(err))
		return a.Sink.Validation(false, fmt.Sprintf("load session: %v", err))
	}

	name := f.Site
	if name == "" {
		name = s.Site
	}
	if name == "" {
		name = siteOf(f.SessionID)
	}

	site, err := a.Config.Site(name)
	if err != nil {
		logger.Info("resume: unknown site", zap.String("site", name))
		return a.Sink.Validation(false, fmt.Sprintf("session belongs to unknown site %q", name))
	}

	fetcher, err := a.Fetcher(ctx)
	if err != nil {
		return a.Fail(err)
	}

	c, err := a.Crawler(ctx, site, fetcher, 0)
	if err != nil {
		return a.Fail(err)
	}

	v := c.Validate(ctx, f.SessionID, f.Input)
	logger.Info("resume validated",
		zap.Bool("valid", v.Valid),
		zap.String("next", v.Next))

	return a.Sink.Validation(v.Valid, v.Message)
}
