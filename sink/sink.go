// Package sink talks to the controlling process: one JSON object per line on
// stdout, errors on stderr, and the final result set written to disk.
package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/dreamerjackson/shopcrawler/challenge"
	"github.com/dreamerjackson/shopcrawler/field"
	"go.uber.org/zap"
)

// Skip is a card that was dropped before emission.
type Skip struct {
	Page   int    `json:"page"`
	Index  int    `json:"index"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

type progress struct {
	Type    string `json:"type"`
	Scraped int    `json:"scraped"`
	Total   int    `json:"total"`
}

type item struct {
	Type  string       `json:"type"`
	Item  field.Record `json:"item"`
	URL   string       `json:"url"`
	Index int          `json:"index"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type captcha struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type suspend struct {
	Status    string  `json:"status"`
	Captcha   captcha `json:"captcha"`
	SessionID string  `json:"sessionId"`
}

type validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type complete struct {
	Type    string `json:"type"`
	Scraped int    `json:"scraped"`
	File    string `json:"file"`
}

type options struct {
	logger *zap.Logger
	dir    string
}

var defaultOptions = options{
	logger: zap.NewNop(),
	dir:    "output",
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithDir sets where Finalize writes result files.
func WithDir(dir string) Option {
	return func(opts *options) {
		opts.dir = dir
	}
}

// Sink serializes writes so every message stays on its own line.
type Sink struct {
	options
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

func New(out, errOut io.Writer, opts ...Option) *Sink {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Sink{options: options, out: out, err: errOut}
}

func (s *Sink) Progress(scraped, total int) error {
	return s.write(s.out, progress{Type: "progress", Scraped: scraped, Total: total})
}

func (s *Sink) Item(rec field.Record, url string, index int) error {
	return s.write(s.out, item{Type: "item", Item: rec, URL: url, Index: index})
}

func (s *Sink) Error(message string) error {
	return s.write(s.err, errorMsg{Type: "error", Message: message})
}

func (s *Sink) Suspend(sessionID string, d challenge.Details) error {
	return s.write(s.out, suspend{
		Status:    "captcha_required",
		Captcha:   captcha{Type: string(d.Kind), URL: d.ProbeURL},
		SessionID: sessionID,
	})
}

func (s *Sink) Validation(valid bool, message string) error {
	return s.write(s.out, validation{Valid: valid, Message: message})
}

// Finalize persists every emitted record as one JSON array, plus the skipped
// cards when there are any, and reports the file to the controller.
func (s *Sink) Finalize(keyword, site string, records []field.Record, skipped []Skip) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", s.dir, err)
	}

	if records == nil {
		records = []field.Record{}
	}
	path := filepath.Join(s.dir, FileName(keyword, site))
	if err := writeJSON(path, records); err != nil {
		return "", err
	}

	if len(skipped) > 0 {
		sp := filepath.Join(s.dir, SkippedFileName(keyword, site))
		if err := writeJSON(sp, skipped); err != nil {
			s.logger.Warn("write skipped items failed", zap.Error(err))
		}
	}

	s.logger.Info("results saved",
		zap.String("file", path),
		zap.Int("count", len(records)),
		zap.Int("skipped", len(skipped)))

	return path, s.write(s.out, complete{Type: "complete", Scraped: len(records), File: path})
}

var unsafe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(unsafe.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

func FileName(keyword, site string) string {
	return fmt.Sprintf("products_%s_%s.json", slug(keyword), slug(site))
}

func SkippedFileName(keyword, site string) string {
	return fmt.Sprintf("products_%s_%s_skipped.json", slug(keyword), slug(site))
}

func (s *Sink) write(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = w.Write(b)
	return err
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}
