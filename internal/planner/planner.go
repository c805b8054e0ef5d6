package planner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrwillibald/nuliga-helper/internal/config"
	"github.com/mrwillibald/nuliga-helper/internal/dispatch"
	"github.com/mrwillibald/nuliga-helper/internal/game"
	"github.com/mrwillibald/nuliga-helper/internal/logger"
	"github.com/mrwillibald/nuliga-helper/internal/storage"
)

// ScheduleSource fetches the authoritative schedule from the league
type ScheduleSource interface {
	FetchSchedule(ctx context.Context, season game.Season, halls []string) (game.Table, error)
}

// TableStore reads and writes the roster file
type TableStore interface {
	Load(path string) (game.Table, error)
	Save(table game.Table, path string) error
}

// ObjectStore moves the roster file between the work directory and the cloud
type ObjectStore interface {
	Upload(ctx context.Context, localPath, key string) error
	Download(ctx context.Context, key, localPath string) error
}

// Dispatcher sends the notifications of a run
type Dispatcher interface {
	TaskReminders(ctx context.Context, t game.Table, date string) dispatch.Tally
	PreTaskReminders(ctx context.Context, t game.Table, date string) dispatch.Tally
	ServicePreNotice(ctx context.Context, t game.Table, date string) dispatch.Tally
	RefereeCoordinatorAlert(ctx context.Context, t game.Table, date string) dispatch.Tally
	ShiftAlert(ctx context.Context, rec game.Record, change game.Change) dispatch.Tally
	NewspaperDigest(ctx context.Context, t game.Table, date, weekday, articleDate string) dispatch.Tally
	UnmatchedReport(ctx context.Context, numbers []int) dispatch.Tally
}

// Clock returns the current time
type Clock func() time.Time

// Days ahead of today that trigger the scheduled notifications
const (
	reminderLead    = 1
	preNoticeLead   = 7
	saturdayArticle = 9
	sundayArticle   = 10
)

// Planner orchestrates a run
type Planner struct {
	cfg      *config.Config
	source   ScheduleSource
	tables   TableStore
	objects  ObjectStore
	dispatch Dispatcher
	workDir  string
	clock    Clock
	runID    string
	dryRun   bool
	log      *logger.Logger
	metrics  *logger.Metrics
}

// Option configures a Planner
type Option func(*Planner)

// WithObjectStore keeps the roster in cloud storage. Without it the copy in
// the work directory is the persisted roster.
func WithObjectStore(o ObjectStore) Option {
	return func(p *Planner) {
		p.objects = o
	}
}

// WithClock replaces the wall clock, e.g. to replay a past day
func WithClock(c Clock) Option {
	return func(p *Planner) {
		p.clock = c
	}
}

// WithRunID sets the identifier reported in logs and the summary
func WithRunID(id string) Option {
	return func(p *Planner) {
		p.runID = id
	}
}

// WithDryRun leaves the persisted roster untouched. The merged roster is
// written next to it with a ".dryrun" suffix and never uploaded.
func WithDryRun() Option {
	return func(p *Planner) {
		p.dryRun = true
	}
}

// WithLogger replaces the default logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Planner) {
		p.log = l
	}
}

// WithMetrics replaces the default metrics
func WithMetrics(m *logger.Metrics) Option {
	return func(p *Planner) {
		p.metrics = m
	}
}

// New creates a Planner
func New(cfg *config.Config, source ScheduleSource, tables TableStore, d Dispatcher, workDir string, opts ...Option) *Planner {
	p := &Planner{
		cfg:      cfg,
		source:   source,
		tables:   tables,
		dispatch: d,
		workDir:  workDir,
		clock:    time.Now,
		log:      logger.Default(),
		metrics:  logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runID == "" {
		p.runID = uuid.NewString()
	}
	return p
}

// Summary reports what a run did
type Summary struct {
	RunID         string                    `json:"run_id"`
	StartedAt     time.Time                 `json:"started_at"`
	Today         string                    `json:"today"`
	Season        string                    `json:"season"`
	Games         int                       `json:"games"`
	Bootstrapped  bool                      `json:"bootstrapped"`
	DryRun        bool                      `json:"dry_run"`
	Changes       []game.Change             `json:"changes"`
	Unmatched     []int                     `json:"unmatched"`
	SavedTo       string                    `json:"saved_to"`
	RosterKept    bool                      `json:"roster_kept"`
	Uploaded      bool                      `json:"uploaded"`
	Notifications map[string]dispatch.Tally `json:"notifications"`
	Total         dispatch.Tally            `json:"total"`
	Metrics       logger.Snapshot           `json:"metrics"`
}

func (s *Summary) record(category string, t dispatch.Tally) {
	total := s.Notifications[category]
	total.Add(t)
	s.Notifications[category] = total
	s.Total.Add(t)
}

// Run executes one pass. Fetch, reconcile and save failures abort the run.
// A failed upload is reported after the reminders have gone out.
func (p *Planner) Run(ctx context.Context) (*Summary, error) {
	now := p.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	season := game.SeasonOf(today)
	log := p.log.With(logger.Fields{"run_id": p.runID})

	summary := &Summary{
		RunID:         p.runID,
		StartedAt:     now,
		Today:         game.FormatDate(today),
		Season:        season.String(),
		DryRun:        p.dryRun,
		Changes:       make([]game.Change, 0),
		Unmatched:     make([]int, 0),
		Notifications: make(map[string]dispatch.Tally),
	}

	key := season.FileName()
	localPath := filepath.Join(p.workDir, key)

	log.Info("Run started", logger.Fields{
		"today":  summary.Today,
		"season": summary.Season,
	})

	// 1. persisted roster from the cloud
	if p.objects != nil {
		if err := p.objects.Download(ctx, key, localPath); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Info("No persisted roster in storage", logger.Fields{"key": key})
			} else {
				log.Warn("Download of persisted roster failed", logger.Fields{
					"key":   key,
					"error": err.Error(),
				})
			}
		}
	}

	// 2. authoritative schedule
	start := time.Now()
	authoritative, err := p.source.FetchSchedule(ctx, season, p.cfg.Club.Halls)
	p.metrics.RecordTiming("scrape", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetching league schedule: %w", err)
	}
	log.Info("League schedule fetched", logger.Fields{"games": len(authoritative)})

	// 3. reconcile
	// an unreadable roster is never overwritten
	keepPersisted := p.dryRun
	persisted, err := p.tables.Load(localPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("No persisted roster, starting from league schedule", logger.Fields{"path": localPath})
		} else {
			log.Error("Persisted roster unreadable, starting from league schedule and leaving it untouched",
				logger.Fields{"path": localPath}, err)
			keepPersisted = true
		}
		persisted = authoritative.Clone()
		summary.Bootstrapped = true
	}

	result, err := game.Reconcile(authoritative, persisted)
	if err != nil {
		return nil, fmt.Errorf("reconciling roster: %w", err)
	}
	merged := result.Merged
	summary.Games = len(merged)
	summary.Changes = result.Changes
	summary.Unmatched = result.Unmatched
	log.Info("Roster merged with league schedule", logger.Fields{
		"games":     len(merged),
		"changes":   len(result.Changes),
		"unmatched": len(result.Unmatched),
	})

	// 4. games missing from the roster
	if len(result.Unmatched) > 0 {
		log.Warn("Game numbers not contained in roster, please correct manually", logger.Fields{
			"games": result.Unmatched,
		})
		summary.record("unmatched", p.dispatch.UnmatchedReport(ctx, result.Unmatched))
	}

	// 5. schedule shifts
	for _, change := range result.Of(game.ChangeScheduleShift) {
		rec, _ := merged.Lookup(change.Number)
		log.Info("Game rescheduled", logger.Fields{
			"game": change.Number,
			"from": change.OldDate + " " + change.OldTime,
			"to":   change.NewDate + " " + change.NewTime,
		})
		summary.record("shift", p.dispatch.ShiftAlert(ctx, rec, change))
	}

	// 6. referees newly required, one alert per affected day
	alerted := make(map[string]bool)
	for _, change := range result.Of(game.ChangeRefereeMissing) {
		log.Info("Home referee newly required", logger.Fields{
			"game": change.Number,
			"date": change.NewDate,
		})
		if alerted[change.NewDate] {
			continue
		}
		alerted[change.NewDate] = true
		summary.record("referee", p.dispatch.RefereeCoordinatorAlert(ctx, merged, change.NewDate))
	}

	// 7. persist
	savePath := localPath
	if keepPersisted {
		suffix := "recovered"
		if p.dryRun {
			suffix = "dryrun"
		}
		savePath = filepath.Join(p.workDir, scratchName(key, suffix))
		summary.RosterKept = true
	}
	if err := p.tables.Save(merged, savePath); err != nil {
		return nil, fmt.Errorf("saving roster: %w", err)
	}
	summary.SavedTo = savePath
	log.Info("Roster saved locally", logger.Fields{"path": savePath})

	var uploadErr error
	if p.objects != nil && keepPersisted {
		log.Warn("Upload skipped, persisted roster left untouched", logger.Fields{"key": key, "path": savePath})
	} else if p.objects != nil {
		start := time.Now()
		uploadErr = p.objects.Upload(ctx, localPath, key)
		p.metrics.RecordTiming("upload", time.Since(start))
		if uploadErr != nil {
			log.Error("Upload of roster failed, keeping local copy", logger.Fields{"key": key}, uploadErr)
		} else {
			summary.Uploaded = true
			log.Info("Roster uploaded", logger.Fields{"key": key})
			if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn("Could not delete local roster", logger.Fields{
					"path":  localPath,
					"error": err.Error(),
				})
			}
		}
	}

	// 8. reminders for tomorrow
	tomorrow := game.FormatDate(today.AddDate(0, 0, reminderLead))
	if merged.HasDate(tomorrow) {
		tally := p.dispatch.TaskReminders(ctx, merged, tomorrow)
		summary.record("task", tally)
		log.Info("Task reminders sent", logger.Fields{"date": tomorrow, "sent": tally.Sent})

		if len(merged.HomeRefereeNeeded(tomorrow)) > 0 {
			summary.record("referee", p.dispatch.RefereeCoordinatorAlert(ctx, merged, tomorrow))
		}
	}

	// 9. pre-notices for next week
	nextWeek := game.FormatDate(today.AddDate(0, 0, preNoticeLead))
	if merged.HasDate(nextWeek) {
		summary.record("service", p.dispatch.ServicePreNotice(ctx, merged, nextWeek))
		tally := p.dispatch.PreTaskReminders(ctx, merged, nextWeek)
		summary.record("pre_task", tally)
		log.Info("Pre-task reminders sent", logger.Fields{"date": nextWeek, "sent": tally.Sent})
	}

	// 10. newspaper article
	if p.cfg.Newspaper.Enabled {
		if date, weekday, articleDate, ok := articleFor(today, merged); ok {
			summary.record("newspaper", p.dispatch.NewspaperDigest(ctx, merged, date, weekday, articleDate))
		}
	}

	summary.Metrics = p.metrics.GetSnapshot()
	log.Info("Run finished", logger.Fields{
		"sent":    summary.Total.Sent,
		"skipped": summary.Total.Skipped,
		"failed":  summary.Total.Failed,
	})

	if uploadErr != nil {
		return summary, fmt.Errorf("uploading roster: %w", uploadErr)
	}
	return summary, nil
}

// scratchName inserts suffix before the extension of key
func scratchName(key, suffix string) string {
	ext := filepath.Ext(key)
	return strings.TrimSuffix(key, ext) + "." + suffix + ext
}

// articleFor picks the game day the newspaper article announces. A
// Saturday nine days out wins over a Sunday ten days out; both articles
// appear on the Friday before.
func articleFor(today time.Time, t game.Table) (date, weekday, articleDate string, ok bool) {
	saturday := today.AddDate(0, 0, saturdayArticle)
	if saturday.Weekday() == time.Saturday && t.HasDate(game.FormatDate(saturday)) {
		return game.FormatDate(saturday), "Samstag", game.FormatDate(saturday.AddDate(0, 0, -1)), true
	}

	sunday := today.AddDate(0, 0, sundayArticle)
	if sunday.Weekday() == time.Sunday && t.HasDate(game.FormatDate(sunday)) {
		return game.FormatDate(sunday), "Sonntag", game.FormatDate(sunday.AddDate(0, 0, -2)), true
	}

	return "", "", "", false
}
