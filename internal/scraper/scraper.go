package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/mrwillibald/nuliga-helper/internal/game"
)

const (
	UserAgent = "nuliga-helper/1.0 (github.com/mrwillibald/nuliga-helper)"
	Timeout   = 30 * time.Second
)

// ErrNoTable is returned when the response has no schedule table
var ErrNoTable = errors.New("no result-set table in response")

// Column positions in the result-set table. Columns after the referee
// column (report links) are ignored.
const (
	colDay = iota
	colDate
	colTime
	colHall
	colNumber
	colCategory
	colHome
	colGuest
	colReferee

	minColumns
)

// Scraper handles fetching and parsing the league's club meetings page
type Scraper struct {
	client       *http.Client
	url          string
	clubID       string
	retries      uint64
	initialDelay time.Duration
}

// Option configures a Scraper
type Option func(*Scraper)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		s.client = client
	}
}

// WithRetry sets how often a failed fetch is retried and the first delay
func WithRetry(retries int, initialDelay time.Duration) Option {
	return func(s *Scraper) {
		if retries < 0 {
			retries = 0
		}
		s.retries = uint64(retries)
		s.initialDelay = initialDelay
	}
}

// New creates a new Scraper for the club meetings search at url
func New(url, clubID string, opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:          url,
		clubID:       clubID,
		retries:      3,
		initialDelay: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchSchedule fetches the season's games of the club and keeps those in
// one of the given halls
func (s *Scraper) FetchSchedule(ctx context.Context, season game.Season, halls []string) (game.Table, error) {
	form := url.Values{
		"club":                {s.clubID},
		"searchType":          {"1"},
		"searchTimeRangeFrom": {season.From()},
		"searchTimeRangeTo":   {season.To()},
		"onlyHomeMeetings":    {"false"},
	}

	var table game.Table
	fetch := func() error {
		body, err := s.post(ctx, form)
		if err != nil {
			return err
		}
		defer body.Close()

		table, err = parseSchedule(body, halls)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.initialDelay
	err := backoff.Retry(fetch, backoff.WithContext(backoff.WithMaxRetries(policy, s.retries), ctx))
	if err != nil {
		return nil, err
	}
	return table, nil
}

func (s *Scraper) post(ctx context.Context, form url.Values) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return resp.Body, nil
}

// parseSchedule extracts the home games from the club meetings HTML
func parseSchedule(r io.Reader, halls []string) (game.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	resultSet := doc.Find("table.result-set").First()
	if resultSet.Length() == 0 {
		return nil, ErrNoTable
	}

	table := make(game.Table, 0)
	var day, date string

	resultSet.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minColumns {
			// header row or a notice spanning the table
			return
		}

		text := make([]string, cells.Length())
		cells.Each(func(j int, cell *goquery.Selection) {
			text[j] = cellText(cell)
		})

		// day and date are only printed on the first game of a day
		if text[colDay] != "" {
			day = text[colDay]
		}
		if text[colDate] != "" {
			date = text[colDate]
		}

		if !inHalls(text[colHall], halls) {
			return
		}

		number, err := strconv.Atoi(text[colNumber])
		if err != nil {
			// bye rows carry no game number
			return
		}

		table = append(table, game.Record{
			Number:        number,
			Day:           day,
			Date:          date,
			Time:          text[colTime],
			Hall:          text[colHall],
			Category:      text[colCategory],
			Home:          text[colHome],
			Guest:         text[colGuest],
			RefereeStatus: text[colReferee],
		})
	})

	return table, nil
}

// cellText returns the visible text of a cell with whitespace collapsed
func cellText(cell *goquery.Selection) string {
	return strings.Join(strings.Fields(cell.Text()), " ")
}

func inHalls(hall string, halls []string) bool {
	for _, h := range halls {
		if h != "" && strings.Contains(hall, h) {
			return true
		}
	}
	return false
}
