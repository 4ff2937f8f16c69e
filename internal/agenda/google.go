/*
Copyright (C) 2026 Dayblock Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package agenda

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/dayblock/dayblock/internal/scheduling"
)

// GoogleConfig locates the OAuth credentials for the Calendar API.
type GoogleConfig struct {
	CredentialsFile string
	TokenFile       string
	CalendarID      string
}

// GoogleSource reads busy windows from a Google Calendar via the
// free/busy endpoint. It implements BusySource.
type GoogleSource struct {
	srv        *calendar.Service
	calendarID string
	logger     zerolog.Logger
}

// NewGoogleSource builds a calendar client from stored OAuth credentials.
// The token file must already contain a valid refresh token; the
// interactive authorization flow is out of scope for the server.
func NewGoogleSource(ctx context.Context, cfg GoogleConfig, logger zerolog.Logger) (*GoogleSource, error) {
	secrets, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(secrets, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("load oauth token: %w", err)
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	return &GoogleSource{
		srv:        srv,
		calendarID: calendarID,
		logger:     logger.With().Str("component", "google_calendar").Logger(),
	}, nil
}

// BusyWindows queries the free/busy endpoint for [from, to) and converts
// each busy period into per-day events, splitting periods that cross
// midnight.
func (g *GoogleSource) BusyWindows(ctx context.Context, from, to time.Time) (scheduling.BusyCalendar, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: g.calendarID}},
	}

	resp, err := g.srv.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	result := make(scheduling.BusyCalendar)
	cal, ok := resp.Calendars[g.calendarID]
	if !ok {
		return result, nil
	}

	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			g.logger.Warn().Err(err).Str("start", period.Start).Msg("skipping busy period with bad start")
			continue
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			g.logger.Warn().Err(err).Str("end", period.End).Msg("skipping busy period with bad end")
			continue
		}
		addBusyPeriod(result, start.In(from.Location()), end.In(from.Location()))
	}

	g.logger.Debug().Int("days", len(result)).Msg("fetched Google busy windows")
	return result, nil
}

// addBusyPeriod splits a wall-clock period into day-bounded busy events.
func addBusyPeriod(calendar scheduling.BusyCalendar, start, end time.Time) {
	for !start.After(end) && start.Before(end) {
		dayEnd := scheduling.Midnight(start).AddDate(0, 0, 1)
		segmentEnd := end
		if segmentEnd.After(dayEnd) {
			segmentEnd = dayEnd
		}

		startMinute := start.Hour()*60 + start.Minute()
		endMinute := segmentEnd.Hour()*60 + segmentEnd.Minute()
		if segmentEnd.Equal(dayEnd) {
			endMinute = 24 * 60
		}
		if endMinute > startMinute {
			calendar.Add(start.Format(scheduling.DayFormat), scheduling.BusyEvent{
				Start: startMinute,
				End:   endMinute,
				Title: "Busy",
			})
		}

		start = dayEnd
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decode token file %s: %w", path, err)
	}
	return token, nil
}
