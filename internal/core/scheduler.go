package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wenlin9/xdbot/internal/logger"
)

// NextPushTime returns the next instant at hour:00 in now's location that is
// strictly after now. A run at exactly hour:00 schedules the following day.
func NextPushTime(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// runDailyPush delivers the free-games report to every subscribed group once
// a day at the configured hour. Fetch or delivery failures are logged and the
// loop waits for the next day.
func (e *Engine) runDailyPush(ctx context.Context) {
	loc, err := e.config.PushLocation()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"timezone": e.config.Epic.Timezone,
			"error":    err,
		}).Error("daily-push-disabled-invalid-timezone")
		return
	}

	logger.WithFields(logrus.Fields{
		"hour":     e.config.Epic.PushHour,
		"timezone": e.config.Epic.Timezone,
	}).Info("daily-push-scheduler-started")

	for {
		now := time.Now().In(loc)
		next := NextPushTime(now, e.config.Epic.PushHour)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("daily-push-scheduler-stopped")
			return
		case <-timer.C:
		}

		e.pushFreeGames(ctx)
	}
}

// pushFreeGames fetches the current report and fans it out to subscribers
func (e *Engine) pushFreeGames(ctx context.Context) {
	subscribers := e.store.Subscribers()
	if len(subscribers) == 0 {
		logger.Debug("daily-push-skipped-no-subscribers")
		return
	}

	report, err := e.fetcher.FetchFreeGames(ctx)
	if err != nil {
		logger.WithField("error", err).Error("daily-push-fetch-failed")
		return
	}

	text := report.Format()
	for _, target := range subscribers {
		if err := e.SendToBot(target.Platform, target.Channel, text); err != nil {
			logger.WithFields(logrus.Fields{
				"platform": target.Platform,
				"channel":  target.Channel,
				"error":    err,
			}).Error("daily-push-delivery-failed")
		}
	}

	logger.WithField("subscribers", len(subscribers)).Info("daily-push-completed")
}
