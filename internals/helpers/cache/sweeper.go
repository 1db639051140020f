package cache

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper is anything that can drop its expired entries.
type Sweeper interface {
	Sweep() int
}

// StartSweeper schedules Sweep on every target using a cron spec such as "@every 10m".
// The returned cron is already running; call Stop on shutdown.
func StartSweeper(spec string, log logrus.FieldLogger, targets map[string]Sweeper) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		for name, t := range targets {
			if n := t.Sweep(); n > 0 {
				log.WithFields(logrus.Fields{"cache": name, "removed": n}).Info("[CACHE] expired entries swept")
			}
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
