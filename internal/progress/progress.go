// Package progress reports randomization progress to the log and to
// WebSocket listeners.
package progress

import (
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/logger"
)

// Event is one progress update
type Event struct {
	Step    string `json:"step"`
	Message string `json:"message,omitempty"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Status receives progress updates from a randomization run
type Status interface {
	Update(step, message string, current, total int)
	Done(err error)
}

// LogStatus writes progress to the logger
type LogStatus struct{}

// Update logs a progress step at debug level
func (LogStatus) Update(step, message string, current, total int) {
	logger.Debug("Progress", "step", step, "message", message, "current", current, "total", total)
}

// Done logs the end of the run
func (LogStatus) Done(err error) {
	if err != nil {
		logger.Error("Randomization failed", "error", err)
		return
	}
	logger.Info("Randomization finished")
}

// Tee forwards every update to all statuses
func Tee(statuses ...Status) Status {
	return tee(statuses)
}

type tee []Status

func (t tee) Update(step, message string, current, total int) {
	for _, s := range t {
		s.Update(step, message, current, total)
	}
}

func (t tee) Done(err error) {
	for _, s := range t {
		s.Done(err)
	}
}
