package cli

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

const spinnerInterval = 120 * time.Millisecond

// Spinner shows an indeterminate progress indicator while waiting on the
// model. Stop is safe to call more than once.
type Spinner struct {
	bar  *progressbar.ProgressBar
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// StartSpinner starts a spinner with description on w.
func StartSpinner(w io.Writer, description string) *Spinner {
	s := &Spinner{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionClearOnFinish(),
		),
		done: make(chan struct{}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				if err := s.bar.Add(1); err != nil {
					slog.Debug("Failed to update spinner", "error", err)
				}
			}
		}
	}()
	return s
}

// Stop clears the spinner.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		if err := s.bar.Finish(); err != nil {
			slog.Debug("Failed to finish spinner", "error", err)
		}
	})
}
