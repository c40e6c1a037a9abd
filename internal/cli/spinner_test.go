package cli

import (
	"testing"
	"time"
)

func TestSpinner_StopIsIdempotent(t *testing.T) {
	out := &syncBuffer{}
	s := StartSpinner(out, "AI 正在解析...")

	time.Sleep(3 * spinnerInterval)
	s.Stop()
	s.Stop()
}
