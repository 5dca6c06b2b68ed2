package ui

import (
	"fmt"
	"io"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line progress indicator while a transaction is
// waiting to be mined. On a non-terminal writer it prints the message once.
type Spinner struct {
	out  io.Writer
	msg  string
	tty  bool
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, msg string, tty bool) *Spinner {
	return &Spinner{
		out:  out,
		msg:  msg,
		tty:  tty,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins the animation in a goroutine.
func (s *Spinner) Start() {
	if !s.tty {
		fmt.Fprintln(s.out, Meta(s.msg))
		close(s.done)
		return
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.out, "\r%s  %s", StyleChain.Render(spinnerFrames[i%len(spinnerFrames)]), s.msg)
			select {
			case <-s.stop:
				fmt.Fprintf(s.out, "\r%-60s\r", "")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the spinner and waits for it to finish.
func (s *Spinner) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}
