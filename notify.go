package main

import (
	"io"
	"time"

	"github.com/fatih/color"
)

// Notifier delivers events to the user.
type Notifier interface {
	Notify(Event) error
}

var (
	pluggedColor   = color.New(color.FgHiGreen)
	unpluggedColor = color.New(color.FgHiRed)
	conflictColor  = color.New(color.FgHiYellow, color.Bold)
)

// ConsoleNotifier prints one timestamped line per event.
type ConsoleNotifier struct {
	Out     io.Writer
	NoColor bool
	// Now is used for timestamps; nil means time.Now.
	Now func() time.Time
}

func (n *ConsoleNotifier) Notify(e Event) error {
	msg := e.Message()
	if msg == "" {
		return nil
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	stamp := now().Format("15:04:05.000")

	c := pluggedColor
	switch {
	case e.Conflict != 0:
		c = conflictColor
	case e.Change.Departed():
		c = unpluggedColor
	}

	if n.NoColor {
		_, err := io.WriteString(n.Out, stamp+" "+msg+"\n")
		return err
	}
	_, err := c.Fprintf(n.Out, "%s %s\n", stamp, msg)
	return err
}
