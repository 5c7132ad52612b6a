package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Arakiss/vestig/level"
	"github.com/Arakiss/vestig/record"
)

// ConsoleOptions configures the Console transport.
type ConsoleOptions struct {
	Config
	Structured bool // JSON per line vs. pretty
	Colors     bool // ANSI colors in pretty mode; off unless set (the logger's config turns it on for pretty output)
	Stdout     io.Writer
	Stderr     io.Writer
}

// Console is synchronous and never batches (spec §4.8).
type Console struct {
	opts ConsoleOptions
}

// NewConsole constructs a Console transport. Colors is used as given; Stdout/
// Stderr default to os.Stdout/os.Stderr.
func NewConsole(opts ConsoleOptions) *Console {
	if opts.Name == "" {
		opts.Name = "console"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Console{opts: opts}
}

func (c *Console) Name() string    { return c.opts.Name }
func (c *Console) Config() Config  { return c.opts.Config }
func (c *Console) Init() error     { return nil }
func (c *Console) Flush() error    { return nil }
func (c *Console) Destroy() error  { return nil }

var ansiColors = map[level.Level]string{
	level.Trace: "\x1b[90m",
	level.Debug: "\x1b[36m",
	level.Info:  "\x1b[32m",
	level.Warn:  "\x1b[33m",
	level.Error: "\x1b[31m",
}

const ansiReset = "\x1b[0m"

func (c *Console) stream(l level.Level) io.Writer {
	// trace maps to the "debug" stream per spec §4.8.
	switch l {
	case level.Warn, level.Error:
		return c.opts.Stderr
	default:
		return c.opts.Stdout
	}
}

// Log writes r immediately to the chosen stream, in structured (JSON) or
// pretty form.
func (c *Console) Log(r record.Log) {
	w := c.stream(r.Level)
	if c.opts.Structured {
		c.logStructured(w, r)
		return
	}
	c.logPretty(w, r)
}

func (c *Console) logStructured(w io.Writer, r record.Log) {
	doc := map[string]interface{}{
		"timestamp": r.TimestampISO(),
		"level":     r.Level.String(),
		"message":   r.Message,
	}
	if len(r.Metadata) > 0 {
		doc["metadata"] = r.Metadata
	}
	if len(r.Context) > 0 {
		doc["context"] = r.Context
	}
	if r.Namespace != "" {
		doc["namespace"] = r.Namespace
	}
	if r.Error != nil {
		doc["error"] = r.Error
	}
	enc := json.NewEncoder(w)
	_ = enc.Encode(doc)
}

func (c *Console) logPretty(w io.Writer, r record.Log) {
	label := strings.ToUpper(fmt.Sprintf("%-5s", r.Level.String()))
	if c.opts.Colors {
		if code, ok := ansiColors[r.Level]; ok {
			label = code + label + ansiReset
		}
	}
	line := fmt.Sprintf("%s %s", label, r.TimestampISO())
	if r.Namespace != "" {
		line += fmt.Sprintf(" [%s]", r.Namespace)
	}
	line += " " + r.Message
	if len(r.Metadata) > 0 {
		b, _ := json.Marshal(r.Metadata)
		line += " " + string(b)
	}
	fmt.Fprintln(w, line)
	if r.Error != nil && r.Error.Stack != "" {
		fmt.Fprintln(w, r.Error.Stack)
	}
}
