package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
)

// Format represents output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatTable
	}
}

// Printer handles formatted output
type Printer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewPrinter creates a new printer
func NewPrinter(format Format) *Printer {
	return &Printer{
		format:  format,
		writer:  os.Stdout,
		noColor: os.Getenv("NO_COLOR") != "",
	}
}

// SetWriter sets the output writer
func (p *Printer) SetWriter(w io.Writer) {
	p.writer = w
}

// SetNoColor disables ANSI colors
func (p *Printer) SetNoColor(v bool) {
	p.noColor = v
}

// Print outputs data in the configured format
func (p *Printer) Print(data interface{}) error {
	switch p.format {
	case FormatYAML:
		return p.printYAML(data)
	default:
		return p.printJSON(data)
	}
}

func (p *Printer) printJSON(data interface{}) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (p *Printer) printYAML(data interface{}) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(2)
	return enc.Encode(data)
}

// Color codes
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Colorize adds color to text
func (p *Printer) Colorize(color, text string) string {
	if p.noColor {
		return text
	}
	return color + text + Reset
}

// TableWriter creates a tabwriter for aligned output
func (p *Printer) TableWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
}

// statsView is the YAML/JSON shape of a stats snapshot.
type statsView struct {
	Hits             uint64  `json:"hits" yaml:"hits"`
	Misses           uint64  `json:"misses" yaml:"misses"`
	Sets             uint64  `json:"sets" yaml:"sets"`
	Deletes          uint64  `json:"deletes" yaml:"deletes"`
	Errors           uint64  `json:"errors" yaml:"errors"`
	HitRate          float64 `json:"hitRate" yaml:"hitRate"`
	Size             int     `json:"size" yaml:"size"`
	MemoryBytes      int64   `json:"memoryBytes" yaml:"memoryBytes"`
	Memory           string  `json:"memory" yaml:"memory"`
	Backend          string  `json:"backend" yaml:"backend"`
	BackendConnected bool    `json:"backendConnected" yaml:"backendConnected"`
	BackendState     string  `json:"backendState" yaml:"backendState"`
}

// PrintStats prints a cache stats snapshot
func (p *Printer) PrintStats(s cache.Stats) error {
	if p.format == FormatJSON || p.format == FormatYAML {
		return p.Print(statsView(s))
	}

	w := p.TableWriter()
	fmt.Fprintln(w, p.Colorize(Bold, "METRIC\tVALUE"))
	fmt.Fprintf(w, "hits\t%d\n", s.Hits)
	fmt.Fprintf(w, "misses\t%d\n", s.Misses)
	fmt.Fprintf(w, "sets\t%d\n", s.Sets)
	fmt.Fprintf(w, "deletes\t%d\n", s.Deletes)
	fmt.Fprintf(w, "errors\t%s\n", p.errorCount(s.Errors))
	fmt.Fprintf(w, "hit rate\t%.0f%%\n", s.HitRate)
	fmt.Fprintf(w, "entries\t%d\n", s.Size)
	fmt.Fprintf(w, "memory\t%s\n", s.Memory)
	fmt.Fprintf(w, "backend\t%s (%s)\n", p.Colorize(Cyan, s.Backend), p.backendState(s))
	return w.Flush()
}

func (p *Printer) errorCount(n uint64) string {
	if n == 0 {
		return "0"
	}
	return p.Colorize(Red, fmt.Sprint(n))
}

func (p *Printer) backendState(s cache.Stats) string {
	switch {
	case s.BackendConnected:
		return p.Colorize(Green, s.BackendState)
	case s.BackendState == "errored":
		return p.Colorize(Red, s.BackendState)
	default:
		return p.Colorize(Yellow, s.BackendState)
	}
}

// PrintKeys prints cache keys, one per line in table mode
func (p *Printer) PrintKeys(keys []string) error {
	if p.format == FormatJSON || p.format == FormatYAML {
		return p.Print(keys)
	}
	if len(keys) == 0 {
		fmt.Fprintln(p.writer, "No keys found")
		return nil
	}
	w := p.TableWriter()
	fmt.Fprintln(w, p.Colorize(Bold, "KEY"))
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return w.Flush()
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Green, "✓ ")+msg)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Red, "✗ ")+msg)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Yellow, "! ")+msg)
}
