package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Account:
		o.printAccount(v)
	case Sessions:
		o.printSessions(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	UUID              string            `json:"uuid"`
	Name              string            `json:"name"`
	Role              string            `json:"role"`
	CurrentAddress    string            `json:"current_address,omitempty"`
	PreviousNames     []string          `json:"previous_names"`
	PreviousAddresses []PreviousAddress `json:"previous_addresses"`
}

// PreviousAddress response type
type PreviousAddress struct {
	Value      string `json:"value"`
	LastUsedOn int64  `json:"last_used_on"`
}

// Sessions response type
type Sessions struct {
	Online []Account `json:"online"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Online int    `json:"online"`
}

func (o *Output) printAccount(a Account) {
	_, _ = fmt.Fprintf(o.w, "Player: %s (%s)\n", a.Name, a.UUID)
	_, _ = fmt.Fprintf(o.w, "Role: %s\n", a.Role)
	if a.CurrentAddress != "" {
		_, _ = fmt.Fprintf(o.w, "Address: %s\n", a.CurrentAddress)
	}
	if len(a.PreviousNames) > 0 {
		_, _ = fmt.Fprintf(o.w, "Previous names: %s\n", strings.Join(a.PreviousNames, ", "))
	}
	if len(a.PreviousAddresses) > 0 {
		_, _ = fmt.Fprintf(o.w, "Previous addresses (%d):\n", len(a.PreviousAddresses))
		for _, pa := range a.PreviousAddresses {
			lastUsed := time.UnixMilli(pa.LastUsedOn).UTC().Format(time.RFC3339)
			_, _ = fmt.Fprintf(o.w, "  - %s (last used %s)\n", pa.Value, lastUsed)
		}
	}
}

func (o *Output) printSessions(s Sessions) {
	_, _ = fmt.Fprintf(o.w, "Online (%d):\n", len(s.Online))
	for _, a := range s.Online {
		_, _ = fmt.Fprintf(o.w, "  - %s (%s) - %s\n", a.Name, a.UUID, a.Role)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Account store: %s\n", h.Store)
	_, _ = fmt.Fprintf(o.w, "Online players: %d\n", h.Online)
}
