package formatting

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"launcher/internal/modules"
	"launcher/internal/ports"
	"launcher/internal/statusapi"
)

// Printer writes launcher state to an output stream.
type Printer struct {
	out    io.Writer
	format OutputFormat
}

// NewPrinter creates a printer writing format to out.
func NewPrinter(out io.Writer, format OutputFormat) *Printer {
	if format == "" {
		format = FormatTable
	}
	return &Printer{out: out, format: format}
}

// PortRow is one line of the port listing.
type PortRow struct {
	Module string `json:"module" yaml:"module"`
	Port   int    `json:"port" yaml:"port"`
	Route  string `json:"route,omitempty" yaml:"route,omitempty"`
}

// PortRows joins an allocation with the route of each declaration, sorted
// by port.
func PortRows(alloc ports.Allocation, decls []modules.Declaration) []PortRow {
	routes := make(map[string]string, len(decls))
	for _, d := range decls {
		routes[d.Name] = d.Route
	}

	rows := make([]PortRow, 0, len(alloc))
	for name, port := range alloc {
		rows = append(rows, PortRow{Module: name, Port: port, Route: routes[name]})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Port < rows[j].Port })
	return rows
}

// Ports prints the port listing.
func (p *Printer) Ports(rows []PortRow) error {
	if done, err := p.structured(rows); done {
		return err
	}

	if len(rows) == 0 {
		fmt.Fprintf(p.out, "%s\n", text.FgYellow.Sprint("No modules declared"))
		return nil
	}

	t := p.createTable()
	t.AppendHeader(table.Row{header("MODULE"), header("PORT"), header("ROUTE")})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Module, r.Port, r.Route})
	}
	t.Render()
	return nil
}

// Status prints the orchestrator state and a table of its services.
func (p *Printer) Status(status statusapi.StatusResponse) error {
	if done, err := p.structured(status); done {
		return err
	}

	fmt.Fprintf(p.out, "Launcher: %s\n", colorState(string(status.State)))
	if status.LastError != "" {
		fmt.Fprintf(p.out, "Last error: %s\n", text.FgRed.Sprint(status.LastError))
	}

	if len(status.Services) == 0 {
		return nil
	}

	t := p.createTable()
	t.AppendHeader(table.Row{header("NAME"), header("TYPE"), header("STATE"), header("ERROR")})
	for _, s := range status.Services {
		t.AppendRow(table.Row{s.Name, s.Type, colorState(s.State), truncate(s.Error, 80)})
	}
	t.Render()
	return nil
}

// structured handles the json and yaml formats. It reports whether it
// wrote the output.
func (p *Printer) structured(v interface{}) (bool, error) {
	var err error
	switch p.format {
	case FormatJSON:
		_, err = fmt.Fprintln(p.out, PrettyJSON(v))
	case FormatYAML:
		_, err = fmt.Fprint(p.out, PrettyYAML(v))
	default:
		return false, nil
	}
	return true, err
}

func (p *Printer) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(s string) string {
	return text.FgHiCyan.Sprint(s)
}

func colorState(state string) string {
	switch state {
	case "running":
		return text.FgGreen.Sprint(state)
	case "failed":
		return text.FgRed.Sprint(state)
	case "starting", "stopping":
		return text.FgYellow.Sprint(state)
	default:
		return state
	}
}

// truncate puts s on one line and shortens it to n runes. Joined errors
// span several lines and would break the table otherwise.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
