package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/jgarciad/arbscan/internal/domain"
)

// Console implementa ports.Notifier escribiendo a stdout.
type Console struct {
	out   io.Writer
	table bool // tabla completa vs resumen compacto de 1 línea
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el reporte del ciclo en el modo configurado.
func (c *Console) Notify(_ context.Context, report domain.CycleReport) error {
	if c.table {
		c.printFull(report)
	} else {
		c.printCompact(report)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(report domain.CycleReport) {
	now := report.At.Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] snaps:%d eval:%d ok:%d ko:%d",
		now, report.Snapshots, report.Evaluated, report.Accepted, report.Rejected)

	shown := 0
	for _, opp := range report.Opportunities {
		if shown >= 3 {
			break
		}
		// El ranking es por net profit: una rechazada puede ir por delante
		// de las aceptadas, se salta sin cortar el listado.
		if !opp.Accepted {
			continue
		}
		fmt.Fprintf(&sb, " | %s %s +%s %s risk%.2f",
			kindTag(opp.Kind), opp.Path(), opp.NetProfit.StringFixed(4), opp.Quote, opp.RiskScore)
		shown++
	}

	for venue, st := range report.Venues {
		if st.Circuit != "closed" {
			fmt.Fprintf(&sb, " | !%s:%s", venue, st.Circuit)
		}
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla de oportunidades y el estado por venue.
func (c *Console) printFull(report domain.CycleReport) {
	now := report.At.Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d candidatos — aceptados:%d rechazados:%d (%s)\n",
		now, report.Evaluated, report.Accepted, report.Rejected,
		report.Duration.Round(time.Millisecond))

	if len(report.Opportunities) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Kind", "Path", "Net%", "Profit", "Quote", "Risk", "OK")

		for i, opp := range report.Opportunities {
			ok := ""
			if opp.Accepted {
				ok = "✓"
			}
			table.Append(
				fmt.Sprintf("%d", i+1),
				kindTag(opp.Kind),
				opp.Path(),
				fmt.Sprintf("%+.4f", opp.NetProfitPct()),
				opp.NetProfit.StringFixed(4),
				opp.Quote,
				fmt.Sprintf("%.3f", opp.RiskScore),
				ok,
			)
		}
		table.Render()
	}

	c.printVenues(report)
}

// printVenues imprime el estado del circuito y los errores por venue.
func (c *Console) printVenues(report domain.CycleReport) {
	for venue, st := range report.Venues {
		line := fmt.Sprintf("  %s: circuit=%s transient=%d permanent=%d",
			venue, st.Circuit, st.Transient, st.Permanent)
		if st.LastError != "" {
			line += " last_err=" + st.LastError
		}
		fmt.Fprintln(c.out, line)
	}
}

func kindTag(k domain.OpportunityKind) string {
	if k == domain.Triangular {
		return "TRI"
	}
	return "XVN"
}
