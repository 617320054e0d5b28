package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/marketd/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo a stdout: una línea por
// mercado creado y una tabla de liquidación por mercado resuelto.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// MarketCreated imprime una línea con los datos esenciales del mercado.
func (c *Console) MarketCreated(_ context.Context, m domain.Market) error {
	fmt.Fprintf(c.out, "[%s] market created: %q (%s/%s) outcomes=%v ends=%s\n",
		m.CreatedAt.Format("15:04:05"),
		m.Title,
		m.Category,
		m.OutcomeType,
		m.Outcomes,
		m.EndTime.Format(time.RFC3339),
	)
	return nil
}

// MarketSettled imprime el desenlace y la tabla de liquidación de posiciones.
func (c *Console) MarketSettled(_ context.Context, m domain.Market, res *domain.Resolution, positions []domain.Position) error {
	if res != nil {
		fmt.Fprintf(c.out, "\nmarket resolved: %q → %s (source: %s)\n", m.Title, res.WinningOutcome, res.Source)
	} else {
		fmt.Fprintf(c.out, "\nmarket cancelled: %q — stakes returned\n", m.Title)
	}

	if len(positions) == 0 {
		fmt.Fprintln(c.out, "  no positions to settle")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Bettor", "Outcome", "Stake", "Entry", "PnL")

	var totalStake, totalPnL float64
	for i, p := range positions {
		pnl := 0.0
		if p.PnL != nil {
			pnl = *p.PnL
		}
		totalStake += p.Amount
		totalPnL += pnl

		table.Append(
			fmt.Sprintf("%d", i+1),
			p.Bettor,
			p.Outcome,
			fmt.Sprintf("%.2f", p.Amount),
			fmt.Sprintf("%.2f", p.Price),
			fmt.Sprintf("%+.2f", pnl),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  positions=%d stake=%.2f net_pnl=%+.2f volume=%.2f fees=%.2f\n",
		len(positions), totalStake, totalPnL, m.TotalVolume, m.Fees)
	return nil
}

// PrintMarkets imprime la tabla de mercados para el resumen periódico del
// daemon. No forma parte de ports.Notifier.
func (c *Console) PrintMarkets(markets []domain.Market) {
	if len(markets) == 0 {
		fmt.Fprintf(c.out, "[%s] no active markets\n", time.Now().Format("15:04:05"))
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Cat", "Market", "Outcomes", "Volume", "Liq", "Fees", "Ends")

	for i, m := range markets {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(m.Category),
			truncate(m.Title, 40),
			fmt.Sprintf("%d", len(m.Outcomes)),
			fmt.Sprintf("%.2f", m.TotalVolume),
			fmt.Sprintf("%.2f", m.Liquidity),
			fmt.Sprintf("%.2f", m.Fees),
			m.EndTime.Format("01-02 15:04"),
		)
	}
	table.Render()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
