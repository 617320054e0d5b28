package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alejandrodnm/marketd/internal/domain"
)

// Telegram implementa ports.Notifier anunciando los eventos del engine en
// un chat. Solo envía mensajes salientes: no escucha comandos.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram valida el token contra la API y devuelve el notificador.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// MarketCreated anuncia un mercado nuevo.
func (t *Telegram) MarketCreated(_ context.Context, m domain.Market) error {
	text := fmt.Sprintf("📊 New market: %s\nOutcomes: %s\nCloses: %s",
		m.Title,
		strings.Join(m.Outcomes, " / "),
		m.EndTime.Format(time.RFC822),
	)
	return t.send(text)
}

// MarketSettled anuncia el desenlace con el neto liquidado.
func (t *Telegram) MarketSettled(_ context.Context, m domain.Market, res *domain.Resolution, positions []domain.Position) error {
	var net float64
	for _, p := range positions {
		if p.PnL != nil {
			net += *p.PnL
		}
	}

	var text string
	if res != nil {
		text = fmt.Sprintf("🏁 Resolved: %s\nWinner: %s\nPositions settled: %d (net %+.2f)",
			m.Title, res.WinningOutcome, len(positions), net)
	} else {
		text = fmt.Sprintf("🚫 Cancelled: %s\nStakes returned on %d positions", m.Title, len(positions))
	}
	return t.send(text)
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("notify.Telegram: send: %w", err)
	}
	return nil
}
