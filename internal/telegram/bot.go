// Package telegram is the chat front-end: on-demand analysis for free-text
// queries and broadcast of auto-scan alerts to subscribed chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"xauron/internal/analyzer"
	"xauron/internal/render"
	"xauron/internal/symbols"
	"xauron/pkg/model"
)

// Sender is the part of tgbotapi.BotAPI the bot uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Subscribers is the set of chats receiving auto alerts
type Subscribers struct {
	mu    sync.RWMutex
	chats map[int64]bool
}

// NewSubscribers creates an empty set
func NewSubscribers() *Subscribers {
	return &Subscribers{chats: make(map[int64]bool)}
}

// Add subscribes a chat; it reports whether the chat was new
func (s *Subscribers) Add(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chats[chatID] {
		return false
	}
	s.chats[chatID] = true
	return true
}

// Remove unsubscribes a chat
func (s *Subscribers) Remove(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, chatID)
}

// List returns subscribed chat IDs in ascending order
func (s *Subscribers) List() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.chats))
	for id := range s.chats {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bot handles Telegram updates
type Bot struct {
	api             Sender
	analyzer        *analyzer.Analyzer
	renderer        *render.Renderer
	defaultInterval string
	subs            *Subscribers
	logger          zerolog.Logger
}

// NewBot creates a bot over an already authenticated sender
func NewBot(api Sender, a *analyzer.Analyzer, r *render.Renderer, defaultInterval string, logger zerolog.Logger) *Bot {
	if defaultInterval == "" {
		defaultInterval = symbols.DefaultInterval
	}
	return &Bot{
		api:             api,
		analyzer:        a,
		renderer:        r,
		defaultInterval: defaultInterval,
		subs:            NewSubscribers(),
		logger:          logger.With().Str("component", "telegram").Logger(),
	}
}

// Subscribers returns the alert subscriber set
func (b *Bot) Subscribers() *Subscribers {
	return b.subs
}

// Connect authenticates with the Bot API
func Connect(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram token not configured")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return api, nil
}

// Run long-polls updates until ctx is done. Each update is handled on its
// own goroutine so a slow provider does not block other chats.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	b.logger.Info().Str("bot", api.Self.UserName).Msg("polling updates")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate dispatches one update
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			if b.subs.Add(chatID) {
				b.logger.Info().Int64("chat", chatID).Msg("subscribed")
			}
			b.reply(chatID, b.renderer.Welcome())
		case "stop":
			b.subs.Remove(chatID)
			b.logger.Info().Int64("chat", chatID).Msg("unsubscribed")
			b.reply(chatID, b.renderer.Unsubscribed())
		case "help":
			b.reply(chatID, b.renderer.Help())
		default:
			b.reply(chatID, b.renderer.Usage())
		}
		return
	}

	b.handleQuery(ctx, chatID, msg.Text)
}

func (b *Bot) handleQuery(ctx context.Context, chatID int64, text string) {
	q, err := symbols.ParseQuery(text, b.defaultInterval)
	switch {
	case errors.Is(err, symbols.ErrInvalidSymbol):
		b.reply(chatID, b.renderer.Usage())
		return
	case err != nil:
		b.reply(chatID, b.renderer.Error(text, "", err))
		return
	}

	b.reply(chatID, b.renderer.Working())

	res, err := b.analyzer.Analyze(ctx, q.Symbol, q.Interval)
	if err != nil {
		b.logger.Warn().Err(err).Int64("chat", chatID).Str("symbol", q.Symbol).Msg("query failed")
		b.reply(chatID, b.renderer.Error(q.Symbol, q.Interval, err))
		return
	}
	b.reply(chatID, b.renderer.Result(res))
}

// ErrNoSubscribers is returned by Notify when nobody is subscribed
var ErrNoSubscribers = errors.New("no subscribers")

// Notify broadcasts an alert to every subscriber. One blocked chat does not
// stop the others; an error is returned only when no chat got the alert.
func (b *Bot) Notify(ctx context.Context, alert model.Alert) error {
	chats := b.subs.List()
	if len(chats) == 0 {
		return ErrNoSubscribers
	}
	text := b.renderer.Signal(&alert.Signal)

	var errs []error
	delivered := 0
	for _, chatID := range chats {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := b.send(chatID, text); err != nil {
			b.logger.Warn().Err(err).Int64("chat", chatID).Str("alert", alert.ID).Msg("alert not delivered")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		delivered++
	}
	if delivered > 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.send(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat", chatID).Msg("send failed")
	}
}

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}
