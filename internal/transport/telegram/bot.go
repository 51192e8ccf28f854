package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/internal/service/chat"
	"github.com/waffieu/nyxie/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Bot struct {
	bot      *tele.Bot
	cfg      *config.TelegramConfig
	chat     *chat.Service
	analyzer core.MediaAnalyzer
	sender   *sender
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	chatSvc *chat.Service,
	analyzer core.MediaAnalyzer,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:      b,
		cfg:      cfg,
		chat:     chatSvc,
		analyzer: analyzer,
		sender:   newSender(b),
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	b.Handle("/start", bot.handleStart)
	b.Handle(tele.OnText, bot.handleText)
	b.Handle(tele.OnPhoto, bot.handlePhoto)
	b.Handle(tele.OnVideo, bot.handleVideo)
	b.Handle(tele.OnDocument, bot.handleDocument)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	msg := b.chat.Welcome(ctx, c.Chat().ID, c.Sender().FirstName)
	return b.sender.sendMarkdown(ctx, c.Recipient(), msg)
}

func (b *Bot) handleText(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	_ = c.Notify(tele.Typing)
	reply := b.chat.Respond(ctx, chat.Incoming{
		ChatID:   c.Chat().ID,
		UserName: c.Sender().FirstName,
		Text:     c.Text(),
	})
	return b.sender.sendMarkdown(ctx, c.Recipient(), reply)
}

func (b *Bot) handlePhoto(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	photo := c.Message().Photo
	if photo == nil {
		return nil
	}
	return b.handleMedia(ctx, c, &photo.File, ".jpg", b.analyzer.DescribeImage)
}

func (b *Bot) handleVideo(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	video := c.Message().Video
	if video == nil {
		return nil
	}
	return b.handleMedia(ctx, c, &video.File, ".mp4", b.analyzer.DescribeVideo)
}

// handleDocument covers file types the bot cannot look inside.
func (b *Bot) handleDocument(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	return b.sender.sendMarkdown(ctx, c.Recipient(), b.chat.UnsupportedMedia(ctx, c.Chat().ID))
}

// handleMedia downloads the attachment to a temp file, has the analyzer
// describe it and runs a normal turn with the description as a signal.
// The temp file never outlives the turn.
func (b *Bot) handleMedia(ctx context.Context, c tele.Context, file *tele.File, ext string, describe func(context.Context, string) (string, error)) error {
	logger := log.FromCtx(ctx)
	_ = c.Notify(tele.Typing)

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("nyxie-%d-%d%s", c.Chat().ID, time.Now().UnixNano(), ext))
	if err := b.bot.Download(file, tmp); err != nil {
		logger.Error().Err(err).Msg("failed to download media")
		return b.sender.sendMarkdown(ctx, c.Recipient(), b.chat.UnsupportedMedia(ctx, c.Chat().ID))
	}
	defer os.Remove(tmp)

	description, err := describe(ctx, tmp)
	if err != nil {
		logger.Error().Err(err).Msg("failed to describe media")
		description = ""
	}

	text := c.Message().Caption
	if text == "" {
		text = "[sent media]"
	}

	reply := b.chat.Respond(ctx, chat.Incoming{
		ChatID:           c.Chat().ID,
		UserName:         c.Sender().FirstName,
		Text:             text,
		MediaDescription: description,
	})
	return b.sender.sendMarkdown(ctx, c.Recipient(), reply)
}
