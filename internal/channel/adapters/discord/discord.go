// Package discord connects the command handler to a Discord bot account: slash
// commands arrive as interactions and "!" commands as guild messages.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/memohai/albumbot/internal/channel"
	"github.com/memohai/albumbot/internal/channel/adapters/adapterutil"
	"github.com/memohai/albumbot/internal/commands"
	"github.com/memohai/albumbot/internal/imgur"
)

const (
	messageLimit = 2000

	msgFailed   = "Something went wrong while processing the command."
	msgNotFound = "Album not found."
)

// CommandHandler runs bot commands.
type CommandHandler interface {
	Run(ctx context.Context, cmd channel.Command) (commands.Result, error)
	HandleMessage(ctx context.Context, msg channel.InboundMessage) (commands.Result, bool, error)
}

// replier is the subset of *discordgo.Session used to answer users.
type replier interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter owns the gateway session.
type Adapter struct {
	cfg     Config
	handler CommandHandler
	logger  *slog.Logger

	mu      sync.Mutex
	session *discordgo.Session
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewAdapter creates an adapter. Nothing connects until Start.
func NewAdapter(log *slog.Logger, cfg Config, handler CommandHandler) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		cfg:     cfg,
		handler: handler,
		logger:  log.With(slog.String("adapter", "discord")),
	}
}

// Start opens the gateway connection and registers the slash commands.
// Commands run on a context that lives until Stop.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		return errors.New("discord adapter already started")
	}

	session, err := discordgo.New("Bot " + a.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.logger.Info("connected", slog.String("user", r.User.Username), slog.Int("guilds", len(r.Guilds)))
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		a.dispatch(func() { a.onMessage(runCtx, s, m.Message) })
	})
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		a.dispatch(func() { a.onInteraction(runCtx, s, i.Interaction) })
	})

	if err := session.Open(); err != nil {
		cancel()
		return fmt.Errorf("open discord gateway: %w", err)
	}
	appID := session.State.User.ID
	if _, err := session.ApplicationCommandBulkOverwrite(appID, a.cfg.GuildID, ApplicationCommands()); err != nil {
		cancel()
		_ = session.Close()
		return fmt.Errorf("register slash commands: %w", err)
	}
	a.logger.Info("slash commands registered", slog.String("guild_id", a.cfg.GuildID))

	a.session = session
	a.cancel = cancel
	return nil
}

// Stop closes the gateway and waits for running commands to return or for ctx to end.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	session, cancel := a.session, a.cancel
	a.session, a.cancel = nil, nil
	a.mu.Unlock()
	if session == nil {
		return nil
	}

	err := session.Close()
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("stop timed out, cancelling running commands")
		cancel()
		<-done
	}
	cancel()
	a.logger.Info("stop")
	return err
}

// dispatch runs fn unless the adapter is stopping. Events that arrive during Start
// wait for it to finish.
func (a *Adapter) dispatch(fn func()) {
	a.mu.Lock()
	if a.session == nil {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()
	fn()
}

func (a *Adapter) onMessage(ctx context.Context, r replier, m *discordgo.Message) {
	if m == nil || m.Author == nil {
		return
	}
	msg := toInboundMessage(m)
	res, handled, err := a.handler.HandleMessage(ctx, msg)
	if !handled && err == nil {
		return
	}
	a.logger.Info("inbound message",
		slog.String("channel_id", msg.ChannelID),
		slog.String("sender_id", msg.Sender.ID),
		slog.String("text", adapterutil.SummarizeText(msg.Text)),
		slog.Int("attachments", len(msg.Attachments)),
	)
	reply := a.render(res, err)
	if _, err := r.ChannelMessageSend(msg.ChannelID, reply); err != nil {
		a.logger.Error("send reply failed", slog.String("channel_id", msg.ChannelID), slog.Any("error", err))
	}
}

func (a *Adapter) onInteraction(ctx context.Context, r replier, i *discordgo.Interaction) {
	cmd, ok := toCommand(i)
	if !ok {
		return
	}
	// Uploads outlive the three second acknowledgement window.
	if err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		a.logger.Error("acknowledge interaction failed", slog.String("command", cmd.Name), slog.Any("error", err))
		return
	}
	a.logger.Info("slash command",
		slog.String("command", cmd.Name),
		slog.String("channel_id", cmd.ChannelID),
		slog.String("sender_id", cmd.Sender.ID),
	)
	res, err := a.handler.Run(ctx, cmd)
	reply := a.render(res, err)
	if _, err := r.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &reply}); err != nil {
		a.logger.Error("edit interaction response failed", slog.String("command", cmd.Name), slog.Any("error", err))
	}
}

// render turns a command outcome into the reply text. Internal errors are logged
// and replaced with a generic message.
func (a *Adapter) render(res commands.Result, err error) string {
	if err != nil {
		a.logger.Error("command failed", slog.Any("error", err))
		if errors.Is(err, imgur.ErrNotFound) {
			return msgNotFound
		}
		return msgFailed
	}
	return adapterutil.Truncate(res.Message, messageLimit, "...")
}

// Ready reports whether the gateway connection is up. It is used as a health probe.
func (a *Adapter) Ready(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return errors.New("discord not connected")
	}
	if !a.session.DataReady {
		return errors.New("discord gateway not ready")
	}
	return nil
}
