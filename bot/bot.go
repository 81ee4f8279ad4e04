package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"showcase-bot/command"
	"showcase-bot/logging"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session  *discordgo.Session
	Commands map[string]command.Command

	scheduler *Scheduler
	onReady   []func()
	onStop    []func()
}

// NewBot creates the Discord session with the intents the bot relies on.
func NewBot(token string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	return &Bot{
		Session:  dg,
		Commands: make(map[string]command.Command),
	}, nil
}

// RegisterCommands registers the provided commands.
func (b *Bot) RegisterCommands(commands []command.Command) {
	for _, cmd := range commands {
		b.Commands[cmd.Definition().Name] = cmd
	}
}

// Schedule sets the periodic jobs started with the session.
func (b *Bot) Schedule(s *Scheduler) {
	b.scheduler = s
}

// OnReady registers a callback run once the session is open.
func (b *Bot) OnReady(fn func()) {
	b.onReady = append(b.onReady, fn)
}

// OnStop registers a callback run before the session closes.
func (b *Bot) OnStop(fn func()) {
	b.onStop = append(b.onStop, fn)
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*discordgo.Session)) error {
	logger := logging.FromContext(context.Background())
	registerHandlers(b.Session)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	for _, cmd := range b.Commands {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", cmd.Definition()); err != nil {
			logger.Error("cannot create command", "command", cmd.Definition().Name, "error", err)
		}
	}

	if b.scheduler != nil {
		b.scheduler.Start()
	}
	for _, fn := range b.onReady {
		fn()
	}

	logger.Info("bot is now running")
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	for _, fn := range b.onStop {
		fn()
	}
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.Session != nil {
		b.Session.Close()
	}
	logging.FromContext(context.Background()).Info("bot stopped gracefully")
}

// Run starts the bot and blocks until SIGINT or SIGTERM.
func (b *Bot) Run(registerHandlers func(*discordgo.Session)) error {
	if err := b.Start(registerHandlers); err != nil {
		return err
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	b.Stop()
	return nil
}
