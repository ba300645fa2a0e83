// Package notify posts market activity to a Discord channel.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/config"
)

const (
	queueSize = 128

	colorListed = 0x55FF55
	colorSold   = 0xFFAA00
)

// channelSender is the subset of *discordgo.Session the feed uses.
type channelSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Feed implements auction.Listener. Posts are queued so that a slow Discord
// API never holds up a trade.
type Feed struct {
	session   *discordgo.Session
	sender    channelSender
	channelID string
	money     auction.PriceFormatter
	logger    *slog.Logger

	queue chan *discordgo.MessageEmbed
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// New creates a Feed posting with the configured bot token.
func New(cfg config.DiscordConfig, money auction.PriceFormatter, logger *slog.Logger) (*Feed, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	f := NewWithSender(session, cfg.ChannelID, money, logger)
	f.session = session
	return f, nil
}

// NewWithSender creates a Feed over an existing sender.
func NewWithSender(sender channelSender, channelID string, money auction.PriceFormatter, logger *slog.Logger) *Feed {
	return &Feed{
		sender:    sender,
		channelID: channelID,
		money:     money,
		logger:    logger,
		queue:     make(chan *discordgo.MessageEmbed, queueSize),
		done:      make(chan struct{}),
	}
}

// Start opens the Discord connection, if any, and starts posting.
func (f *Feed) Start(ctx context.Context) error {
	if f.session != nil {
		f.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
			f.logger.InfoContext(ctx, "sales feed is ready", slog.String("user", s.State.User.Username))
		})
		if err := f.session.Open(); err != nil {
			return fmt.Errorf("opening discord session: %w", err)
		}
	}

	f.wg.Add(1)
	go f.run(ctx)
	return nil
}

// Stop flushes queued posts and closes the Discord connection.
func (f *Feed) Stop() error {
	f.once.Do(func() { close(f.done) })
	f.wg.Wait()
	if f.session != nil {
		return f.session.Close()
	}
	return nil
}

func (f *Feed) run(ctx context.Context) {
	defer f.wg.Done()
	for {
		select {
		case embed := <-f.queue:
			f.post(ctx, embed)
		case <-f.done:
			for {
				select {
				case embed := <-f.queue:
					f.post(ctx, embed)
				default:
					return
				}
			}
		}
	}
}

func (f *Feed) post(ctx context.Context, embed *discordgo.MessageEmbed) {
	if _, err := f.sender.ChannelMessageSendEmbed(f.channelID, embed); err != nil {
		f.logger.ErrorContext(ctx, "failed to post to sales feed",
			slog.String("title", embed.Title),
			slog.Any("error", err),
		)
	}
}

func (f *Feed) enqueue(ctx context.Context, embed *discordgo.MessageEmbed) {
	select {
	case f.queue <- embed:
	default:
		f.logger.WarnContext(ctx, "sales feed queue full, dropping post", slog.String("title", embed.Title))
	}
}

// SaleListed posts a new listing.
func (f *Feed) SaleListed(ctx context.Context, sale *auction.Sale) {
	f.enqueue(ctx, &discordgo.MessageEmbed{
		Title: "New listing: " + describe(sale),
		Color: colorListed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Price", Value: f.price(sale), Inline: true},
			{Name: "Seller", Value: sellerName(sale), Inline: true},
			{Name: "Type", Value: string(sale.Type()), Inline: true},
		},
	})
}

// SalePurchased posts a completed purchase.
func (f *Feed) SalePurchased(ctx context.Context, sale *auction.Sale, buyer auction.Identity) {
	name := buyer.Name
	if name == "" {
		name = buyer.UUID.String()
	}
	f.enqueue(ctx, &discordgo.MessageEmbed{
		Title: "Sold: " + describe(sale),
		Color: colorSold,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Price", Value: f.price(sale), Inline: true},
			{Name: "Seller", Value: sellerName(sale), Inline: true},
			{Name: "Buyer", Value: name, Inline: true},
		},
	})
}

func (f *Feed) price(sale *auction.Sale) string {
	if !sale.Price.Valid {
		return "not set"
	}
	return f.money.Format(sale.Price.Float64)
}

func describe(sale *auction.Sale) string {
	if sale.Item.Variant != 0 {
		return fmt.Sprintf("%dx %s:%d", sale.Item.Amount, sale.Item.Material, sale.Item.Variant)
	}
	return fmt.Sprintf("%dx %s", sale.Item.Amount, sale.Item.Material)
}

func sellerName(sale *auction.Sale) string {
	if sale.Seller == nil || sale.Seller.Player.Name == "" {
		return "unknown"
	}
	return sale.Seller.Player.Name
}
