// Package paginator shows a long list one page at a time in a single message
// and lets users flip through it with reactions.
package paginator

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/internal/waiter"
	"github.com/keshon/lakebot/pkg/retrylimit"
)

// Nav is a navigation request.
type Nav int

const (
	First Nav = iota
	Prev
	Stop
	Next
	Last
)

// Affordances are the reactions attached to a paginated message, in order.
var Affordances = []string{"⏪", "◀", "⏺", "▶", "⏩"}

// NavFor maps a reaction to a navigation request.
func NavFor(emoji string) (Nav, bool) {
	i := slices.Index(Affordances, emoji)
	if i < 0 {
		return 0, false
	}
	return Nav(i), true
}

func (n Nav) String() string {
	switch n {
	case First:
		return "first"
	case Prev:
		return "prev"
	case Stop:
		return "stop"
	case Next:
		return "next"
	case Last:
		return "last"
	}
	return "unknown"
}

// Navigate returns the page reached from page by nav. Stop leaves the page
// unchanged.
func Navigate(page, pages int, nav Nav) int {
	switch nav {
	case First:
		return 1
	case Prev:
		return max(1, page-1)
	case Next:
		return min(pages, page+1)
	case Last:
		return pages
	}
	return page
}

// Pages returns how many pages n items fill at size items per page. An empty
// list still has one page.
func Pages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Clamp forces page into [1, pages].
func Clamp(page, pages int) int {
	return max(1, min(page, pages))
}

// RenderFunc renders one page. items holds only that page's items.
type RenderFunc[T any] func(page, pages int, items []T) gateway.Message

// CleanupFunc runs once when the paginator stops.
type CleanupFunc func(ctx context.Context, gw gateway.Gateway, channelID, messageID string) error

// ClearReactions is the default cleanup.
func ClearReactions(ctx context.Context, gw gateway.Gateway, channelID, messageID string) error {
	return gw.ClearReactions(ctx, channelID, messageID)
}

// DeleteMessage removes the paginated message altogether.
func DeleteMessage(ctx context.Context, gw gateway.Gateway, channelID, messageID string) error {
	return gw.Delete(ctx, channelID, messageID)
}

// Paginator displays Items in pages of PageSize.
type Paginator[T any] struct {
	Gateway   gateway.Gateway
	Waiter    *waiter.Waiter
	ChannelID string
	Items     []T
	PageSize  int
	Render    RenderFunc[T]
	// Users allowed to navigate. Empty means anyone except bots.
	Users   []string
	Timeout time.Duration
	Cleanup CleanupFunc
	Limiter *retrylimit.AdaptiveLimiter
	Log     *logging.Logger

	page      int
	messageID string
	cleanOnce sync.Once
	cleanErr  error
}

// Page returns the page currently displayed.
func (p *Paginator[T]) Page() int { return p.page }

// MessageID returns the ID of the message displaying the pages.
func (p *Paginator[T]) MessageID() string { return p.messageID }

// Pages returns the page count.
func (p *Paginator[T]) Pages() int { return Pages(len(p.Items), p.PageSize) }

func (p *Paginator[T]) slice(page int) []T {
	if p.PageSize <= 0 {
		return p.Items
	}
	lo := (page - 1) * p.PageSize
	hi := min(len(p.Items), lo+p.PageSize)
	if lo >= hi {
		return nil
	}
	return p.Items[lo:hi]
}

func (p *Paginator[T]) render(page int) gateway.Message {
	return p.Render(page, p.Pages(), p.slice(page))
}

// Run sends the first page (start, clamped) and drives navigation until Stop,
// timeout or ctx ends. Cleanup runs exactly once before Run returns.
func (p *Paginator[T]) Run(ctx context.Context, start int) error {
	if p.Render == nil {
		return fmt.Errorf("paginator: no render function")
	}
	if p.Cleanup == nil {
		p.Cleanup = ClearReactions
	}
	if p.Log == nil {
		p.Log = logging.Nop()
	}
	if p.Timeout == 0 {
		p.Timeout = time.Minute
	}

	pages := p.Pages()
	p.page = Clamp(start, pages)

	id, err := p.Gateway.Send(ctx, p.ChannelID, p.render(p.page))
	if err != nil {
		return fmt.Errorf("paginator: send page: %w", err)
	}
	p.messageID = id

	if pages == 1 {
		return p.cleanup(ctx)
	}

	for _, emoji := range Affordances {
		if err := p.Gateway.React(ctx, p.ChannelID, id, emoji); err != nil {
			_ = p.cleanup(context.WithoutCancel(ctx))
			return fmt.Errorf("paginator: add %s: %w", emoji, err)
		}
	}

	for {
		r := p.Waiter.Await(ctx, event.ReactionAdd, waiter.Where(p.accepts), p.Timeout)
		if !r.Matched() {
			// Timeout and cancellation both end the loop quietly.
			p.Log.Debug().Str("message", id).Str("outcome", r.Outcome.String()).Msg("pagination ended")
			return p.cleanup(context.WithoutCancel(ctx))
		}

		nav, _ := NavFor(r.Event.Emoji)
		if nav == Stop {
			return p.cleanup(ctx)
		}
		if err := p.Gateway.Unreact(ctx, p.ChannelID, id, r.Event.Emoji, r.Event.UserID); err != nil && !gateway.IsPermission(err) {
			p.Log.Debug().Err(err).Msg("remove navigation reaction")
		}

		next := Navigate(p.page, pages, nav)
		if next == p.page {
			continue
		}
		if err := p.edit(ctx, next); err != nil {
			_ = p.cleanup(context.WithoutCancel(ctx))
			return fmt.Errorf("paginator: show page %d: %w", next, err)
		}
		p.page = next
	}
}

func (p *Paginator[T]) accepts(ev *event.Event) bool {
	if ev.MessageID != p.messageID || ev.Bot {
		return false
	}
	if _, ok := NavFor(ev.Emoji); !ok {
		return false
	}
	return len(p.Users) == 0 || slices.Contains(p.Users, ev.UserID)
}

func (p *Paginator[T]) edit(ctx context.Context, page int) error {
	msg := p.render(page)
	return retrylimit.Do(ctx, p.Limiter, 3, func() error {
		err := p.Gateway.Edit(ctx, p.ChannelID, p.messageID, msg)
		if gateway.IsPermission(err) {
			return retrylimit.Fatal(err)
		}
		return err
	})
}

func (p *Paginator[T]) cleanup(ctx context.Context) error {
	p.cleanOnce.Do(func() {
		p.cleanErr = p.Cleanup(ctx, p.Gateway, p.ChannelID, p.messageID)
		if gateway.IsPermission(p.cleanErr) {
			p.cleanErr = nil
		}
	})
	return p.cleanErr
}
