package ui

import (
	"fmt"
	"time"

	"warrior_go/internal/domain"
	"warrior_go/internal/event"

	"github.com/charmbracelet/bubbles/key"
)

// Publisher accepts command-intent events.
type Publisher interface {
	Publish(ev event.Event) error
}

// InputSource turns key presses into command-intent events.
// A key repeated within the window, with no other key pressed in between, is dropped;
// each further repeat extends the window. A window of zero disables suppression.
// Not safe for concurrent use; bubbletea delivers keys from one goroutine.
type InputSource struct {
	keys   KeyMap
	out    Publisher
	window time.Duration
	now    func() time.Time

	lastKey string
	lastAt  time.Time
}

// NewInputSource creates an input source publishing to out.
func NewInputSource(keys KeyMap, out Publisher, window time.Duration) *InputSource {
	return &InputSource{
		keys:   keys,
		out:    out,
		window: window,
		now:    time.Now,
	}
}

// Translate maps a key press to its event. Unbound keys return false.
// k is usually a tea.KeyMsg; anything whose String() is a key name works.
func (in *InputSource) Translate(k fmt.Stringer) (event.Event, bool) {
	switch {
	case key.Matches(k, in.keys.BuyAtBid):
		return &event.Buy{Ref: domain.PriceRefBid}, true
	case key.Matches(k, in.keys.SellAtAsk):
		return &event.Sell{Ref: domain.PriceRefAsk}, true
	case key.Matches(k, in.keys.BuyAtAsk):
		return &event.Buy{Ref: domain.PriceRefAsk}, true
	case key.Matches(k, in.keys.SellAtBid):
		return &event.Sell{Ref: domain.PriceRefBid}, true
	case key.Matches(k, in.keys.IncreaseQty):
		return &event.IncreaseQty{}, true
	case key.Matches(k, in.keys.DecreaseQty):
		return &event.DecreaseQty{}, true
	case key.Matches(k, in.keys.RotateKind):
		return &event.RotateOrderKind{}, true
	case key.Matches(k, in.keys.Cancel):
		return &event.CancelActiveOrder{}, true
	case key.Matches(k, in.keys.Quit):
		return &event.Shutdown{}, true
	}
	return nil, false
}

// HandleKey publishes the event bound to k unless it is unbound or a suppressed repeat.
// It reports whether an event was published. Shutdown is never suppressed.
func (in *InputSource) HandleKey(k fmt.Stringer) (bool, error) {
	ev, ok := in.Translate(k)
	if !ok {
		return false, nil
	}

	if ev.GetType() != event.EvShutdown && in.isRepeat(k.String()) {
		return false, nil
	}

	if err := in.out.Publish(ev); err != nil {
		return false, err
	}
	return true, nil
}

func (in *InputSource) isRepeat(k string) bool {
	now := in.now()
	repeat := in.window > 0 && k == in.lastKey && now.Sub(in.lastAt) < in.window
	in.lastKey = k
	in.lastAt = now
	return repeat
}
