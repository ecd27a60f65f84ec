package event

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Quote pools for the feed hotpath. Top-of-book frames arrive far more often than
// anything else, so NewBid/NewAsk are recycled after the sequencer has applied them.
//
// Usage:
//
//	ev := AcquireNewBid()
//	ev.Price = price
//	queue.Publish(ev)
//	// ... sequencer applies it ...
//	Release(ev)
var newBidPool = sync.Pool{
	New: func() interface{} {
		return &NewBid{}
	},
}

var newAskPool = sync.Pool{
	New: func() interface{} {
		return &NewAsk{}
	},
}

// AcquireNewBid gets a NewBid from the pool.
// The returned event has zero values and must be initialized.
func AcquireNewBid() *NewBid {
	return newBidPool.Get().(*NewBid)
}

// AcquireNewAsk gets a NewAsk from the pool.
func AcquireNewAsk() *NewAsk {
	return newAskPool.Get().(*NewAsk)
}

// Release returns pooled event kinds to their pool; other kinds are ignored.
// The event must not be used afterwards.
func Release(ev Event) {
	switch e := ev.(type) {
	case *NewBid:
		if e == nil {
			return
		}
		e.Seq = 0
		e.Ts = 0
		e.Price = decimal.Zero
		newBidPool.Put(e)
	case *NewAsk:
		if e == nil {
			return
		}
		e.Seq = 0
		e.Ts = 0
		e.Price = decimal.Zero
		newAskPool.Put(e)
	}
}

// Warmup pre-allocates quote events to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 256

	bids := make([]*NewBid, 0, batchSize)
	asks := make([]*NewAsk, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		bids = append(bids, AcquireNewBid())
		asks = append(asks, AcquireNewAsk())
	}
	for i := range bids {
		Release(bids[i])
		Release(asks[i])
	}
}
