package engine

import (
	"sync"

	"github.com/fluentia/exam-engine/internal/model"
)

// StateEvent is published to subscribers on every tick and phase transition.
// The WebSocket handler relays it to the client verbatim.
type StateEvent struct {
	Phase      model.Phase     `json:"phase"`
	ActivePart int             `json:"active_part"`
	Time       model.TimeState `json:"time"`
	AudioSrc   string          `json:"audio_src,omitempty"`
	ResultID   string          `json:"result_id,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// broadcaster fans StateEvents out to any number of subscribers. Sends never
// block: a slow subscriber drops events rather than stalling a transition.
type broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan StateEvent
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan StateEvent)}
}

// Subscribe returns a receive channel and an unsubscribe function.
func (b *broadcaster) Subscribe() (<-chan StateEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan StateEvent, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers, dropping on full buffers.
func (b *broadcaster) Publish(ev StateEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
