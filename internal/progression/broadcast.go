package progression

import "sync"

// broadcaster fans snapshots out to subscribers. Each subscriber channel
// holds at most one pending snapshot; a newer one replaces it, so slow
// readers see the latest state and never block the writer.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Snapshot
}

func (b *broadcaster) subscribe(current Snapshot) (<-chan Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]chan Snapshot)
	}
	id := b.next
	b.next++
	ch := make(chan Snapshot, 1)
	ch <- current
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (b *broadcaster) publish(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
