package client

import "sync"

// OfflineDetector tracks connectivity reactively: a transport timeout or
// a platform signal flips it offline, a successful response or a platform
// signal flips it back. There is no heartbeat; the detector only reflects
// what actually happened on the wire.
type OfflineDetector struct {
	mu       sync.Mutex
	online   bool
	onOnline func()
}

func NewOfflineDetector() *OfflineDetector {
	return &OfflineDetector{online: true}
}

// OnOnline registers the callback fired on every offline-to-online
// transition. The callback runs on the caller's goroutine, outside the
// detector lock.
func (d *OfflineDetector) OnOnline(fn func()) {
	d.mu.Lock()
	d.onOnline = fn
	d.mu.Unlock()
}

func (d *OfflineDetector) Online() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online
}

// MarkOffline records a lost connection. Idempotent.
func (d *OfflineDetector) MarkOffline() {
	d.mu.Lock()
	d.online = false
	d.mu.Unlock()
}

// MarkOnline records a restored connection, firing the drain callback
// only on an actual transition.
func (d *OfflineDetector) MarkOnline() {
	d.mu.Lock()
	transition := !d.online
	d.online = true
	fn := d.onOnline
	d.mu.Unlock()

	if transition && fn != nil {
		fn()
	}
}
