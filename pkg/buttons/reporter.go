package buttons

import (
	"fmt"
	"sync"

	"github.com/itohio/capdance/pkg/config"
)

// HID is the USB keyboard the reports go to.
type HID interface {
	Ready() bool
	Suspended() bool
	RemoteWakeup()
	SendKeyboard(r Report) error
}

// Reporter sends a keyboard report whenever the debounced bitmap produces a
// different report than the one last sent.
type Reporter struct {
	hid    HID
	keymap Keymap

	last  Report
	dirty bool

	callbacks []func(b Bitmap, r Report)
	cbMu      sync.RWMutex
}

// NewReporter creates a reporter. The first report is always sent.
func NewReporter(hid HID, keymap Keymap) *Reporter {
	return &Reporter{hid: hid, keymap: keymap, dirty: true}
}

// Update sends the report for b if it changed. Nothing is sent while HID output
// is disabled or the host is not ready; a suspended host is woken up first.
func (r *Reporter) Update(b Bitmap, t *config.Tunables) (bool, error) {
	if !t.USBHIDEnabled {
		return false, nil
	}
	if r.hid.Suspended() {
		r.hid.RemoteWakeup()
	}
	if !r.hid.Ready() {
		return false, nil
	}

	report := BuildReport(b, r.keymap)
	if !r.dirty && report == r.last {
		return false, nil
	}
	if err := r.hid.SendKeyboard(report); err != nil {
		r.dirty = true
		return false, fmt.Errorf("send keyboard report: %w", err)
	}
	r.last = report
	r.dirty = false

	r.cbMu.RLock()
	callbacks := r.callbacks
	r.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(b, report)
	}
	return true, nil
}

// Last returns the last report sent.
func (r *Reporter) Last() Report {
	return r.last
}

// OnReport registers a callback called after every sent report.
// The callback should return quickly.
func (r *Reporter) OnReport(callback func(b Bitmap, r Report)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}
