// Package toast collects the toasts raised while handling one request and
// hands them to the client: as an HX-Trigger event for htmx, or to the
// rendered page otherwise.
package toast

import (
	"encoding/json"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

// Collector implements ports.Toaster for a single request.
type Collector struct {
	mu     sync.Mutex
	toasts []domain.Toast
}

func NewCollector() *Collector {
	return &Collector{}
}

// Toast queues t. It never blocks.
func (c *Collector) Toast(t domain.Toast) {
	c.mu.Lock()
	c.toasts = append(c.toasts, t)
	c.mu.Unlock()
}

// Toasts returns the queued toasts in the order they were raised.
func (c *Collector) Toasts() []domain.Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Toast(nil), c.toasts...)
}

// Last returns the most recent toast, if any.
func (c *Collector) Last() (domain.Toast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.toasts) == 0 {
		return domain.Toast{}, false
	}
	return c.toasts[len(c.toasts)-1], true
}

// WriteTrigger sets HX-Trigger to {"toast": <last toast>} so the client's
// toast listener shows it. It does nothing when no toast was raised.
func (c *Collector) WriteTrigger(ec echo.Context) error {
	t, ok := c.Last()
	if !ok {
		return nil
	}
	b, err := json.Marshal(map[string]domain.Toast{"toast": t})
	if err != nil {
		return err
	}
	ec.Response().Header().Set("HX-Trigger", string(b))
	return nil
}
