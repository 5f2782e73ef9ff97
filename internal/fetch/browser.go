package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/partywatch/partycrawl/internal/logger"
)

// Browser session defaults.
const (
	defaultPageTimeout = 30 * time.Second
	defaultSettleWait  = 3 * time.Second
	defaultWaitTimeout = 10 * time.Second
)

// BrowserConfig configures the headless browser session.
type BrowserConfig struct {
	UserAgent   string
	PageTimeout time.Duration
	// SettleWait is how long to wait for scripts when no wait selector is
	// given.
	SettleWait time.Duration
}

// Browser renders JavaScript-driven pages through a single headless Chrome
// session. The session is started lazily on the first fetch and must be
// released with Close. Fetches are serialized: the underlying session is
// stateful and must not be shared between concurrent page loads.
type Browser struct {
	cfg BrowserConfig
	log logger.Interface

	mu          sync.Mutex
	allocCancel context.CancelFunc
	sessionCtx  context.Context
	sessionStop context.CancelFunc
	started     bool
}

// NewBrowser creates a Browser. No Chrome process is launched until the
// first Fetch call.
func NewBrowser(cfg BrowserConfig, log logger.Interface) *Browser {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.PageTimeout == 0 {
		cfg.PageTimeout = defaultPageTimeout
	}
	if cfg.SettleWait == 0 {
		cfg.SettleWait = defaultSettleWait
	}

	return &Browser{
		cfg: cfg,
		log: log.WithComponent("browser"),
	}
}

// start launches the headless Chrome session. Callers must hold b.mu.
func (b *Browser) start() error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.cfg.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	sessionCtx, sessionStop := chromedp.NewContext(allocCtx)

	// Start the browser process now so a launch failure surfaces here
	// instead of inside the first page load.
	if err := chromedp.Run(sessionCtx); err != nil {
		sessionStop()
		allocCancel()
		return fmt.Errorf("start browser session: %w", err)
	}

	b.allocCancel = allocCancel
	b.sessionCtx = sessionCtx
	b.sessionStop = sessionStop
	b.started = true
	b.log.Info("browser session started")

	return nil
}

// Fetch renders a page and returns its HTML. When waitSelector is non-empty
// the fetch waits for that element to appear; otherwise it waits a fixed
// settle period for scripts to run. An unexpected JavaScript dialog is
// dismissed and reported as a fetch error rather than left blocking the
// session.
func (b *Browser) Fetch(ctx context.Context, rawURL, waitSelector string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		if err := b.start(); err != nil {
			return "", NewError(rawURL, ReasonNetwork, err)
		}
	}

	tabCtx, cancelTab := chromedp.NewContext(b.sessionCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.cfg.PageTimeout)
	defer cancelTimeout()

	// Stop early if the run was cancelled between items.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dialogs := make(chan string, 1)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*page.EventJavascriptDialogOpening)
		if !ok {
			return
		}
		select {
		case dialogs <- e.Message:
		default:
		}
		// Dismiss from a separate goroutine: the listener must not block
		// the event loop.
		go func() {
			if dismissErr := chromedp.Run(tabCtx, page.HandleJavaScriptDialog(false)); dismissErr != nil {
				b.log.Warn("failed to dismiss dialog", "url", rawURL, "error", dismissErr)
			}
		}()
	})

	var html string
	tasks := chromedp.Tasks{chromedp.Navigate(rawURL)}
	if waitSelector != "" {
		tasks = append(tasks, waitForSelector(waitSelector, defaultWaitTimeout))
	} else {
		tasks = append(tasks, chromedp.Sleep(b.cfg.SettleWait))
	}
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	err := chromedp.Run(tabCtx, tasks)

	select {
	case msg := <-dialogs:
		return "", NewError(rawURL, ReasonDialog, fmt.Errorf("javascript dialog: %s", msg))
	default:
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", NewError(rawURL, ReasonTimeout, err)
		}
		return "", NewError(rawURL, ReasonNetwork, err)
	}

	return html, nil
}

// waitForSelector waits for an element, but only up to the given timeout:
// some pages load their content through a different path than expected, and
// the HTML captured after the wait is still usable.
func waitForSelector(selector string, timeout time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := chromedp.WaitReady(selector, chromedp.ByQuery).Do(waitCtx)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
}

// Close shuts down the browser session. It is safe to call when the session
// was never started, and safe to call more than once.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return
	}

	b.sessionStop()
	b.allocCancel()
	b.started = false
	b.log.Info("browser session closed")
}
