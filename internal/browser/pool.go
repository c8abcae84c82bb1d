package browser

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeOptions configures a ChromeLauncher
type ChromeOptions struct {
	PoolSize  int    // maximum concurrent browsers
	ExecPath  string // Chrome binary, located automatically when empty
	UserAgent string
}

// ChromeLauncher hands out pages backed by a fresh headless Chrome each,
// with at most PoolSize browsers alive at once
type ChromeLauncher struct {
	opts []chromedp.ExecAllocatorOption

	mu     sync.Mutex
	size   int
	inUse  int
	closed bool
	pages  map[*chromePage]struct{}
}

// NewChromeLauncher prepares the launcher. No browser starts until Launch.
func NewChromeLauncher(o ChromeOptions) (*ChromeLauncher, error) {
	size := o.PoolSize
	if size <= 0 {
		size = 4
	}

	execPath := o.ExecPath
	if execPath != "" {
		if _, err := os.Stat(execPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrChromeNotFound, execPath)
		}
	} else {
		execPath = FindChromePath()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor,TranslateUI"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("password-store", "basic"),
		chromedp.Flag("use-mock-keychain", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1280, 720),
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}

	return &ChromeLauncher{
		opts:  opts,
		size:  size,
		pages: make(map[*chromePage]struct{}),
	}, nil
}

// Launch starts a new browser and opens a page in it.
// It fails fast with ErrBrowserUnavailable when every slot is taken.
func (l *ChromeLauncher) Launch(ctx context.Context) (Page, error) {
	if err := l.acquire(); err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// The first Run starts Chrome and ties the process to its context, so it
	// must get tabCtx itself. The caller's ctx only bounds the wait.
	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(tabCtx, network.Enable())
	}()

	var err error
	select {
	case err = <-started:
	case <-ctx.Done():
		cancel()
		<-started
		err = ctx.Err()
	}
	if err != nil {
		cancel()
		l.releaseSlot()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	var p *chromePage
	p = newChromePage(tabCtx, cancel, func() {
		l.mu.Lock()
		delete(l.pages, p)
		l.mu.Unlock()
		l.releaseSlot()
	})

	l.mu.Lock()
	l.pages[p] = struct{}{}
	l.mu.Unlock()

	return p, nil
}

func (l *ChromeLauncher) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrBrowserUnavailable
	}
	if l.inUse >= l.size {
		return ErrBrowserUnavailable
	}
	l.inUse++
	return nil
}

func (l *ChromeLauncher) releaseSlot() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inUse > 0 {
		l.inUse--
	}
}

// Health reports free and total browser slots
func (l *ChromeLauncher) Health() (available, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size - l.inUse, l.size
}

// Close kills every open browser and rejects further launches
func (l *ChromeLauncher) Close() error {
	l.mu.Lock()
	l.closed = true
	open := make([]*chromePage, 0, len(l.pages))
	for p := range l.pages {
		open = append(open, p)
	}
	l.mu.Unlock()

	for _, p := range open {
		_ = p.Close()
	}
	return nil
}
