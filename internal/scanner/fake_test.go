package scanner

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/olegrjumin/sitescan/internal/browser"
)

// fakePage is a scripted browser.Page
type fakePage struct {
	mu sync.Mutex

	navErr      error
	navTimeouts []time.Duration
	navBlock    bool

	cookies   []browser.Cookie
	cookieErr error
	scripts   []string
	images    []imageInfo
	iframes   []string
	evalErr   map[string]error

	// navResponses are emitted while navigating and reach only existing subscribers
	navResponses []browser.Response
	// lateResponses are delivered to each new subscriber
	lateResponses []browser.Response

	subs   []chan browser.Response
	closed int
}

func (p *fakePage) Navigate(ctx context.Context, _ string, _ browser.WaitCondition, timeout time.Duration) error {
	p.mu.Lock()
	p.navTimeouts = append(p.navTimeouts, timeout)
	for _, r := range p.navResponses {
		for _, ch := range p.subs {
			select {
			case ch <- r:
			default:
			}
		}
	}
	block := p.navBlock
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.navErr
}

func (p *fakePage) Cookies(context.Context) ([]browser.Cookie, error) {
	return p.cookies, p.cookieErr
}

func (p *fakePage) Evaluate(_ context.Context, q browser.Query, out any) error {
	if err := p.evalErr[q.Name]; err != nil {
		return err
	}

	var value any
	switch q.Name {
	case scriptSourcesQuery.Name:
		value = p.scripts
	case imagesQuery.Name:
		value = p.images
	case iframeSourcesQuery.Name:
		value = p.iframes
	default:
		return browser.ErrUnsupportedQuery
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (p *fakePage) OnResponse(buffer int) (<-chan browser.Response, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan browser.Response, buffer+len(p.lateResponses))
	p.subs = append(p.subs, ch)
	for _, r := range p.lateResponses {
		ch <- r
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, sub := range p.subs {
				if sub == ch {
					p.subs = append(p.subs[:i], p.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// fakeLauncher hands out a single fakePage
type fakeLauncher struct {
	page      *fakePage
	launchErr error
	launches  int
}

func (l *fakeLauncher) Launch(context.Context) (browser.Page, error) {
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	l.launches++
	return l.page, nil
}

func (l *fakeLauncher) Health() (int, int) { return 1, 1 }

func (l *fakeLauncher) Close() error { return nil }
