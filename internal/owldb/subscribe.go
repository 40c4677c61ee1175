package owldb

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ss303/m3ssag1n8/internal/types"
)

// Event is one "update" delivery from the subscription stream. ID carries
// the delivery identifier correlating the event to its origin.
type Event struct {
	ID       string
	Document types.Document
}

const (
	subscribeBackoffMin = 500 * time.Millisecond
	subscribeBackoffMax = 30 * time.Second
)

// Subscription is one live event stream over a posts collection. Events are
// delivered in stream order on Events until the subscription is canceled.
type Subscription struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Subscribe opens the live event stream for a collection. The reader
// reconnects with capped exponential backoff until Cancel is called or ctx
// ends; the events channel closes once the reader has fully stopped.
func (c *Client) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	endpoint, err := c.buildURL(collection, url.Values{"mode": []string{"subscribe"}})
	if err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		events: make(chan Event, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.stream(subCtx, endpoint, sub)
	return sub, nil
}

// Events returns the delivery channel. It closes when the stream stops.
func (s *Subscription) Events() <-chan Event { return s.events }

// Cancel synchronously stops the stream. It is idempotent and returns only
// after the reader goroutine has exited, so no further events can arrive.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (c *Client) stream(ctx context.Context, endpoint string, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.events)

	backoff := subscribeBackoffMin
	for {
		connected, err := c.streamOnce(ctx, endpoint, sub)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warnf("[subscribe] stream interrupted: %v", err)
		}
		if connected {
			backoff = subscribeBackoffMin
		} else {
			backoff *= 2
			if backoff > subscribeBackoffMax {
				backoff = subscribeBackoffMax
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// streamOnce runs a single connection until it fails or ctx ends. The bool
// reports whether the connection was established at all, which resets the
// reconnect backoff.
func (c *Client) streamOnce(ctx context.Context, endpoint string, sub *Subscription) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// The regular client enforces a request timeout, which would sever a
	// healthy long-lived stream. Cancellation happens via ctx instead.
	resp, err := c.streamClient().Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	reader := bufio.NewReader(resp.Body)
	for {
		frame, err := readFrame(reader)
		if err != nil {
			if err == io.EOF {
				return true, fmt.Errorf("stream closed by store")
			}
			return true, err
		}
		event, ok := frame.updateEvent()
		if !ok {
			// Keep-alives and unknown event kinds carry no state change.
			continue
		}
		select {
		case sub.events <- event:
		case <-ctx.Done():
			return true, nil
		}
	}
}

func (c *Client) streamClient() *http.Client {
	return &http.Client{Transport: c.httpClient.Transport}
}

// sseFrame is one server-sent-event frame: the accumulated field values
// between two blank lines.
type sseFrame struct {
	event string
	data  string
	id    string
}

// updateEvent converts an "update" frame into a delivery. Anything else is
// a keep-alive to ignore.
func (f sseFrame) updateEvent() (Event, bool) {
	if f.event != "update" || f.data == "" {
		return Event{}, false
	}
	var doc types.Document
	if err := json.Unmarshal([]byte(f.data), &doc); err != nil {
		log.Debugf("[subscribe] ignoring malformed update payload: %v", err)
		return Event{}, false
	}
	return Event{ID: f.id, Document: doc}, true
}

// readFrame reads lines until a frame is terminated by a blank line.
// Comment lines (leading colon) are keep-alives and never form a frame by
// themselves.
func readFrame(r *bufio.Reader) (sseFrame, error) {
	var frame sseFrame
	var dataLines []string
	seenField := false
	for {
		raw, err := r.ReadString('\n')
		if err != nil {
			return sseFrame{}, err
		}
		line := strings.TrimRight(raw, "\r\n")
		if line == "" {
			if !seenField {
				continue
			}
			frame.data = strings.Join(dataLines, "\n")
			return frame, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			name, value = line, ""
		}
		value = strings.TrimPrefix(value, " ")
		switch name {
		case "event":
			frame.event = value
		case "data":
			dataLines = append(dataLines, value)
		case "id":
			frame.id = value
		}
		seenField = true
	}
}
