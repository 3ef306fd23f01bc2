// Package commentary is the optional, additive Gemini-backed race
// commentary generator described in SPEC_FULL.md §6. It turns a batch of
// race events into one or two sentences of colour commentary, reusing the
// teacher's strategy package's throttle/cache/error-classification
// patterns (strategy/rate_limiter.go, strategy/cache.go,
// strategy/error_handling.go) adapted to a fire-and-forget, never-blocking
// shape: a genai failure or a disabled/unconfigured generator always falls
// back to a canned template, and callers never wait on it.
package commentary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/psybedev/racecore/config"
	"github.com/psybedev/racecore/logging"
	"github.com/psybedev/racecore/raceerr"
)

// Event is one structured race happening worth commentating on: a pit
// request, an overtake, a lap completion, or the finish.
type Event struct {
	Kind string // "pit_requested", "overtake", "lap_complete", "finished", "start_released"
	Car  int
	Team string
	Lap  int
	Text string // a short human-readable detail, e.g. "P3 vs P4, DRS zone"
}

// throttle is a minimal token bucket capping genai calls per minute,
// adapted from strategy.RateLimiter.
type throttle struct {
	mu         sync.Mutex
	tokens     int
	max        int
	lastRefill time.Time
}

func newThrottle(perMinute int) *throttle {
	return &throttle{tokens: perMinute, max: perMinute, lastRefill: time.Now()}
}

func (t *throttle) allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.lastRefill)
	refill := int(elapsed.Seconds() * float64(t.max) / 60.0)
	if refill > 0 {
		t.tokens += refill
		if t.tokens > t.max {
			t.tokens = t.max
		}
		t.lastRefill = time.Now()
	}
	if t.tokens <= 0 {
		return false
	}
	t.tokens--
	return true
}

// cacheEntry is a TTL-cached commentary line, adapted from
// strategy.StrategyCache's entry shape.
type cacheEntry struct {
	line      string
	expiresAt time.Time
}

// Generator turns event batches into commentary lines, falling back to
// templates when disabled, unconfigured, or on any genai failure.
type Generator struct {
	cfg    *config.Config
	log    logging.Logger
	client *genai.Client

	throttle *throttle

	cacheMu sync.Mutex
	cache   map[string]cacheEntry
	cacheTTL time.Duration

	classifier *raceerr.Classifier

	queue  chan []Event
	lines  chan string
	stop   chan struct{}
	closed bool
}

// New builds a commentary generator. If apiKey is empty or
// cfg.EnableAICommentary is false, the generator runs in template-only
// mode (matching demos/cache_integration_demo.go's cache-only fallback
// path when no API key is configured).
func New(ctx context.Context, cfg *config.Config, apiKey string, log logging.Logger) *Generator {
	g := &Generator{
		cfg:        cfg,
		log:        log.With("role", "commentary"),
		throttle:   newThrottle(15),
		cache:      make(map[string]cacheEntry),
		cacheTTL:   30 * time.Second,
		classifier: raceerr.NewClassifier(),
		queue:      make(chan []Event, 32),
		lines:      make(chan string, 32),
		stop:       make(chan struct{}),
	}

	if cfg.EnableAICommentary && apiKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			g.log.Error("genai_client_init_failed", g.classifier.Classify(err, "genai_init"), nil)
		} else {
			g.client = client
		}
	}

	go g.run()
	return g
}

// Submit enqueues a batch of events for commentary, best-effort: if the
// internal queue is full the batch is dropped rather than blocking the
// caller (the race loop never waits on commentary).
func (g *Generator) Submit(events []Event) {
	if g.closed || len(events) == 0 {
		return
	}
	select {
	case g.queue <- events:
	default:
		g.log.Warn("commentary_queue_full", map[string]interface{}{"dropped": len(events)})
	}
}

// Lines returns the channel commentary lines are published on, for a
// consumer (e.g. controller.EventSink) to drain at its own pace.
func (g *Generator) Lines() <-chan string { return g.lines }

// Close stops the generator's goroutine.
func (g *Generator) Close() {
	if g.closed {
		return
	}
	g.closed = true
	close(g.stop)
}

func (g *Generator) run() {
	defer close(g.lines)
	for {
		select {
		case <-g.stop:
			return
		case events := <-g.queue:
			line := g.generate(events)
			select {
			case g.lines <- line:
			case <-g.stop:
				return
			default:
			}
		}
	}
}

func (g *Generator) generate(events []Event) string {
	key := cacheKey(events)

	g.cacheMu.Lock()
	if entry, ok := g.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		g.cacheMu.Unlock()
		return entry.line
	}
	g.cacheMu.Unlock()

	line := g.templateFor(events)
	if g.client != nil && g.throttle.allow() {
		if generated, err := g.callGemini(events); err != nil {
			classified := g.classifier.Classify(err, "commentary_generate")
			g.log.Warn("commentary_fallback_to_template", map[string]interface{}{"reason": classified.Error()})
		} else {
			line = generated
		}
	}

	g.cacheMu.Lock()
	g.cache[key] = cacheEntry{line: line, expiresAt: time.Now().Add(g.cacheTTL)}
	g.cacheMu.Unlock()
	return line
}

func (g *Generator) callGemini(events []Event) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	prompt := buildPrompt(events)
	temperature := float32(0.8)
	result, err := g.client.Models.GenerateContent(ctx, g.cfg.CommentaryModel, []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}, &genai.GenerateContentConfig{Temperature: &temperature})
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from commentary model")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func buildPrompt(events []Event) string {
	s := "Give one or two sentences of excited F1 commentary for these events:\n"
	for _, e := range events {
		s += fmt.Sprintf("- %s: car %d (%s), lap %d: %s\n", e.Kind, e.Car, e.Team, e.Lap, e.Text)
	}
	return s
}

// templateFor is the canned, no-API fallback: it narrates the last event
// in the batch.
func (g *Generator) templateFor(events []Event) string {
	e := events[len(events)-1]
	switch e.Kind {
	case "overtake":
		return fmt.Sprintf("Car %d makes a move on lap %d — %s!", e.Car, e.Lap, e.Text)
	case "pit_requested":
		return fmt.Sprintf("%s is diving into the pits with car %d.", e.Team, e.Car)
	case "lap_complete":
		return fmt.Sprintf("Car %d completes lap %d.", e.Car, e.Lap)
	case "finished":
		return fmt.Sprintf("Car %d takes the chequered flag!", e.Car)
	default:
		return fmt.Sprintf("Car %d: %s", e.Car, e.Text)
	}
}

func cacheKey(events []Event) string {
	s := ""
	for _, e := range events {
		s += fmt.Sprintf("%s|%d|%d;", e.Kind, e.Car, e.Lap)
	}
	return s
}
