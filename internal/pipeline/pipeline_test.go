package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"assetforge/internal/domain"
	"assetforge/internal/providers/image"
	"assetforge/internal/upload"
)

type fakeGenerator struct {
	name  string
	calls int32
	delay time.Duration
	fn    func(req domain.GenerationRequest) (*image.Output, error)
}

func (g *fakeGenerator) Name() string {
	return g.name
}

func (g *fakeGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*image.Output, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.fn(req)
}

func succeeding(name string) *fakeGenerator {
	return &fakeGenerator{name: name, fn: func(req domain.GenerationRequest) (*image.Output, error) {
		return &image.Output{Data: make([]byte, 128), Provider: name, Metadata: map[string]any{"model": name + "-test"}}, nil
	}}
}

func failing(name string, kind domain.ErrKind) *fakeGenerator {
	return &fakeGenerator{name: name, fn: func(req domain.GenerationRequest) (*image.Output, error) {
		return nil, domain.NewError(kind, name, "provider rejected the request")
	}}
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	last  upload.Request
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, req upload.Request) (*domain.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	u.last = req
	if u.err != nil {
		return nil, u.err
	}
	return &domain.UploadResult{
		AssetID:   req.Folder + "/" + req.PublicID,
		SecureURL: "https://store.example.com/" + req.PublicID + "." + req.Format,
		ByteSize:  int64(len(req.Data)),
		Format:    req.Format,
	}, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *captureSink) Emit(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *captureSink) byPhase(phase domain.EventPhase) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Event
	for _, ev := range s.events {
		if ev.Phase == phase {
			out = append(out, ev)
		}
	}
	return out
}

func newTestService(t *testing.T, repo domain.CacheRepository, uploader Uploader, sink domain.EventSink, generators ...image.Generator) *Service {
	t.Helper()
	volatile, err := NewVolatileCache(16, time.Minute)
	if err != nil {
		t.Fatalf("NewVolatileCache: %v", err)
	}
	logger := testLogger()
	chain := NewChain(generators, time.Second, sink, logger)
	cache := NewTieredCache(volatile, repo, logger)
	return NewService(chain, cache, uploader, NewCoordinator(), sink, logger)
}

func TestGenerateEndToEnd(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	sink := &captureSink{}
	service := newTestService(t, repo, uploader, sink, succeeding("gemini"))

	result, err := service.Generate(context.Background(), domain.GenerationRequest{
		Prompt: "a red bicycle on a white background",
		Size:   "512x512",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Cached {
		t.Fatalf("first run must not be served from cache")
	}
	if result.Provider != "gemini" {
		t.Fatalf("provider = %q, want gemini", result.Provider)
	}
	if result.DurationMS < 0 {
		t.Fatalf("duration = %d, want >= 0", result.DurationMS)
	}
	if !strings.HasPrefix(uploader.last.PublicID, "a-red-bicycle-on-a-white-background-") {
		t.Fatalf("public id = %q, want prompt slug prefix", uploader.last.PublicID)
	}
	if result.SecureURL != "https://store.example.com/"+uploader.last.PublicID+".png" {
		t.Fatalf("secure url = %q does not match upload response", result.SecureURL)
	}
	if uploader.calls != 1 {
		t.Fatalf("upload calls = %d, want 1", uploader.calls)
	}
	if len(sink.byPhase(domain.PhaseStart)) != 1 || len(sink.byPhase(domain.PhaseComplete)) != 1 {
		t.Fatalf("expected one start and one complete event")
	}
}

func TestGenerateIdempotentViaCache(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	sink := &captureSink{}
	gen := succeeding("gemini")
	service := newTestService(t, repo, uploader, sink, gen)

	req := domain.GenerationRequest{Prompt: "a red bicycle"}
	first, err := service.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := service.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second call should be served from cache")
	}
	if second.AssetID != first.AssetID || second.SecureURL != first.SecureURL {
		t.Fatalf("cached result diverged: %+v vs %+v", second, first)
	}
	if atomic.LoadInt32(&gen.calls) != 1 {
		t.Fatalf("provider calls = %d, want 1", gen.calls)
	}
}

func TestGenerateSkipCache(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	gen := succeeding("gemini")
	service := newTestService(t, repo, uploader, &captureSink{}, gen)

	req := domain.GenerationRequest{Prompt: "a red bicycle"}
	if _, err := service.Generate(context.Background(), req); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	req.SkipCache = true
	result, err := service.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if result.Cached {
		t.Fatalf("skip-cache run must not be served from cache")
	}
	if atomic.LoadInt32(&gen.calls) != 2 {
		t.Fatalf("provider calls = %d, want 2", gen.calls)
	}
}

func TestGenerateSingleFlight(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	gen := succeeding("gemini")
	gen.delay = 100 * time.Millisecond
	service := newTestService(t, repo, uploader, &captureSink{}, gen)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*domain.GenerationResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.Generate(context.Background(), domain.GenerationRequest{Prompt: "a red bicycle"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].AssetID != results[0].AssetID {
			t.Fatalf("caller %d got a different asset: %q vs %q", i, results[i].AssetID, results[0].AssetID)
		}
	}
	if got := atomic.LoadInt32(&gen.calls); got != 1 {
		t.Fatalf("provider-chain executions = %d, want 1", got)
	}
	if uploader.calls != 1 {
		t.Fatalf("upload calls = %d, want 1", uploader.calls)
	}
}

func TestGenerateFailover(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	sink := &captureSink{}
	first := failing("gemini", domain.ErrMissingCredentials)
	second := succeeding("openai")
	service := newTestService(t, repo, uploader, sink, first, second)

	result, err := service.Generate(context.Background(), domain.GenerationRequest{Prompt: "a red bicycle"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Provider != "openai" {
		t.Fatalf("provider = %q, want openai", result.Provider)
	}
	attempts := sink.byPhase(domain.PhaseProvider)
	if len(attempts) != 2 {
		t.Fatalf("provider attempt events = %d, want 2", len(attempts))
	}
	if attempts[0].Provider != "gemini" || attempts[0].Success {
		t.Fatalf("first attempt should be a gemini failure, got %+v", attempts[0])
	}
	if atomic.LoadInt32(&first.calls) != 1 {
		t.Fatalf("failed provider was retried at chain level: calls = %d", first.calls)
	}
}

func TestGenerateExhaustion(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	service := newTestService(t, repo, uploader, &captureSink{},
		failing("gemini", domain.ErrMissingCredentials),
		failing("openai", domain.ErrRateLimited),
		failing("qwen", domain.ErrUpstream),
	)

	_, err := service.Generate(context.Background(), domain.GenerationRequest{Prompt: "a red bicycle"})
	if !domain.IsKind(err, domain.ErrProvidersExhausted) {
		t.Fatalf("err = %v, want providers_exhausted", err)
	}
	var tagged *domain.Error
	if !errors.As(err, &tagged) || len(tagged.Attempts) != 3 {
		t.Fatalf("expected attempt log with 3 entries, got %+v", tagged)
	}
	if tagged.Attempts[1].ErrorCode != domain.ErrRateLimited {
		t.Fatalf("attempt[1] code = %q, want rate_limited", tagged.Attempts[1].ErrorCode)
	}
	if repo.puts != 0 {
		t.Fatalf("exhaustion must not write to the durable cache, got %d puts", repo.puts)
	}
	if uploader.calls != 0 {
		t.Fatalf("exhaustion must not upload, got %d calls", uploader.calls)
	}
}

func TestGenerateDurableWriteFailureTolerated(t *testing.T) {
	repo := newFakeRepo()
	repo.putErr = context.DeadlineExceeded
	uploader := &fakeUploader{}
	service := newTestService(t, repo, uploader, &captureSink{}, succeeding("gemini"))

	result, err := service.Generate(context.Background(), domain.GenerationRequest{Prompt: "a red bicycle"})
	if err != nil {
		t.Fatalf("Generate should tolerate a durable cache write failure, got %v", err)
	}
	if result.Cached || !result.Success {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestGenerateValidation(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{}
	gen := succeeding("gemini")
	service := newTestService(t, repo, uploader, &captureSink{}, gen)

	_, err := service.Generate(context.Background(), domain.GenerationRequest{Prompt: "   "})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation_error", err)
	}
	if atomic.LoadInt32(&gen.calls) != 0 {
		t.Fatalf("validation failure must not touch providers")
	}
}

func TestGenerateUploadFailureIsTerminal(t *testing.T) {
	repo := newFakeRepo()
	uploader := &fakeUploader{err: domain.NewError(domain.ErrUploadFailed, "upload", "status 500: boom")}
	service := newTestService(t, repo, uploader, &captureSink{}, succeeding("gemini"))

	_, err := service.Generate(context.Background(), domain.GenerationRequest{Prompt: "a red bicycle"})
	if !domain.IsKind(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want upload_failed", err)
	}
	if repo.puts != 0 {
		t.Fatalf("failed upload must not write the cache index")
	}
}
