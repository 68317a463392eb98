package crawler

import (
	"context"

	"go.uber.org/zap"
)

// PromotingFetcher fetches with a plain HTTP probe and re-fetches through a
// headless browser when the detector says the probe body is not usable.
type PromotingFetcher struct {
	probe    Fetcher
	headless Fetcher
	detector HeadlessDetector
	logger   *zap.Logger
}

// NewPromotingFetcher builds a PromotingFetcher. A nil headless fetcher or
// detector disables promotion.
func NewPromotingFetcher(probe, headless Fetcher, detector HeadlessDetector, logger *zap.Logger) *PromotingFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotingFetcher{
		probe:    probe,
		headless: headless,
		detector: detector,
		logger:   logger,
	}
}

// Fetch implements Fetcher.
func (f *PromotingFetcher) Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error) {
	resp, err := f.probe.Fetch(ctx, request)
	if err != nil {
		return resp, err
	}
	if f.headless == nil || f.detector == nil || !f.detector.ShouldPromote(resp) {
		return resp, nil
	}
	f.logger.Info("promoting fetch to headless", zap.String("url", request.URL))
	rendered, err := f.headless.Fetch(ctx, request)
	if err != nil {
		f.logger.Warn("headless fetch failed, using probe body", zap.String("url", request.URL), zap.Error(err))
		return resp, nil
	}
	return rendered, nil
}
