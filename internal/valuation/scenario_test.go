package valuation_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/valuation"
)

func TestScenario_RevealThenReset(t *testing.T) {
	t.Parallel()
	c, predictor, exec := newTestController(t)
	predictor.EXPECT().Predict(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req valuation.Request) (valuation.Price, error) {
			if beds, _ := req.Get("beds"); beds != 2 {
				t.Errorf("collaborator received beds=%v", beds)
			}
			if score, _ := req.Get("locationScore"); score != 0.8 {
				t.Errorf("collaborator received locationScore=%v", score)
			}
			return 4500, nil
		})

	req := valuation.NewRequest(map[string]any{"beds": 2, "baths": 1, "locationScore": 0.8})
	if err := c.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit returned %v", err)
	}
	exec.RunNext()

	if c.Phase() != valuation.Revealed {
		t.Fatalf("expected Revealed, got %s", c.Phase())
	}
	if p, ok := c.Price(); !ok || p != 4500 {
		t.Fatalf("expected price 4500, got %v (ok=%v)", p, ok)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset returned %v", err)
	}
	if c.Phase() != valuation.Collecting {
		t.Errorf("expected Collecting, got %s", c.Phase())
	}
	if _, ok := c.Price(); ok {
		t.Error("price should be absent after reset")
	}
}

func TestScenario_TimeoutThenRetry(t *testing.T) {
	t.Parallel()
	c, predictor, exec := newTestController(t)

	var seen []valuation.Request
	record := func(_ context.Context, req valuation.Request) { seen = append(seen, req) }
	gomock.InOrder(
		predictor.EXPECT().Predict(gomock.Any(), gomock.Any()).Do(record).Return(valuation.Price(0), context.DeadlineExceeded),
		predictor.EXPECT().Predict(gomock.Any(), gomock.Any()).Do(record).Return(valuation.Price(3200), nil),
	)

	_ = c.Submit(context.Background(), listing())
	exec.RunNext()

	if c.Phase() != valuation.Failed {
		t.Fatalf("expected Failed, got %s", c.Phase())
	}
	if !apperrors.IsServiceKind(c.Err(), apperrors.KindTimeout) {
		t.Errorf("expected timeout service error, got %v", c.Err())
	}

	if err := c.Retry(context.Background()); err != nil {
		t.Fatalf("Retry returned %v", err)
	}
	if c.Phase() != valuation.Requesting {
		t.Fatalf("expected Requesting after retry, got %s", c.Phase())
	}
	exec.RunNext()

	if c.Phase() != valuation.Revealed {
		t.Fatalf("expected Revealed, got %s", c.Phase())
	}
	if p, _ := c.Price(); p != 3200 {
		t.Errorf("expected price 3200, got %v", p)
	}
	if c.Err() != nil {
		t.Errorf("error should be cleared after a successful retry, got %v", c.Err())
	}
	if len(seen) != 2 || seen[1].Len() != seen[0].Len() {
		t.Errorf("retry should resend the held request, got %v", seen)
	}
}
