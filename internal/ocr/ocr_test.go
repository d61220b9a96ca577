package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name  string
	text  string
	conf  float32
	err   error
	delay time.Duration
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Recognize(ctx context.Context, _ string) (Result, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Result{Engine: s.name}, ctx.Err()
		}
	}
	if s.err != nil {
		return Result{Engine: s.name}, s.err
	}
	return Result{Text: s.text, Confidence: s.conf, Engine: s.name}, nil
}

func TestDualRunnerCollectsBothEngines(t *testing.T) {
	r := NewDualRunner([]Engine{
		&stubEngine{name: EngineTesseract, text: "first", conf: 0.7},
		&stubEngine{name: EngineVision, text: "second", conf: 0.9},
	}, time.Second, nil)

	got := r.Run(context.Background(), "receipt.png")
	require.Len(t, got, 2)
	assert.Equal(t, EngineTesseract, got[0].Engine)
	assert.Equal(t, EngineVision, got[1].Engine)
}

func TestDualRunnerDropsFailingEngine(t *testing.T) {
	r := NewDualRunner([]Engine{
		&stubEngine{name: EngineTesseract, err: errors.New("boom")},
		&stubEngine{name: EngineVision, text: "ok", conf: 0.9},
	}, time.Second, nil)

	got := r.Run(context.Background(), "receipt.png")
	require.Len(t, got, 1)
	assert.Equal(t, EngineVision, got[0].Engine)
}

func TestDualRunnerTimesOutSlowEngine(t *testing.T) {
	r := NewDualRunner([]Engine{
		&stubEngine{name: EngineTesseract, text: "slow", delay: 500 * time.Millisecond},
		&stubEngine{name: EngineVision, text: "fast", conf: 0.9},
	}, 20*time.Millisecond, nil)

	got := r.Run(context.Background(), "receipt.png")
	require.Len(t, got, 1)
	assert.Equal(t, "fast", got[0].Text)
}

func TestNormalize(t *testing.T) {
	in := "Samtals\t39.254 kr.\r\n\r\n\r\n\r\n----\nTakk   fyrir  "
	got := Normalize(in)
	assert.Equal(t, "Samtals 39.254 kr.\n\nTakk fyrir", got)
}

func TestHeuristicConfidence(t *testing.T) {
	// date + currency + amount all present
	rich := heuristicConfidence("Dags. 12.03.2025 Samtals 39.254,00 kr")
	assert.InDelta(t, 0.7, rich, 0.001)

	// nothing recognizable
	poor := heuristicConfidence("hello world")
	assert.InDelta(t, 0.2, poor, 0.001)

	assert.Greater(t, rich, poor)
}
