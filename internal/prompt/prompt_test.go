package prompt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
)

func TestTranslateSurveyErr(t *testing.T) {
	if err := translateSurveyErr(fmt.Errorf("wrapped: %w", terminal.InterruptErr)); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	other := errors.New("boom")
	if err := translateSurveyErr(other); err != other {
		t.Fatalf("expected error to pass through, got %v", err)
	}
}

func TestSurveyDriver_GuardsBeforePrompting(t *testing.T) {
	var out bytes.Buffer
	d := &surveyDriver{out: &out}

	if _, err := d.Select(context.Background(), SelectConfig{Message: "Pick"}); err == nil {
		t.Fatalf("expected error for empty options")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Input(ctx, InputConfig{Message: "Name"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}

	if err := d.Info(context.Background(), "saved"); err != nil {
		t.Fatalf("info: %v", err)
	}
	if out.String() != "saved\n" {
		t.Fatalf("unexpected info output %q", out.String())
	}
}

func TestIndexOf(t *testing.T) {
	options := []string{"a", "b"}
	if indexOf(options, "b") != 1 || indexOf(options, "c") != -1 {
		t.Fatalf("unexpected indexOf results")
	}
}
