package domain

import "testing"

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	terminal := []Status{StatusCaptured, StatusCanceled, StatusPaymentFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	open := []Status{StatusAuthorized, StatusRenderSucceeded, StatusRenderFailed, StatusCaptureFailed, StatusCancelFailed}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestStatus_Placeholder(t *testing.T) {
	t.Parallel()

	if !StatusRenderSucceeded.Placeholder() || !StatusRenderFailed.Placeholder() {
		t.Fatal("expected render outcomes to be placeholders")
	}
	if StatusAuthorized.Placeholder() || StatusCaptured.Placeholder() {
		t.Fatal("expected non-outcome statuses not to be placeholders")
	}
}
