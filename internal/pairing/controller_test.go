package pairing

import "testing"

func TestNewController_Clamps(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"negative clamps to minimum", -5, MinTimeoutSeconds},
		{"zero allowed", 0, 0},
		{"in range", 15, 15},
		{"maximum", 30, 30},
		{"over maximum clamps", 45, MaxTimeoutSeconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewController(tt.in)
			if got := ctrl.TimeoutSeconds(); got != tt.want {
				t.Errorf("TimeoutSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestController_CancelLifecycle(t *testing.T) {
	ctrl := NewController(10)

	if ctrl.CancelRequested() {
		t.Error("CancelRequested() = true on fresh controller")
	}

	ctrl.Cancel()
	if !ctrl.CancelRequested() {
		t.Error("CancelRequested() = false after Cancel()")
	}

	if !ctrl.consumeCancel() {
		t.Error("consumeCancel() = false, want true")
	}
	if ctrl.CancelRequested() {
		t.Error("CancelRequested() = true after consumption, want false")
	}
	if ctrl.consumeCancel() {
		t.Error("second consumeCancel() = true, want false")
	}
}
