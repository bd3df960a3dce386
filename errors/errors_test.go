package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseParse, Kind: KindInvalidData},
			want: "[parse] invalid_data",
		},
		{
			name: "with path",
			err: &Error{
				Phase: PhaseLoad,
				Kind:  KindOutOfBounds,
				Path:  []string{"directory", "stream3"},
			},
			want: "[load] out_of_bounds at directory.stream3",
		},
		{
			name: "with detail",
			err: &Error{
				Phase:  PhaseLocate,
				Kind:   KindNotInitialized,
				Detail: "class constructor has not run",
			},
			want: "[locate] not_initialized: class constructor has not run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorCauseChain(t *testing.T) {
	cause := stderrors.New("short read")
	err := Unreadable(PhaseLoad, 0x7ff8000, 16, cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "short read") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "0x7ff8000") {
		t.Errorf("expected address in message, got %q", err.Error())
	}
}

func TestErrorIsMatchesPhaseAndKind(t *testing.T) {
	a := New(PhaseParse, KindOverflow).Detail("compressed int too wide").Build()
	b := New(PhaseParse, KindOverflow).Build()
	c := New(PhaseResolve, KindOverflow).Build()

	if !stderrors.Is(a, b) {
		t.Error("same phase and kind should match")
	}
	if stderrors.Is(a, c) {
		t.Error("different phase should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := stderrors.New("eof")
	err := New(PhaseParse, KindInvalidData).
		Path("moduleList", "entry2").
		Detail("name length %d exceeds stream", 512).
		Value(512).
		Cause(cause).
		Build()

	if err.Phase != PhaseParse || err.Kind != KindInvalidData {
		t.Errorf("phase/kind: got %s/%s", err.Phase, err.Kind)
	}
	if len(err.Path) != 2 {
		t.Errorf("path: got %v", err.Path)
	}
	if err.Detail != "name length 512 exceeds stream" {
		t.Errorf("detail: got %q", err.Detail)
	}
	if err.Value != 512 || err.Cause != cause {
		t.Error("value or cause not carried through")
	}
}
