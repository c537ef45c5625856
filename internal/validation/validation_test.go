package validation

import (
	"errors"
	"testing"
)

type sample struct {
	Kind   string `json:"kind" validate:"required,oneof=a b"`
	UserID string `json:"user_id" validate:"required_if=Kind b,mxid"`
	Days   int    `json:"days" validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{name: "valid without user", in: sample{Kind: "a"}},
		{name: "valid with user", in: sample{Kind: "b", UserID: "@alice:example.org"}},
		{name: "missing kind", in: sample{}, wantErr: "kind: required"},
		{name: "unknown kind", in: sample{Kind: "c"}, wantErr: "kind: oneof"},
		{name: "user required", in: sample{Kind: "b"}, wantErr: "user_id: required_if"},
		{name: "malformed user", in: sample{Kind: "b", UserID: "alice"}, wantErr: "user_id: mxid"},
		{name: "negative days", in: sample{Kind: "a", Days: -1}, wantErr: "days: gte"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStruct(tc.in)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tc.wantErr)
			}
			if got := ErrorsToString(err); got != tc.wantErr {
				t.Errorf("ErrorsToString = %q; want %q", got, tc.wantErr)
			}
		})
	}
}

func TestErrorsToString_PlainError(t *testing.T) {
	if got := ErrorsToString(errors.New("boom")); got != "boom" {
		t.Errorf("ErrorsToString = %q; want boom", got)
	}
}
