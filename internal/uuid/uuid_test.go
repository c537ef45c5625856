package uuid

import (
	"encoding/json"
	"testing"
)

func TestUUID_JSONRoundTrip(t *testing.T) {
	id := NewUUID()

	data, err := json.Marshal(struct {
		ID UUID `json:"id"`
	}{ID: id})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"` + id.String() + `"}`
	if string(data) != want {
		t.Fatalf("json = %s; want %s", data, want)
	}

	var out struct {
		ID UUID `json:"id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != id {
		t.Errorf("id = %s; want %s", out.ID, id)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
