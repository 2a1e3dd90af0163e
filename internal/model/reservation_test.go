package model

import (
    "encoding/json"
    "testing"
)

func TestStatusNames(t *testing.T) {
    for s := StatusPending; s <= StatusCancelled; s++ {
        got, err := ParseStatus(s.String())
        if err != nil {
            t.Fatalf("ParseStatus(%q): %v", s, err)
        }
        if got != s {
            t.Errorf("ParseStatus(%q) = %v, want %v", s, got, s)
        }
    }
    if got, err := ParseStatus(" checked_out "); err != nil || got != StatusCheckedOut {
        t.Errorf("ParseStatus lower case = %v, %v", got, err)
    }
    if _, err := ParseStatus("ARCHIVED"); err == nil {
        t.Error("expected error for unknown status")
    }
    if got := Status(42).String(); got != "Status(42)" {
        t.Errorf("String() = %q", got)
    }
}

func TestStatusTerminal(t *testing.T) {
    terminal := map[Status]bool{StatusCheckedOut: true, StatusCancelled: true}
    for s := StatusPending; s <= StatusCancelled; s++ {
        if s.Terminal() != terminal[s] {
            t.Errorf("%s.Terminal() = %v", s, s.Terminal())
        }
    }
}

func TestStatusJSON(t *testing.T) {
    b, err := json.Marshal(struct {
        Status Status `json:"status"`
    }{StatusCheckedIn})
    if err != nil {
        t.Fatal(err)
    }
    if string(b) != `{"status":"CHECKED_IN"}` {
        t.Fatalf("got %s", b)
    }
    var v struct {
        Status Status `json:"status"`
    }
    if err := json.Unmarshal([]byte(`{"status":"cancelled"}`), &v); err != nil {
        t.Fatal(err)
    }
    if v.Status != StatusCancelled {
        t.Fatalf("got %v", v.Status)
    }
}
