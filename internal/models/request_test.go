package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	req := GenerationRequest{
		Prompt:   "  a red chair \n",
		Style:    "\tlow-poly ",
		Lighting: "   ",
	}

	got := req.Normalize()

	if got.Prompt != "a red chair" {
		t.Errorf("expected trimmed prompt, got %q", got.Prompt)
	}
	if got.Style != "low-poly" {
		t.Errorf("expected trimmed style, got %q", got.Style)
	}
	if got.Lighting != "" {
		t.Errorf("expected whitespace-only field to become empty, got %q", got.Lighting)
	}
	if req.Prompt != "  a red chair \n" {
		t.Error("Normalize must not modify the receiver")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantErr bool
	}{
		{name: "prompt", prompt: "a red chair", wantErr: false},
		{name: "empty", prompt: "", wantErr: true},
		{name: "whitespace", prompt: "   \t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GenerationRequest{Prompt: tt.prompt, Style: "realistic"}.Normalize().Validate()
			if !tt.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Error() != "Prompt cannot be empty." {
				t.Errorf("unexpected message %q", validationErr.Error())
			}
		})
	}
}

func TestPayload(t *testing.T) {
	req := GenerationRequest{
		Prompt:   "a red chair",
		Style:    "low-poly",
		Lighting: "studio",
	}

	all := req.Payload(nil)
	if len(all) != len(AllAttributes)+1 {
		t.Fatalf("expected prompt plus every attribute, got %d keys", len(all))
	}
	if all["prompt"] != "a red chair" || all["style"] != "low-poly" {
		t.Errorf("unexpected payload %v", all)
	}
	if v, ok := all["scale"]; !ok || v != "" {
		t.Errorf("participating empty attributes are sent as empty strings, got %q (%v)", v, ok)
	}

	some := req.Payload([]Attribute{AttrLighting})
	if len(some) != 2 || some["lighting"] != "studio" {
		t.Errorf("unexpected subset payload %v", some)
	}

	none := req.Payload([]Attribute{})
	if len(none) != 1 || none["prompt"] != "a red chair" {
		t.Errorf("expected prompt only, got %v", none)
	}
}

func TestParseAttribute(t *testing.T) {
	tests := []struct {
		in   string
		want Attribute
		ok   bool
	}{
		{"style", AttrStyle, true},
		{"color-scheme", AttrColorScheme, true},
		{" Level_Of_Detail ", AttrLevelOfDetail, true},
		{"prompt", "", false},
		{"colour", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseAttribute(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseAttribute(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGetSet(t *testing.T) {
	var req GenerationRequest
	for _, attr := range AllAttributes {
		req.Set(attr, string(attr)+"-value")
	}
	for _, attr := range AllAttributes {
		if got := req.Get(attr); got != string(attr)+"-value" {
			t.Errorf("%s: got %q", attr, got)
		}
	}

	req.Set("unknown", "ignored")
	if req.Get("unknown") != "" {
		t.Error("unknown attributes must be ignored")
	}
}

func TestPollResultDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string", body: `{"status":"FAILURE","result":"GPU out of memory"}`, want: "GPU out of memory"},
		{name: "null", body: `{"status":"FAILURE","result":null}`, want: ""},
		{name: "missing", body: `{"status":"FAILURE"}`, want: ""},
		{name: "object", body: `{"status":"FAILURE","result":{"exc_type": "ValueError"}}`, want: `{"exc_type":"ValueError"}`},
		{name: "number", body: `{"status":"FAILURE","result":42}`, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result PollResult
			if err := json.Unmarshal([]byte(tt.body), &result); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if got := result.Detail(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUIState(t *testing.T) {
	terminal := map[UIState]bool{
		UIStateIdle:       false,
		UIStateSubmitting: false,
		UIStatePolling:    false,
		UIStateSuccess:    true,
		UIStateError:      true,
	}
	for state, want := range terminal {
		if state.Terminal() != want {
			t.Errorf("%s: Terminal() = %v", state, !want)
		}
		if state.Busy() != (state == UIStateSubmitting || state == UIStatePolling) {
			t.Errorf("%s: unexpected Busy()", state)
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(nil); got != "" {
		t.Errorf("expected empty message, got %q", got)
	}
	if got := UserMessage(&PollTransportError{TaskID: "T1", Err: errors.New("reset")}); got != StatusUnavailableDetail {
		t.Errorf("unexpected poll message %q", got)
	}
	if got := UserMessage(&RemoteFailure{TaskID: "T1"}); got != DefaultErrorDetail {
		t.Errorf("unexpected failure message %q", got)
	}
	if got := UserMessage(&SubmissionError{StatusCode: 500, Detail: "rate limited"}); got != "rate limited" {
		t.Errorf("unexpected submission message %q", got)
	}
}
