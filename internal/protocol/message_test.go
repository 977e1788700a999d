package protocol

import (
	"errors"
	"testing"
)

func TestDecode_AuthCard(t *testing.T) {
	msg, err := Decode([]byte(`{"action":"auth_card","uid":"04AABBCC"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	authCard, ok := msg.(AuthCard)
	if !ok {
		t.Fatalf("expected AuthCard, got %T", msg)
	}
	if authCard.UID != "04AABBCC" {
		t.Fatalf("unexpected uid: %q", authCard.UID)
	}
}

func TestDecode_AuthCardMissingUID(t *testing.T) {
	_, err := Decode([]byte(`{"action":"auth_card"}`))
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestDecode_BurnResponse(t *testing.T) {
	msg, err := Decode([]byte(`{"action":"burn_response","burnSuccessful":true,"uid":"X1"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res, ok := msg.(BurnResponse)
	if !ok {
		t.Fatalf("expected BurnResponse, got %T", msg)
	}
	if !res.BurnSuccessful || res.UID != "X1" {
		t.Fatalf("unexpected burn response: %+v", res)
	}
}

func TestDecode_BurnResponseFailureWithoutUID(t *testing.T) {
	// A failed burn carries no uid; that is well-formed.
	msg, err := Decode([]byte(`{"action":"burn_response","burnSuccessful":false}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res := msg.(BurnResponse)
	if res.BurnSuccessful {
		t.Fatal("expected failed burn")
	}
}

func TestDecode_MissingRequiredField(t *testing.T) {
	// A present-but-false/zero field is well-formed; an absent one is not.
	frames := map[string]string{
		"burn_response without burnSuccessful": `{"action":"burn_response"}`,
		"burn_response with only uid":          `{"action":"burn_response","uid":"X1"}`,
		"auth_response without auth":           `{"action":"auth_response","barrierOpenSec":15}`,
		"auth_response without barrierOpenSec": `{"action":"auth_response","auth":true}`,
		"open_barrier without barrierOpenSec":  `{"action":"open_barrier"}`,
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(frame)); !errors.Is(err, ErrMalformedMessage) {
				t.Fatalf("expected ErrMalformedMessage, got %v", err)
			}
		})
	}
}

func TestDecode_ExplicitZeroValuesAreWellFormed(t *testing.T) {
	msg, err := Decode([]byte(`{"action":"auth_response","auth":false,"barrierOpenSec":0}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res := msg.(AuthResponse)
	if res.Auth || res.BarrierOpenSec != 0 {
		t.Fatalf("unexpected auth response: %+v", res)
	}

	if _, err := Decode([]byte(`{"action":"open_barrier","barrierOpenSec":0}`)); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestDecode_BurnResponseSuccessRequiresUID(t *testing.T) {
	_, err := Decode([]byte(`{"action":"burn_response","burnSuccessful":true}`))
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestDecode_UnknownAction(t *testing.T) {
	_, err := Decode([]byte(`{"action":"self_destruct"}`))
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestDecode_MissingAction(t *testing.T) {
	_, err := Decode([]byte(`{"uid":"X"}`))
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	messages := []Message{
		AuthCard{UID: "04AABBCC"},
		AuthResponse{Auth: true, BarrierOpenSec: 15},
		BurnCard{},
		BurnResponse{BurnSuccessful: true, UID: "X1"},
		OpenBarrier{BarrierOpenSec: 20},
	}

	for _, original := range messages {
		data, err := Encode(original)
		if err != nil {
			t.Fatalf("encode %s: %v", original.Action(), err)
		}
		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %s: %v", original.Action(), err)
		}
		if decoded.Action() != original.Action() {
			t.Fatalf("round trip changed action: %s -> %s", original.Action(), decoded.Action())
		}
	}
}

func TestEncode_OpenBarrierWire(t *testing.T) {
	data, err := Encode(OpenBarrier{BarrierOpenSec: 12})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"action":"open_barrier","barrierOpenSec":12}`
	if string(data) != want {
		t.Fatalf("unexpected wire frame, got: %s, want: %s", data, want)
	}
}
