// Package protocol implements the wire protocol spoken with barrier devices.
//
// Every frame is a JSON object with a mandatory "action" discriminator plus
// action-specific fields. Decoding is pure; malformed frames yield
// ErrMalformedMessage and never panic.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message kinds. auth_card and burn_response travel device -> server,
// the rest server -> device.
const (
	ActionAuthCard     = "auth_card"
	ActionAuthResponse = "auth_response"
	ActionBurnCard     = "burn_card"
	ActionBurnResponse = "burn_response"
	ActionOpenBarrier  = "open_barrier"
)

var ErrMalformedMessage = errors.New("malformed message")

// Message is the decoded form of one wire frame, one variant per action.
type Message interface {
	Action() string
}

// AuthCard is a device asking whether the presented card may pass.
type AuthCard struct {
	UID string `json:"uid"`
}

func (AuthCard) Action() string { return ActionAuthCard }

// AuthResponse answers an AuthCard. BarrierOpenSec is populated on deny too,
// for protocol symmetry; devices act on it only when Auth is true.
type AuthResponse struct {
	Auth           bool `json:"auth"`
	BarrierOpenSec int  `json:"barrierOpenSec"`
}

func (AuthResponse) Action() string { return ActionAuthResponse }

// BurnCard commands devices to write the next presented blank card.
type BurnCard struct{}

func (BurnCard) Action() string { return ActionBurnCard }

// BurnResponse reports the outcome of a burn. UID is present iff successful.
type BurnResponse struct {
	BurnSuccessful bool   `json:"burnSuccessful"`
	UID            string `json:"uid,omitempty"`
}

func (BurnResponse) Action() string { return ActionBurnResponse }

// OpenBarrier commands devices to open the barrier for the given duration.
type OpenBarrier struct {
	BarrierOpenSec int `json:"barrierOpenSec"`
}

func (OpenBarrier) Action() string { return ActionOpenBarrier }

type envelope struct {
	Action string `json:"action"`
}

// Decode parses one wire frame into its typed variant.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Action {
	case ActionAuthCard:
		var msg AuthCard
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if msg.UID == "" {
			return nil, fmt.Errorf("%w: %s requires uid", ErrMalformedMessage, ActionAuthCard)
		}
		return msg, nil

	case ActionAuthResponse:
		// Pointer fields distinguish an absent field from a zero value.
		var raw struct {
			Auth           *bool `json:"auth"`
			BarrierOpenSec *int  `json:"barrierOpenSec"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if raw.Auth == nil {
			return nil, fmt.Errorf("%w: %s requires auth", ErrMalformedMessage, ActionAuthResponse)
		}
		if raw.BarrierOpenSec == nil {
			return nil, fmt.Errorf("%w: %s requires barrierOpenSec", ErrMalformedMessage, ActionAuthResponse)
		}
		return AuthResponse{Auth: *raw.Auth, BarrierOpenSec: *raw.BarrierOpenSec}, nil

	case ActionBurnCard:
		return BurnCard{}, nil

	case ActionBurnResponse:
		var raw struct {
			BurnSuccessful *bool  `json:"burnSuccessful"`
			UID            string `json:"uid"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if raw.BurnSuccessful == nil {
			return nil, fmt.Errorf("%w: %s requires burnSuccessful", ErrMalformedMessage, ActionBurnResponse)
		}
		if *raw.BurnSuccessful && raw.UID == "" {
			return nil, fmt.Errorf("%w: successful %s requires uid", ErrMalformedMessage, ActionBurnResponse)
		}
		return BurnResponse{BurnSuccessful: *raw.BurnSuccessful, UID: raw.UID}, nil

	case ActionOpenBarrier:
		var raw struct {
			BarrierOpenSec *int `json:"barrierOpenSec"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if raw.BarrierOpenSec == nil {
			return nil, fmt.Errorf("%w: %s requires barrierOpenSec", ErrMalformedMessage, ActionOpenBarrier)
		}
		return OpenBarrier{BarrierOpenSec: *raw.BarrierOpenSec}, nil

	case "":
		return nil, fmt.Errorf("%w: missing action", ErrMalformedMessage)

	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrMalformedMessage, env.Action)
	}
}

// Encode serializes a typed message into its wire frame.
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case AuthCard:
		return json.Marshal(struct {
			Act string `json:"action"`
			AuthCard
		}{m.Action(), m})
	case AuthResponse:
		return json.Marshal(struct {
			Act string `json:"action"`
			AuthResponse
		}{m.Action(), m})
	case BurnCard:
		return json.Marshal(envelope{Action: m.Action()})
	case BurnResponse:
		return json.Marshal(struct {
			Act string `json:"action"`
			BurnResponse
		}{m.Action(), m})
	case OpenBarrier:
		return json.Marshal(struct {
			Act string `json:"action"`
			OpenBarrier
		}{m.Action(), m})
	default:
		return nil, fmt.Errorf("unsupported message type %T", msg)
	}
}
