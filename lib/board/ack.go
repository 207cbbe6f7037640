// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"encoding/json"
	"maps"
)

// Acknowledgement statuses.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusServerError = "server error"
)

// Ack is the answer to one operation. It marshals flat: Extra's keys
// sit next to status and message.
type Ack struct {
	Status  string
	Message string
	Extra   map[string]any
}

// Success builds a success acknowledgement.
func Success(message string, extra map[string]any) Ack {
	return Ack{Status: StatusSuccess, Message: message, Extra: extra}
}

// UserFailure builds an error acknowledgement for a caller-correctable
// condition.
func UserFailure(message string) Ack {
	return Ack{Status: StatusError, Message: message}
}

// OK reports whether the operation succeeded.
func (a Ack) OK() bool {
	return a.Status == StatusSuccess
}

func (a Ack) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(a.Extra)+2)
	maps.Copy(fields, a.Extra)
	fields["status"] = a.Status
	fields["message"] = a.Message
	return json.Marshal(fields)
}

// UnmarshalJSON reverses MarshalJSON. Keys other than status and
// message are collected into Extra as raw JSON.
func (a *Ack) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*a = Ack{}
	for key, value := range fields {
		switch key {
		case "status":
			if err := json.Unmarshal(value, &a.Status); err != nil {
				return err
			}
		case "message":
			if err := json.Unmarshal(value, &a.Message); err != nil {
				return err
			}
		default:
			if a.Extra == nil {
				a.Extra = make(map[string]any)
			}
			a.Extra[key] = value
		}
	}
	return nil
}
