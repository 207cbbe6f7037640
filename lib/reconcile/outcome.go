// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"net/http"

	"github.com/bureau-foundation/kanban/lib/board"
)

// Messages the webhook sender sees for reported outcomes.
const (
	MessageAlreadyAssigned = "already assigned"
	MessageResynced        = "unmatch project labels and sync all labels"
)

// Outcome is the result of applying one event, shaped for the HTTP
// response to the delivery.
type Outcome struct {
	StatusCode int

	// Message and Status are the response body fields; empty ones are
	// left out.
	Message string
	Status  string

	// Ack is the acknowledgement of the board operation the event led
	// to, zero when there was none.
	Ack board.Ack
}

// Body returns the JSON response body.
func (o Outcome) Body() map[string]string {
	body := map[string]string{}
	if o.Status != "" {
		body["status"] = o.Status
	}
	if o.Message != "" {
		body["message"] = o.Message
	}
	return body
}

// Changed reports whether the event led to a board operation.
func (o Outcome) Changed() bool {
	return o.Ack.OK()
}

func applied(ack board.Ack) Outcome {
	return Outcome{StatusCode: http.StatusOK, Ack: ack}
}

func unchanged() Outcome {
	return Outcome{StatusCode: http.StatusOK}
}

func reported(message string) Outcome {
	return Outcome{StatusCode: http.StatusOK, Message: message}
}

func resynced(ack board.Ack) Outcome {
	return Outcome{
		StatusCode: http.StatusOK,
		Status:     board.StatusSuccess,
		Message:    MessageResynced,
		Ack:        ack,
	}
}

// failed reports a rejected event as 400 when the delivery itself was
// at fault and 500 otherwise.
func failed(ack board.Ack) Outcome {
	statusCode := http.StatusInternalServerError
	if ack.Status == board.StatusError {
		statusCode = http.StatusBadRequest
	}
	return Outcome{
		StatusCode: statusCode,
		Status:     ack.Status,
		Message:    ack.Message,
		Ack:        ack,
	}
}
