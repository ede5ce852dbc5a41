package greetd

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxFrame bounds a single message; greetd replies are a few hundred bytes.
const maxFrame = 1 << 20

const (
	msgCreateSession    = "create_session"
	msgPostResponse     = "post_auth_message_response"
	msgStartSession     = "start_session"
	msgCancelSession    = "cancel_session"
	respSuccess         = "success"
	respError           = "error"
	respAuthMessage     = "auth_message"
	authVisible         = "visible"
	authSecret          = "secret"
	authInfo            = "info"
	authError           = "error"
	errorTypeAuthFailed = "auth_error"
)

type request struct {
	Type     string   `json:"type"`
	Username string   `json:"username,omitempty"`
	Response *string  `json:"response,omitempty"`
	Cmd      []string `json:"cmd,omitempty"`
	Env      []string `json:"env,omitempty"`
}

type response struct {
	Type            string `json:"type"`
	ErrorType       string `json:"error_type,omitempty"`
	Description     string `json:"description,omitempty"`
	AuthMessageType string `json:"auth_message_type,omitempty"`
	AuthMessage     string `json:"auth_message,omitempty"`
}

// Error is a greetd error response.
type Error struct {
	Type        string
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("greetd %s: %s", e.Type, e.Description)
}

func (r response) err() error {
	if r.Type != respError {
		return nil
	}
	return &Error{Type: r.ErrorType, Description: r.Description}
}

// writeFrame sends v as a native-endian length-prefixed JSON payload.
func writeFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf := make([]byte, 4+len(payload))
	binary.NativeEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	_, err = w.Write(buf)
	return err
}

func readFrame(r io.Reader, v any) error {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return err
	}
	n := binary.NativeEndian.Uint32(head[:])
	if n > maxFrame {
		return errors.New("greetd: frame too large")
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}
	return json.Unmarshal(payload, v)
}

func roundTrip(rw io.ReadWriter, req request) (response, error) {
	if err := writeFrame(rw, req); err != nil {
		return response{}, fmt.Errorf("send %s: %w", req.Type, err)
	}
	var resp response
	if err := readFrame(rw, &resp); err != nil {
		return response{}, fmt.Errorf("read reply to %s: %w", req.Type, err)
	}
	return resp, nil
}
