package person

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout matches the "YYYY-MM-DD HH:MM:SS" form served to clients.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrInvalid marks a request body that cannot become a Person.
var ErrInvalid = errors.New("invalid person")

// Person is a directory record keyed by LName. Members the client sends
// beyond fname/lname/timestamp are kept in Extra and echoed back untouched.
type Person struct {
	FName     string
	LName     string
	Timestamp string
	Extra     map[string]json.RawMessage

	// fnameSent records a decoded body that carried fname, even an empty one.
	fnameSent bool
}

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// Clone returns a copy that shares no mutable state with p.
func (p Person) Clone() Person {
	out := p
	if p.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// MarshalJSON emits lname, fname and timestamp when set, plus every Extra member.
func (p Person) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}

	fields := map[string]string{"lname": p.LName}
	if p.FName != "" || p.fnameSent {
		fields["fname"] = p.FName
	}
	if p.Timestamp != "" {
		fields["timestamp"] = p.Timestamp
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON requires a JSON object with a non-empty string lname.
// fname and timestamp must be strings when present; null is rejected.
func (p *Person) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: body must be a JSON object", ErrInvalid)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	lnameRaw, ok := raw["lname"]
	if !ok {
		return fmt.Errorf("%w: lname is required", ErrInvalid)
	}

	var decoded Person
	if err := json.Unmarshal(lnameRaw, &decoded.LName); err != nil {
		return fmt.Errorf("%w: lname must be a string", ErrInvalid)
	}
	if decoded.LName == "" {
		return fmt.Errorf("%w: lname must not be empty", ErrInvalid)
	}
	delete(raw, "lname")

	if v, ok := raw["fname"]; ok {
		if err := decodeString(v, &decoded.FName); err != nil {
			return fmt.Errorf("%w: fname must be a string", ErrInvalid)
		}
		decoded.fnameSent = true
		delete(raw, "fname")
	}

	if v, ok := raw["timestamp"]; ok {
		if err := decodeString(v, &decoded.Timestamp); err != nil {
			return fmt.Errorf("%w: timestamp must be a string", ErrInvalid)
		}
		delete(raw, "timestamp")
	}

	if len(raw) > 0 {
		decoded.Extra = raw
	}

	*p = decoded
	return nil
}

// decodeString is json.Unmarshal into a string without the null no-op.
func decodeString(raw json.RawMessage, dst *string) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errors.New("null is not a string")
	}
	return json.Unmarshal(raw, dst)
}
