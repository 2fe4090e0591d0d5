package slp

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Version is the server's reported game version.
type Version struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

// PlayerSample is one entry of the optional player sample.
type PlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Players holds the online and maximum player counts.
type Players struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []PlayerSample `json:"sample,omitempty"`
}

// Description is the server's MOTD. On the wire it is either a plain JSON
// string or a chat component object with nested "extra" components.
type Description struct {
	Text  string        `json:"text"`
	Extra []Description `json:"extra,omitempty"`

	raw string
}

// UnmarshalJSON accepts string, object and array chat components. Objects
// without "text" or "extra", and anything else, are kept verbatim as raw
// JSON text.
func (d *Description) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*d = Description{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Description{Text: s}
		return nil
	case b[0] == '{':
		type component Description
		var c component
		if err := json.Unmarshal(b, &c); err != nil {
			return err
		}
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(b, &keys); err != nil {
			return err
		}
		_, hasText := keys["text"]
		_, hasExtra := keys["extra"]
		if !hasText && !hasExtra {
			// translate, keybind and score components carry no plain text.
			*d = Description{raw: string(b)}
			return nil
		}
		*d = Description(c)
		return nil
	case b[0] == '[':
		var parts []Description
		if err := json.Unmarshal(b, &parts); err != nil {
			return err
		}
		*d = Description{Extra: parts}
		return nil
	default:
		*d = Description{raw: string(b)}
		return nil
	}
}

// String flattens the component tree into plain text.
func (d Description) String() string {
	if d.raw != "" {
		return d.raw
	}
	if len(d.Extra) == 0 {
		return d.Text
	}
	var sb strings.Builder
	sb.WriteString(d.Text)
	for _, e := range d.Extra {
		sb.WriteString(e.String())
	}
	return sb.String()
}

// Response is a decoded status response.
type Response struct {
	Version     Version     `json:"version"`
	Players     Players     `json:"players"`
	Description Description `json:"description"`
	Favicon     string      `json:"favicon,omitempty"`

	// Latency is the ping round trip measured by the client.
	Latency time.Duration `json:"-"`
}

// LatencyMs reports Latency in fractional milliseconds.
func (r Response) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}
