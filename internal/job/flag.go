package job

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Flag is a boolean that also accepts the integers 0 and 1 on input, which is
// how older job documents spell output.parallel. It always marshals as a JSON
// boolean.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("expected a boolean or 0/1, got %s", data)
	}
	return nil
}
