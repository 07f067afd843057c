package vals

import (
	"encoding/json"
	"fmt"
)

// Repr returns a compact representation of v, suitable for logs and error
// messages. Values that can be encoded as JSON are shown as JSON.
func Repr(v any) string {
	bs, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s>", Kind(v))
	}
	return string(bs)
}
