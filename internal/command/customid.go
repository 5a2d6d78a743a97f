package command

import (
	"fmt"
	"net/url"
	"strings"
)

// customIDSeparator joins the handler name and arguments inside a component
// custom id. Segments are percent-encoded first, so a literal "::" inside an
// argument can never be confused with the separator.
const customIDSeparator = "::"

// EncodeCustomID renders a component custom id from a handler name and its
// arguments. DecodeCustomID is the exact inverse.
func EncodeCustomID(name string, args ...string) string {
	segments := make([]string, 0, len(args)+1)
	segments = append(segments, url.QueryEscape(name))
	for _, a := range args {
		segments = append(segments, url.QueryEscape(a))
	}
	return strings.Join(segments, customIDSeparator)
}

// DecodeCustomID splits a custom id back into the handler name and its
// arguments.
func DecodeCustomID(customID string) (string, []string, error) {
	segments := strings.Split(customID, customIDSeparator)

	decoded := make([]string, len(segments))
	for i, s := range segments {
		d, err := url.QueryUnescape(s)
		if err != nil {
			return "", nil, fmt.Errorf("command: decode custom id %q: %w", customID, err)
		}
		decoded[i] = d
	}

	return decoded[0], decoded[1:], nil
}
