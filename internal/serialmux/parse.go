package serialmux

import "strings"

const (
	EventTypeSample  = "sample"   // g,<x>,<y>,<z> or {"gx":...}
	EventTypeRawData = "raw_data" // r,<12 hex digits>
	EventTypeButton  = "button"   // btn
	EventTypeConfig  = "config"   // any other JSON object
	EventTypeUnknown = "unknown"
)

// ClassifyPayload inspects a line from the bridge and returns its event
// type. It only looks at the shape of the line; parsing the values is left
// to the consumer.
func ClassifyPayload(payload string) string {
	p := strings.TrimSpace(payload)
	switch {
	case strings.HasPrefix(p, "g,"):
		return EventTypeSample
	case strings.HasPrefix(p, "r,"):
		return EventTypeRawData
	case p == "btn" || strings.HasPrefix(p, "btn,"):
		return EventTypeButton
	case strings.HasPrefix(p, "{"):
		if strings.Contains(p, `"gx"`) {
			return EventTypeSample
		}
		return EventTypeConfig
	}
	return EventTypeUnknown
}
