package proxy

import (
	"strings"

	"i4.energy/across/lteproxy/at"
	"i4.energy/across/lteproxy/textbuf"
)

// content start markers, in order of preference after the header/body
// separator. A transcript with none of them is returned verbatim.
var contentMarkers = []string{"<!DOCTYPE", "<html", "<body"}

// Extract recovers the upstream content from a raw session transcript.
//
// The start of content is chosen by preference: text after the first
// blank-line sequence, else from the first content marker. The extracted
// region is then truncated at the first control-channel artifact, since
// an artifact means the serial driver's own chatter leaked into the
// capture. Extract is idempotent once content has been isolated.
func Extract(transcript string) string {
	out := textbuf.New(PayloadMax)

	if i := strings.Index(transcript, "\r\n\r\n"); i >= 0 {
		out.WriteString(transcript[i+4:])
	} else {
		start := -1
		for _, marker := range contentMarkers {
			if i := strings.Index(transcript, marker); i >= 0 {
				start = i
				break
			}
		}
		if start >= 0 {
			out.WriteString(transcript[start:])
		} else {
			out.WriteString(transcript)
		}
	}

	if i := at.FirstArtifact(out.String()); i >= 0 {
		out.TruncateAt(i)
	}
	return out.String()
}
