package domain

// Protocol is the normalized protocol family of one observed exchange.
type Protocol string

const (
	ProtocolHTTP1 Protocol = "http/1.1"
	ProtocolH2    Protocol = "h2"
	ProtocolH3    Protocol = "h3"
	ProtocolWS    Protocol = "ws"
)

// Observation is one server-observed request/response pair, parsed from a
// single line of a collaborator log. Status 0 means the server recorded the
// request before sending response headers (timeout cases).
type Observation struct {
	Timestamp       string            `json:"ts"`
	CorrelationID   string            `json:"id"`
	Method          string            `json:"method"`
	URL             string            `json:"url"` // correlation id stripped
	Protocol        Protocol          `json:"protocol"`
	Status          int               `json:"status"`
	RequestHeaders  map[string]string `json:"request_headers,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	PeerPort        int               `json:"peer_port,omitempty"`
}

// HasRange reports whether the observation carries a usable Range request
// header. Access logs write "-" for absent headers, which does not count.
func (o Observation) HasRange() bool {
	v := o.RequestHeaders["range"]
	return v != "" && v != "-"
}
