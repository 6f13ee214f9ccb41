package responder

import (
	"github.com/bdijkstra82/dnsjava/internal/core/message"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

// Verifier checks an incoming request's TSIG record against the named
// key (§4.7). The core never interprets the MAC itself; algorithm
// details (HMAC, the fudge window, truncation policy) live entirely
// behind this interface.
type Verifier interface {
	Verify(keyName name.Name, msg *message.Message, raw []byte) bool
}

// Signer produces the TSIG record to append to a response once it has
// been rendered without one (§4.7). priorMAC is the signature of the
// request this response answers, nil if the request carried none.
type Signer interface {
	Generate(keyName name.Name, msg *message.Message, rendered []byte, priorMAC []byte) (*rr.Record, error)
}
