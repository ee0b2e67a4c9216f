// Package protocol implements the minimal wire format spoken by the
// event-ingestion service: just enough HTTP to classify the two routes,
// complete an event body, and frame a response, parsed directly over raw
// bytes with no protocol stack in between.
//
// # Why Hand-Rolled
//
// The service answers exactly two routes on short-lived connections, one
// request per connection. A full HTTP implementation buys generality this
// design deliberately trades away for throughput: the decoder needs only a
// marker match on the request line, one case-insensitive header scan for
// Content-Length, and a completion loop for bodies that span more than one
// socket read.
//
// # Decoding Pipeline
//
//	Classify(buf)                    route marker match
//	ReadEventBody(buf, conn)         header split, length scan, shortfall read
//	ParseEvent(body)                 JSON decode of {userId, value}
//
// ReadEventBody never hands back a short body: it reads exactly the declared
// shortfall from the connection or fails with the transport error. Declared
// lengths beyond MaxBodyBytes are rejected outright rather than buffered.
//
// # Responses
//
// Success responses are framed by OKResponse with an exact Content-Length and
// Connection: close. The two error responses are fixed byte strings; the wire
// format never carries error detail.
package protocol
