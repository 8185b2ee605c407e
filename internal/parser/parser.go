// Package parser implements an incremental HTTP/1.1 request-line
// recognizer and URI classifier: a two-phase state machine
// (checkMethod -> findCRLF) fed the growing prefix of a connection's
// receive buffer once per successful read.
package parser

import (
	"bytes"

	"reactor-demo/internal/wire"
)

// Status is the parser's per-call return code.
type Status int

const (
	// Terminate signals an unrecoverable protocol error; drop the connection.
	Terminate Status = iota
	// Continue signals the parser needs more bytes.
	Continue
	// Proceed signals the request is complete and classified.
	Proceed
)

// Service is the classification result.
type Service int

const (
	Undefined Service = iota
	Fast
	Slow
)

var crlf = []byte(wire.CRLF)
var method = []byte(wire.Method)

const noCRLF = -1

// Parser is a per-connection state machine. It is frozen once Step
// returns Proceed or Terminate; the caller must stop calling it.
type Parser struct {
	crlfScan int
	prevCRLF int
	methodOK bool
	phase    phase

	RequestLineSize int
	URIStart        int
	URISize         int
	Service         Service
}

type phase int

const (
	phaseCheckMethod phase = iota
	phaseFindCRLF
)

// New returns a Parser ready to consume a fresh connection's bytes.
func New() *Parser {
	return &Parser{prevCRLF: noCRLF, phase: phaseCheckMethod}
}

// Step advances the parser with buf sliced to the receive buffer's
// current prefix (buf[:received]). It must be called once after every
// successful read, and never with a shorter prefix than a prior call
// (the parser never backtracks or rescans bytes already scanned).
func (p *Parser) Step(buf []byte) Status {
	if p.phase == phaseCheckMethod {
		return p.checkMethod(buf)
	}
	return p.findCRLFLoop(buf)
}

// checkMethod recognizes the request's method token and locates the start
// of the URI once it's confirmed.
func (p *Parser) checkMethod(buf []byte) Status {
	received := len(buf)
	if received >= len(method) {
		p.methodOK = bytes.Equal(buf[:len(method)], method)
		if !p.methodOK {
			return Terminate
		}
		if p.crlfScan < len(method) {
			p.crlfScan = len(method)
		}
		p.phase = phaseFindCRLF
		p.URIStart = len(method)
	}

	if received < len(method) {
		return Continue
	}
	return p.findCRLFLoop(buf)
}

// findCRLFLoop repeatedly calls findCRLF until it returns non-Continue
// or the scan window is exhausted, so a single Step call can walk
// through every CRLF already present in the buffered prefix.
func (p *Parser) findCRLFLoop(buf []byte) Status {
	received := len(buf)
	status := Continue
	for status == Continue && p.crlfScan <= received-len(crlf) {
		status = p.findCRLF(buf)
	}
	return status
}

// findCRLF advances the scan for one more CRLF, classifying the request
// line via matchURI the first time it finds one and detecting the blank
// line that ends the header block on subsequent calls.
func (p *Parser) findCRLF(buf []byte) Status {
	pos := scanFor(buf, &p.crlfScan, crlf)
	if pos < 0 {
		return Continue
	}
	if !p.methodOK {
		return Terminate
	}
	if p.prevCRLF != noCRLF {
		if pos-p.prevCRLF == len(crlf) {
			return Proceed // CRLFCRLF: end of headers
		}
	} else {
		p.RequestLineSize = pos
		if !p.matchURI(buf) {
			return Terminate
		}
	}
	p.prevCRLF = pos
	return Continue
}

// scanFor searches buf[*scanStart:] for pattern. On a match it advances
// *scanStart past the match and returns the match's start index. On a
// miss it moves *scanStart to received-len(pattern)+1 so a pattern
// straddling the next read's boundary is still found; this is
// asymmetric by design, not a bug — it stops short of received by just
// enough to re-examine the bytes that could complete a split match.
func scanFor(buf []byte, scanStart *int, pattern []byte) int {
	received := len(buf)
	if *scanStart >= received {
		return -1
	}
	scanSize := received - *scanStart
	if scanSize >= len(pattern) {
		if idx := bytes.Index(buf[*scanStart:received], pattern); idx >= 0 {
			found := *scanStart + idx
			*scanStart = found + len(pattern)
			return found
		}
		*scanStart = received - len(pattern) + 1
	}
	return -1
}

// matchURI classifies the URI within the already-located request line.
func (p *Parser) matchURI(buf []byte) bool {
	for p.URIStart < p.RequestLineSize && buf[p.URIStart] == ' ' {
		p.URIStart++
	}
	restSize := p.RequestLineSize - p.URIStart
	if restSize == 0 {
		return false
	}
	uriEnd := -1
	if restSize > 1 {
		if i := bytes.IndexByte(buf[p.URIStart+1:p.RequestLineSize], ' '); i >= 0 {
			uriEnd = p.URIStart + 1 + i
		}
	}
	if uriEnd >= 0 {
		p.URISize = uriEnd - p.URIStart
	} else {
		p.URISize = restSize
	}
	uri := buf[p.URIStart : p.URIStart+p.URISize]
	switch {
	case string(uri) == wire.URIFast:
		p.Service = Fast
		return true
	case string(uri) == wire.URISlow:
		p.Service = Slow
		return true
	default:
		return false
	}
}
