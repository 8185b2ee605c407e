// Package wire holds the fixed byte literals of the demo protocol: the
// request-line prefix, the two recognized URIs, and the canned response.
package wire

// Method is the only HTTP method this server accepts.
const Method = "GET "

// CRLF terminates the request-line and every header line.
const CRLF = "\r\n"

// Recognized URIs. Anything else terminates the connection.
const (
	URIFast = "/test/fast"
	URISlow = "/test/slow"
)

// Response is the fixed, empty-body reply sent for every accepted request.
const Response = "HTTP/1.1 200 OK\r\n" +
	"Connection: close\r\n" +
	"Content-Length: 0\r\n" +
	"\r\n"

// ResponseBytes is Response pre-converted for use on the write path.
var ResponseBytes = []byte(Response)
