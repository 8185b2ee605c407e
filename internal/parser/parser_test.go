package parser

import "testing"

// feedAll drives a fresh parser over data split into the given chunk
// sizes and returns the terminal status plus classification fields.
func feedAll(data []byte, chunkSizes []int) (Status, *Parser) {
	p := New()
	var received int
	status := Continue
	for _, n := range chunkSizes {
		received += n
		status = p.Step(data[:received])
		if status != Continue {
			return status, p
		}
	}
	return status, p
}

func chunksOf(total, size int) []int {
	var out []int
	for total > 0 {
		n := size
		if n > total {
			n = total
		}
		out = append(out, n)
		total -= n
	}
	return out
}

func TestFastClassification(t *testing.T) {
	req := []byte("GET /test/fast HTTP/1.1\r\nHost: x\r\n\r\n")
	status, p := feedAll(req, []int{len(req)})
	if status != Proceed {
		t.Fatalf("status = %v, want Proceed", status)
	}
	if p.Service != Fast {
		t.Fatalf("service = %v, want Fast", p.Service)
	}
}

func TestSlowClassification(t *testing.T) {
	req := []byte("GET /test/slow HTTP/1.1\r\n\r\n")
	status, p := feedAll(req, []int{len(req)})
	if status != Proceed {
		t.Fatalf("status = %v, want Proceed", status)
	}
	if p.Service != Slow {
		t.Fatalf("service = %v, want Slow", p.Service)
	}
}

func TestWrongMethodTerminates(t *testing.T) {
	req := []byte("POST /test/fast HTTP/1.1\r\n\r\n")
	status, _ := feedAll(req, []int{len(req)})
	if status != Terminate {
		t.Fatalf("status = %v, want Terminate", status)
	}
}

func TestUnknownURITerminates(t *testing.T) {
	req := []byte("GET /unknown HTTP/1.1\r\n\r\n")
	status, _ := feedAll(req, []int{len(req)})
	if status != Terminate {
		t.Fatalf("status = %v, want Terminate", status)
	}
}

func TestEmptyURITerminates(t *testing.T) {
	req := []byte("GET  \r\n\r\n")
	status, _ := feedAll(req, []int{len(req)})
	if status != Terminate {
		t.Fatalf("status = %v, want Terminate", status)
	}
}

func TestIncompleteRequestContinues(t *testing.T) {
	req := []byte("GET /test/fast HTTP/1.1\r\nHost: x\r\n")
	status, _ := feedAll(req, []int{len(req)})
	if status != Continue {
		t.Fatalf("status = %v, want Continue", status)
	}
}

// TestPrefixMonotonic verifies that feeding the same request in any
// chunking (byte-by-byte through whole-buffer) yields identical
// classification.
func TestPrefixMonotonic(t *testing.T) {
	req := []byte("GET /test/slow HTTP/1.1\r\nHost: example\r\nX-A: 1\r\n\r\n")
	chunkings := [][]int{
		{len(req)},
		chunksOf(len(req), 1),
		chunksOf(len(req), 2),
		chunksOf(len(req), 3),
		chunksOf(len(req), 7),
	}
	var want *Parser
	for i, chunks := range chunkings {
		status, p := feedAll(req, chunks)
		if status != Proceed {
			t.Fatalf("chunking %d: status = %v, want Proceed", i, status)
		}
		if want == nil {
			want = p
			continue
		}
		if p.Service != want.Service || p.RequestLineSize != want.RequestLineSize || p.URISize != want.URISize {
			t.Fatalf("chunking %d diverged: got %+v, want %+v", i, p, want)
		}
	}
}

// TestCRLFSplitAcrossReads covers the terminal CRLFCRLF boundary landing
// exactly between two reads.
func TestCRLFSplitAcrossReads(t *testing.T) {
	req := []byte("GET /test/fast HTTP/1.1\r\n\r\n")
	for split := 1; split < len(req); split++ {
		status, p := feedAll(req, []int{split, len(req) - split})
		if status != Proceed {
			t.Fatalf("split at %d: status = %v, want Proceed", split, status)
		}
		if p.Service != Fast {
			t.Fatalf("split at %d: service = %v, want Fast", split, p.Service)
		}
	}
}

func TestBufferFullBoundary(t *testing.T) {
	// Exactly 4096 bytes ending in \r\n\r\n is accepted.
	pad := 4096 - len("GET /test/fast HTTP/1.1\r\n") - len("\r\n") - len("X-Pad: \r\n")
	header := "X-Pad: "
	for i := 0; i < pad; i++ {
		header += "a"
	}
	req := []byte("GET /test/fast HTTP/1.1\r\n" + header + "\r\n\r\n")
	if len(req) != 4096 {
		t.Fatalf("constructed request is %d bytes, want 4096", len(req))
	}
	status, p := feedAll(req, []int{len(req)})
	if status != Proceed {
		t.Fatalf("status = %v, want Proceed", status)
	}
	if p.Service != Fast {
		t.Fatalf("service = %v, want Fast", p.Service)
	}
}

// TestBufferOverflowNeverCompletes covers the one-byte-over case: a
// request whose terminating CRLFCRLF would only land at byte 4097 gives
// just Continue through the first 4096 bytes, never Proceed or
// Terminate. The parser itself carries no buffer-size limit — it is
// internal/reactor's fixed-size receive buffer that turns "still
// incomplete past 4096 bytes" into a dropped connection; see
// internal/reactor's TestRequestLineOverflowDropped for that half of the
// contract.
func TestBufferOverflowNeverCompletes(t *testing.T) {
	pad := 4097 - len("GET /test/fast HTTP/1.1\r\n") - len("\r\n") - len("X-Pad: \r\n")
	header := "X-Pad: "
	for i := 0; i < pad; i++ {
		header += "a"
	}
	req := []byte("GET /test/fast HTTP/1.1\r\n" + header + "\r\n\r\n")
	if len(req) != 4097 {
		t.Fatalf("constructed request is %d bytes, want 4097", len(req))
	}
	status, _ := feedAll(req[:4096], []int{4096})
	if status != Continue {
		t.Fatalf("status at 4096 bytes = %v, want Continue", status)
	}
}
