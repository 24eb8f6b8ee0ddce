package common

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{name: "first forwarded hop", xff: "203.0.113.7, 10.0.0.1", remote: "10.0.0.2:5000", want: "203.0.113.7"},
		{name: "skips garbage hop", xff: "not-an-ip, 198.51.100.4", remote: "10.0.0.2:5000", want: "198.51.100.4"},
		{name: "real ip header", realIP: "198.51.100.9", remote: "10.0.0.2:5000", want: "198.51.100.9"},
		{name: "socket peer", remote: "192.0.2.1:41000", want: "192.0.2.1"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "forwarded with port", xff: "203.0.113.8:9999", remote: "10.0.0.2:5000", want: "203.0.113.8"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/products", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestClientIPNilRequest(t *testing.T) {
	if got := ClientIP(nil); got != "" {
		t.Fatalf("expected empty ip, got %q", got)
	}
}

func TestFingerprintSeparatesParts(t *testing.T) {
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Fatal("fingerprints of different part splits must differ")
	}
	if Fingerprint("POST", "/api/v1/checkout", "k1") != Fingerprint("POST", "/api/v1/checkout", "k1") {
		t.Fatal("fingerprint must be stable")
	}
}
