package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/v1/report/01ABCDEF":       "/v1/report/:id",
		"/v1/report/user":           "/v1/report/user",
		"/v1/report/abc/extra":      "/v1/report/abc/extra",
		"/v1/emergency/01ABCDEF":    "/v1/emergency/:id",
		"/v1/emergency/admin":       "/v1/emergency/admin",
		"/v1/history":               "/v1/history",
		"/v1/history?poll=1":        "/v1/history",
		"/v1/admin/reports":         "/v1/admin/reports",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
