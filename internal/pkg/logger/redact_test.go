package logger

import "testing"

func TestRedactEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
	}
	for _, c := range cases {
		if got := RedactEmail(c.in); got != c.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRedactCustomerID(t *testing.T) {
	if got := RedactCustomerID("123-456-7890"); got != "***-***-7890" {
		t.Errorf("RedactCustomerID = %q, want ***-***-7890", got)
	}
	if got := RedactCustomerID("12"); got != "***" {
		t.Errorf("RedactCustomerID short = %q, want ***", got)
	}
}

func TestScrub_FreeText(t *testing.T) {
	got := Scrub("contact john.doe@example.com about 123-456-7890")
	want := "contact jo***@example.com about ***-***-7890"
	if got != want {
		t.Errorf("Scrub = %q, want %q", got, want)
	}
}
