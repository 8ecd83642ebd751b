package session

import (
	"regexp"
	"testing"
)

func TestGenerateSessionID_Format(t *testing.T) {
	re := regexp.MustCompile(`^sess_[0-9a-f]{12}$`)
	id := generateSessionID()
	if !re.MatchString(id) {
		t.Errorf("generateSessionID() = %q, want match of %s", id, re.String())
	}
}

func TestGenerateSessionID_Unique(t *testing.T) {
	a := generateSessionID()
	b := generateSessionID()
	if a == b {
		t.Errorf("expected two generated ids to differ, both were %q", a)
	}
}

func TestGenerateRunID_Format(t *testing.T) {
	re := regexp.MustCompile(`^run_\d{8}T\d{6}Z_[0-9a-f]{4}$`)
	id := generateRunID()
	if !re.MatchString(id) {
		t.Errorf("generateRunID() = %q, want match of %s", id, re.String())
	}
}
