package core

import (
	"os"
	"testing"

	"quantron.io/qs"
)

func resetShared() {
	shared.Lock()
	shared.core = nil
	shared.overridden = false
	shared.Unlock()
}

func TestSharedOverrideOnceBeforeUse(t *testing.T) {
	resetShared()
	defer resetShared()
	config := qs.Config{ServerURL: "https://a.example.com"}
	options := Options{Transport: &qs.ResponseTransport{}}

	if _, err := CreateShared(config, options); err != nil {
		t.Fatal(err)
	}
	config.ServerURL = "https://b.example.com"
	if _, err := CreateShared(config, options); err != nil {
		t.Fatal("first override refused:", err)
	}
	if _, err := CreateShared(config, options); err != ErrSharedOverridden {
		t.Fatal("expected ErrSharedOverridden, got", err)
	}
	core, err := Shared()
	if err != nil {
		t.Fatal(err)
	}
	if core.BaseURL() != "https://b.example.com" {
		t.Fatal("override not applied", core.BaseURL())
	}
}

func TestSharedInUse(t *testing.T) {
	resetShared()
	defer resetShared()
	config := qs.Config{ServerURL: "https://a.example.com"}
	options := Options{Transport: &qs.ResponseTransport{Default: qs.MockResponse{Body: []byte(`{}`)}}}

	core, err := CreateShared(config, options)
	if err != nil {
		t.Fatal(err)
	}
	m := NewMethod("Ping", nil, userType, nil)
	core.PerformMethod(m)
	waitDone(t, m)
	if _, err := CreateShared(config, options); err != ErrSharedInUse {
		t.Fatal("expected ErrSharedInUse, got", err)
	}
}

func TestSharedFromEnvironment(t *testing.T) {
	resetShared()
	defer resetShared()
	os.Setenv(qs.ENV_SERVER_URL, "")
	os.Unsetenv(qs.ENV_CONFIG)
	if _, err := Shared(); err != ErrNotConfigured {
		t.Fatal("expected ErrNotConfigured, got", err)
	}

	os.Setenv(qs.ENV_SERVER_URL, "https://env.example.com")
	defer os.Unsetenv(qs.ENV_SERVER_URL)
	core, err := Shared()
	if err != nil {
		t.Fatal(err)
	}
	if core.BaseURL() != "https://env.example.com" {
		t.Fatal("wrong base url", core.BaseURL())
	}
	if _, err := CreateShared(qs.Config{ServerURL: "https://x.example.com"}, Options{}); err != ErrSharedInUse {
		t.Fatal("expected ErrSharedInUse, got", err)
	}
}
