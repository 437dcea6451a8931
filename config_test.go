/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
)

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			port:        8080,
			databaseURL: "postgres://localhost/fakeout",
		}
	}

	if err := base().validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg := base()
	cfg.databaseURL = ""
	if err := cfg.validate(); err == nil {
		t.Error("missing database url accepted")
	}

	cfg = base()
	cfg.port = 0
	if err := cfg.validate(); err == nil {
		t.Error("port 0 accepted")
	}

	cfg = base()
	cfg.tlsCert = "/tmp/cert.pem"
	if err := cfg.validate(); err == nil {
		t.Error("tls cert without key accepted")
	}

	cfg = base()
	cfg.mediaBaseURL = "ftp://media.local"
	if err := cfg.validate(); err == nil {
		t.Error("non-http media base accepted")
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := &Config{}
	if cfg.scheme() != "http" {
		t.Errorf("got %s", cfg.scheme())
	}

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	if cfg.scheme() != "https" {
		t.Errorf("got %s", cfg.scheme())
	}
}
