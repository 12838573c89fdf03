package httpx

import (
	"testing"
	"time"
)

func TestExternalHTTPClientDefaultTimeout(t *testing.T) {
	if externalHTTPClient == nil {
		t.Fatal("externalHTTPClient must not be nil")
	}
	if externalHTTPClient.Timeout != defaultExternalHTTPTimeout {
		t.Fatalf("externalHTTPClient timeout = %s, want %s", externalHTTPClient.Timeout, defaultExternalHTTPTimeout)
	}
}

func TestConfigureExternalHTTPClient(t *testing.T) {
	original := externalHTTPClient.Timeout
	t.Cleanup(func() {
		externalHTTPClient.Timeout = original
	})

	if got := ConfigureExternalHTTPClient(0); got != defaultExternalHTTPTimeout {
		t.Fatalf("ConfigureExternalHTTPClient(0) = %s, want default %s", got, defaultExternalHTTPTimeout)
	}

	if got := ConfigureExternalHTTPClient(45); got != 45*time.Second {
		t.Fatalf("ConfigureExternalHTTPClient(45) = %s, want %s", got, 45*time.Second)
	}
	if externalHTTPClient.Timeout != 45*time.Second {
		t.Fatalf("configured timeout = %s, want %s", externalHTTPClient.Timeout, 45*time.Second)
	}
}
