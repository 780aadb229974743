package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/foldnode/internal/telemetry"
)

// newMirrorServer отвечает 200 только для корней из reachable.
func newMirrorServer(t *testing.T, reachable ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		for _, root := range reachable {
			if strings.HasPrefix(r.URL.Path, "/"+root+"/") {
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSelect_OnlyLastReachable(t *testing.T) {
	server := newMirrorServer(t, "asia")

	s := New(Config{
		Candidates: []string{server.URL + "/us/", server.URL + "/europe/", server.URL + "/asia/"},
		Default:    "https://default/",
		ProbeFile:  "db.fasta.1",
		Logger:     telemetry.Discard(),
	})

	got := s.Select(context.Background())
	if got != server.URL+"/asia/" {
		t.Errorf("expected last candidate, got %s", got)
	}
}

func TestSelect_PrefersListOrder(t *testing.T) {
	server := newMirrorServer(t, "europe", "asia")

	s := New(Config{
		Candidates: []string{server.URL + "/us/", server.URL + "/europe/", server.URL + "/asia/"},
		ProbeFile:  "db.fasta.1",
		Logger:     telemetry.Discard(),
	})

	for i := 0; i < 5; i++ {
		if got := s.Select(context.Background()); got != server.URL+"/europe/" {
			t.Fatalf("expected europe to win deterministically, got %s", got)
		}
	}
}

func TestSelect_AllFailReturnsDefault(t *testing.T) {
	server := newMirrorServer(t)

	s := New(Config{
		Candidates: []string{server.URL + "/us/", "http://127.0.0.1:1/unreachable/"},
		Default:    "https://default/",
		ProbeFile:  "db.fasta.1",
		Logger:     telemetry.Discard(),
	})

	if got := s.Select(context.Background()); got != "https://default/" {
		t.Errorf("expected default, got %s", got)
	}
}

func TestSelect_ProbeTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()

	s := New(Config{
		Candidates:   []string{slow.URL + "/"},
		Default:      "https://default/",
		ProbeTimeout: 50 * time.Millisecond,
		Logger:       telemetry.Discard(),
	})

	start := time.Now()
	got := s.Select(context.Background())
	if got != "https://default/" {
		t.Errorf("expected default after timeout, got %s", got)
	}
	if time.Since(start) > 400*time.Millisecond {
		t.Error("probe should be bounded by ProbeTimeout")
	}
}

func TestSelect_EmptyCandidates(t *testing.T) {
	s := New(Config{Default: "https://default/", Logger: telemetry.Discard()})

	if got := s.Select(context.Background()); got != "https://default/" {
		t.Errorf("expected default, got %s", got)
	}
}

func TestDefaultCandidates(t *testing.T) {
	roots := DefaultCandidates()
	want := []string{
		"https://storage.googleapis.com/alphafold-colab/latest/",
		"https://storage.googleapis.com/alphafold-colab-europe/latest/",
		"https://storage.googleapis.com/alphafold-colab-asia/latest/",
	}
	if len(roots) != len(want) {
		t.Fatalf("expected %d roots, got %d", len(want), len(roots))
	}
	for i := range want {
		if roots[i] != want[i] {
			t.Errorf("root %d: expected %s, got %s", i, want[i], roots[i])
		}
	}
}

func TestSelect_WinnerCancelsSlowerCandidates(t *testing.T) {
	// "/us/" отвечает сразу, "/asia/" висит до отмены запроса
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/us/") {
			w.WriteHeader(http.StatusOK)
			return
		}
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	s := New(Config{
		Candidates:   []string{server.URL + "/us/", server.URL + "/asia/"},
		ProbeFile:    "db.fasta.1",
		ProbeTimeout: 5 * time.Second,
		Logger:       telemetry.Discard(),
	})

	start := time.Now()
	got := s.Select(context.Background())
	elapsed := time.Since(start)

	if got != server.URL+"/us/" {
		t.Errorf("expected first candidate, got %s", got)
	}
	if elapsed > 2*time.Second {
		t.Errorf("expected Select to return without waiting for the slow mirror, took %v", elapsed)
	}
}
