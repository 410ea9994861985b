package testutil

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func tryAddStream(t *testing.T, opts *server.Options, enableAfter bool) {
	t.Helper()
	s, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	s.ConfigureLogger()
	if enableAfter {
		if err := s.EnableJetStream(&server.JetStreamConfig{StoreDir: t.TempDir()}); err != nil {
			t.Fatalf("EnableJetStream: %v", err)
		}
	}
	go s.Start()
	if !s.ReadyForConnections(10 * time.Second) {
		t.Fatal("not ready")
	}
	defer s.Shutdown()

	nc, err := nats.Connect(s.ClientURL(), nats.Timeout(5*time.Second))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	js, err := nc.JetStream(nats.MaxWait(5 * time.Second))
	if err != nil {
		t.Fatalf("js: %v", err)
	}
	_, err = js.AddStream(&nats.StreamConfig{Name: "SCRATCH", Subjects: []string{"scratch.>"}, Storage: nats.FileStorage})
	t.Logf("AddStream err: %v", err)
}

func TestScratchA_OptsJetStream(t *testing.T) {
	tryAddStream(t, &server.Options{Host: "127.0.0.1", Port: -1, NoSigs: true, JetStream: true, StoreDir: t.TempDir(), MaxControlLine: 256}, false)
}

func TestScratchB_EnableNoMaxControl(t *testing.T) {
	tryAddStream(t, &server.Options{Host: "127.0.0.1", Port: -1, NoSigs: true}, true)
}

func TestScratchC_EnableWithMaxControl(t *testing.T) {
	tryAddStream(t, &server.Options{Host: "127.0.0.1", Port: -1, NoSigs: true, MaxControlLine: 256}, true)
}
