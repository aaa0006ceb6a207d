// Package synctest provides in-process cluster helpers for exercising the
// Synchronizer end to end without a real transport, mirroring the
// teacher's test package (test/testing.go's UnityCluster: build N replicas
// wired together, run them, and clean up after the test).
package synctest

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/jabolina/go-sync/adapter/inproc"
	"github.com/jabolina/go-sync/internal/document"
	"github.com/jabolina/go-sync/internal/logging"
	"github.com/jabolina/go-sync/internal/model"
	"github.com/jabolina/go-sync/internal/permission"
	"github.com/jabolina/go-sync/internal/repo"
)

// DefaultHeartbeatInterval is fast enough for tests to observe ephemeral
// relay without waiting out a production-sized interval.
const DefaultHeartbeatInterval = 50 * time.Millisecond

// Peer is one node of a test Cluster.
type Peer struct {
	Name string
	Repo *repo.Repo
}

// Cluster is a set of repos connected pairwise over inproc adapters,
// every one running its own event loop.
type Cluster struct {
	T     *testing.T
	Peers []*Peer
}

// NewCluster builds n repos named "prefix-0".."prefix-(n-1)", fully
// connects every pair with an inproc adapter, starts every repo, and
// registers a cleanup that stops them all when the test ends.
func NewCluster(t *testing.T, prefix string, n int) *Cluster {
	t.Helper()
	c := &Cluster{T: t}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s-%d", prefix, i)
		identity := model.Identity{PeerId: model.PeerId(name), Name: name, Kind: model.IdentityUser}
		replica := name
		factory := func(docId model.DocId) model.DocumentHandle {
			return document.NewTextDocument(docId, replica)
		}
		r := repo.New(identity, permission.AllowAll(), factory, logging.NewNoopLogger(), DefaultHeartbeatInterval)
		c.Peers = append(c.Peers, &Peer{Name: name, Repo: r})
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			idA := fmt.Sprintf("%s->%s", c.Peers[i].Name, c.Peers[j].Name)
			idB := fmt.Sprintf("%s->%s", c.Peers[j].Name, c.Peers[i].Name)
			a, b := inproc.NewPair(idA, idB)
			c.Peers[i].Repo.RegisterAdapter(a)
			c.Peers[j].Repo.RegisterAdapter(b)
		}
	}

	for _, p := range c.Peers {
		p.Repo.Start()
	}

	t.Cleanup(c.Stop)
	return c
}

// Stop shuts down every peer's event loop and adapters.
func (c *Cluster) Stop() {
	for _, p := range c.Peers {
		p.Repo.Stop()
	}
}

// Peer returns the i'th peer, failing the test if out of range.
func (c *Cluster) Peer(i int) *Peer {
	c.T.Helper()
	if i < 0 || i >= len(c.Peers) {
		c.T.Fatalf("synctest: peer index %d out of range (cluster has %d)", i, len(c.Peers))
	}
	return c.Peers[i]
}

// VerifyNoLeaks wraps goleak.VerifyNone, used at the end of tests that
// want to confirm every spawned goroutine (adapter forwarders, heartbeat
// tickers) actually exited after Cluster.Stop.
func VerifyNoLeaks(t *testing.T) {
	goleak.VerifyNone(t)
}
