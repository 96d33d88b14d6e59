// Package cluster implements Component F: seed-driven bootstrap, topology
// and store-registry parsing, connection lifecycle, and the replica retry
// policy that shields callers from individual node failures.
package cluster

import (
	"encoding/xml"
	"sort"
	"strconv"
	"strings"

	"github.com/dcsommer/vldmgo/errors"
)

// NodeDescriptor is one cluster member as declared in cluster.xml.
type NodeDescriptor struct {
	ID           int
	Host         string
	Port         int
	PartitionIDs []int
}

func (n NodeDescriptor) Addr() string {
	return n.Host + ":" + strconv.Itoa(n.Port)
}

// Topology is one successfully-parsed and validated cluster.xml snapshot. It
// is immutable once constructed: a re-bootstrap builds and swaps in a new
// Topology rather than mutating this one in place.
type Topology struct {
	Name  string
	Nodes map[int]NodeDescriptor
	// PartitionToNode is dense, indexed 0..P-1, mapping a partition id to
	// the id of the node that owns it.
	PartitionToNode []int
}

// PartitionCount returns P, the total number of partitions on the ring.
func (t *Topology) PartitionCount() int {
	return len(t.PartitionToNode)
}

type clusterXML struct {
	XMLName xml.Name    `xml:"cluster"`
	Name    string      `xml:"name"`
	Servers []serverXML `xml:"server"`
}

type serverXML struct {
	ID         int    `xml:"id"`
	Host       string `xml:"host"`
	SocketPort int    `xml:"socket-port"`
	Partitions string `xml:"partitions"`
}

// ParseClusterXML parses cluster.xml into a validated Topology: every
// partition id in [0, P) must be present in exactly one node's partition
// list.
func ParseClusterXML(data []byte) (*Topology, error) {
	var doc clusterXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapServer(errors.CodeBootstrapFailed, err, "cluster.xml is not well-formed")
	}
	if len(doc.Servers) == 0 {
		return nil, errors.NewServer(errors.CodeBootstrapFailed, "cluster.xml declares no servers")
	}

	nodes := make(map[int]NodeDescriptor, len(doc.Servers))
	owner := map[int]int{} // partition id -> node id, used for duplicate detection
	maxPartition := -1

	for _, s := range doc.Servers {
		partitions, err := parseIntList(s.Partitions)
		if err != nil {
			return nil, errors.WrapServer(errors.CodeBootstrapFailed, err, "server %d has an invalid partitions list", s.ID)
		}
		if _, dup := nodes[s.ID]; dup {
			return nil, errors.NewServer(errors.CodeBootstrapFailed, "duplicate server id %d in cluster.xml", s.ID)
		}
		nodes[s.ID] = NodeDescriptor{ID: s.ID, Host: s.Host, Port: s.SocketPort, PartitionIDs: partitions}
		for _, p := range partitions {
			if p < 0 {
				return nil, errors.NewServer(errors.CodeBootstrapFailed, "negative partition id %d on server %d", p, s.ID)
			}
			if existing, dup := owner[p]; dup {
				return nil, errors.NewServer(errors.CodeBootstrapFailed, "partition %d assigned to both server %d and server %d", p, existing, s.ID)
			}
			owner[p] = s.ID
			if p > maxPartition {
				maxPartition = p
			}
		}
	}

	partitionCount := maxPartition + 1
	if len(owner) != partitionCount {
		return nil, errors.NewServer(errors.CodeBootstrapFailed, "partitions [0,%d) are not fully covered: found %d assignments", partitionCount, len(owner))
	}

	partitionToNode := make([]int, partitionCount)
	for p := 0; p < partitionCount; p++ {
		nodeID, ok := owner[p]
		if !ok {
			return nil, errors.NewServer(errors.CodeBootstrapFailed, "partition %d has no owner", p)
		}
		partitionToNode[p] = nodeID
	}

	return &Topology{Name: doc.Name, Nodes: nodes, PartitionToNode: partitionToNode}, nil
}

// parseIntList parses a comma- or whitespace-separated list of non-negative
// integers, tolerating either delimiter within the same list.
func parseIntList(raw string) ([]int, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.NewClient(errors.CodeSchemaMismatch, "invalid partition id %q", f)
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
