package cluster

import (
	"strings"
	"testing"
)

func TestTopologyStringIncludesNodesAndPartitions(t *testing.T) {
	topo, err := ParseClusterXML([]byte(oneNodeClusterXML))
	if err != nil {
		t.Fatal(err)
	}
	s := topo.String()
	if !strings.Contains(s, "Node 0") {
		t.Fatalf("String() = %q", s)
	}
	if !strings.Contains(s, "node0:1") {
		t.Fatalf("String() = %q", s)
	}
}
