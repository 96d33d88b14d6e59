package cluster

import (
	"testing"

	"github.com/dcsommer/vldmgo/errors"
)

const sampleClusterXML = `<cluster>
  <name>test-cluster</name>
  <server>
    <id>0</id>
    <host>host0</host>
    <socket-port>6666</socket-port>
    <partitions>0, 2, 4</partitions>
  </server>
  <server>
    <id>1</id>
    <host>host1</host>
    <socket-port>6666</socket-port>
    <partitions>1, 3, 5</partitions>
  </server>
</cluster>`

func TestParseClusterXMLBuildsDensePartitionTable(t *testing.T) {
	topo, err := ParseClusterXML([]byte(sampleClusterXML))
	if err != nil {
		t.Fatal(err)
	}
	if topo.Name != "test-cluster" {
		t.Fatalf("name = %q", topo.Name)
	}
	if topo.PartitionCount() != 6 {
		t.Fatalf("partition count = %d, want 6", topo.PartitionCount())
	}
	want := []int{0, 1, 0, 1, 0, 1}
	for p, nodeID := range want {
		if topo.PartitionToNode[p] != nodeID {
			t.Fatalf("partition %d owner = %d, want %d", p, topo.PartitionToNode[p], nodeID)
		}
	}
	if topo.Nodes[0].Addr() != "host0:6666" {
		t.Fatalf("addr = %q", topo.Nodes[0].Addr())
	}
}

func TestParseClusterXMLRejectsDuplicatePartition(t *testing.T) {
	xml := `<cluster>
	  <name>c</name>
	  <server><id>0</id><host>h0</host><socket-port>1</socket-port><partitions>0,1</partitions></server>
	  <server><id>1</id><host>h1</host><socket-port>1</socket-port><partitions>1,2</partitions></server>
	</cluster>`
	_, err := ParseClusterXML([]byte(xml))
	if !errors.IsServer(err) {
		t.Fatalf("err = %v, want ServerError", err)
	}
}

func TestParseClusterXMLRejectsIncompleteCoverage(t *testing.T) {
	xml := `<cluster>
	  <name>c</name>
	  <server><id>0</id><host>h0</host><socket-port>1</socket-port><partitions>0,3</partitions></server>
	</cluster>`
	_, err := ParseClusterXML([]byte(xml))
	if !errors.IsServer(err) {
		t.Fatalf("err = %v, want ServerError", err)
	}
}

func TestParseClusterXMLRejectsDuplicateServerID(t *testing.T) {
	xml := `<cluster>
	  <name>c</name>
	  <server><id>0</id><host>h0</host><socket-port>1</socket-port><partitions>0</partitions></server>
	  <server><id>0</id><host>h1</host><socket-port>1</socket-port><partitions>1</partitions></server>
	</cluster>`
	_, err := ParseClusterXML([]byte(xml))
	if !errors.IsServer(err) {
		t.Fatalf("err = %v, want ServerError", err)
	}
}

func TestParseClusterXMLRejectsNoServers(t *testing.T) {
	_, err := ParseClusterXML([]byte(`<cluster><name>c</name></cluster>`))
	if !errors.IsServer(err) {
		t.Fatalf("err = %v, want ServerError", err)
	}
}
