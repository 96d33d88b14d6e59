package cluster

import (
	"fmt"
	"sort"
	"strings"
)

// String renders a human-readable diagnostic dump of a Topology, in the
// same section-and-field layout the teacher's ServerConfig/ClientConfig
// String methods use.
func (t *Topology) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Cluster")
	addField("Name", t.Name)
	addField("Partitions", fmt.Sprintf("%d", t.PartitionCount()))
	addField("Nodes", fmt.Sprintf("%d", len(t.Nodes)))

	ids := make([]int, 0, len(t.Nodes))
	for id := range t.Nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	addSection("Nodes")
	for _, id := range ids {
		n := t.Nodes[id]
		addField(fmt.Sprintf("Node %d", id), fmt.Sprintf("%s (%d partitions)", n.Addr(), len(n.PartitionIDs)))
	}

	return sb.String()
}
