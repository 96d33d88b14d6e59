package store

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dcsommer/vldmgo/cluster"
	"github.com/dcsommer/vldmgo/errors"
	"github.com/dcsommer/vldmgo/transport"
	"github.com/dcsommer/vldmgo/wire"
)

const oneNodeClusterXML = `<cluster>
  <name>t</name>
  <server>
    <id>0</id>
    <host>node0</host>
    <socket-port>1</socket-port>
    <partitions>0</partitions>
  </server>
</cluster>`

const oneStoreStoresXML = `<stores>
  <store>
    <name>widgets</name>
    <persistence>read-only</persistence>
    <routing-strategy>consistent-routing</routing-strategy>
    <replication-factor>1</replication-factor>
    <key-serializer><type>json</type><schema-info version="0">"string"</schema-info></key-serializer>
    <value-serializer><type>json</type><schema-info version="0">"string"</schema-info></value-serializer>
  </store>
  <store>
    <name>writable</name>
    <persistence>read-write</persistence>
    <routing-strategy>consistent-routing</routing-strategy>
    <replication-factor>1</replication-factor>
    <key-serializer><type>string</type></key-serializer>
    <value-serializer><type>string</type></value-serializer>
  </store>
</stores>`

const (
	fieldResponseVersioned protowire.Number = 1
	fieldVersionedValue    protowire.Number = 1
	fieldVersionedVersion  protowire.Number = 2
	fieldVectorTimestamp   protowire.Number = 2
)

func appendVersioned(body []byte, value []byte, timestamp int64) []byte {
	var vc []byte
	vc = protowire.AppendTag(vc, fieldVectorTimestamp, protowire.VarintType)
	vc = protowire.AppendVarint(vc, uint64(timestamp))

	var vv []byte
	vv = protowire.AppendTag(vv, fieldVersionedValue, protowire.BytesType)
	vv = protowire.AppendBytes(vv, value)
	vv = protowire.AppendTag(vv, fieldVersionedVersion, protowire.BytesType)
	vv = protowire.AppendBytes(vv, vc)

	body = protowire.AppendTag(body, fieldResponseVersioned, protowire.BytesType)
	body = protowire.AppendBytes(body, vv)
	return body
}

type pipeDialer struct {
	servers chan net.Conn
}

func newPipeDialer() *pipeDialer {
	return &pipeDialer{servers: make(chan net.Conn, 8)}
}

func (d *pipeDialer) Dial(addr string, timeout time.Duration) (net.Conn, error) {
	client, server := net.Pipe()
	d.servers <- server
	return client, nil
}

func waitServer(t *testing.T, d *pipeDialer) net.Conn {
	t.Helper()
	select {
	case s := <-d.servers:
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a dial attempt")
		return nil
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	header := make([]byte, 4)
	if _, err := readFull(conn, header); err != nil {
		t.Fatalf("read frame header: %v", err)
	}
	n := binary.BigEndian.Uint32(header)
	body := make([]byte, n)
	if _, err := readFull(conn, body); err != nil {
		t.Fatalf("read frame body: %v", err)
	}
	return body
}

func negotiate(t *testing.T, server net.Conn) {
	t.Helper()
	tag := make([]byte, 3)
	if _, err := readFull(server, tag); err != nil {
		t.Fatalf("read protocol tag: %v", err)
	}
	if _, err := server.Write([]byte("ok")); err != nil {
		t.Fatalf("write negotiation reply: %v", err)
	}
}

func serveMetadata(t *testing.T, server net.Conn) {
	t.Helper()
	for i := 0; i < 2; i++ {
		body := readFrame(t, server)
		_, key, err := wire.ParseGet(body)
		if err != nil {
			t.Fatalf("parse get: %v", err)
		}
		var payload []byte
		switch string(key) {
		case "cluster.xml":
			payload = appendVersioned(nil, []byte(oneNodeClusterXML), 1)
		case "stores.xml":
			payload = appendVersioned(nil, []byte(oneStoreStoresXML), 1)
		default:
			t.Fatalf("unexpected metadata key %q", key)
		}
		if _, err := server.Write(wire.AppendFrame(payload)); err != nil {
			t.Fatalf("write metadata response: %v", err)
		}
	}
}

func TestStoreGetEndToEnd(t *testing.T) {
	dialer := newPipeDialer()
	cl := cluster.New("seed:1", cluster.Config{Transport: transport.Config{Dialer: dialer}})
	t.Cleanup(cl.Close)

	st := New(cl, "widgets")
	result := st.Get("sku-1")

	seedServer := waitServer(t, dialer)
	negotiate(t, seedServer)
	serveMetadata(t, seedServer)

	nodeServer := waitServer(t, dialer)
	negotiate(t, nodeServer)

	requestBody := readFrame(t, nodeServer)
	storeName, key, err := wire.ParseGet(requestBody)
	if err != nil {
		t.Fatalf("parse node request: %v", err)
	}
	if storeName != "widgets" {
		t.Fatalf("store = %q", storeName)
	}

	keySchema, err := (&cluster.StoreConfig{KeySerializer: cluster.SerializerSpec{Type: "json", Schemas: map[int]string{0: `"string"`}}}).BuildKeySchema()
	if err != nil {
		t.Fatal(err)
	}
	decodedKey, err := keySchema.DecodeVersioned(key)
	if err != nil {
		t.Fatal(err)
	}
	if decodedKey != "sku-1" {
		t.Fatalf("decoded key = %v, want %q", decodedKey, "sku-1")
	}

	storeConfigs, err := cluster.ParseStoresXML([]byte(oneStoreStoresXML))
	if err != nil {
		t.Fatal(err)
	}
	var widgets *cluster.StoreConfig
	for _, sc := range storeConfigs {
		if sc.Name == "widgets" {
			widgets = sc
		}
	}
	valueSchema, err := widgets.BuildValueSchema()
	if err != nil {
		t.Fatal(err)
	}
	encodedValue, err := valueSchema.EncodeVersioned("widget-value")
	if err != nil {
		t.Fatal(err)
	}

	response := appendVersioned(nil, encodedValue, 1)
	if _, err := nodeServer.Write(wire.AppendFrame(response)); err != nil {
		t.Fatalf("write node response: %v", err)
	}

	got, err := result.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if got != "widget-value" {
		t.Fatalf("got %v, want %q", got, "widget-value")
	}
}

func TestStoreGetFailsForNonReadOnlyStore(t *testing.T) {
	dialer := newPipeDialer()
	cl := cluster.New("seed:1", cluster.Config{Transport: transport.Config{Dialer: dialer}})
	t.Cleanup(cl.Close)

	st := New(cl, "writable")
	result := st.Get("k")

	seedServer := waitServer(t, dialer)
	negotiate(t, seedServer)
	serveMetadata(t, seedServer)

	_, err := result.Wait()
	if !errors.IsClient(err) {
		t.Fatalf("err = %v, want a ClientError", err)
	}
}

func TestStoreGetFailsForUnknownStore(t *testing.T) {
	dialer := newPipeDialer()
	cl := cluster.New("seed:1", cluster.Config{Transport: transport.Config{Dialer: dialer}})
	t.Cleanup(cl.Close)

	st := New(cl, "does-not-exist")
	result := st.Get("k")

	seedServer := waitServer(t, dialer)
	negotiate(t, seedServer)
	serveMetadata(t, seedServer)

	_, err := result.Wait()
	if !errors.IsClient(err) {
		t.Fatalf("err = %v, want a ClientError", err)
	}
}
