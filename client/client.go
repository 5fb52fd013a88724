// Package client is the thin wire client juleactl and any other
// julea-go caller use to talk to a remote juled server: it frames
// requests, sends them, and decodes replies.
package client

import (
	"net"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/transform"
	"github.com/julea-project/julea-go/wire"
)

// Client holds one connection to a julea-go server.
type Client struct {
	conn net.Conn
}

// Dial connects to a julea-go server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, jerrors.New(jerrors.KindBackend, "Dial", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(typ wire.MessageType, safety wire.Safety, desc wire.TransformDescriptor, body []byte) ([]byte, error) {
	payload := append(desc.Marshal(), body...)
	if err := wire.WriteFrame(c.conn, typ, 1, safety, desc.Mode == transform.Server, payload); err != nil {
		return nil, err
	}
	_, reply, err := wire.ReadFrame(c.conn)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Create asks the server to create namespace/name with the given
// transformation kind and mode.
func (c *Client) Create(namespace, name string, kind transform.Kind, mode transform.Mode, safety wire.Safety) error {
	desc := wire.TransformDescriptor{Namespace: namespace, Name: name, Kind: kind, Mode: mode}
	_, err := c.roundTrip(wire.MessageCreate, safety, desc, nil)
	return err
}

// Delete asks the server to delete namespace/name.
func (c *Client) Delete(namespace, name string, safety wire.Safety) error {
	desc := wire.TransformDescriptor{Namespace: namespace, Name: name}
	_, err := c.roundTrip(wire.MessageDelete, safety, desc, nil)
	return err
}

// Write applies the caller's half of the transformation (ClientWrite
// direction, per the object's kind/mode) before sending data, then sends
// it to be stored at offset within namespace/name. The caller supplies
// kind/mode because the thin wire client holds no metadata cache of its
// own; juleactl takes them from its --kind and --mode flags.
func (c *Client) Write(namespace, name string, kind transform.Kind, mode transform.Mode, data []byte, offset uint64, safety wire.Safety) error {
	tr := transform.New(kind, mode)
	out, outLen, outOffset, err := tr.Apply(transform.ClientWrite, data, uint64(len(data)), offset)
	if err != nil {
		return err
	}
	desc := wire.TransformDescriptor{Namespace: namespace, Name: name, Kind: kind, Mode: mode, Offset: outOffset}
	_, err = c.roundTrip(wire.MessageWrite, safety, desc, out[:outLen])
	return err
}

// Read fetches up to length bytes starting at offset within namespace/name,
// then applies the caller's half of the transformation (ClientRead
// direction) to what comes back over the wire.
func (c *Client) Read(namespace, name string, kind transform.Kind, mode transform.Mode, offset, length uint64) ([]byte, error) {
	desc := wire.TransformDescriptor{Namespace: namespace, Name: name, Kind: kind, Mode: mode, Offset: offset, Length: length}
	raw, err := c.roundTrip(wire.MessageRead, wire.SafetyNone, desc, nil)
	if err != nil {
		return nil, err
	}
	tr := transform.New(kind, mode)
	out, outLen, _, err := tr.Apply(transform.ClientRead, raw, uint64(len(raw)), offset)
	if err != nil {
		return nil, err
	}
	return out[:outLen], nil
}

// Status fetches namespace/name's current logical size.
func (c *Client) Status(namespace, name string) (uint64, error) {
	desc := wire.TransformDescriptor{Namespace: namespace, Name: name}
	reply, err := c.roundTrip(wire.MessageStatus, wire.SafetyNone, desc, nil)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, b := range reply {
		n = n<<8 | uint64(b)
	}
	return n, nil
}
