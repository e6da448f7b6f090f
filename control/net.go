package control

import (
	"bufio"
	"encoding/json"
	"net"

	"github.com/pkg/errors"
)

// wireReply is the single-line JSON response to a wire Message.
type wireReply struct {
	Error string `json:"error,omitempty"`
}

// ListenAndServe accepts connections on addr and dispatches one
// newline-delimited JSON Message per line, replying with a wireReply.
// This is netfabd's loopback stand-in for the out-of-scope netlink
// transport (SPEC_FULL.md §1, §4.8).
func ListenAndServe(addr string, d *Dispatcher) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "control: listen")
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return errors.Wrap(err, "control: accept")
		}
		go ServeConn(conn, d)
	}
}

// ServeConn drives the newline-delimited JSON Message protocol on a
// single accepted connection until it is closed or produces invalid
// input. Exported so a daemon that manages its own listener (e.g. one
// multiplexing control and other traffic) can still reuse the protocol.
func ServeConn(conn net.Conn, d *Dispatcher) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			_ = enc.Encode(wireReply{Error: err.Error()})
			continue
		}
		reply := wireReply{}
		if err := d.Dispatch(msg); err != nil {
			reply.Error = err.Error()
		}
		if err := enc.Encode(reply); err != nil {
			return
		}
	}
}

// Client dials a netfabd control address and sends Messages, matching
// netfabctl's one-shot request/reply usage.
type Client struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
}

// Dial connects to addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "control: dial")
	}
	return &Client{conn: conn, enc: json.NewEncoder(conn), dec: json.NewDecoder(conn)}, nil
}

// Send transmits msg and waits for the daemon's reply, returning any
// error the dispatcher reported.
func (c *Client) Send(msg Message) error {
	if err := c.enc.Encode(msg); err != nil {
		return errors.Wrap(err, "control: send")
	}
	var reply wireReply
	if err := c.dec.Decode(&reply); err != nil {
		return errors.Wrap(err, "control: receive reply")
	}
	if reply.Error != "" {
		return errors.New(reply.Error)
	}
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }
